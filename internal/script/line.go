package script

import "strings"

// Delimiter separates spoken text from the visual prompt in a source line.
const Delimiter = "||"

// Line is one scene's source: the narration to synthesize and the image
// prompt to render. Identity is positional; the struct carries content only.
type Line struct {
	Spoken string `json:"spoken"`
	Visual string `json:"visual"`
}

// ParseLine splits a raw source line on the delimiter. Lines without a
// delimiter keep everything as spoken text and an empty visual prompt; the
// scene worker rejects such scenes when image generation is required.
func ParseLine(raw string) Line {
	spoken, visual, found := strings.Cut(raw, Delimiter)
	line := Line{Spoken: strings.TrimSpace(spoken)}
	if found {
		line.Visual = strings.TrimSpace(visual)
	}
	return line
}

// Raw reassembles the source form of the line.
func (l Line) Raw() string {
	if l.Visual == "" {
		return l.Spoken
	}
	return l.Spoken + " " + Delimiter + " " + l.Visual
}
