// Package captions turns timestamped word sequences into subtitle cues and
// renders them as ASS markup. Two bucketing modes exist: dynamic emits one cue
// per word for karaoke-style captions, static accumulates words into blocks
// under a character budget with punctuation-aware breaks.
package captions

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storyreel/internal/timing"
)

// Mode names for configuration.
const (
	ModeStatic  = "static"
	ModeDynamic = "dynamic"
)

// DefaultMaxChars is the static-mode character budget per cue.
const DefaultMaxChars = 85

// Cue is one subtitle display unit.
type Cue struct {
	Text  string
	Start float64
	End   float64
}

// Bucketer converts reconciled word timings into cues.
type Bucketer struct {
	Mode     string
	MaxChars int

	upper cases.Caser
}

// NewBucketer returns a bucketer for the given mode. A non-positive budget
// falls back to the default.
func NewBucketer(mode string, maxChars int) *Bucketer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Bucketer{Mode: mode, MaxChars: maxChars, upper: cases.Upper(language.Und)}
}

// Bucket produces the cue sequence for one scene. When the timings carry no
// word slots but do carry segment spans, one cue per segment is emitted
// verbatim as a degraded fallback.
func (b *Bucketer) Bucket(t timing.Timings) []Cue {
	words := nonEmptyWords(t)
	if len(words) == 0 {
		return segmentFallback(t)
	}
	if b.Mode == ModeDynamic {
		return b.bucketDynamic(words)
	}
	return b.bucketStatic(words)
}

func nonEmptyWords(t timing.Timings) []timing.Word {
	var words []timing.Word
	for _, w := range t.Flatten() {
		if strings.TrimSpace(w.Word) != "" {
			words = append(words, w)
		}
	}
	return words
}

func segmentFallback(t timing.Timings) []Cue {
	var cues []Cue
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{Text: text, Start: seg.Start, End: seg.End})
	}
	return cues
}

func (b *Bucketer) bucketDynamic(words []timing.Word) []Cue {
	var cues []Cue
	for _, w := range words {
		text := b.upper.String(stripPunctuation(w.Word))
		if text == "" {
			continue
		}
		cues = append(cues, Cue{Text: text, Start: w.Start, End: w.End})
	}
	return cues
}

func (b *Bucketer) bucketStatic(words []timing.Word) []Cue {
	var cues []Cue
	var buf strings.Builder
	var start, end float64
	capitalizeNext := true

	for i, w := range words {
		if buf.Len() == 0 {
			start = w.Start
		} else {
			buf.WriteByte(' ')
		}
		buf.WriteString(w.Word)
		end = w.End

		last := i == len(words)-1
		comma := strings.HasSuffix(w.Word, ",")
		sentence := endsSentence(w.Word)
		overBudget := buf.Len() > b.MaxChars
		// Lookahead: a budget break just before a sentence-final word would
		// strand that word alone in its own cue. Let it join this one.
		if overBudget && !last && !comma && !sentence && endsSentence(words[i+1].Word) {
			overBudget = false
		}

		if !last && !comma && !sentence && !overBudget {
			continue
		}

		text := buf.String()
		if capitalizeNext {
			text = capitalize(text)
		}
		if last && !endsSentence(text) {
			text += "."
		}
		cues = append(cues, Cue{Text: text, Start: start, End: end})
		buf.Reset()
		// A sentence boundary starts a fresh sentence; comma and budget
		// breaks continue mid-sentence in lowercase.
		capitalizeNext = sentence
	}
	return cues
}

func endsSentence(word string) bool {
	runes := []rune(word)
	if len(runes) == 0 {
		return false
	}
	switch runes[len(runes)-1] {
	case '.', '?', '!', '"':
		return true
	}
	return false
}

func stripPunctuation(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, word)
}

func capitalize(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
