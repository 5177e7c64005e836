package captions

import (
	"fmt"
	"math"
	"os"
	"strings"

	"storyreel/internal/services"
)

// StyleOptions selects the canvas and caption styling baked into the subtitle
// header. Width and height are the render canvas in pixels.
type StyleOptions struct {
	Width     int
	Height    int
	Mode      string
	MidScreen bool
}

// Render produces the full ASS document for the cues.
func Render(cues []Cue, opts StyleOptions) string {
	var sb strings.Builder
	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&sb, "PlayResX: %d\n", opts.Width)
	fmt.Fprintf(&sb, "PlayResY: %d\n", opts.Height)
	sb.WriteString("WrapStyle: 0\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, BackColour, Bold, Outline, Shadow, Alignment, MarginL, MarginR, MarginV\n")
	fmt.Fprintf(&sb, "Style: Default,Arial,%d,&H00FFFFFF,&H00000000,&H00000000,1,%d,0,%d,%d,%d,%d\n\n",
		fontSize(opts), outlineWidth(opts), alignment(opts), marginSide(opts), marginSide(opts), marginV(opts))

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, cue := range cues {
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			FormatTime(cue.Start), FormatTime(cue.End), escapeText(cue.Text))
	}
	return sb.String()
}

// WriteFile renders the cues and writes the subtitle artifact.
func WriteFile(path string, cues []Cue, opts StyleOptions) error {
	if err := os.WriteFile(path, []byte(Render(cues, opts)), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "captions", "write", "write subtitle file", err)
	}
	return nil
}

// FormatTime encodes seconds as the H:MM:SS.cc timestamp ASS expects.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(math.Round(seconds * 100))
	h := centis / 360000
	m := centis / 6000 % 60
	s := centis / 100 % 60
	cc := centis % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cc)
}

func fontSize(opts StyleOptions) int {
	portrait := opts.Height > opts.Width
	switch {
	case opts.Mode == ModeDynamic && portrait:
		return 120
	case opts.Mode == ModeDynamic:
		return 96
	case portrait:
		return 84
	default:
		return 64
	}
}

func outlineWidth(opts StyleOptions) int {
	if opts.Mode == ModeDynamic {
		return 4
	}
	return 3
}

func alignment(opts StyleOptions) int {
	if opts.MidScreen || opts.Mode == ModeDynamic {
		return 5
	}
	return 2
}

func marginSide(opts StyleOptions) int {
	if opts.Height > opts.Width {
		return 40
	}
	return 60
}

func marginV(opts StyleOptions) int {
	if opts.MidScreen || opts.Mode == ModeDynamic {
		return 0
	}
	if opts.Height > opts.Width {
		return 260
	}
	return 90
}

func escapeText(text string) string {
	return strings.ReplaceAll(text, "\n", "\\N")
}
