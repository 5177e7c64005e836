// Package timing models word-level speech timestamps and reconciles them with
// the canonical scene text. Alignment runs against synthesized audio, so its
// transcript can drift from the text the user approved; reconciliation maps the
// canonical words onto the aligned time slots without fabricating timestamps.
package timing

import (
	"encoding/json"
	"os"
	"strings"

	"storyreel/internal/services"
)

// Word is one aligned word with its time span in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment groups consecutive words for display. Grouping is presentational;
// downstream logic operates on the flattened word sequence.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Timings is the per-scene alignment payload persisted next to the audio.
type Timings struct {
	Segments []Segment `json:"segments"`
}

// Load reads a persisted alignment payload.
func Load(path string) (Timings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Timings{}, services.Wrap(services.ErrNotFound, "timing", "load", "read alignment", err)
	}
	var timings Timings
	if err := json.Unmarshal(data, &timings); err != nil {
		return Timings{}, services.Wrap(services.ErrValidation, "timing", "load", "corrupt alignment", err)
	}
	return timings, nil
}

// Save persists the payload as JSON.
func Save(path string, timings Timings) error {
	data, err := json.Marshal(timings)
	if err != nil {
		return services.Wrap(services.ErrTransient, "timing", "save", "encode alignment", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "timing", "save", "write alignment", err)
	}
	return nil
}

// Flatten returns every word across all segments in time order.
func (t Timings) Flatten() []Word {
	var words []Word
	for _, seg := range t.Segments {
		words = append(words, seg.Words...)
	}
	return words
}

// WordCount returns the total number of aligned word slots.
func (t Timings) WordCount() int {
	n := 0
	for _, seg := range t.Segments {
		n += len(seg.Words)
	}
	return n
}

// Reconcile rewrites the aligned word texts so they spell out the canonical
// text exactly, preserving the aligned time slots. Canonical words are assigned
// to slots 1:1 in order. When words run out before slots, surplus slots get
// empty text but keep their times. When words outnumber slots, the surplus is
// space-joined onto the last slot rather than inventing timestamps. Each
// segment's display text is recomputed from its words. With zero slots the
// input is returned unchanged; the caption layer handles that degraded case.
func Reconcile(t Timings, canonical string) Timings {
	slots := t.WordCount()
	if slots == 0 {
		return t
	}

	words := strings.Fields(canonical)

	out := Timings{Segments: make([]Segment, len(t.Segments))}
	next := 0
	for i, seg := range t.Segments {
		outSeg := Segment{Start: seg.Start, End: seg.End, Words: make([]Word, len(seg.Words))}
		for j, slot := range seg.Words {
			text := ""
			if next < len(words) {
				text = words[next]
			}
			// Last slot overall absorbs any canonical surplus.
			if next == slots-1 && len(words) > slots {
				text = strings.Join(words[next:], " ")
			}
			outSeg.Words[j] = Word{Word: text, Start: slot.Start, End: slot.End}
			next++
		}
		outSeg.Text = joinWords(outSeg.Words)
		out.Segments[i] = outSeg
	}
	return out
}

func joinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w.Word == "" {
			continue
		}
		parts = append(parts, w.Word)
	}
	return strings.Join(parts, " ")
}
