package timing

import (
	"path/filepath"
	"reflect"
	"testing"
)

func slots(times ...float64) []Word {
	words := make([]Word, 0, len(times)/2)
	for i := 0; i+1 < len(times); i += 2 {
		words = append(words, Word{Word: "aligned", Start: times[i], End: times[i+1]})
	}
	return words
}

func TestReconcileExactFit(t *testing.T) {
	in := Timings{Segments: []Segment{
		{Start: 0, End: 1.2, Words: slots(0, 0.5, 0.5, 1.2)},
	}}
	out := Reconcile(in, "hello world")
	got := out.Flatten()
	if got[0].Word != "hello" || got[1].Word != "world" {
		t.Fatalf("words: %+v", got)
	}
	if got[0].Start != 0 || got[1].End != 1.2 {
		t.Fatalf("times changed: %+v", got)
	}
	if out.Segments[0].Text != "hello world" {
		t.Fatalf("segment text: %q", out.Segments[0].Text)
	}
}

func TestReconcileOverflowJoinsIntoLastSlot(t *testing.T) {
	in := Timings{Segments: []Segment{
		{Words: slots(0, 1, 1, 2, 2, 3)},
	}}
	out := Reconcile(in, "one two three four five")
	got := out.Flatten()
	if got[0].Word != "one" || got[1].Word != "two" {
		t.Fatalf("leading words: %+v", got)
	}
	if got[2].Word != "three four five" {
		t.Fatalf("overflow slot: %q", got[2].Word)
	}
	if got[2].Start != 2 || got[2].End != 3 {
		t.Fatalf("overflow slot times changed: %+v", got[2])
	}
}

func TestReconcileShortfallBlanksSurplusSlots(t *testing.T) {
	in := Timings{Segments: []Segment{
		{Words: slots(0, 1, 1, 2, 2, 3, 3, 4)},
	}}
	out := Reconcile(in, "only two")
	got := out.Flatten()
	if got[0].Word != "only" || got[1].Word != "two" {
		t.Fatalf("assigned words: %+v", got)
	}
	for i := 2; i < 4; i++ {
		if got[i].Word != "" {
			t.Fatalf("slot %d not blanked: %q", i, got[i].Word)
		}
		if got[i].Start != float64(i) || got[i].End != float64(i+1) {
			t.Fatalf("slot %d times changed: %+v", i, got[i])
		}
	}
	if out.Segments[0].Text != "only two" {
		t.Fatalf("segment text: %q", out.Segments[0].Text)
	}
}

func TestReconcileSpansSegments(t *testing.T) {
	in := Timings{Segments: []Segment{
		{Words: slots(0, 1, 1, 2)},
		{Words: slots(2, 3)},
	}}
	out := Reconcile(in, "uno dos tres")
	if out.Segments[0].Text != "uno dos" {
		t.Fatalf("first segment: %q", out.Segments[0].Text)
	}
	if out.Segments[1].Text != "tres" {
		t.Fatalf("second segment: %q", out.Segments[1].Text)
	}
}

func TestReconcileZeroSlotsIsNoOp(t *testing.T) {
	in := Timings{Segments: []Segment{{Start: 0, End: 2, Text: "silence"}}}
	out := Reconcile(in, "some canonical text")
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("zero-slot reconcile must be a no-op: %+v", out)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio_001.json")
	in := Timings{Segments: []Segment{
		{Start: 0, End: 1, Text: "hola", Words: []Word{{Word: "hola", Start: 0, End: 1}}},
	}}
	if err := Save(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error")
	}
}
