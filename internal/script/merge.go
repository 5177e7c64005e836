package script

import (
	"regexp"
	"strconv"
	"strings"

	"storyreel/internal/services"
)

// AudioResetMarker is the literal token that forces re-synthesis of every
// scene's speech audio. It may appear on any line of a submission.
const AudioResetMarker = "*AUDIO"

// MergeKind tags the typed merge command decided from a submission.
type MergeKind string

const (
	// MergeReset replaces the project outright and clears all artifacts.
	MergeReset MergeKind = "reset"
	// MergePatch edits individual scenes addressed by their 1-based number.
	MergePatch MergeKind = "patch"
	// MergeResume replaces line content, relying on artifact diffing to
	// decide what is regenerated.
	MergeResume MergeKind = "resume"
	// MergeAudioReset keeps the stored script but forces re-synthesis of
	// every scene's speech audio. Decided when a submission carries only
	// the audio reset marker.
	MergeAudioReset MergeKind = "audio_reset"
)

// Edit is one index-addressed scene replacement inside a patch submission.
type Edit struct {
	Scene int
	Line  Line
}

// MergeRequest is the typed command handed to the store. Exactly one of Lines
// (reset/resume) or Edits (patch) is populated.
type MergeRequest struct {
	Kind       MergeKind
	Lines      []Line
	Edits      []Edit
	AudioReset bool
}

// Scene numbers in patches look like "12. text", "12- text", "12) text" or
// "12 text".
var patchPattern = regexp.MustCompile(`^(\d+)[.\-)\s]+(.*)`)

// Decide classifies a raw submission into a merge request. resume reports the
// caller's intent to extend an existing project rather than start a new one.
// Classification is purely textual; bounds and safety checks that depend on
// the stored project happen in Store.Apply.
func Decide(submission string, resume bool) (MergeRequest, error) {
	var req MergeRequest

	rawLines := strings.Split(strings.ReplaceAll(submission, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(rawLines))
	for _, raw := range rawLines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if strings.Contains(trimmed, AudioResetMarker) {
			req.AudioReset = true
			continue
		}
		lines = append(lines, trimmed)
	}

	if len(lines) == 0 {
		if req.AudioReset {
			req.Kind = MergeAudioReset
			return req, nil
		}
		return req, services.Wrap(services.ErrConfiguration, "script", "decide", "empty submission", nil)
	}

	edits := make([]Edit, 0, len(lines))
	for _, line := range lines {
		match := patchPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		scene, err := strconv.Atoi(match[1])
		if err != nil || scene < 1 {
			continue
		}
		edits = append(edits, Edit{Scene: scene, Line: ParseLine(strings.TrimSpace(match[2]))})
	}

	if len(edits) > 0 {
		// Unmarked lines in a patch submission are deliberately ignored.
		req.Kind = MergePatch
		req.Edits = edits
		return req, nil
	}

	parsed := make([]Line, 0, len(lines))
	for _, line := range lines {
		parsed = append(parsed, ParseLine(line))
	}
	req.Lines = parsed

	if resume {
		req.Kind = MergeResume
	} else {
		req.Kind = MergeReset
	}
	return req, nil
}
