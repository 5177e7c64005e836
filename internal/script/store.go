package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"storyreel/internal/fileutil"
	"storyreel/internal/services"
)

// FileName is the script store's file inside the project directory.
const FileName = "script.json"

// MergeOutcome describes what a merge did so the pipeline can delete the
// artifacts it invalidated. Scene numbers are 1-based.
type MergeOutcome struct {
	Kind MergeKind
	// Lines is the stored script after the merge.
	Lines []Line
	// PatchedScenes lists the scenes whose content a patch replaced.
	PatchedScenes []int
	// ResetArtifacts is true when every scene artifact must be cleared.
	ResetArtifacts bool
	// AudioReset is true when every scene's audio and composed clip must be
	// cleared regardless of whether its content changed.
	AudioReset bool
}

// Store persists the ordered scene lines as JSON under the project directory.
type Store struct {
	path string
}

// NewStore returns a store rooted at the given project directory.
func NewStore(projectDir string) *Store {
	return &Store{path: filepath.Join(projectDir, FileName)}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the stored script. A missing file is an empty project.
func (s *Store) Load() ([]Line, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransient, "script", "load", "read store", err)
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, services.Wrap(services.ErrValidation, "script", "load", "corrupt store", err)
	}
	return lines, nil
}

// Save writes the script atomically so a crash never leaves a torn store.
func (s *Store) Save(lines []Line) error {
	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "script", "save", "encode store", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "script", "save", "create project dir", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "script", "save", "write store", err)
	}
	return nil
}

// Apply merges the request into the stored script and persists the result.
// resumeGuard is the scene count below which a resume submission against a
// larger stored project is refused, protecting finished work from an
// accidentally truncated paste. On any error the store is left unchanged.
func (s *Store) Apply(req MergeRequest, resumeGuard int) (MergeOutcome, error) {
	stored, err := s.Load()
	if err != nil {
		return MergeOutcome{}, err
	}

	outcome := MergeOutcome{Kind: req.Kind, AudioReset: req.AudioReset}

	switch req.Kind {
	case MergeAudioReset:
		// Marker-only submission: keep the script, clear all audio.
		if len(stored) == 0 {
			return MergeOutcome{}, services.Wrap(services.ErrConfiguration, "script", "merge", "no prior project to reset audio for", nil)
		}
		outcome.Lines = stored
		outcome.AudioReset = true
		return outcome, nil

	case MergePatch:
		if len(stored) == 0 {
			return MergeOutcome{}, services.Wrap(services.ErrConfiguration, "script", "merge", "patch submitted against an empty project", nil)
		}
		patched := make([]int, 0, len(req.Edits))
		next := append([]Line(nil), stored...)
		for _, edit := range req.Edits {
			// Out-of-bounds indexes are skipped; the in-bounds edits still apply.
			if edit.Scene < 1 || edit.Scene > len(stored) {
				continue
			}
			next[edit.Scene-1] = edit.Line
			patched = append(patched, edit.Scene)
		}
		sort.Ints(patched)
		patched = dedupe(patched)
		if err := s.Save(next); err != nil {
			return MergeOutcome{}, err
		}
		outcome.Lines = next
		outcome.PatchedScenes = patched
		return outcome, nil

	case MergeResume:
		if len(stored) > resumeGuard && len(req.Lines) < resumeGuard {
			return MergeOutcome{}, services.Wrap(services.ErrValidation, "script", "merge",
				fmt.Sprintf("refusing resume: %d submitted lines would replace a %d scene project", len(req.Lines), len(stored)), nil)
		}
		if err := s.Save(req.Lines); err != nil {
			return MergeOutcome{}, err
		}
		outcome.Lines = req.Lines
		return outcome, nil

	case MergeReset:
		if err := s.Save(req.Lines); err != nil {
			return MergeOutcome{}, err
		}
		outcome.Lines = req.Lines
		outcome.ResetArtifacts = true
		return outcome, nil

	default:
		return MergeOutcome{}, services.Wrap(services.ErrValidation, "script", "merge", "unknown merge kind "+string(req.Kind), nil)
	}
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
