package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/batch"
)

func TestReadSubmissionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.txt")
	if err := os.WriteFile(path, []byte("line one || prompt"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := readSubmission(strings.NewReader("unused"), []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if got != "line one || prompt" {
		t.Fatalf("submission: %q", got)
	}
}

func TestReadSubmissionFromStdin(t *testing.T) {
	got, err := readSubmission(strings.NewReader("stdin script"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "stdin script" {
		t.Fatalf("submission: %q", got)
	}
}

func TestReadSubmissionMissingFile(t *testing.T) {
	if _, err := readSubmission(strings.NewReader(""), []string{"/no/such/script.txt"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestProgressPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	printer := progressPrinter(&buf)
	printer(batch.Progress{Percent: 50, Message: "processed 1 of 2 scenes", Elapsed: "00:10"})

	got := buf.String()
	if !strings.Contains(got, "[ 50%] processed 1 of 2 scenes (00:10)") {
		t.Fatalf("output: %q", got)
	}
	if strings.Contains(got, "\r") {
		t.Fatal("non-terminal output must not use carriage returns")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"run", "status", "report", "scenes", "serve", "config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Fatalf("missing subcommand %q: %v", name, err)
		}
	}
}
