package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendIfMissingWritesSnippetOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".bashrc")
	if err := os.WriteFile(path, []byte("export FOO=bar\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := appendIfMissing(path, evalLine); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(first), "tlk hook") {
		t.Fatalf("expected eval line to be appended, got:\n%s", first)
	}

	if err := appendIfMissing(path, evalLine); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(second), "tlk hook") != strings.Count(string(first), "tlk hook") {
		t.Error("expected appendIfMissing to be idempotent")
	}
}

func TestAppendIfMissingCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.fish")
	if err := appendIfMissing(path, evalLine); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to be created: %v", err)
	}
}
