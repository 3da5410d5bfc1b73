package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/codyspate/tool-locker/internal/manifest"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlk.lock")

	lf := New(map[string]LockEntry{
		"terraform": {Version: "1.9.0", Source: "https://example.com/terraform"},
	})
	if err := lf.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected non-nil lock")
	}
	if loaded.Tools["terraform"].Version != "1.9.0" {
		t.Errorf("unexpected entry: %+v", loaded.Tools["terraform"])
	}
	if loaded.Schema != CurrentSchema {
		t.Errorf("Schema = %d, want %d", loaded.Schema, CurrentSchema)
	}
}

func TestLoadMissingFileReturnsNil(t *testing.T) {
	lf, err := Load(filepath.Join(t.TempDir(), "tlk.lock"))
	if err != nil {
		t.Fatal(err)
	}
	if lf != nil {
		t.Error("expected nil lock for missing file")
	}
}

func TestLoadLegacyArraySchemaUpgrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlk.lock")
	legacy := `generated = 2024-01-01T00:00:00Z
schema = 1

[[tools]]
name = "terraform"
version = "1.8.0"
source = "https://example.com/terraform"
`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	lf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if lf == nil || len(lf.Tools) != 1 {
		t.Fatalf("expected 1 tool after upgrade, got %+v", lf)
	}
	if lf.Schema != CurrentSchema {
		t.Errorf("expected upgraded schema %d, got %d", CurrentSchema, lf.Schema)
	}
}

func TestLoadUnsupportedSchemaFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlk.lock")
	if err := os.WriteFile(path, []byte("not = [valid, toml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestToLockedEntryBuildsMatrixWhenTemplateHasPlaceholders(t *testing.T) {
	_, entry := ToLockedEntry("terraform", "1.9.0", "", "https://example.com/1.9.0/linux/amd64/terraform",
		"https://example.com/{version}/{os}/{arch}/terraform", "", "")
	if len(entry.Sources) != 6 {
		t.Fatalf("expected 6 platform entries, got %d", len(entry.Sources))
	}
	if entry.Sources["darwin-arm64"] == "" {
		t.Error("expected darwin-arm64 entry")
	}
}

func TestToLockedEntryOmitsMatrixWithoutPlaceholders(t *testing.T) {
	_, entry := ToLockedEntry("mytool", "1.0.0", "", "https://example.com/mytool", "https://example.com/mytool", "", "")
	if entry.Sources != nil {
		t.Error("expected no sources matrix for a template without {os}/{arch}")
	}
}

func TestNormalizeVersionExact(t *testing.T) {
	exact, requested := NormalizeVersion("1.9.0")
	if exact != "1.9.0" || requested != "" {
		t.Errorf("got (%q, %q)", exact, requested)
	}
}

func TestNormalizeVersionRange(t *testing.T) {
	exact, requested := NormalizeVersion("^1.9.0")
	if exact != "1.9.0" || requested != "^1.9.0" {
		t.Errorf("got (%q, %q)", exact, requested)
	}
}

func TestIsRange(t *testing.T) {
	if IsRange("1.9.0") {
		t.Error("exact version should not be a range")
	}
	if !IsRange("^1.9.0") {
		t.Error("caret spec should be a range")
	}
}

func TestRangeSatisfies(t *testing.T) {
	if !RangeSatisfies("^1.9.0", "1.9.5") {
		t.Error("expected 1.9.5 to satisfy ^1.9.0")
	}
	if RangeSatisfies("^1.9.0", "2.0.0") {
		t.Error("expected 2.0.0 to not satisfy ^1.9.0")
	}
}

func TestVerifyMissingToolFails(t *testing.T) {
	m := &manifest.Manifest{Tools: []manifest.Tool{{Name: "terraform", Version: "1.9.0"}}}
	lock := New(map[string]LockEntry{})
	err := Verify(m, lock, func(t manifest.Tool, v string) string { return "" }, nil, nil)
	if err == nil {
		t.Error("expected missing-from-lock error")
	}
}

func TestVerifyRangeSatisfiedPasses(t *testing.T) {
	m := &manifest.Manifest{Tools: []manifest.Tool{{Name: "terraform", Version: "^1.9.0"}}}
	lock := New(map[string]LockEntry{"terraform": {Version: "1.9.5", Source: "https://example.com"}})
	err := Verify(m, lock, func(t manifest.Tool, v string) string { return "https://example.com" }, nil, nil)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVerifyWarnsOnExtraLockTool(t *testing.T) {
	m := &manifest.Manifest{Tools: []manifest.Tool{{Name: "terraform", Version: "1.9.0"}}}
	lock := New(map[string]LockEntry{
		"terraform": {Version: "1.9.0", Source: "https://example.com"},
		"extra":     {Version: "1.0.0", Source: "https://example.com/extra"},
	})
	var warned string
	err := Verify(m, lock, func(t manifest.Tool, v string) string { return "https://example.com" }, nil, func(msg string) { warned = msg })
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if warned == "" {
		t.Error("expected a warning about the extra lock tool")
	}
}

func TestVerifyDigestMismatchFails(t *testing.T) {
	m := &manifest.Manifest{Tools: []manifest.Tool{{Name: "terraform", Version: "1.9.0"}}}
	lock := New(map[string]LockEntry{"terraform": {Version: "1.9.0", Source: "https://example.com", Digest: "abc123"}})
	digest := func(t manifest.Tool) (string, error) { return "def456", nil }
	err := Verify(m, lock, func(t manifest.Tool, v string) string { return "https://example.com" }, digest, nil)
	if err == nil {
		t.Error("expected digest mismatch error")
	}
}

func TestVerifySkipsDigestWhenBinaryAbsent(t *testing.T) {
	m := &manifest.Manifest{Tools: []manifest.Tool{{Name: "terraform", Version: "1.9.0"}}}
	lock := New(map[string]LockEntry{"terraform": {Version: "1.9.0", Source: "https://example.com", Digest: "abc123"}})
	digest := func(t manifest.Tool) (string, error) { return "", fmt.Errorf("binary not found") }
	err := Verify(m, lock, func(t manifest.Tool, v string) string { return "https://example.com" }, digest, nil)
	if err != nil {
		t.Errorf("unexpected error when binary is absent: %v", err)
	}
}

func TestDiagnoseMissingPlatforms(t *testing.T) {
	lock := New(map[string]LockEntry{
		"terraform": {Version: "1.9.0", Sources: map[string]string{"linux-amd64": "x"}},
		"custom":    {Version: "1.0.0"},
	})
	missing, legacyOrCustom := DiagnoseMissingPlatforms(lock)
	if len(missing) != 5 {
		t.Errorf("expected 5 missing entries, got %d: %+v", len(missing), missing)
	}
	if len(legacyOrCustom) != 1 || legacyOrCustom[0] != "custom" {
		t.Errorf("expected 'custom' reported as legacy/custom, got %v", legacyOrCustom)
	}
}
