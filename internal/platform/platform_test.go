package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalOS(t *testing.T) {
	cases := map[string]string{"macos": "darwin", "darwin": "darwin", "linux": "linux", "windows": "windows"}
	for in, want := range cases {
		if got := CanonicalOS(in); got != want {
			t.Errorf("CanonicalOS(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalArch(t *testing.T) {
	cases := map[string]string{"x86_64": "amd64", "amd64": "amd64", "aarch64": "arm64", "arm64": "arm64"}
	for in, want := range cases {
		if got := CanonicalArch(in); got != want {
			t.Errorf("CanonicalArch(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSynonymArch(t *testing.T) {
	if got := SynonymArch("amd64"); got != "x86_64" {
		t.Errorf("SynonymArch(amd64) = %q, want x86_64", got)
	}
	if got := SynonymArch("arm64"); got != "aarch64" {
		t.Errorf("SynonymArch(arm64) = %q, want aarch64", got)
	}
}

func TestUnixCandidateArchiveEntryNames(t *testing.T) {
	p := unixPlatform{}
	names := p.CandidateArchiveEntryNames("helm")
	found := false
	for _, n := range names {
		if n == "helm" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bare base name among candidates, got %v", names)
	}
}

func TestWindowsFinalBinaryName(t *testing.T) {
	p := windowsPlatform{}
	if got := p.FinalBinaryName("kubectl"); got != "kubectl.exe" {
		t.Errorf("FinalBinaryName(kubectl) = %q, want kubectl.exe", got)
	}
	if got := p.FinalBinaryName("kubectl.exe"); got != "kubectl.exe" {
		t.Errorf("FinalBinaryName(kubectl.exe) = %q, want kubectl.exe", got)
	}
}

func TestWindowsAdjustDirectURL(t *testing.T) {
	p := windowsPlatform{}
	if got := p.AdjustDirectURL("https://dl.k8s.io/release/v1/bin/windows/amd64/kubectl"); got != "https://dl.k8s.io/release/v1/bin/windows/amd64/kubectl.exe" {
		t.Errorf("AdjustDirectURL appended wrong suffix: %q", got)
	}
	if got := p.AdjustDirectURL("https://example.com/tool.zip"); got != "https://example.com/tool.zip" {
		t.Errorf("AdjustDirectURL should not touch .zip: %q", got)
	}
}

func TestMakeExecutable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bin")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := unixPlatform{}
	if err := p.MakeExecutable(file); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o111 == 0 {
		t.Errorf("expected executable bit set, got mode %v", info.Mode())
	}
}
