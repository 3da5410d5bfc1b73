package catalog

import (
	"runtime"
	"strings"
	"testing"
)

func TestLookupKnownTools(t *testing.T) {
	for _, name := range []string{"terraform", "kubectl", "helm", "gh", "buf", "node", "pnpm", "yarn", "just", "jq", "cosign", "age", "moon"} {
		if _, ok := Lookup(name); !ok {
			t.Errorf("expected %s in catalog", name)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("not-a-real-tool"); ok {
		t.Error("expected unknown tool to miss")
	}
}

func TestBuildStripsLeadingV(t *testing.T) {
	built, err := Build("kubectl", "v1.30.0")
	if err != nil {
		t.Fatal(err)
	}
	if built.Version != "1.30.0" {
		t.Errorf("Version = %q, want 1.30.0", built.Version)
	}
	if built.Source != "https://dl.k8s.io/release/v{version}/bin/{os}/{arch}/kubectl" {
		t.Errorf("Source = %q, expected the unrendered kubectl template", built.Source)
	}
}

func TestBuildUnknownToolFails(t *testing.T) {
	if _, err := Build("not-a-real-tool", "1.0.0"); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestTerraformTemplateHasPlaceholders(t *testing.T) {
	def, _ := Lookup("terraform")
	if def.Source.Kind != SourceTemplate {
		t.Fatal("expected terraform to use a literal template")
	}
	for _, placeholder := range []string{"{version}", "{os}", "{arch}"} {
		if !strings.Contains(def.Source.Template, placeholder) {
			t.Errorf("terraform template missing %s", placeholder)
		}
	}
}

func TestNodeSourceWindowsUsesZip(t *testing.T) {
	got := nodeSource("20.11.0")
	want := ".tar.gz"
	if runtime.GOOS == "windows" {
		want = ".zip"
	}
	if !strings.HasSuffix(got, want) {
		t.Errorf("node source %q does not end in %s", got, want)
	}
}

func TestJustSourceHasTriple(t *testing.T) {
	got := justSource("1.25.0")
	if !strings.Contains(got, "just-1.25.0-") {
		t.Errorf("just source missing version prefix: %q", got)
	}
}

func TestVersionAdaptersOnlyOnGitHubOrHashiCorpTools(t *testing.T) {
	def, _ := Lookup("terraform")
	if def.VersionAdapter.Kind != HashiCorpReleases {
		t.Error("expected terraform to use the HashiCorp adapter")
	}
	def, _ = Lookup("helm")
	if def.VersionAdapter.Kind != GitHubReleases || def.VersionAdapter.Owner != "helm" {
		t.Error("expected helm to use the GitHub adapter with owner helm")
	}
	def, _ = Lookup("jq")
	if def.VersionAdapter.Kind != NoAdapter {
		t.Error("expected jq to have no version-index adapter")
	}
}
