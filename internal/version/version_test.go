package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
)

func TestResolveExactSemverShortCircuits(t *testing.T) {
	r := NewResolver(http.DefaultClient, nil)
	got, err := r.Resolve(context.Background(), "terraform", "1.9.0")
	if err != nil {
		t.Fatal(err)
	}
	if got != "1.9.0" {
		t.Errorf("got %q, want 1.9.0", got)
	}
}

func TestResolveOrClausePicksGreatest(t *testing.T) {
	r := NewResolver(http.DefaultClient, nil)
	got, err := r.Resolve(context.Background(), "terraform", "1.8.0 || 1.9.0")
	if err != nil {
		t.Fatal(err)
	}
	if got != "1.9.0" {
		t.Errorf("got %q, want 1.9.0", got)
	}
}

func TestResolveUnresolvableSpecFails(t *testing.T) {
	r := NewResolver(http.DefaultClient, nil)
	_, err := r.Resolve(context.Background(), "unknown-tool-xyz", "^1.0.0")
	if err == nil {
		t.Fatal("expected error for spec requiring a list fetch on an unknown tool")
	}
}

func TestFetchHashiCorpListParsesDirectoryListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/terraform/1.9.0/">1.9.0</a>
			<a href="/terraform/1.8.5/">1.8.5</a>
			<a href="/terraform/../">..</a>
		</body></html>`))
	}))
	defer server.Close()

	r := NewResolver(http.DefaultClient, nil)
	versions, err := r.fetchHashiCorpListAt(context.Background(), server.URL, "terraform")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %v", versions)
	}
}

func TestIsDottedVersion(t *testing.T) {
	cases := map[string]bool{
		"1.9.0":  true,
		"1.9":    false,
		"latest": false,
		"1.9.0a": false,
	}
	for in, want := range cases {
		if got := isDottedVersion(in); got != want {
			t.Errorf("isDottedVersion(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizedWildcardAppendsDotX(t *testing.T) {
	normalized := strings.ReplaceAll("1.9", "*", "x")
	if normalized != "1.9" {
		t.Fatal("sanity check failed")
	}

	// "1.9" is a partial, so it resolves as the range 1.9.x rather than
	// as the exact version 1.9.0.
	r := NewResolver(http.DefaultClient, nil)
	r.cache["terraform"] = []*semver.Version{
		semver.MustParse("1.9.3"),
		semver.MustParse("1.9.0"),
		semver.MustParse("1.8.0"),
	}
	got, err := r.Resolve(context.Background(), "terraform", "1.9")
	if err != nil {
		t.Fatal(err)
	}
	if got != "1.9.3" {
		t.Errorf("got %q, want 1.9.3", got)
	}
}
