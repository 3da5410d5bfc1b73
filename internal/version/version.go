// Package version resolves known-tool version specs ("latest", a
// semver range, or an exact version) against each tool's upstream
// release index.
package version

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"
	"golang.org/x/net/html"

	"github.com/codyspate/tool-locker/internal/catalog"
	"github.com/codyspate/tool-locker/internal/errmsg"
	tlog "github.com/codyspate/tool-locker/internal/log"
)

// Resolver fetches and memoizes each known tool's release list for the
// lifetime of the process, then resolves version specs against it.
type Resolver struct {
	httpClient *http.Client
	gh         *github.Client
	logger     tlog.Logger

	mu    sync.Mutex
	cache map[string][]*semver.Version
}

// NewResolver builds a Resolver backed by httpClient for both
// HashiCorp-style directory scraping and (wrapped by go-github) GitHub
// releases. Callers wanting authenticated GitHub requests should pass
// an httpClient produced by golang.org/x/oauth2 with a GITHUB_TOKEN.
func NewResolver(httpClient *http.Client, logger tlog.Logger) *Resolver {
	if logger == nil {
		logger = tlog.NewNoop()
	}
	gh := github.NewClient(httpClient)
	gh.UserAgent = "tlk"
	return &Resolver{
		httpClient: httpClient,
		gh:         gh,
		logger:     logger,
		cache:      make(map[string][]*semver.Version),
	}
}

// FetchLatest returns the highest known version for name.
func (r *Resolver) FetchLatest(ctx context.Context, name string) (string, error) {
	all, err := r.FetchAllVersions(ctx, name)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", &errmsg.ResolutionError{Tool: name, Spec: "latest", Err: fmt.Errorf("no versions found for %s", name)}
	}
	return all[0].String(), nil
}

// FetchAllVersions returns name's known versions, strictly descending,
// with pre-releases and unparseable tags discarded. The result is
// memoized for the life of the Resolver.
func (r *Resolver) FetchAllVersions(ctx context.Context, name string) ([]*semver.Version, error) {
	r.mu.Lock()
	if cached, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	def, ok := catalog.Lookup(name)
	if !ok {
		return nil, &errmsg.ResolutionError{Tool: name, Err: fmt.Errorf("unknown known tool '%s'", name)}
	}

	var raw []string
	var err error
	switch def.VersionAdapter.Kind {
	case catalog.HashiCorpReleases:
		raw, err = r.fetchHashiCorpList(ctx, def.VersionAdapter.Tool)
	case catalog.GitHubReleases:
		raw, err = r.fetchGitHubList(ctx, def.VersionAdapter.Owner, def.VersionAdapter.Repo)
	default:
		return nil, &errmsg.ResolutionError{Tool: name, Err: fmt.Errorf("version listing unsupported for %s", name)}
	}
	if err != nil {
		return nil, err
	}

	parsed := make([]*semver.Version, 0, len(raw))
	for _, s := range raw {
		v, err := semver.NewVersion(s)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
	}
	sort.Sort(sort.Reverse(bySemver(parsed)))

	r.mu.Lock()
	r.cache[name] = parsed
	r.mu.Unlock()
	return parsed, nil
}

type bySemver []*semver.Version

func (b bySemver) Len() int           { return len(b) }
func (b bySemver) Less(i, j int) bool { return b[i].LessThan(b[j]) }
func (b bySemver) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

// fetchHashiCorpList scrapes the releases.hashicorp.com directory
// listing for tool, returning the X.Y.Z version segments it links to.
func (r *Resolver) fetchHashiCorpList(ctx context.Context, tool string) ([]string, error) {
	return r.fetchHashiCorpListAt(ctx, "https://releases.hashicorp.com", tool)
}

// fetchHashiCorpListAt is fetchHashiCorpList parameterized over the base
// URL, so tests can point it at an httptest.Server.
func (r *Resolver) fetchHashiCorpListAt(ctx context.Context, base, tool string) ([]string, error) {
	url := fmt.Sprintf("%s/%s/", base, tool)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errmsg.NetworkError{Tool: tool, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "tlk")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &errmsg.NetworkError{Tool: tool, URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errmsg.NetworkError{Tool: tool, URL: url, Err: fmt.Errorf("download failed %d", resp.StatusCode)}
	}

	prefix := "/" + tool + "/"
	seen := make(map[string]bool)
	var versions []string

	tokenizer := html.NewTokenizer(resp.Body)
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key != "href" {
				continue
			}
			href := attr.Val
			if !strings.HasPrefix(href, prefix) || !strings.HasSuffix(href, "/") {
				continue
			}
			seg := strings.TrimSuffix(strings.TrimPrefix(href, prefix), "/")
			if seg == "" || strings.Contains(seg, "/") {
				continue
			}
			if !isDottedVersion(seg) {
				continue
			}
			if !seen[seg] {
				seen[seg] = true
				versions = append(versions, seg)
			}
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func isDottedVersion(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// fetchGitHubList lists up to 100 releases of owner/repo, skipping
// pre-releases and stripping a leading 'v' from each tag.
func (r *Resolver) fetchGitHubList(ctx context.Context, owner, repo string) ([]string, error) {
	releases, _, err := r.gh.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, &errmsg.NetworkError{Tool: repo, URL: fmt.Sprintf("https://api.github.com/repos/%s/%s/releases", owner, repo), Err: err}
	}
	seen := make(map[string]bool)
	var out []string
	for _, rel := range releases {
		if rel.GetPrerelease() {
			continue
		}
		tag := rel.GetTagName()
		if tag == "" {
			continue
		}
		norm := strings.TrimPrefix(tag, "v")
		if !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Resolve implements the spec's seven-step version resolution
// algorithm: exact semver short-circuit, OR-clause recursion, hyphen
// range rewrite, wildcard/partial normalization, constraint scan over
// the descending list, string-prefix fallback, and final failure.
func (r *Resolver) Resolve(ctx context.Context, name, spec string) (string, error) {
	if v, err := semver.StrictNewVersion(spec); err == nil {
		return v.String(), nil
	}

	if strings.Contains(spec, "||") {
		var best *semver.Version
		for _, clause := range strings.Split(spec, "||") {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			resolved, err := r.Resolve(ctx, name, clause)
			if err != nil {
				continue
			}
			v, err := semver.NewVersion(resolved)
			if err != nil {
				continue
			}
			if best == nil || v.GreaterThan(best) {
				best = v
			}
		}
		if best != nil {
			return best.String(), nil
		}
	}

	if strings.Contains(spec, "-") && strings.Contains(spec, " ") {
		if a, b, ok := splitHyphenRange(spec); ok {
			rewritten := fmt.Sprintf(">=%s <=%s", a, b)
			if resolved, err := r.Resolve(ctx, name, rewritten); err == nil {
				return resolved, nil
			}
		}
	}

	normalized := strings.ReplaceAll(spec, "*", "x")
	if _, err := semver.StrictNewVersion(normalized); err != nil {
		dots := strings.Count(normalized, ".")
		hasWildcard := strings.ContainsAny(normalized, "x^~")
		if dots == 1 && !hasWildcard {
			normalized += ".x"
		} else if dots == 0 && isAllDigits(normalized) {
			normalized += ".x"
		}
	}

	all, err := r.FetchAllVersions(ctx, name)
	if err != nil {
		return "", err
	}

	if constraint, err := semver.NewConstraint(normalized); err == nil {
		for _, v := range all {
			if constraint.Check(v) {
				return v.String(), nil
			}
		}
	}

	for _, v := range all {
		if strings.HasPrefix(v.String(), spec) {
			return v.String(), nil
		}
	}

	return "", &errmsg.ResolutionError{Tool: name, Spec: spec, Err: fmt.Errorf("cannot resolve version spec '%s' for %s", spec, name)}
}

func splitHyphenRange(spec string) (a, b string, ok bool) {
	idx := strings.Index(spec, "-")
	if idx < 0 {
		return "", "", false
	}
	a = strings.TrimSpace(spec[:idx])
	b = strings.TrimSpace(spec[idx+1:])
	if a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
