// Package lockfile manages tlk.lock, the pinned-version record written
// after a successful install and checked by verify.
package lockfile

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/codyspate/tool-locker/internal/buildinfo"
	"github.com/codyspate/tool-locker/internal/errmsg"
	"github.com/codyspate/tool-locker/internal/manifest"
	"github.com/codyspate/tool-locker/internal/platform"
)

// CurrentSchema is the lock schema version this package writes.
const CurrentSchema = 3

var platformOSes = []string{"linux", "darwin", "windows"}
var platformArches = []string{"amd64", "arm64"}

// LockFile is the v3 on-disk schema: a map of tool name to LockEntry.
type LockFile struct {
	Generated  time.Time            `toml:"generated"`
	TLKVersion string               `toml:"tlk_version"`
	Schema     int                  `toml:"schema"`
	Tools      map[string]LockEntry `toml:"tools"`
}

// LockEntry is one tool's pinned install record.
type LockEntry struct {
	Version          string            `toml:"version"`
	RequestedVersion string            `toml:"requested_version,omitempty"`
	Source           string            `toml:"source"`
	SourceTemplate   string            `toml:"source_template,omitempty"`
	Platform         string            `toml:"platform,omitempty"`
	Sources          map[string]string `toml:"sources,omitempty"`
	SHA256           string            `toml:"sha256,omitempty"`
	Digest           string            `toml:"digest,omitempty"`
}

type legacyLockFile struct {
	Generated  time.Time        `toml:"generated"`
	TLKVersion string           `toml:"tlk_version"`
	Schema     int              `toml:"schema"`
	Tools      []legacyLockTool `toml:"tools"`
}

type legacyLockTool struct {
	Name           string            `toml:"name"`
	Version        string            `toml:"version"`
	Source         string            `toml:"source"`
	SourceTemplate string            `toml:"source_template,omitempty"`
	Platform       string            `toml:"platform,omitempty"`
	Sources        map[string]string `toml:"sources,omitempty"`
	SHA256         string            `toml:"sha256,omitempty"`
	Digest         string            `toml:"digest,omitempty"`
}

// New wraps tools as a fresh v3 LockFile, stamped with the current time
// and the running binary's version.
func New(tools map[string]LockEntry) *LockFile {
	return &LockFile{
		Generated:  time.Now().UTC(),
		TLKVersion: buildinfo.Version(),
		Schema:     CurrentSchema,
		Tools:      tools,
	}
}

// Load reads path, trying the v3 schema first and falling back to the
// legacy v1/v2 array-of-tool schema (upgraded in memory, not persisted
// until the next Save). A missing file returns (nil, nil).
func Load(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errmsg.IOError{Path: path, Err: err}
	}

	var lf LockFile
	if _, err := toml.Decode(string(data), &lf); err == nil {
		return &lf, nil
	}

	var old legacyLockFile
	if _, err := toml.Decode(string(data), &old); err == nil && len(old.Tools) > 0 {
		tools := make(map[string]LockEntry, len(old.Tools))
		for _, t := range old.Tools {
			tools[t.Name] = LockEntry{
				Version:        t.Version,
				Source:         t.Source,
				SourceTemplate: t.SourceTemplate,
				Platform:       t.Platform,
				Sources:        t.Sources,
				SHA256:         t.SHA256,
				Digest:         t.Digest,
			}
		}
		return New(tools), nil
	}

	return nil, &errmsg.LockError{Err: fmt.Errorf("unable to parse lock file (unsupported schema)")}
}

// Save writes lf to path atomically (temp file + rename), restamping
// TLKVersion and defaulting Schema to CurrentSchema.
func (lf *LockFile) Save(path string) error {
	lf.TLKVersion = buildinfo.Version()
	if lf.Schema == 0 {
		lf.Schema = CurrentSchema
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &errmsg.IOError{Path: tmp, Err: err}
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(lf); err != nil {
		f.Close()
		os.Remove(tmp)
		return &errmsg.LockError{Err: fmt.Errorf("serializing lock file: %w", err)}
	}
	if err := f.Close(); err != nil {
		return &errmsg.IOError{Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &errmsg.IOError{Path: path, Err: err}
	}
	return nil
}

// ToLockedEntry assembles one tool's LockEntry, building the
// cross-platform sources matrix if and only if template contains both
// {os} and {arch}.
func ToLockedEntry(name, exactVersion, requestedVersion, renderedSource, template, sha256sum, digest string) (string, LockEntry) {
	entry := LockEntry{
		Version:          exactVersion,
		RequestedVersion: requestedVersion,
		Source:           renderedSource,
		SourceTemplate:   template,
		Platform:         currentPlatformKey(),
		SHA256:           sha256sum,
		Digest:           digest,
	}
	if strings.Contains(template, "{os}") && strings.Contains(template, "{arch}") {
		sources := make(map[string]string, len(platformOSes)*len(platformArches))
		for _, o := range platformOSes {
			for _, a := range platformArches {
				r := strings.NewReplacer("{version}", exactVersion, "{os}", o, "{arch}", a)
				sources[o+"-"+a] = r.Replace(template)
			}
		}
		entry.Sources = sources
	}
	return name, entry
}

func currentPlatformKey() string {
	osName, arch := hostPlatformKeyParts()
	return osName + "-" + arch
}

// NormalizeVersion splits a manifest tool's possibly-range version spec
// into (exact, requested). If spec is already an exact semver, requested
// is empty. Otherwise the first whitespace/OR-separated token is
// stripped of leading range operators; if the remainder is exact semver
// it is used with requested set to the original spec.
func NormalizeVersion(spec string) (exact, requested string) {
	trimmed := strings.TrimSpace(spec)
	if _, err := semver.NewVersion(trimmed); err == nil {
		return trimmed, ""
	}
	s := trimmed
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "||"); idx != -1 {
		s = strings.TrimSpace(s[:idx])
	}
	s = strings.TrimLeft(s, "^~>=<")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ",)")
	if _, err := semver.NewVersion(s); err == nil {
		return s, spec
	}
	return spec, ""
}

// IsRange reports whether spec names a version range rather than an
// exact version.
func IsRange(spec string) bool {
	s := strings.TrimSpace(spec)
	if _, err := semver.NewVersion(s); err == nil {
		return false
	}
	for _, tok := range []string{"^", "~", "*", "x", "X", "||", "-", ">", "<", "=", " "} {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// RangeSatisfies reports whether version satisfies range, applying the
// same wildcard and hyphen-range normalization as the resolver.
func RangeSatisfies(rangeSpec, version string) bool {
	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return false
	}
	r := strings.ReplaceAll(strings.TrimSpace(rangeSpec), "*", "x")
	if strings.Contains(r, "-") && strings.Contains(r, " ") {
		if idx := strings.Index(r, "-"); idx != -1 {
			a := strings.TrimSpace(r[:idx])
			b := strings.TrimSpace(r[idx+1:])
			if a != "" && b != "" {
				r = fmt.Sprintf(">=%s <=%s", a, b)
			}
		}
	}
	c, err := semver.NewConstraint(r)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// Verify checks every manifest tool against lock, per the spec's verify
// rules: presence, version satisfaction, template/source agreement, and
// checksum/digest agreement when both sides declare one. installedDigest
// hashes the tool's on-disk binary; a mismatch against entry.Digest fails
// verification, but an error (binary absent or unreadable) is skipped
// silently, since verify should not require anything to be installed.
// Tools present in the lock but absent from the manifest are reported via
// warn, not failed.
func Verify(m *manifest.Manifest, lock *LockFile, renderedSource func(manifest.Tool, string) string, installedDigest func(manifest.Tool) (string, error), warn func(string)) error {
	var failures []string
	for _, t := range m.Tools {
		entry, ok := lock.Tools[t.Name]
		if !ok {
			failures = append(failures, fmt.Sprintf("tool '%s' missing from lock", t.Name))
			continue
		}
		if IsRange(t.Version) {
			if !RangeSatisfies(t.Version, entry.Version) {
				failures = append(failures, fmt.Sprintf("tool '%s' locked version %s does not satisfy range %s", t.Name, entry.Version, t.Version))
			}
		} else if entry.Version != t.Version {
			failures = append(failures, fmt.Sprintf("tool '%s' version mismatch lock=%s config=%s", t.Name, entry.Version, t.Version))
		}

		if entry.SourceTemplate != "" {
			osName, arch := hostPlatformKeyParts()
			r := strings.NewReplacer("{version}", entry.Version, "{os}", osName, "{arch}", arch)
			expected := r.Replace(entry.SourceTemplate)
			rendered := renderedSource(t, entry.Version)
			if expected != rendered {
				failures = append(failures, fmt.Sprintf("tool '%s' source mismatch", t.Name))
			}
		}

		if t.SHA256 != "" && entry.SHA256 != "" && t.SHA256 != entry.SHA256 {
			failures = append(failures, fmt.Sprintf("tool '%s' checksum mismatch", t.Name))
		}

		if entry.Digest != "" && installedDigest != nil {
			if actual, err := installedDigest(t); err == nil && actual != entry.Digest {
				failures = append(failures, fmt.Sprintf("tool '%s' digest mismatch", t.Name))
			}
		}
	}

	for name := range lock.Tools {
		found := false
		for _, t := range m.Tools {
			if t.Name == name {
				found = true
				break
			}
		}
		if !found && warn != nil {
			warn(fmt.Sprintf("lock contains extra tool '%s' not in config", name))
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return &errmsg.LockError{Err: fmt.Errorf("lock verification failed:\n - %s", strings.Join(failures, "\n - "))}
}

// MissingPlatform is one (os, arch) pair absent from a lock entry's
// sources matrix.
type MissingPlatform struct {
	Tool string
	OS   string
	Arch string
}

// DiagnoseMissingPlatforms reports, for every lock entry with a sources
// matrix, any (os, arch) pair not covered. Entries without a sources
// matrix are reported as using an older schema or a custom source.
func DiagnoseMissingPlatforms(lock *LockFile) (missing []MissingPlatform, legacyOrCustom []string) {
	names := make([]string, 0, len(lock.Tools))
	for name := range lock.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := lock.Tools[name]
		if entry.Sources == nil {
			legacyOrCustom = append(legacyOrCustom, name)
			continue
		}
		for _, o := range platformOSes {
			for _, a := range platformArches {
				if _, ok := entry.Sources[o+"-"+a]; !ok {
					missing = append(missing, MissingPlatform{Tool: name, OS: o, Arch: a})
				}
			}
		}
	}
	return missing, legacyOrCustom
}

func hostPlatformKeyParts() (osName, arch string) {
	return platform.DetectHost()
}
