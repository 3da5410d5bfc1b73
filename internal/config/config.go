// Package config resolves Tool Locker's project-local directory layout
// and the small set of environment-variable tunables that adjust its
// runtime behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ManifestFileName is the name of the project manifest file, located
	// by walking up from the working directory.
	ManifestFileName = "tlk.toml"

	// LockFileName is the name of the lock file, always sibling to the manifest.
	LockFileName = "tlk.lock"

	// EnvNoAutoPath names the post-install session PATH switch reported by
	// AutoPathEnabled. No command adjusts PATH after an install; PATH
	// activation is done by the shell snippet that `tlk hook` prints.
	EnvNoAutoPath = "TLK_NO_AUTO_PATH"

	// EnvAPITimeout configures the HTTP client timeout used by the
	// version resolver and installer.
	EnvAPITimeout = "TLK_API_TIMEOUT"

	// EnvVersionCacheTTL is read by GetVersionCacheTTL. The version
	// resolver does not consult it: resolved version lists stay cached for
	// the life of the process.
	EnvVersionCacheTTL = "TLK_VERSION_CACHE_TTL"

	// DefaultAPITimeout is used when EnvAPITimeout is unset or invalid.
	DefaultAPITimeout = 30 * time.Second

	// DefaultVersionCacheTTL is used when EnvVersionCacheTTL is unset or invalid.
	DefaultVersionCacheTTL = 1 * time.Hour
)

// Config holds the resolved project-local paths for a single invocation.
type Config struct {
	// ProjectRoot is the directory containing tlk.toml, or the working
	// directory if no manifest was found in any ancestor.
	ProjectRoot string
	// ManifestPath is ProjectRoot/tlk.toml.
	ManifestPath string
	// LockPath is ProjectRoot/tlk.lock.
	LockPath string
	// BinDir is ProjectRoot/.tlk/bin, where resolved binaries land.
	BinDir string
	// CacheDir is ProjectRoot/.tlk/cache, created by EnsureDirectories.
	// Downloads are held in memory and are not written here.
	CacheDir string
}

// Load resolves the project root by walking up from startDir looking for
// tlk.toml, falling back to startDir itself if none is found (a fresh
// project that has not yet been initialized).
func Load(startDir string) (*Config, error) {
	root, found := findProjectRoot(startDir)
	if !found {
		root = startDir
	}
	return &Config{
		ProjectRoot:  root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		LockPath:     filepath.Join(root, LockFileName),
		BinDir:       filepath.Join(root, ".tlk", "bin"),
		CacheDir:     filepath.Join(root, ".tlk", "cache"),
	}, nil
}

func findProjectRoot(startDir string) (dir string, found bool) {
	dir = startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestFileName)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// EnsureDirectories creates BinDir and CacheDir if they do not already exist.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.BinDir, c.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetAPITimeout returns the configured HTTP timeout from TLK_API_TIMEOUT,
// clamped to [1s, 10m]. Falls back to DefaultAPITimeout if unset or
// unparseable, warning to stderr in the latter case.
func GetAPITimeout() time.Duration {
	return parseDurationEnv(EnvAPITimeout, DefaultAPITimeout, time.Second, 10*time.Minute)
}

// GetVersionCacheTTL returns the configured version-cache TTL from
// TLK_VERSION_CACHE_TTL, clamped to [1m, 24h].
func GetVersionCacheTTL() time.Duration {
	return parseDurationEnv(EnvVersionCacheTTL, DefaultVersionCacheTTL, time.Minute, 24*time.Hour)
}

func parseDurationEnv(envVar string, def, min, max time.Duration) time.Duration {
	raw := os.Getenv(envVar)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n", envVar, raw, def)
		return def
	}
	if d < min {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n", envVar, d, min)
		return min
	}
	if d > max {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n", envVar, d, max)
		return max
	}
	return d
}

// AutoPathEnabled reports whether TLK_NO_AUTO_PATH is unset (true) or
// set to a non-empty value (false).
func AutoPathEnabled() bool {
	return os.Getenv(EnvNoAutoPath) == ""
}
