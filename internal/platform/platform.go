// Package platform abstracts the OS/architecture-specific details of
// naming, locating, and preparing an installed tool binary.
package platform

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
)

// Platform exposes the handful of OS-specific operations the installer
// needs: the final on-disk binary name, the set of archive entry names
// that could plausibly contain that binary, how to adjust a direct
// (non-archive) download URL, and how to make a file executable.
type Platform interface {
	FinalBinaryName(base string) string
	CandidateArchiveEntryNames(base string) []string
	AdjustDirectURL(url string) string
	MakeExecutable(filePath string) error
}

// Current returns the Platform for the running GOOS.
func Current() Platform {
	if runtime.GOOS == "windows" {
		return windowsPlatform{}
	}
	return unixPlatform{}
}

// DetectHost returns the canonical (os, arch) pair for the running host,
// normalizing the synonyms a manifest author might use in source
// templates: darwin/macos, amd64/x86_64, arm64/aarch64.
func DetectHost() (os, arch string) {
	return CanonicalOS(runtime.GOOS), CanonicalArch(runtime.GOARCH)
}

// CanonicalOS maps an OS name (possibly a synonym) to its canonical form.
func CanonicalOS(os string) string {
	if os == "macos" {
		return "darwin"
	}
	return os
}

// CanonicalArch maps an architecture name (possibly a synonym) to its
// canonical form.
func CanonicalArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

// SynonymArch returns the alternate spelling of a canonical arch name
// (e.g. "x86_64" for "amd64"), or "" for an arch without one.
func SynonymArch(arch string) string {
	switch arch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return ""
	}
}

type unixPlatform struct{}

func (unixPlatform) FinalBinaryName(base string) string {
	return base
}

func (unixPlatform) CandidateArchiveEntryNames(base string) []string {
	osName, arch := DetectHost()
	return []string{
		base,
		fmt.Sprintf("%s-%s/%s", osName, arch, base),
		fmt.Sprintf("%s_%s/%s", osName, arch, base),
		path.Join("bin", base),
	}
}

func (unixPlatform) AdjustDirectURL(url string) string {
	return url
}

func (unixPlatform) MakeExecutable(filePath string) error {
	return chmodExecutable(filePath)
}

type windowsPlatform struct{}

func (windowsPlatform) FinalBinaryName(base string) string {
	if strings.HasSuffix(base, ".exe") {
		return base
	}
	return base + ".exe"
}

func (windowsPlatform) CandidateArchiveEntryNames(base string) []string {
	if strings.HasSuffix(base, ".exe") {
		return []string{base}
	}
	return []string{base, base + ".exe"}
}

func (windowsPlatform) AdjustDirectURL(url string) string {
	if strings.HasSuffix(url, ".exe") || strings.HasSuffix(url, ".zip") || strings.HasSuffix(url, ".tar.gz") {
		return url
	}
	return url + ".exe"
}

// MakeExecutable is a no-op on Windows; executability is determined by
// file extension, not a permission bit.
func (windowsPlatform) MakeExecutable(filePath string) error {
	return nil
}

func chmodExecutable(filePath string) error {
	if _, err := os.Stat(filePath); err != nil {
		return err
	}
	return os.Chmod(filePath, 0o755)
}
