// Package catalog is the static registry of known CLI tools Tool Locker
// can install by name alone, without the caller specifying a source
// template. Each entry also exposes how its available versions are
// discovered for C4's resolver.
package catalog

import (
	"fmt"
	"strings"

	"github.com/codyspate/tool-locker/internal/platform"
)

// ToolKind mirrors manifest.ToolKind without importing it, to avoid a
// dependency cycle between the manifest and catalog packages.
type ToolKind string

const (
	Archive ToolKind = "archive"
	Direct  ToolKind = "direct"
)

// BuiltTool is the plain-data result of resolving a known-tool shorthand
// or CLI spec into a concrete tool record.
type BuiltTool struct {
	Name    string
	Version string
	Kind    ToolKind
	Source  string
	Binary  string
}

// SourceKind distinguishes a literal URL template from a per-host
// function, mirroring the donor's SourceSpec enum.
type SourceKind int

const (
	SourceTemplate SourceKind = iota
	SourceFunc
)

// SourceSpec is either a literal template string containing
// {version}/{os}/{arch} placeholders, or a function of the
// leading-'v'-stripped version that computes a concrete URL from the
// detected host OS/arch.
type SourceSpec struct {
	Kind     SourceKind
	Template string
	Func     func(version string) string
}

// Def is one entry of the known-tool catalog.
type Def struct {
	Kind           ToolKind
	Source         SourceSpec
	BinaryRel      string
	VersionAdapter VersionAdapter
}

// VersionAdapter identifies how a tool's available-release list is
// discovered. Not every known tool has one; those without support only
// exact-version and shorthand installs, never "latest" or a range.
type VersionAdapter struct {
	Kind  AdapterKind
	Owner string // GitHub owner, when Kind == GitHubReleases
	Repo  string // GitHub repo, when Kind == GitHubReleases
	Tool  string // HashiCorp product slug, when Kind == HashiCorpReleases
}

type AdapterKind int

const (
	NoAdapter AdapterKind = iota
	HashiCorpReleases
	GitHubReleases
)

// Build constructs a concrete Tool record for name at version, applying
// the catalog's source spec and (for function-shaped entries) the
// detected host OS/arch.
func (d Def) Build(name, version string) BuiltTool {
	clean := strings.TrimPrefix(version, "v")
	var source string
	switch d.Source.Kind {
	case SourceTemplate:
		source = d.Source.Template
	case SourceFunc:
		source = d.Source.Func(clean)
	}
	return BuiltTool{
		Name:    name,
		Version: clean,
		Kind:    d.Kind,
		Source:  source,
		Binary:  d.BinaryRel,
	}
}

var known = buildKnownTools()

// Lookup returns the catalog entry for name, if any.
func Lookup(name string) (Def, bool) {
	d, ok := known[name]
	return d, ok
}

// Build is a package-level convenience wrapping Lookup+Def.Build, used
// by the install-by-spec path where the tool is not yet a Tool record.
func Build(name, version string) (BuiltTool, error) {
	def, ok := known[name]
	if !ok {
		return BuiltTool{}, fmt.Errorf("unknown known tool '%s'", name)
	}
	return def.Build(name, version), nil
}

// Names returns the catalog's tool names, for validation and help text.
func Names() []string {
	names := make([]string, 0, len(known))
	for n := range known {
		names = append(names, n)
	}
	return names
}

func buildKnownTools() map[string]Def {
	return map[string]Def{
		"terraform": {
			Kind:           Archive,
			Source:         SourceSpec{Kind: SourceTemplate, Template: "https://releases.hashicorp.com/terraform/{version}/terraform_{version}_{os}_{arch}.zip"},
			BinaryRel:      "terraform",
			VersionAdapter: VersionAdapter{Kind: HashiCorpReleases, Tool: "terraform"},
		},
		"kubectl": {
			Kind:           Direct,
			Source:         SourceSpec{Kind: SourceTemplate, Template: "https://dl.k8s.io/release/v{version}/bin/{os}/{arch}/kubectl"},
			VersionAdapter: VersionAdapter{Kind: GitHubReleases, Owner: "kubernetes", Repo: "kubernetes"},
		},
		"helm": {
			Kind:           Archive,
			Source:         SourceSpec{Kind: SourceTemplate, Template: "https://get.helm.sh/helm-v{version}-{os}-{arch}.tar.gz"},
			VersionAdapter: VersionAdapter{Kind: GitHubReleases, Owner: "helm", Repo: "helm"},
		},
		"gh": {
			Kind:           Archive,
			Source:         SourceSpec{Kind: SourceTemplate, Template: "https://github.com/cli/cli/releases/download/v{version}/gh_{version}_{os}_{arch}.tar.gz"},
			VersionAdapter: VersionAdapter{Kind: GitHubReleases, Owner: "cli", Repo: "cli"},
		},
		"buf": {
			Kind:           Direct,
			Source:         SourceSpec{Kind: SourceTemplate, Template: "https://github.com/bufbuild/buf/releases/download/v{version}/buf-{os}-{arch}"},
			VersionAdapter: VersionAdapter{Kind: GitHubReleases, Owner: "bufbuild", Repo: "buf"},
		},
		"node": {
			Kind:      Archive,
			Source:    SourceSpec{Kind: SourceFunc, Func: nodeSource},
			BinaryRel: "bin/node",
		},
		"pnpm": {
			Kind:   Direct,
			Source: SourceSpec{Kind: SourceFunc, Func: pnpmSource},
		},
		"yarn": {
			Kind:      Archive,
			Source:    SourceSpec{Kind: SourceTemplate, Template: "https://github.com/yarnpkg/yarn/releases/download/v{version}/yarn-v{version}.tar.gz"},
			BinaryRel: "bin/yarn",
		},
		"just": {
			Kind:      Archive,
			Source:    SourceSpec{Kind: SourceFunc, Func: justSource},
			BinaryRel: "just",
		},
		"jq": {
			Kind:   Direct,
			Source: SourceSpec{Kind: SourceFunc, Func: jqSource},
		},
		"cosign": {
			Kind:   Direct,
			Source: SourceSpec{Kind: SourceFunc, Func: cosignSource},
		},
		"age": {
			Kind:      Archive,
			Source:    SourceSpec{Kind: SourceFunc, Func: ageSource},
			BinaryRel: "age",
		},
		"moon": {
			Kind:      Direct,
			Source:    SourceSpec{Kind: SourceFunc, Func: moonSource},
			BinaryRel: "moon",
		},
	}
}

func mapArchForNodeAndPnpm(arch string) string {
	if arch == "amd64" {
		return "x64"
	}
	return arch
}

func nodeSource(version string) string {
	osName, arch := platform.DetectHost()
	arch = mapArchForNodeAndPnpm(arch)
	if osName == "windows" {
		return fmt.Sprintf("https://nodejs.org/dist/v%s/node-v%s-win-%s.zip", version, version, arch)
	}
	return fmt.Sprintf("https://nodejs.org/dist/v%s/node-v%s-%s-%s.tar.gz", version, version, osName, arch)
}

func pnpmSource(version string) string {
	osRaw, arch := platform.DetectHost()
	arch = mapArchForNodeAndPnpm(arch)
	osName := osRaw
	switch osRaw {
	case "darwin":
		osName = "macos"
	case "windows":
		osName = "win"
	}
	ext := ""
	if osName == "win" {
		ext = ".exe"
	}
	osSegment := osName
	if osName == "linux" {
		osSegment = "linuxstatic"
	}
	return fmt.Sprintf("https://github.com/pnpm/pnpm/releases/download/v%s/pnpm-%s-%s%s", version, osSegment, arch, ext)
}

func justSource(version string) string {
	osName, arch := platform.DetectHost()
	var triple string
	switch {
	case osName == "darwin" && arch == "amd64":
		triple = "x86_64-apple-darwin"
	case osName == "darwin" && arch == "arm64":
		triple = "aarch64-apple-darwin"
	case osName == "linux" && arch == "amd64":
		triple = "x86_64-unknown-linux-musl"
	case osName == "linux" && arch == "arm64":
		triple = "aarch64-unknown-linux-musl"
	case osName == "windows" && arch == "amd64":
		triple = "x86_64-pc-windows-msvc"
	default:
		return fmt.Sprintf("https://github.com/casey/just/releases/download/%s/just-%s-%s-%s.tar.gz", version, version, arch, osName)
	}
	ext := "tar.gz"
	if osName == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("https://github.com/casey/just/releases/download/%s/just-%s-%s.%s", version, version, triple, ext)
}

func jqSource(version string) string {
	osName, arch := platform.DetectHost()
	osPart := osName
	if osName == "darwin" {
		osPart = "macos"
	}
	ext := ""
	if osName == "windows" {
		ext = ".exe"
	}
	return fmt.Sprintf("https://github.com/jqlang/jq/releases/download/jq-%s/jq-%s-%s%s", version, osPart, arch, ext)
}

func cosignSource(version string) string {
	osName, arch := platform.DetectHost()
	ext := ""
	if osName == "windows" {
		ext = ".exe"
	}
	return fmt.Sprintf("https://github.com/sigstore/cosign/releases/download/v%s/cosign-%s-%s%s", version, osName, arch, ext)
}

func ageSource(version string) string {
	osName, arch := platform.DetectHost()
	ext := "tar.gz"
	if osName == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("https://github.com/FiloSottile/age/releases/download/v%s/age-v%s-%s-%s.%s", version, version, osName, arch, ext)
}

func moonSource(version string) string {
	osName, arch := platform.DetectHost()
	if arch == "amd64" {
		arch = "x86_64"
	}
	var triple string
	switch osName {
	case "darwin":
		triple = fmt.Sprintf("%s-apple-darwin", arch)
	case "linux":
		triple = fmt.Sprintf("%s-unknown-linux-gnu", arch)
	case "windows":
		triple = fmt.Sprintf("%s-pc-windows-msvc", arch)
	default:
		triple = fmt.Sprintf("%s-%s", arch, osName)
	}
	ext := ""
	if osName == "windows" {
		ext = ".exe"
	}
	return fmt.Sprintf("https://github.com/moonrepo/moon/releases/download/v%s/moon-%s%s", version, triple, ext)
}
