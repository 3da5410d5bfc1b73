// Package manifest loads and validates tlk.toml, the project-scoped
// manifest of tools Tool Locker is responsible for installing.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/codyspate/tool-locker/internal/errmsg"
	"github.com/codyspate/tool-locker/internal/platform"
)

// ToolKind selects how a tool's release artifact is handled.
type ToolKind string

const (
	Archive ToolKind = "archive"
	Direct  ToolKind = "direct"
)

// Tool is one entry of the manifest, fully resolved to a concrete
// source template plus optional per-platform overrides.
type Tool struct {
	Name       string            `toml:"name"`
	Version    string            `toml:"version"`
	Kind       ToolKind          `toml:"kind"`
	Source     string            `toml:"source"`
	SHA256     string            `toml:"sha256,omitempty"`
	Binary     string            `toml:"binary,omitempty"`
	InstallDir string            `toml:"install_dir,omitempty"`
	PerOS      *PerOSSources     `toml:"per_os,omitempty"`
	PerOSArch  *PerOSArchSources `toml:"per_os_arch,omitempty"`
}

// PerOSSources overrides the source template per host OS, each still
// templated over {version} and {arch}.
type PerOSSources struct {
	Linux   string `toml:"linux,omitempty"`
	Mac     string `toml:"mac,omitempty"`
	Windows string `toml:"windows,omitempty"`
}

// PerOSArchSources overrides the source template per host OS and arch.
type PerOSArchSources struct {
	Linux   *ArchSources `toml:"linux,omitempty"`
	Mac     *ArchSources `toml:"mac,omitempty"`
	Windows *ArchSources `toml:"windows,omitempty"`
}

// ArchSources holds one OS's per-arch overrides, accepting both the
// canonical arch names and their common synonyms.
type ArchSources struct {
	Amd64   string `toml:"amd64,omitempty"`
	Arm64   string `toml:"arm64,omitempty"`
	X8664   string `toml:"x86_64,omitempty"`
	Aarch64 string `toml:"aarch64,omitempty"`
}

// Manifest is the parsed, fully-merged set of tools a project declares.
type Manifest struct {
	Tools []Tool
}

// Discover walks up from startDir looking for tlk.toml and loads it.
// Returns an empty Manifest (not an error) if no manifest is found.
func Discover(startDir string) (*Manifest, string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, "tlk.toml")
		if _, err := os.Stat(candidate); err == nil {
			m, err := Load(candidate)
			return m, candidate, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return &Manifest{}, filepath.Join(startDir, "tlk.toml"), nil
		}
		dir = parent
	}
}

// Load reads and parses the manifest at path. A missing file yields an
// empty manifest, not an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, &errmsg.IOError{Path: path, Err: err}
	}

	root, perr := parseTOML(data)
	if perr != nil {
		text := strings.TrimSpace(string(data))
		if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
			repaired, rerr := repairInlineRoot(text)
			if rerr == nil {
				if werr := os.WriteFile(path, []byte(repaired), 0o644); werr == nil {
					if root2, perr2 := parseTOML([]byte(repaired)); perr2 == nil {
						root = root2
						perr = nil
					}
				}
			}
		}
		if perr != nil {
			return &Manifest{}, nil
		}
	}

	known := make(map[string]bool)
	tools, err := parseUnknownTools(root)
	if err != nil {
		return nil, &errmsg.ManifestError{Err: err}
	}
	for _, t := range tools {
		known[t.Name] = true
	}

	shorthand := extractShorthand(root, known)
	tools = append(tools, shorthand...)

	augmentBinaryFields(tools)

	return &Manifest{Tools: tools}, nil
}

func parseTOML(data []byte) (map[string]any, error) {
	var root map[string]any
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return root, nil
}

// parseUnknownTools handles the user-declared [tools.<name>] and legacy
// [[tools]] forms.
func parseUnknownTools(root map[string]any) ([]Tool, error) {
	var out []Tool
	raw, ok := root["tools"]
	if !ok {
		return out, nil
	}

	switch v := raw.(type) {
	case []map[string]any:
		if len(v) > 0 {
			fmt.Fprintln(os.Stderr, "Warning: legacy [[tools]] syntax detected; run 'tlk migrate-config' to upgrade to [tools.<name>] style.")
		}
		for _, item := range v {
			t, err := toolFromMap("", item)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	case []any:
		if len(v) > 0 {
			fmt.Fprintln(os.Stderr, "Warning: legacy [[tools]] syntax detected; run 'tlk migrate-config' to upgrade to [tools.<name>] style.")
		}
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			t, err := toolFromMap("", m)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	case map[string]any:
		for name, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			t, err := toolFromMap(name, m)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}

	for _, t := range out {
		if strings.TrimSpace(t.Version) == "" {
			return nil, fmt.Errorf("tool '%s' missing version", t.Name)
		}
		if strings.TrimSpace(t.Source) == "" {
			return nil, fmt.Errorf("tool '%s' missing source", t.Name)
		}
	}
	return out, nil
}

func toolFromMap(defaultName string, m map[string]any) (Tool, error) {
	t := Tool{Kind: Archive}
	if defaultName != "" {
		t.Name = defaultName
	}
	if name, ok := m["name"].(string); ok && name != "" {
		t.Name = name
	}
	if v, ok := m["version"].(string); ok {
		t.Version = v
	}
	if v, ok := m["source"].(string); ok {
		t.Source = v
	}
	if v, ok := m["kind"].(string); ok {
		switch strings.ToLower(v) {
		case "direct":
			t.Kind = Direct
		case "archive":
			t.Kind = Archive
		}
	}
	if v, ok := m["sha256"].(string); ok {
		t.SHA256 = v
	}
	if v, ok := m["binary"].(string); ok {
		t.Binary = v
	}
	if v, ok := m["install_dir"].(string); ok {
		t.InstallDir = v
	}
	if v, ok := m["per_os"].(map[string]any); ok {
		t.PerOS = &PerOSSources{
			Linux:   stringField(v, "linux"),
			Mac:     stringField(v, "mac"),
			Windows: stringField(v, "windows"),
		}
	}
	if v, ok := m["per_os_arch"].(map[string]any); ok {
		t.PerOSArch = &PerOSArchSources{
			Linux:   archSourcesField(v, "linux"),
			Mac:     archSourcesField(v, "mac"),
			Windows: archSourcesField(v, "windows"),
		}
	}
	return t, nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func archSourcesField(m map[string]any, key string) *ArchSources {
	sub, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	return &ArchSources{
		Amd64:   stringField(sub, "amd64"),
		Arm64:   stringField(sub, "arm64"),
		X8664:   stringField(sub, "x86_64"),
		Aarch64: stringField(sub, "aarch64"),
	}
}

// EffectiveSourceTemplate resolves the template for the given host os/arch,
// honoring per_os_arch > per_os > source precedence and falling back to
// arch synonyms when an exact key is absent.
func (t Tool) EffectiveSourceTemplate(os, arch string) string {
	if t.PerOSArch != nil {
		if entry := osEntry(t.PerOSArch, os); entry != nil {
			if tpl := archEntry(entry, arch); tpl != "" {
				return tpl
			}
		}
	}
	if t.PerOS != nil {
		if tpl := osTemplate(t.PerOS, os); tpl != "" {
			return tpl
		}
	}
	return t.Source
}

func osEntry(p *PerOSArchSources, osName string) *ArchSources {
	switch osName {
	case "linux":
		return p.Linux
	case "darwin", "macos":
		return p.Mac
	case "windows":
		return p.Windows
	default:
		return nil
	}
}

func archEntry(a *ArchSources, arch string) string {
	switch arch {
	case "amd64", "x86_64":
		if a.Amd64 != "" {
			return a.Amd64
		}
		return a.X8664
	case "arm64", "aarch64":
		if a.Arm64 != "" {
			return a.Arm64
		}
		return a.Aarch64
	default:
		return ""
	}
}

func osTemplate(p *PerOSSources, osName string) string {
	switch osName {
	case "linux":
		return p.Linux
	case "darwin", "macos":
		return p.Mac
	case "windows":
		return p.Windows
	default:
		return ""
	}
}

// augmentBinaryFields fills in the binary path implied by upstream
// archive layouts for tools known to need it.
func augmentBinaryFields(tools []Tool) {
	osName, arch := platform.DetectHost()
	for i := range tools {
		t := &tools[i]
		if t.Binary != "" {
			continue
		}
		switch t.Name {
		case "helm":
			t.Binary = fmt.Sprintf("%s-%s/helm", osName, arch)
		case "gh":
			t.Binary = fmt.Sprintf("gh_%s_%s_%s/bin/gh", t.Version, osName, arch)
		}
	}
}
