package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codyspate/tool-locker/internal/catalog"
	"github.com/codyspate/tool-locker/internal/installer"
	"github.com/codyspate/tool-locker/internal/lockfile"
	"github.com/codyspate/tool-locker/internal/log"
	"github.com/codyspate/tool-locker/internal/manifest"
	"github.com/codyspate/tool-locker/internal/platform"
)

var (
	installNoLock   bool
	installLocked   bool
	installNoVerify bool
	installExact    bool
)

var installCmd = &cobra.Command{
	Use:   "install [SPEC...]",
	Short: "Install the tools declared in tlk.toml, or install ad-hoc specs",
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installNoLock, "no-lock", false, "Skip writing tlk.lock after install")
	installCmd.Flags().BoolVar(&installLocked, "locked", false, "Install exactly what tlk.lock records, ignoring tlk.toml specs")
	installCmd.Flags().BoolVar(&installNoVerify, "no-verify", false, "Skip verifying tlk.lock before a bulk install")
	installCmd.Flags().BoolVar(&installExact, "exact", false, "Pin the exact resolved version (ad-hoc installs always lock the exact resolved version and never edit tlk.toml, so this flag has no effect)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	if installLocked && len(args) > 0 {
		return fmt.Errorf("--locked cannot be combined with specs")
	}

	app, err := loadAppContext()
	if err != nil {
		fail(err)
		return nil
	}
	client := newHTTPClient(app.cfg)

	switch {
	case installLocked:
		return installFromLock(app, client)
	case len(args) == 0:
		return installFromManifest(app, client)
	default:
		return installSpecs(app, client, args)
	}
}

func installFromLock(app *appContext, client *http.Client) error {
	lock, err := lockfile.Load(app.cfg.LockPath)
	if err != nil {
		fail(err)
		return nil
	}
	if lock == nil {
		fmt.Println("No tlk.lock present; run 'tlk install' to create it.")
		return nil
	}

	osName, arch := platform.DetectHost()
	platformKey := osName + "-" + arch

	tools := make([]manifest.Tool, 0, len(lock.Tools))
	for name, entry := range lock.Tools {
		tool, err := toolFromLockEntry(app.m, name, entry, platformKey)
		if err != nil {
			fail(err)
			return nil
		}
		tools = append(tools, tool)
	}
	return installTools(app, client, tools, false)
}

// toolFromLockEntry rebuilds the manifest.Tool used to reinstall one
// locked tool: the matching manifest declaration is preferred (it carries
// kind, sha256, and any per-os/per-os-arch overrides), falling back to the
// known-tool catalog when the tool is no longer declared in tlk.toml. The
// source is then pinned to the lock's recorded artifact for the current
// platform, falling back to its single recorded source.
func toolFromLockEntry(m *manifest.Manifest, name string, entry lockfile.LockEntry, platformKey string) (manifest.Tool, error) {
	var tool manifest.Tool
	if declared := findManifestTool(m, name); declared != nil {
		tool = *declared
	} else {
		built, err := catalog.Build(name, entry.Version)
		if err != nil {
			return manifest.Tool{}, err
		}
		tool = manifest.Tool{
			Name:   built.Name,
			Kind:   manifest.ToolKind(built.Kind),
			Source: built.Source,
			Binary: built.Binary,
		}
	}
	tool.Version = entry.Version

	if url, ok := entry.Sources[platformKey]; ok {
		tool.Source = url
	} else {
		tool.Source = entry.Source
	}
	return tool, nil
}

func findManifestTool(m *manifest.Manifest, name string) *manifest.Tool {
	for i := range m.Tools {
		if m.Tools[i].Name == name {
			return &m.Tools[i]
		}
	}
	return nil
}

func installFromManifest(app *appContext, client *http.Client) error {
	if !installNoVerify {
		lock, err := lockfile.Load(app.cfg.LockPath)
		if err != nil {
			fail(err)
			return nil
		}
		if lock != nil {
			if verr := lockfile.Verify(app.m, lock, func(t manifest.Tool, exactVersion string) string {
				return renderForVerify(t, exactVersion)
			}, installedDigestFunc(app.cfg), func(msg string) { fmt.Println("Warning:", msg) }); verr != nil {
				fail(verr)
				return nil
			}
		}
	}
	return installTools(app, client, app.m.Tools, !installNoLock)
}

func installSpecs(app *appContext, client *http.Client, specs []string) error {
	resolver := newResolver(client)
	var tools []manifest.Tool
	for _, spec := range specs {
		name, versionSpec, hasVersion := splitSpec(spec)
		var resolvedVersion string
		var err error
		if !hasVersion || versionSpec == "latest" {
			resolvedVersion, err = resolver.FetchLatest(context.Background(), name)
		} else {
			resolvedVersion, err = resolver.Resolve(context.Background(), name, versionSpec)
		}
		if err != nil {
			fail(err)
			return nil
		}
		built, err := catalog.Build(name, resolvedVersion)
		if err != nil {
			fail(err)
			return nil
		}
		tools = append(tools, manifest.Tool{
			Name:    built.Name,
			Version: built.Version,
			Kind:    manifest.ToolKind(built.Kind),
			Source:  built.Source,
			Binary:  built.Binary,
		})
	}
	return installTools(app, client, tools, !installNoLock)
}

func splitSpec(spec string) (name, versionSpec string, hasVersion bool) {
	for i, r := range spec {
		if r == '@' {
			return spec[:i], spec[i+1:], true
		}
	}
	return spec, "", false
}

func installTools(app *appContext, client *http.Client, tools []manifest.Tool, writeLock bool) error {
	if len(tools) == 0 {
		fmt.Println("No tools to install.")
		return nil
	}

	var results []installer.Result
	if len(tools) == 1 {
		in := installer.New(client, app.cfg.BinDir, log.Default())
		err := in.InstallTool(context.Background(), tools[0])
		results = []installer.Result{{Name: tools[0].Name, Err: err}}
	} else {
		results = installer.InstallAllParallel(context.Background(), tools, app.cfg.BinDir, func() *http.Client {
			return newHTTPClient(app.cfg)
		}, log.Default())
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("FAILED %s: %v\n", r.Name, r.Err)
			continue
		}
		fmt.Printf("Installed %s\n", r.Name)
	}

	if err := installer.Summarize(results); err != nil {
		fail(err)
		return nil
	}

	if writeLock {
		if err := writeLockfile(app, tools); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: failed to update lock:", err)
		}
	}
	return nil
}

// writeLockfile merges freshly installed tools into tlk.lock, preserving
// entries for tools not touched by this install.
func writeLockfile(app *appContext, tools []manifest.Tool) error {
	existing, err := lockfile.Load(app.cfg.LockPath)
	if err != nil {
		return err
	}
	entries := map[string]lockfile.LockEntry{}
	if existing != nil {
		entries = existing.Tools
	}

	osName, arch := platform.DetectHost()
	in := installer.New(nil, app.cfg.BinDir, log.Default())
	for _, t := range tools {
		exact, requested := lockfile.NormalizeVersion(t.Version)
		template := t.EffectiveSourceTemplate(osName, arch)
		rendered := renderTemplate(template, exact, osName, arch)
		digest, _ := in.ComputeInstalledDigest(t)
		name, entry := lockfile.ToLockedEntry(t.Name, exact, requested, rendered, template, t.SHA256, digest)
		entries[name] = entry
	}

	lf := lockfile.New(entries)
	return lf.Save(app.cfg.LockPath)
}

func renderForVerify(t manifest.Tool, exactVersion string) string {
	osName, arch := platform.DetectHost()
	template := t.EffectiveSourceTemplate(osName, arch)
	return renderTemplate(template, exactVersion, osName, arch)
}

func renderTemplate(template, version, osName, arch string) string {
	r := strings.NewReplacer("{version}", version, "{os}", osName, "{arch}", arch)
	return r.Replace(template)
}
