package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/codyspate/tool-locker/internal/installer"
	"github.com/codyspate/tool-locker/internal/lockfile"
	"github.com/codyspate/tool-locker/internal/log"
	"github.com/codyspate/tool-locker/internal/platform"
)

var migrateLockCmd = &cobra.Command{
	Use:   "migrate-lock",
	Short: "Regenerate tlk.lock under the current schema with cross-platform sources",
	RunE:  runMigrateLock,
}

var migrateConfigCmd = &cobra.Command{
	Use:   "migrate-config",
	Short: "Rewrite legacy [[tools]] array syntax as [tools.<name>] tables in tlk.toml",
	RunE:  runMigrateConfig,
}

func runMigrateLock(cmd *cobra.Command, args []string) error {
	app, err := loadAppContext()
	if err != nil {
		fail(err)
		return nil
	}

	existing, err := lockfile.Load(app.cfg.LockPath)
	if err != nil {
		fail(err)
		return nil
	}
	if existing == nil {
		fmt.Printf("No %s found; nothing to migrate.\n", app.cfg.LockPath)
		return nil
	}
	fmt.Printf("Existing lock schema: %d\n", existing.Schema)

	in := installer.New(nil, app.cfg.BinDir, log.Default())
	osName, arch := platform.DetectHost()
	entries := make(map[string]lockfile.LockEntry, len(app.m.Tools))
	for _, t := range app.m.Tools {
		digest, _ := in.ComputeInstalledDigest(t)
		template := t.EffectiveSourceTemplate(osName, arch)
		exact, requested := lockfile.NormalizeVersion(t.Version)
		rendered := renderTemplate(template, exact, osName, arch)
		name, entry := lockfile.ToLockedEntry(t.Name, exact, requested, rendered, template, t.SHA256, digest)
		entries[name] = entry
	}

	lf := lockfile.New(entries)
	if err := lf.Save(app.cfg.LockPath); err != nil {
		fail(err)
		return nil
	}
	fmt.Printf("Migrated %s to schema %d\n", app.cfg.LockPath, lf.Schema)
	return nil
}

func runMigrateConfig(cmd *cobra.Command, args []string) error {
	app, err := loadAppContext()
	if err != nil {
		fail(err)
		return nil
	}
	path := app.cfg.ManifestPath

	data, err := os.ReadFile(path)
	if err != nil {
		fail(err)
		return nil
	}

	var root map[string]any
	if _, err := toml.Decode(string(data), &root); err != nil {
		fail(fmt.Errorf("parsing %s: %w", path, err))
		return nil
	}

	arr, ok := root["tools"].([]map[string]any)
	if !ok {
		if genericArr, ok2 := root["tools"].([]any); ok2 {
			arr = make([]map[string]any, 0, len(genericArr))
			for _, item := range genericArr {
				if m, ok3 := item.(map[string]any); ok3 {
					arr = append(arr, m)
				}
			}
		}
	}
	if len(arr) == 0 {
		fmt.Println("No legacy [[tools]] entries found (nothing to do)")
		return nil
	}

	toolsTable := make(map[string]any, len(arr))
	for _, item := range arr {
		nameVal, ok := item["name"].(string)
		if !ok || nameVal == "" {
			fmt.Println("Skipping legacy tool missing name field")
			continue
		}
		clone := make(map[string]any, len(item))
		for k, v := range item {
			if k == "name" {
				continue
			}
			clone[k] = v
		}
		toolsTable[nameVal] = clone
	}
	root["tools"] = toolsTable

	backup := path + ".bak"
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		fail(err)
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		fail(err)
		return nil
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(root); err != nil {
		fail(err)
		return nil
	}

	fmt.Printf("Migrated config to [tools.<name>] syntax (backup at %s)\n", backup)
	return nil
}
