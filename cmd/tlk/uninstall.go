package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/codyspate/tool-locker/internal/lockfile"
	"github.com/codyspate/tool-locker/internal/platform"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall NAME",
	Short: "Remove an installed tool's binary and its manifest/lock entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	name := args[0]

	app, err := loadAppContext()
	if err != nil {
		fail(err)
		return nil
	}

	p := platform.Current()
	filename := p.FinalBinaryName(name)
	for _, candidate := range []string{filename, name} {
		path := filepath.Join(app.cfg.BinDir, candidate)
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				fail(fmt.Errorf("removing binary %s: %w", path, err))
				return nil
			}
		}
	}

	if err := removeFromManifest(app.cfg.ManifestPath, name); err != nil {
		fail(err)
		return nil
	}
	if err := removeFromLock(app.cfg.LockPath, name); err != nil {
		fail(err)
		return nil
	}

	fmt.Printf("Uninstalled %s\n", name)
	return nil
}

// removeFromManifest drops name from tlk.toml, whether it appears as a
// known-tool shorthand key or as a [tools.<name>] table.
func removeFromManifest(path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var root map[string]any
	if _, err := toml.Decode(string(data), &root); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	delete(root, name)
	if toolsRaw, ok := root["tools"]; ok {
		if tbl, ok := toolsRaw.(map[string]any); ok {
			delete(tbl, name)
			root["tools"] = tbl
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(root)
}

func removeFromLock(path, name string) error {
	lf, err := lockfile.Load(path)
	if err != nil {
		return err
	}
	if lf == nil {
		return nil
	}
	if _, ok := lf.Tools[name]; !ok {
		return nil
	}
	delete(lf.Tools, name)
	return lf.Save(path)
}
