package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codyspate/tool-locker/internal/lockfile"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Report lock entries missing platform coverage",
	RunE:  runDiagnose,
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	app, err := loadAppContext()
	if err != nil {
		fail(err)
		return nil
	}

	lock, err := lockfile.Load(app.cfg.LockPath)
	if err != nil {
		fail(err)
		return nil
	}
	if lock == nil {
		fail(fmt.Errorf("no lock file at %s", app.cfg.LockPath))
		return nil
	}

	missing, legacyOrCustom := lockfile.DiagnoseMissingPlatforms(lock)

	byTool := map[string][]string{}
	for _, m := range missing {
		byTool[m.Tool] = append(byTool[m.Tool], m.OS+"-"+m.Arch)
	}
	for name, pairs := range byTool {
		version := lock.Tools[name].Version
		fmt.Printf("%s %s missing: %s\n", name, version, joinComma(pairs))
	}
	for _, name := range legacyOrCustom {
		version := lock.Tools[name].Version
		fmt.Printf("%s %s has no sources map (older schema or custom)\n", name, version)
	}
	if len(missing) == 0 && len(legacyOrCustom) == 0 {
		fmt.Println("All tools have complete platform coverage")
	}
	return nil
}

func joinComma(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
