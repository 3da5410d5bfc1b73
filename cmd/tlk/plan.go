package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codyspate/tool-locker/internal/platform"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print what would be installed without downloading anything",
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	app, err := loadAppContext()
	if err != nil {
		fail(err)
		return nil
	}

	osName, arch := platform.DetectHost()
	for _, t := range app.m.Tools {
		template := t.EffectiveSourceTemplate(osName, arch)
		source := renderTemplate(template, t.Version, osName, arch)
		fmt.Printf("%s %s -> %s\n", t.Name, t.Version, source)
	}
	return nil
}
