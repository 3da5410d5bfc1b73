package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codyspate/tool-locker/internal/installer"
	"github.com/codyspate/tool-locker/internal/log"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List desired versus installed versions for each declared tool",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := loadAppContext()
	if err != nil {
		fail(err)
		return nil
	}

	in := installer.New(nil, app.cfg.BinDir, log.Default())
	for _, t := range app.m.Tools {
		installed, ok := in.InstalledVersion(t)
		if !ok {
			installed = "<not installed>"
		}
		fmt.Printf("%s desired=%s installed=%s\n", t.Name, t.Version, installed)
	}
	return nil
}
