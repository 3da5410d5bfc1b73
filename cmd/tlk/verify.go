package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codyspate/tool-locker/internal/lockfile"
	"github.com/codyspate/tool-locker/internal/manifest"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check tlk.lock against tlk.toml without installing anything",
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	verr := lockfile.Verify(app.m, lock, func(t manifest.Tool, exactVersion string) string {
		return renderForVerify(t, exactVersion)
	}, installedDigestFunc(app.cfg), func(msg string) { fmt.Println("Warning:", msg) })
	if verr != nil {
		fail(verr)
		return nil
	}
	fmt.Println("tlk.lock is consistent with tlk.toml")
	return nil
}
