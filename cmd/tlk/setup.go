package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

var setupApply bool

const evalLine = `# tlk dynamic activation
if command -v tlk >/dev/null 2>&1; then
  eval "$(tlk hook)"
fi`

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Add the tlk hook eval line to your shell profile",
	RunE:  runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupApply, "apply", false, "Write the eval line to detected shell profiles instead of just printing it")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if !setupApply {
		fmt.Printf("Add the following to your shell profile (~/.bashrc, ~/.zshrc, ~/.config/fish/config.fish, or PowerShell profile):\n\n%s\n\n", evalLine)
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fail(err)
		return nil
	}

	var candidates []string
	if runtime.GOOS == "windows" {
		candidates = append(candidates, filepath.Join(home, "Documents", "PowerShell", "Microsoft.PowerShell_profile.ps1"))
		candidates = append(candidates, filepath.Join(home, ".bashrc"))
	} else {
		candidates = append(candidates,
			filepath.Join(home, ".bashrc"),
			filepath.Join(home, ".zshrc"),
			filepath.Join(home, ".profile"),
			filepath.Join(home, ".bash_profile"),
			filepath.Join(home, ".config", "fish", "config.fish"),
		)
	}

	wroteAny := false
	for _, path := range candidates {
		createOK := strings.HasSuffix(path, ".bashrc") || strings.HasSuffix(path, ".zshrc")
		if _, err := os.Stat(path); err != nil && !createOK {
			continue
		}
		if err := appendIfMissing(path, evalLine); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not update %s: %v\n", path, err)
			continue
		}
		fmt.Printf("Ensured tlk hook eval present in %s\n", path)
		wroteAny = true
	}

	if !wroteAny {
		fmt.Printf("Could not locate a shell profile to update automatically. Add manually:\n\n%s\n\n", evalLine)
		return nil
	}
	fmt.Println("Setup complete. Open a new shell or source your profile to activate tlk dynamic PATH.")
	return nil
}

func appendIfMissing(path, snippet string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if strings.Contains(string(existing), "tlk hook") {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	_, err = f.WriteString("\n" + snippet + "\n")
	return err
}
