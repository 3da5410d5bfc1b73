package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var hookShell string

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Print a shell snippet that keeps PATH in sync with the current project",
	Long: `hook prints a script that, once eval'd into a shell, watches the
working directory and prepends the nearest ancestor project's .tlk/bin
to PATH whenever it changes, removing it again on leaving the project.

Usage: eval "$(tlk hook)"`,
	RunE: runHook,
}

func init() {
	hookCmd.Flags().StringVar(&hookShell, "shell", "", "Target shell: bash, zsh, fish, or powershell (auto-detected from $SHELL if omitted)")
}

func runHook(cmd *cobra.Command, args []string) error {
	shell := strings.ToLower(hookShell)
	if shell == "" {
		if env := os.Getenv("SHELL"); env != "" {
			shell = strings.ToLower(filepath.Base(env))
		}
	}
	switch shell {
	case "fish":
		fmt.Println(fishHook)
	case "powershell", "pwsh":
		fmt.Println(powershellHook)
	default:
		fmt.Println(posixHook)
	}
	return nil
}

const posixHook = `# tlk dynamic PATH activation
# Add by running: eval "$(tlk hook)"
# Supports bash (PROMPT_COMMAND) and zsh (precmd). Safe to re-eval.

_tlk_find_project_root() {
  local dir="$PWD"
  while [ "$dir" != "/" ]; do
    if [ -f "$dir/tlk.toml" ]; then
      printf '%s' "$dir"
      return 0
    fi
    dir="${dir%/*}"
    [ -z "$dir" ] && break
  done
  return 1
}

_tlk_path_remove() {
  local target="$1" newpath="" part first=1
  local IFS=':'
  for part in $PATH; do
    [ "$part" = "$target" ] && continue
    if [ $first -eq 1 ]; then newpath="$part"; first=0; else newpath="$newpath:$part"; fi
  done
  PATH="$newpath"
  export PATH
}

_tlk_sync_path() {
  if [ "$PWD" = "$TLK_LAST_PWD" ]; then
    return 0
  fi
  TLK_LAST_PWD="$PWD"
  export TLK_LAST_PWD

  local root
  if root=$(_tlk_find_project_root); then
    local bindir="$root/.tlk/bin"
    if [ -d "$bindir" ] && [ "$TLK_ACTIVE_BIN" != "$bindir" ]; then
      [ -n "$TLK_ACTIVE_BIN" ] && [ -d "$TLK_ACTIVE_BIN" ] && _tlk_path_remove "$TLK_ACTIVE_BIN"
      case ":$PATH:" in
        *":$bindir:"*) ;;
        *) PATH="$bindir:$PATH"; export PATH;;
      esac
      TLK_ACTIVE_BIN="$bindir"; export TLK_ACTIVE_BIN
      echo "[tlk] activated $bindir"
    fi
  elif [ -n "$TLK_ACTIVE_BIN" ]; then
    _tlk_path_remove "$TLK_ACTIVE_BIN"
    unset TLK_ACTIVE_BIN
  fi
}

if [ -n "${BASH_VERSION:-}" ]; then
  case "$PROMPT_COMMAND" in
    *"_tlk_sync_path"*) ;;
    "") PROMPT_COMMAND="_tlk_sync_path" ;;
    *) PROMPT_COMMAND="_tlk_sync_path;${PROMPT_COMMAND}" ;;
  esac
  export PROMPT_COMMAND
fi

if [ -n "${ZSH_VERSION:-}" ]; then
  if ! typeset -f _tlk_prepend_precmd >/dev/null 2>&1; then
    if typeset -f precmd >/dev/null 2>&1; then
      __TLK_ORIG_PRECMD="$(typeset -f precmd | tail -n +2)"
    fi
    _tlk_prepend_precmd() {
      _tlk_sync_path
      [ -n "$__TLK_ORIG_PRECMD" ] && eval "$__TLK_ORIG_PRECMD"
    }
    precmd() { _tlk_prepend_precmd; }
  fi
fi

_tlk_sync_path
`

const fishHook = `# tlk dynamic PATH activation (fish)
function __tlk_find_root
    set -l dir $PWD
    while test "$dir" != /
        if test -f "$dir/tlk.toml"
            echo $dir
            return 0
        end
        set dir (dirname $dir)
    end
    return 1
end

function __tlk_path_remove
    set -l target $argv[1]
    set -l new ''
    for p in $PATH
        if test $p != $target
            if test -z "$new"
                set new $p
            else
                set new $new $p
            end
        end
    end
    set -gx PATH $new
end

function __tlk_sync_path --on-event fish_prompt
    if test "$PWD" = "$TLK_LAST_PWD"
        return
    end
    set -gx TLK_LAST_PWD $PWD
    set -l root (__tlk_find_root)
    if test -n "$root"
        set -l bindir "$root/.tlk/bin"
        if test -d $bindir; and test "$TLK_ACTIVE_BIN" != $bindir
            if test -n "$TLK_ACTIVE_BIN"
                __tlk_path_remove $TLK_ACTIVE_BIN
            end
            if not contains $bindir $PATH
                set -gx PATH $bindir $PATH
            end
            set -gx TLK_ACTIVE_BIN $bindir
            echo "[tlk] activated $bindir"
        end
    else if test -n "$TLK_ACTIVE_BIN"
        __tlk_path_remove $TLK_ACTIVE_BIN
        set -e TLK_ACTIVE_BIN
    end
end

__tlk_sync_path
`

const powershellHook = `# tlk dynamic PATH activation (PowerShell)
function Get-TlkProjectRoot {
  $d = Get-Location
  while ($d -and $d -ne [IO.Path]::GetPathRoot($d)) {
    if (Test-Path (Join-Path $d 'tlk.toml')) { return $d }
    $parent = Split-Path $d -Parent
    if (-not $parent -or $parent -eq $d) { break }
    $d = $parent
  }
  return $null
}

function Remove-TlkPath([string]$target) {
  if (-not $target) { return }
  $parts = $Env:PATH -split ';' | Where-Object { $_ -and ($_ -ne $target) }
  $Env:PATH = ($parts -join ';')
}

function global:prompt {
  if ($PWD.Path -ne $Env:TLK_LAST_PWD) {
    $Env:TLK_LAST_PWD = $PWD.Path
    $root = Get-TlkProjectRoot
    if ($root) {
      $bindir = Join-Path $root '.tlk/bin'
      if (Test-Path $bindir -and $Env:TLK_ACTIVE_BIN -ne $bindir) {
        if ($Env:TLK_ACTIVE_BIN) { Remove-TlkPath $Env:TLK_ACTIVE_BIN }
        if (-not ($Env:PATH -split ';' | Where-Object { $_ -eq $bindir })) {
          $Env:PATH = "$bindir;" + $Env:PATH
        }
        $Env:TLK_ACTIVE_BIN = $bindir
        Write-Host "[tlk] activated $bindir" -ForegroundColor Cyan
      }
    } elseif ($Env:TLK_ACTIVE_BIN) {
      Remove-TlkPath $Env:TLK_ACTIVE_BIN
      $Env:TLK_ACTIVE_BIN = $null
    }
  }
  "PS " + $(Get-Location) + "> "
}

& global:prompt > $null
`
