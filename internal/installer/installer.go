// Package installer implements Tool Locker's per-tool install pipeline:
// skip-if-installed detection, templated download, optional checksum
// verification, archive extraction or direct placement, and the
// executable bit.
package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/codyspate/tool-locker/internal/errmsg"
	tlog "github.com/codyspate/tool-locker/internal/log"
	"github.com/codyspate/tool-locker/internal/manifest"
	"github.com/codyspate/tool-locker/internal/platform"
)

// Installer installs a single manifest.Tool into a fixed install
// directory using a caller-supplied HTTP client.
type Installer struct {
	Client     *http.Client
	InstallDir string
	Platform   platform.Platform
	Logger     tlog.Logger
}

// New builds an Installer targeting installDir.
func New(client *http.Client, installDir string, logger tlog.Logger) *Installer {
	if logger == nil {
		logger = tlog.NewNoop()
	}
	return &Installer{
		Client:     client,
		InstallDir: installDir,
		Platform:   platform.Current(),
		Logger:     logger,
	}
}

// Result is what a single install attempt produced.
type Result struct {
	Name    string
	Skipped bool
	Err     error
}

// InstallTool runs the full install pipeline for tool, returning nil on
// success (including a no-op skip when already installed at the right
// version).
func (in *Installer) InstallTool(ctx context.Context, tool manifest.Tool) error {
	if installed, ok := in.installedVersion(tool); ok && installed == tool.Version {
		in.Logger.Info("skipping already-installed tool", "tool", tool.Name, "version", installed)
		return nil
	}

	osName, arch := platform.DetectHost()
	template := tool.EffectiveSourceTemplate(osName, arch)
	url := renderURL(template, tool.Version, osName, arch)
	url = in.Platform.AdjustDirectURL(url)

	body, err := in.download(ctx, tool.Name, url)
	if err != nil {
		return err
	}

	if tool.SHA256 != "" {
		if err := verifySHA256(tool.Name, body, tool.SHA256); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(in.InstallDir, 0o755); err != nil {
		return &errmsg.IOError{Path: in.InstallDir, Err: err}
	}

	switch tool.Kind {
	case manifest.Direct:
		return in.emplaceDirect(tool, body)
	default:
		return in.emplaceArchive(tool, url, body)
	}
}

func renderURL(template, version, osName, arch string) string {
	r := strings.NewReplacer("{version}", version, "{os}", osName, "{arch}", arch)
	return r.Replace(template)
}

func (in *Installer) download(ctx context.Context, tool, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errmsg.NetworkError{Tool: tool, URL: url, Err: err}
	}
	resp, err := in.Client.Do(req)
	if err != nil {
		return nil, &errmsg.NetworkError{Tool: tool, URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errmsg.NetworkError{Tool: tool, URL: url, Err: fmt.Errorf("download failed %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errmsg.NetworkError{Tool: tool, URL: url, Err: err}
	}
	return body, nil
}

func verifySHA256(tool string, data []byte, expected string) error {
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if got != expected {
		return &errmsg.IntegrityError{Tool: tool, Expected: expected, Actual: got}
	}
	return nil
}

func (in *Installer) emplaceDirect(tool manifest.Tool, body []byte) error {
	binPath := filepath.Join(in.InstallDir, in.Platform.FinalBinaryName(tool.Name))
	if err := os.WriteFile(binPath, body, 0o644); err != nil {
		return &errmsg.IOError{Path: binPath, Err: err}
	}
	if err := in.Platform.MakeExecutable(binPath); err != nil {
		return &errmsg.IOError{Path: binPath, Err: err}
	}
	return nil
}

func (in *Installer) emplaceArchive(tool manifest.Tool, url string, body []byte) error {
	binRel := tool.Binary
	if binRel == "" {
		binRel = tool.Name
	}
	candidates := in.Platform.CandidateArchiveEntryNames(binRel)
	binPath := filepath.Join(in.InstallDir, in.Platform.FinalBinaryName(tool.Name))

	var extractErr error
	var extracted bool
	switch {
	case strings.HasSuffix(url, ".tar.gz") || strings.HasSuffix(url, ".tgz"):
		extracted, extractErr = extractTarGz(body, candidates, binPath)
	case strings.HasSuffix(url, ".zip"):
		extracted, extractErr = extractZip(body, candidates, binPath)
	default:
		return &errmsg.ArchiveError{Tool: tool.Name, Err: fmt.Errorf("unsupported archive type")}
	}
	if extractErr != nil {
		return &errmsg.ArchiveError{Tool: tool.Name, Err: extractErr}
	}
	if !extracted {
		return &errmsg.ArchiveError{Tool: tool.Name, Err: fmt.Errorf("did not find expected binary '%s' inside archive for %s", binRel, tool.Name)}
	}
	return in.Platform.MakeExecutable(binPath)
}

func matchesCandidate(entryPath string, candidates []string) bool {
	for _, c := range candidates {
		if strings.HasSuffix(entryPath, c) {
			return true
		}
	}
	return false
}

func extractTarGz(body []byte, candidates []string, destPath string) (bool, error) {
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	extracted := false
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extracted, err
		}
		if hdr.Typeflag == tar.TypeSymlink || hdr.Typeflag == tar.TypeLink {
			if err := validateSymlinkTarget(hdr.Linkname, hdr.Name, filepath.Dir(destPath)); err != nil {
				return extracted, err
			}
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !matchesCandidate(hdr.Name, candidates) {
			continue
		}
		out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return extracted, err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return extracted, err
		}
		out.Close()
		extracted = true
	}
	return extracted, nil
}

func extractZip(body []byte, candidates []string, destPath string) (bool, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return false, err
	}
	extracted := false
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !matchesCandidate(f.Name, candidates) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return extracted, err
		}
		out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			rc.Close()
			return extracted, err
		}
		_, cpErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if cpErr != nil {
			return extracted, cpErr
		}
		extracted = true
	}
	return extracted, nil
}

// validateSymlinkTarget rejects absolute symlink targets and any
// relative target that would resolve outside destDir (the install
// directory), preventing a malicious archive from writing outside the install tree.
func validateSymlinkTarget(linkTarget, linkLocation, destDir string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("archive entry %q has an absolute symlink target", linkLocation)
	}
	resolved := filepath.Join(filepath.Dir(filepath.Join(destDir, linkLocation)), linkTarget)
	if !isPathWithinDirectory(resolved, destDir) {
		return fmt.Errorf("archive entry %q symlink escapes the install directory", linkLocation)
	}
	return nil
}

func isPathWithinDirectory(target, base string) bool {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// InstalledVersion reports the version of tool currently placed in
// InstallDir, if any, by running its --version flag and scanning for a
// semver token.
func (in *Installer) InstalledVersion(tool manifest.Tool) (string, bool) {
	return in.installedVersion(tool)
}

// installedVersion runs the already-placed binary's --version and looks
// for a semver token equal to the tool's desired version, falling back
// to the first semver token in the output.
func (in *Installer) installedVersion(tool manifest.Tool) (string, bool) {
	binPath := filepath.Join(in.InstallDir, in.Platform.FinalBinaryName(tool.Name))
	if _, err := os.Stat(binPath); err != nil {
		return "", false
	}
	out, err := exec.Command(binPath, "--version").Output()
	if err != nil {
		return "", false
	}
	first := ""
	for _, tok := range strings.Fields(string(out)) {
		v, err := semver.NewVersion(strings.TrimPrefix(tok, "v"))
		if err != nil {
			continue
		}
		if v.String() == tool.Version {
			return v.String(), true
		}
		if first == "" {
			first = v.String()
		}
	}
	return first, first != ""
}

// ComputeInstalledDigest returns the sha256 of the binary currently
// placed for tool, if any.
func (in *Installer) ComputeInstalledDigest(tool manifest.Tool) (string, error) {
	binPath := filepath.Join(in.InstallDir, in.Platform.FinalBinaryName(tool.Name))
	data, err := os.ReadFile(binPath)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
