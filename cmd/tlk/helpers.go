package main

import (
	"context"
	"net/http"
	"os"

	"golang.org/x/oauth2"

	"github.com/codyspate/tool-locker/internal/config"
	"github.com/codyspate/tool-locker/internal/httputil"
	"github.com/codyspate/tool-locker/internal/installer"
	"github.com/codyspate/tool-locker/internal/log"
	"github.com/codyspate/tool-locker/internal/manifest"
	"github.com/codyspate/tool-locker/internal/version"
)

// appContext bundles the per-invocation project layout and parsed
// manifest that almost every subcommand needs.
type appContext struct {
	cfg *config.Config
	m   *manifest.Manifest
}

func loadAppContext() (*appContext, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}
	return &appContext{cfg: cfg, m: m}, nil
}

// newHTTPClient returns the SSRF-hardened client used for all outbound
// fetches (downloads, HashiCorp/GitHub release listings).
func newHTTPClient(cfg *config.Config) *http.Client {
	opts := httputil.DefaultOptions()
	opts.Timeout = config.GetAPITimeout()
	return httputil.NewSecureClient(opts)
}

// newResolver builds a version.Resolver, authenticating GitHub requests
// with GITHUB_TOKEN when set.
func newResolver(client *http.Client) *version.Resolver {
	httpClient := client
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.WithValue(globalCtx, oauth2.HTTPClient, client)
		httpClient = oauth2.NewClient(ctx, ts)
	}
	return version.NewResolver(httpClient, log.Default())
}

// installedDigestFunc returns a callback that hashes whatever binary is
// currently placed in cfg.BinDir for a tool, for use by lockfile.Verify.
func installedDigestFunc(cfg *config.Config) func(manifest.Tool) (string, error) {
	in := installer.New(nil, cfg.BinDir, log.Default())
	return in.ComputeInstalledDigest
}
