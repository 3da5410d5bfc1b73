package installer

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	tlog "github.com/codyspate/tool-locker/internal/log"
	"github.com/codyspate/tool-locker/internal/manifest"
	"github.com/codyspate/tool-locker/internal/platform"
)

// NewClientFunc builds a fresh HTTP client for one worker. Each worker
// owns its own client so redirect/connection state is never shared.
type NewClientFunc func() *http.Client

// InstallAllParallel installs every tool concurrently, one worker per
// tool, each with its own HTTP client. Tools are independent: there is
// no ordering between them, and one tool's failure does not cancel the
// others.
func InstallAllParallel(ctx context.Context, tools []manifest.Tool, installDir string, newClient NewClientFunc, logger tlog.Logger) []Result {
	results := make([]Result, len(tools))
	var g errgroup.Group

	for i, tool := range tools {
		i, tool := i, tool
		g.Go(func() error {
			in := &Installer{
				Client:     newClient(),
				InstallDir: installDir,
				Platform:   platform.Current(),
				Logger:     logger,
			}
			err := in.InstallTool(ctx, tool)
			results[i] = Result{Name: tool.Name, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Summarize aggregates per-tool failures into a single error, matching
// the "{k} tool(s) failed" bulk-install message; per-tool successes are
// left to the caller to report inline.
func Summarize(results []Result) error {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d tool(s) failed", failed)
}
