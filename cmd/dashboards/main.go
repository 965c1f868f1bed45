package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"pricepulse/internal/app"
	"pricepulse/internal/dashboard"
	"pricepulse/internal/dataprocessing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run renders every dashboard family concurrently. One family failing does
// not stop the others; the exit code is 1 if any failed.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("dashboards", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "configuration file (defaults to config.yaml lookup)")
	workDir := fs.String("workdir", "", "directory holding csv_output/")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rt, err := app.NewRuntime(app.Options{ConfigFile: *configFile, WorkDir: *workDir})
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return 1
	}
	defer rt.Shutdown(context.Background())

	opts := dashboard.Options{
		WorkDir:  rt.Paths.WorkDir,
		OutDir:   rt.Paths.DashboardDir,
		Prior:    dataprocessing.ParsePriorMode(strings.ToLower(rt.Config.Dashboards.PriorMode)),
		MinYear:  rt.Config.Dashboards.MinYear,
		Snapshot: rt.Config.Dashboards.Snapshot,
		Metrics:  rt.Metrics,
	}

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for _, fam := range dashboard.Families() {
		g.Go(func() error {
			if _, err := dashboard.Run(gctx, fam, opts); err != nil {
				failed.Add(1)
				rt.Logger.ErrorContext(gctx, "Dashboard generation failed",
					slog.String("family", fam.Name),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	g.Wait()

	if n := failed.Load(); n > 0 {
		rt.Logger.Error("Some dashboards were not generated",
			slog.Int("failed", int(n)),
			slog.Int("total", len(dashboard.Families())))
		return 1
	}
	rt.Logger.Info("All dashboards generated",
		slog.String("output_dir", opts.OutDir))
	return 0
}
