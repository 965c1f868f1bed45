package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pricepulse/internal/app"
	"pricepulse/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "configuration file (defaults to config.yaml lookup)")
	workDir := flag.String("workdir", "", "working directory holding the dashboards and run history")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	rt, err := app.NewRuntime(app.Options{ConfigFile: *configFile, WorkDir: *workDir})
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer rt.Shutdown(context.Background())

	if err := rt.Paths.EnsureDirectories(); err != nil {
		rt.Logger.Error("Failed to create directories", slog.String("error", err.Error()))
		os.Exit(1)
	}
	rt.Paths.LogPathResolution()

	repo, err := rt.OpenRepository()
	if err != nil {
		// The server still serves dashboards; /api/runs answers 503
		rt.Logger.Warn("Run history unavailable", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.Logger.Info("Starting preview server",
		slog.String("version", contracts.GetVersionString()),
		slog.Int("port", rt.Config.Server.Port))

	if err := app.NewApplication(rt, repo).Run(ctx); err != nil {
		rt.Logger.Error("Server error", slog.String("error", err.Error()))
		stop()
		rt.Shutdown(context.Background())
		os.Exit(1)
	}
	rt.Logger.Info("Server stopped")
}
