package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pricepulse/internal/app"
	"pricepulse/internal/config"
	"pricepulse/internal/integrator"
	"pricepulse/internal/notify"
	"pricepulse/internal/publish"
	"pricepulse/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run executes one integration and returns the process exit code.
// Collector failures are reported but only a workbook failure, a bad
// configuration or cancellation exits non-zero.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("integrator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "configuration file (defaults to config.yaml lookup)")
	workDir := fs.String("workdir", "", "working directory holding the collectors")
	collectorsFile := fs.String("collectors", "", "collector definitions file (defaults to collectors.yaml in workdir)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rt, err := app.NewRuntime(app.Options{ConfigFile: *configFile, WorkDir: *workDir})
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return 1
	}
	defer rt.Shutdown(context.Background())
	logger := rt.Logger

	fileValidator := validation.NewFileValidator(logger)
	if err := fileValidator.ValidateWorkDir(rt.Paths.WorkDir); err != nil {
		return 1
	}

	path := rt.Paths.CollectorsFile
	if *collectorsFile != "" {
		path = rt.Paths.GetRelativePath(*collectorsFile)
	}
	collectors, err := loadCollectors(path)
	if err != nil {
		logger.Error("Invalid collector definitions",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return 1
	}
	if missing := fileValidator.MissingScripts(rt.Paths.WorkDir, collectors); len(missing) > 0 {
		logger.Warn("Some collector scripts are missing and will fail",
			slog.Any("collectors", missing))
	}

	integ := integrator.New(integrator.ExecContext{
		WorkDir:     rt.Paths.WorkDir,
		OutputFile:  rt.Paths.WorkbookFile,
		Timeout:     rt.Config.Collectors.StepTimeout,
		Interpreter: rt.Config.Collectors.Interpreter,
		Collectors:  collectors,
		Metrics:     rt.Metrics,
		Logger:      logger,
	})

	repo, err := rt.OpenRepository()
	if err != nil {
		// History is optional; the workbook is still produced
		logger.Warn("Run history unavailable", slog.String("error", err.Error()))
	} else if repo != nil {
		defer repo.Close()
		integ.WithRecorder(repo)
	}

	if rt.Config.Publish.Enabled {
		pubCfg := rt.Config.Publish
		pubCfg.CredentialsFile = rt.Paths.CredentialsFile
		publisher, err := publish.NewSheetsPublisher(ctx, pubCfg)
		if err != nil {
			logger.Warn("Google Sheets publication disabled", slog.String("error", err.Error()))
		} else {
			integ.WithPublisher(publisher)
		}
	}

	if rt.Config.Notify.Enabled {
		client, err := notify.NewClient(rt.Config.Notify)
		if err != nil {
			logger.Warn("Run notifications disabled", slog.String("error", err.Error()))
		} else {
			defer client.Close()
			integ.WithNotifier(client)
		}
	}

	result, err := integ.Run(ctx)
	if err != nil {
		logger.Error("Data integration failed", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("Integrated workbook ready",
		slog.String("path", result.Run.OutputFile),
		slog.Int("succeeded", result.Run.Succeeded),
		slog.Int("total", result.Run.Total))
	return 0
}

func loadCollectors(path string) ([]config.CollectorSpec, error) {
	collectors, err := config.LoadCollectors(path)
	if err != nil {
		return nil, err
	}
	if err := validation.NewCollectorValidator().ValidateCollectors(collectors); err != nil {
		return nil, err
	}
	return collectors, nil
}
