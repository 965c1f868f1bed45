package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pricepulse/internal/app"
	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/exporter"
	"pricepulse/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("exportcsv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "configuration file (defaults to config.yaml lookup)")
	workDir := fs.String("workdir", "", "working directory")
	in := fs.String("in", "", "integrated workbook (defaults to "+config.DefaultWorkbookFile+")")
	out := fs.String("out", "", "CSV output directory (defaults to "+config.DefaultCSVDir+")")
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

	workbook := rt.Paths.WorkbookFile
	if *in != "" {
		workbook = rt.Paths.GetRelativePath(*in)
	}
	outDir := rt.Paths.CSVDir
	if *out != "" {
		outDir = rt.Paths.GetRelativePath(*out)
	}

	result, err := exporter.ExportSheets(ctx, workbook, outDir)
	if errors.Is(err, apperrors.ErrMissingInput) {
		logger.Error(config.ErrMsgWorkbookMissing,
			slog.String("path", workbook))
		return 1
	}
	if err != nil {
		logger.Error("CSV export failed",
			slog.String("workbook", workbook),
			slog.String("error", err.Error()))
		return 1
	}

	infrastructure.RecordSheetsExported(ctx, rt.Metrics, len(result.Exported))
	logger.Info("CSV export complete",
		slog.String("output_dir", outDir),
		slog.Int("exported", len(result.Exported)),
		slog.Any("skipped", result.Skipped))
	return 0
}
