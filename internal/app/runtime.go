package app

import (
	"context"
	"fmt"
	"log/slog"

	"pricepulse/internal/config"
	"pricepulse/internal/infrastructure"
	"pricepulse/internal/storage"
)

// Options select the configuration of a Runtime
type Options struct {
	// ConfigFile is the YAML layer; empty searches the default locations
	ConfigFile string

	// WorkDir overrides paths.work_dir when set
	WorkDir string
}

// Runtime holds what every command needs before doing its work
type Runtime struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.PipelineMetrics
}

// NewRuntime loads configuration, resolves paths and initializes logging
// and telemetry
func NewRuntime(opts Options) (*Runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFile(opts.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.WorkDir != "" {
		cfg.Paths.WorkDir = opts.WorkDir
	}

	paths, err := cfg.NewPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	logging := cfg.Logging
	logging.FilePath = paths.GetRelativePath(logging.FilePath)
	logger, err := infrastructure.InitializeLogger(logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	rt := &Runtime{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
		OTel:   providers,
	}

	if providers.Meter != nil {
		metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		rt.Metrics = metrics
	}

	logger.Info("Runtime initialized",
		slog.String("app", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("work_dir", paths.WorkDir))
	return rt, nil
}

// OpenRepository opens the run history database. It returns nil without
// error when storage is disabled.
func (rt *Runtime) OpenRepository() (*storage.SQLiteRepository, error) {
	if !rt.Config.Storage.Enabled {
		rt.Logger.Info("Run history storage disabled")
		return nil, nil
	}

	repo, err := storage.NewSQLiteRepository(rt.Paths.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	rt.Logger.Info("Run history storage opened",
		slog.String("path", rt.Paths.DatabaseFile))
	return repo, nil
}

// Shutdown flushes telemetry and closes the log file
func (rt *Runtime) Shutdown(ctx context.Context) {
	if rt.OTel != nil {
		if err := rt.OTel.Shutdown(ctx); err != nil {
			rt.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}
	infrastructure.CloseLogFile()
}
