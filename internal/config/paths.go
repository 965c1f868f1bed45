package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// Every path is resolved against WorkDir unless configured as absolute.
type Paths struct {
	WorkDir      string
	DataDir      string
	LogsDir      string
	CSVDir       string
	DashboardDir string

	WorkbookFile    string
	DatabaseFile    string
	CollectorsFile  string
	CredentialsFile string
}

// NewPaths resolves a PathsConfig into absolute paths
func NewPaths(cfg PathsConfig) (*Paths, error) {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = "."
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work dir: %w", err)
	}

	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(workDir, p)
	}

	return &Paths{
		WorkDir:         workDir,
		DataDir:         resolve(cfg.DataDir, DefaultDataDir),
		LogsDir:         resolve(cfg.LogsDir, DefaultLogsDir),
		CSVDir:          resolve(cfg.CSVDir, DefaultCSVDir),
		DashboardDir:    resolve(cfg.DashboardDir, "."),
		WorkbookFile:    resolve(cfg.WorkbookFile, DefaultWorkbookFile),
		DatabaseFile:    resolve("", DefaultDatabaseFile),
		CollectorsFile:  resolve(cfg.CollectorsFile, DefaultCollectorsFile),
		CredentialsFile: resolve("", DefaultCredentialsFile),
	}, nil
}

// GetPaths returns default paths rooted at dir
func GetPaths(dir string) (*Paths, error) {
	cfg := Default().Paths
	cfg.WorkDir = dir
	return NewPaths(cfg)
}

// WithDatabase overrides the database file, resolved against WorkDir
func (p *Paths) WithDatabase(path string) *Paths {
	if path != "" {
		p.DatabaseFile = p.GetRelativePath(path)
	}
	return p
}

// WithCredentials overrides the Google credentials file, resolved against WorkDir
func (p *Paths) WithCredentials(path string) *Paths {
	if path != "" {
		p.CredentialsFile = p.GetRelativePath(path)
	}
	return p
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.LogsDir,
		p.CSVDir,
		p.DashboardDir,
		filepath.Dir(p.DatabaseFile),
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetRelativePath returns subpath resolved against the working directory
func (p *Paths) GetRelativePath(subpath string) string {
	if filepath.IsAbs(subpath) {
		return subpath
	}
	return filepath.Join(p.WorkDir, subpath)
}

// GetCSVPath returns the path of the CSV file for a sheet
func (p *Paths) GetCSVPath(sheet string) string {
	return filepath.Join(p.CSVDir, sheet+".csv")
}

// GetDashboardPath returns the path of a dashboard HTML file
func (p *Paths) GetDashboardPath(filename string) string {
	return filepath.Join(p.DashboardDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs path resolution information for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Info("Path resolution summary",
		slog.Group("directories",
			slog.String("work", p.WorkDir),
			slog.String("data", p.DataDir),
			slog.String("logs", p.LogsDir),
			slog.String("csv", p.CSVDir),
			slog.String("dashboards", p.DashboardDir),
		),
		slog.Group("files",
			slog.String("workbook", p.WorkbookFile),
			slog.String("database", p.DatabaseFile),
			slog.String("collectors", p.CollectorsFile),
			slog.String("credentials", p.CredentialsFile),
		),
		slog.Group("status",
			slog.Bool("workbook_exists", FileExists(p.WorkbookFile)),
			slog.Bool("collectors_exists", FileExists(p.CollectorsFile)),
		),
	)
}
