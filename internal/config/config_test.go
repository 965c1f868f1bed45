package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		setupEnv    func(t *testing.T)
		wantErr     string
		validateCfg func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults without file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 600*time.Second, cfg.Collectors.StepTimeout)
				assert.Equal(t, "python", cfg.Collectors.Interpreter)
				assert.Equal(t, DefaultWorkbookFile, cfg.Paths.WorkbookFile)
				assert.Equal(t, 2015, cfg.Dashboards.MinYear)
				assert.Equal(t, "record", cfg.Dashboards.PriorMode)
			},
		},
		{
			name: "yaml overrides defaults",
			yaml: "server:\n  port: 9090\ncollectors:\n  step_timeout: 2m\ndashboards:\n  prior_mode: calendar\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 2*time.Minute, cfg.Collectors.StepTimeout)
				assert.Equal(t, "calendar", cfg.Dashboards.PriorMode)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "environment overrides yaml",
			yaml: "server:\n  port: 9090\n",
			setupEnv: func(t *testing.T) {
				t.Setenv("PULSE_SERVER_PORT", "7070")
				t.Setenv("PULSE_COLLECTORS_INTERPRETER", "python3")
				t.Setenv("PULSE_STORAGE_DATABASE_PATH", "runs.db")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "python3", cfg.Collectors.Interpreter)
				assert.Equal(t, "runs.db", cfg.Storage.Path)
			},
		},
		{
			name:    "invalid prior mode",
			yaml:    "dashboards:\n  prior_mode: weekly\n",
			wantErr: "invalid prior mode",
		},
		{
			name: "publish requires spreadsheet",
			setupEnv: func(t *testing.T) {
				t.Setenv("PULSE_PUBLISH_ENABLED", "true")
			},
			wantErr: "spreadsheet id",
		},
		{
			name:    "non positive timeout",
			yaml:    "collectors:\n  step_timeout: 0s\n",
			wantErr: "step timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupEnv != nil {
				tt.setupEnv(t)
			}

			path := ""
			if tt.yaml != "" {
				path = writeFile(t, t.TempDir(), "config.yaml", tt.yaml)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/pulse.log", cfg.Logging.FilePath)
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.WorkDir = dir
	cfg.Paths.DashboardDir = "out"
	cfg.Storage.Path = "db/runs.db"

	paths, err := cfg.NewPaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "integrated_data.xlsx"), paths.WorkbookFile)
	assert.Equal(t, filepath.Join(dir, "csv_output", "FRED_Data.csv"), paths.GetCSVPath("FRED_Data"))
	assert.Equal(t, filepath.Join(dir, "out", CommodityDashboardFile), paths.GetDashboardPath(CommodityDashboardFile))
	assert.Equal(t, filepath.Join(dir, "db", "runs.db"), paths.DatabaseFile)
	assert.Equal(t, "/abs/file", paths.GetRelativePath("/abs/file"))

	require.NoError(t, paths.EnsureDirectories())
	for _, d := range []string{paths.CSVDir, paths.LogsDir, paths.DataDir, filepath.Join(dir, "db")} {
		assert.DirExists(t, d)
	}
	assert.True(t, FileExists(paths.CSVDir))
	assert.False(t, FileExists(paths.WorkbookFile))
}

func TestGetPathsKeepsAbsoluteOverrides(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "book.xlsx")
	cfg := PathsConfig{WorkDir: t.TempDir(), WorkbookFile: abs}

	paths, err := NewPaths(cfg)
	require.NoError(t, err)
	assert.Equal(t, abs, paths.WorkbookFile)
	assert.Equal(t, filepath.Join(paths.WorkDir, DefaultCSVDir), paths.CSVDir)
}
