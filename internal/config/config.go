package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "PULSE"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Collectors CollectorsConfig `yaml:"collectors" envconfig:"COLLECTORS"`
	Dashboards DashboardsConfig `yaml:"dashboards" envconfig:"DASHBOARDS"`
	Storage    StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Publish    PublishConfig    `yaml:"publish" envconfig:"PUBLISH"`
	Notify     NotifyConfig     `yaml:"notify" envconfig:"NOTIFY"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths, relative to WorkDir unless absolute
type PathsConfig struct {
	WorkDir        string `yaml:"work_dir" envconfig:"WORK_DIR"`
	WorkbookFile   string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE"`
	CSVDir         string `yaml:"csv_dir" envconfig:"CSV_DIR"`
	DashboardDir   string `yaml:"dashboard_dir" envconfig:"DASHBOARD_DIR"`
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	CollectorsFile string `yaml:"collectors_file" envconfig:"COLLECTORS_FILE"`
}

// CollectorsConfig controls how collector steps are executed
type CollectorsConfig struct {
	Interpreter string        `yaml:"interpreter" envconfig:"INTERPRETER"`
	StepTimeout time.Duration `yaml:"step_timeout" envconfig:"STEP_TIMEOUT"`
}

// DashboardsConfig contains dashboard rendering options
type DashboardsConfig struct {
	MinYear   int    `yaml:"min_year" envconfig:"MIN_YEAR"`
	PriorMode string `yaml:"prior_mode" envconfig:"PRIOR_MODE"`
	Snapshot  bool   `yaml:"snapshot" envconfig:"SNAPSHOT"`
}

// StorageConfig contains run history storage configuration
type StorageConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	// envconfig falls back to the bare tag name, so never tag this PATH
	Path string `yaml:"path" envconfig:"DATABASE_PATH"`
}

// PublishConfig contains Google Sheets publication settings
type PublishConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// NotifyConfig contains AMQP run notification settings
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	URL      string `yaml:"url" envconfig:"URL"`
	Exchange string `yaml:"exchange" envconfig:"EXCHANGE"`
	Queue    string `yaml:"queue" envconfig:"QUEUE"`
}

// TelemetryConfig toggles OpenTelemetry providers
type TelemetryConfig struct {
	Metrics       bool   `yaml:"metrics" envconfig:"METRICS"`
	Tracing       bool   `yaml:"tracing" envconfig:"TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load loads configuration from the first config.yaml found, .env and the environment
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile loads configuration using configFile as the YAML layer. An empty
// path skips the file layer.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values on cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Collectors.StepTimeout <= 0 {
		return fmt.Errorf("collector step timeout must be positive")
	}
	if c.Collectors.Interpreter == "" {
		return fmt.Errorf("collector interpreter must be set")
	}

	switch strings.ToLower(c.Dashboards.PriorMode) {
	case "", "record", "calendar":
	default:
		return fmt.Errorf("invalid prior mode %q (want record or calendar)", c.Dashboards.PriorMode)
	}

	if c.Publish.Enabled && c.Publish.SpreadsheetID == "" {
		return fmt.Errorf("publish enabled without spreadsheet id")
	}
	if c.Notify.Enabled && c.Notify.URL == "" {
		return fmt.Errorf("notify enabled without broker url")
	}

	// JSON is the only supported log format
	c.Logging.Format = "json"
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/pulse.log"
	}

	return nil
}

// NewPaths resolves the configured paths against the working directory
func (c *Config) NewPaths() (*Paths, error) {
	p, err := NewPaths(c.Paths)
	if err != nil {
		return nil, err
	}
	return p.WithDatabase(c.Storage.Path).WithCredentials(c.Publish.CredentialsFile), nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/pulse.log",
		},
		Paths: PathsConfig{
			WorkDir:        ".",
			WorkbookFile:   DefaultWorkbookFile,
			CSVDir:         DefaultCSVDir,
			DashboardDir:   ".",
			DataDir:        DefaultDataDir,
			LogsDir:        DefaultLogsDir,
			CollectorsFile: DefaultCollectorsFile,
		},
		Collectors: CollectorsConfig{
			Interpreter: DefaultInterpreter,
			StepTimeout: DefaultStepTimeout,
		},
		Dashboards: DashboardsConfig{
			MinYear:   DefaultMinYear,
			PriorMode: "record",
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    DefaultDatabaseFile,
		},
		Publish: PublishConfig{
			SheetName:       SummarySheetName,
			CredentialsFile: DefaultCredentialsFile,
		},
		Notify: NotifyConfig{
			Exchange: "pricepulse",
			Queue:    "pricepulse.runs",
		},
		Telemetry: TelemetryConfig{
			Metrics:       true,
			Tracing:       false,
			TraceExporter: "stdout",
			Environment:   "development",
		},
	}
}
