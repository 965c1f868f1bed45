package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "PricePulse"
	AppVersion = "1.0.0"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second
	PublishTimeout     = 45 * time.Second
	NotifyTimeout      = 5 * time.Second

	// File Paths (relative to the working directory)
	DefaultDataDir         = "data"
	DefaultLogsDir         = "logs"
	DefaultCSVDir          = "csv_output"
	DefaultWorkbookFile    = "integrated_data.xlsx"
	DefaultDatabaseFile    = "data/pulse.db"
	DefaultCollectorsFile  = "collectors.yaml"
	DefaultCredentialsFile = "credentials.json"

	// Collector execution
	DefaultInterpreter = "python"
	DefaultStepTimeout = 600 * time.Second

	// Workbook layout
	SummarySheetName = "Summary"
	TimestampLayout  = "2006-01-02 15:04:05"

	// Dashboards
	DefaultMinYear = 2015

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Dashboard output files, written to the dashboard directory
const (
	CommodityDashboardFile = "commodity_visualization.html"
	ExchangeDashboardFile  = "exchange_rate_visualization.html"
	RubberDashboardFile    = "rubber_price_visualization.html"
)

// Error Messages
const (
	ErrMsgMissingInput    = "input file not found"
	ErrMsgNoComparison    = "no comparison could be computed"
	ErrMsgWorkbookMissing = "integrated workbook not found"
)
