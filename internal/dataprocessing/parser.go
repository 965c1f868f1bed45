package dataprocessing

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "pricepulse/internal/errors"
	"pricepulse/pkg/contracts/domain"
)

// LayoutKind selects how raw rows are turned into records
type LayoutKind string

const (
	// LayoutCompactToken reads "2015M01 97.9" tokens from a single column
	LayoutCompactToken LayoutKind = "compact_token"
	// LayoutWideTable reads agency tables with one value column per series code
	LayoutWideTable LayoutKind = "wide_table"
	// LayoutColonLog reads "2015M01: 1.52 USD/kg" lines
	LayoutColonLog LayoutKind = "colon_log"
	// LayoutDateValue reads a month-key Date column and a Value column
	LayoutDateValue LayoutKind = "date_value"
	// LayoutYearMonthValue reads separate Year, Month and value columns
	LayoutYearMonthValue LayoutKind = "year_month_value"
)

const (
	DefaultMinYear     = 2015
	DefaultHeaderRows  = 6
	DefaultDateColumn  = "Date"
	DefaultValueColumn = "Value"
	DefaultYearColumn  = "Year"
	DefaultMonthColumn = "Month"

	// NoHeaderRows reads a wide table from its first row
	NoHeaderRows = -1
	// NoMinYear disables the year cutoff
	NoMinYear = -1
)

var (
	compactTokenPattern = regexp.MustCompile(`^\d{4}M\d{2}\s+[\d.]+$`)
	monthTokenPattern   = regexp.MustCompile(`^\d{4}M\d{2}$`)
	isoMonthPattern     = regexp.MustCompile(`^\d{4}-\d{2}$`)

	codeValidator = validator.New()
)

// SeriesCode maps a statistical-agency series code to its display name.
// Order matters for wide tables: the n-th code reads column n+1.
type SeriesCode struct {
	Code string `validate:"required"`
	Name string `validate:"required"`
}

// ParseOptions configures a single parse. A zero MinYear or HeaderRows takes
// the default; NoMinYear and NoHeaderRows turn them off.
type ParseOptions struct {
	Layout    LayoutKind
	MinYear   int
	Category  string
	SourceTag string

	// wide table
	HeaderRows int
	Codes      []SeriesCode

	// named-column layouts
	DateColumn  string
	ValueColumn string
	YearColumn  string
	MonthColumn string
}

func (o ParseOptions) withDefaults() ParseOptions {
	switch {
	case o.MinYear == 0:
		o.MinYear = DefaultMinYear
	case o.MinYear < 0:
		o.MinYear = math.MinInt
	}
	switch {
	case o.HeaderRows == 0:
		o.HeaderRows = DefaultHeaderRows
	case o.HeaderRows < 0:
		o.HeaderRows = 0
	}
	if o.DateColumn == "" {
		o.DateColumn = DefaultDateColumn
	}
	if o.ValueColumn == "" {
		o.ValueColumn = DefaultValueColumn
	}
	if o.YearColumn == "" {
		o.YearColumn = DefaultYearColumn
	}
	if o.MonthColumn == "" {
		o.MonthColumn = DefaultMonthColumn
	}
	return o
}

// ParseTable extracts records from a raw table according to opts.Layout.
// Records keep the source order.
func ParseTable(table *domain.Table, opts ParseOptions) ([]domain.TimeSeriesRecord, error) {
	opts = opts.withDefaults()
	if table == nil {
		return []domain.TimeSeriesRecord{}, nil
	}

	var (
		records []domain.TimeSeriesRecord
		err     error
	)
	switch opts.Layout {
	case LayoutCompactToken:
		records = parseCompactTokens(table, opts)
	case LayoutWideTable:
		if err := validateCodes(opts.Codes); err != nil {
			return nil, err
		}
		records = parseWideTable(table, opts)
	case LayoutColonLog:
		records = make([]domain.TimeSeriesRecord, 0, table.Len())
		for i := range table.Rows {
			if rec, ok := parseLogLine(table.Cell(i, 0), opts); ok {
				records = append(records, rec)
			}
		}
	case LayoutDateValue:
		records, err = parseDateValue(table, opts)
	case LayoutYearMonthValue:
		records, err = parseYearMonthValue(table, opts)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unknown layout %q", opts.Layout), nil)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("parsed table",
		slog.String("layout", string(opts.Layout)),
		slog.String("source", opts.SourceTag),
		slog.Int("rows", table.Len()),
		slog.Int("records", len(records)))
	return records, nil
}

// ParseLog reads colon-delimited log lines from r
func ParseLog(r io.Reader, opts ParseOptions) ([]domain.TimeSeriesRecord, error) {
	opts = opts.withDefaults()
	records := make([]domain.TimeSeriesRecord, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if rec, ok := parseLogLine(scanner.Text(), opts); ok {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParsingError("failed to read log", err)
	}
	return records, nil
}

// SplitLogLine splits a "<label>: <value> [unit...]" line. ok is false for
// blank lines, comments, lines without a colon and non-numeric values.
func SplitLogLine(line string) (label string, value float64, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", 0, false
	}
	label, rest, found := strings.Cut(line, ":")
	if !found {
		return "", 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", 0, false
	}
	value, ok = ParseNumber(fields[0])
	if !ok {
		return "", 0, false
	}
	return strings.TrimSpace(label), value, true
}

func parseLogLine(line string, opts ParseOptions) (domain.TimeSeriesRecord, bool) {
	label, value, ok := SplitLogLine(line)
	if !ok {
		return domain.TimeSeriesRecord{}, false
	}
	key, ok := ParseMonthKey(label)
	if !ok || key.Year < opts.MinYear {
		return domain.TimeSeriesRecord{}, false
	}
	return newRecord(key, value, opts.Category, opts.SourceTag), true
}

func parseCompactTokens(table *domain.Table, opts ParseOptions) []domain.TimeSeriesRecord {
	records := make([]domain.TimeSeriesRecord, 0, table.Len())
	for i := range table.Rows {
		token := table.Cell(i, 0)
		if !compactTokenPattern.MatchString(token) {
			continue
		}
		fields := strings.Fields(token)
		key, ok := ParseMonthKey(fields[0])
		if !ok || key.Year < opts.MinYear {
			continue
		}
		value, ok := ParseNumber(fields[1])
		if !ok {
			continue
		}
		records = append(records, newRecord(key, value, opts.Category, opts.SourceTag))
	}
	return records
}

// validateCodes rejects an empty code list and codes missing a code or name
func validateCodes(codes []SeriesCode) error {
	if len(codes) == 0 {
		return apperrors.NewAppValidationError("wide table needs at least one series code", nil)
	}
	for i, code := range codes {
		if err := codeValidator.Struct(code); err != nil {
			return apperrors.NewAppValidationError("invalid series code", err).WithContext("index", i)
		}
	}
	return nil
}

func parseWideTable(table *domain.Table, opts ParseOptions) []domain.TimeSeriesRecord {
	records := make([]domain.TimeSeriesRecord, 0)
	for i := range table.Rows {
		if i < opts.HeaderRows {
			continue
		}
		date := strings.TrimSpace(table.Cell(i, 0))
		if !monthTokenPattern.MatchString(date) {
			continue
		}
		key, ok := ParseMonthKey(date)
		if !ok || key.Year < opts.MinYear {
			continue
		}
		for j, code := range opts.Codes {
			value, ok := ParseNumber(table.Cell(i, j+1))
			if !ok {
				continue
			}
			records = append(records, newRecord(key, value, code.Name, opts.SourceTag))
		}
	}
	return records
}

func parseDateValue(table *domain.Table, opts ParseOptions) ([]domain.TimeSeriesRecord, error) {
	dateCol, err := requireColumn(table, opts.DateColumn)
	if err != nil {
		return nil, err
	}
	valueCol, err := requireColumn(table, opts.ValueColumn)
	if err != nil {
		return nil, err
	}

	records := make([]domain.TimeSeriesRecord, 0, table.Len())
	for i := range table.Rows {
		key, ok := ParseMonthKey(table.Cell(i, dateCol))
		if !ok || key.Year < opts.MinYear {
			continue
		}
		value, ok := ParseNumber(table.Cell(i, valueCol))
		if !ok {
			continue
		}
		records = append(records, newRecord(key, value, opts.Category, opts.SourceTag))
	}
	return records, nil
}

func parseYearMonthValue(table *domain.Table, opts ParseOptions) ([]domain.TimeSeriesRecord, error) {
	yearCol, err := requireColumn(table, opts.YearColumn)
	if err != nil {
		return nil, err
	}
	monthCol, err := requireColumn(table, opts.MonthColumn)
	if err != nil {
		return nil, err
	}
	valueCol, err := requireColumn(table, opts.ValueColumn)
	if err != nil {
		return nil, err
	}

	records := make([]domain.TimeSeriesRecord, 0, table.Len())
	for i := range table.Rows {
		year, ok := parseWhole(table.Cell(i, yearCol))
		if !ok || year < opts.MinYear {
			continue
		}
		month, ok := parseWhole(table.Cell(i, monthCol))
		if !ok || month < 1 || month > 12 {
			continue
		}
		value, ok := ParseNumber(table.Cell(i, valueCol))
		if !ok {
			continue
		}
		key := domain.MonthKey{Year: year, Month: month}
		records = append(records, newRecord(key, value, opts.Category, opts.SourceTag))
	}
	return records, nil
}

func requireColumn(table *domain.Table, name string) (int, error) {
	idx := table.ColumnIndex(name)
	if idx < 0 {
		return -1, apperrors.NewParsingError(fmt.Sprintf("missing column %q", name), nil).
			WithContext("columns", table.Columns)
	}
	return idx, nil
}

func newRecord(key domain.MonthKey, value float64, category, source string) domain.TimeSeriesRecord {
	return domain.TimeSeriesRecord{
		Year:      key.Year,
		Month:     key.Month,
		Value:     value,
		Category:  category,
		SourceTag: source,
	}
}

// ParseMonthKey accepts "2015M01" and "2015-01" month labels
func ParseMonthKey(s string) (domain.MonthKey, bool) {
	s = strings.TrimSpace(s)
	if !monthTokenPattern.MatchString(s) && !isoMonthPattern.MatchString(s) {
		return domain.MonthKey{}, false
	}
	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[5:7])
	if month < 1 || month > 12 {
		return domain.MonthKey{}, false
	}
	return domain.MonthKey{Year: year, Month: month}, true
}

// ParseNumber parses a finite float. Empty, NaN and non-numeric cells are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseWhole accepts "2015" and spreadsheet-style "2015.0"
func parseWhole(s string) (int, bool) {
	v, ok := ParseNumber(s)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
