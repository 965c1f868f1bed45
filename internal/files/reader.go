package files

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"pricepulse/internal/dataprocessing"
	apperrors "pricepulse/internal/errors"
	"pricepulse/pkg/contracts/domain"
)

// Column names of the table produced from a colon-log text file
const (
	LogDateColumn  = "Date"
	LogValueColumn = "Value"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadTable loads a file into a table, choosing the reader by extension.
// A missing file yields an error wrapping errors.ErrMissingInput.
func ReadTable(path string) (*domain.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.MissingInput(path)
		}
		return nil, apperrors.NewStorageError("failed to stat input", err).WithContext("path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx", ".xlsm", ".xls":
		return ReadFirstSheet(path)
	case ".txt":
		return ReadColonLog(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadCSV loads a CSV file with a header row. Rows may be ragged; short rows
// are padded to the widest row.
func ReadCSV(path string) (*domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read csv", err).WithContext("path", path)
	}

	records, err := decodeCSV(data)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse csv", err).WithContext("path", path)
	}
	switch len(records) {
	case 0:
		return &domain.Table{}, nil
	case 1:
		return &domain.Table{Columns: records[0]}, nil
	}

	records = padRecords(records)
	tbl := &domain.Table{Columns: records[0], Rows: records[1:]}

	slog.Debug("CSV loaded",
		slog.String("path", path),
		slog.Int("columns", len(tbl.Columns)),
		slog.Int("rows", tbl.Len()))

	return tbl, nil
}

// decodeCSV strips a UTF-8 BOM and falls back to Windows-1252 when the
// content is not valid UTF-8
func decodeCSV(data []byte) ([][]string, error) {
	var decoder transform.Transformer = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	if !utf8.Valid(data) {
		decoder = charmap.Windows1252.NewDecoder()
	}

	r := csv.NewReader(transform.NewReader(bytes.NewReader(data), decoder))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}

// padRecords pads every record to the widest record's length
func padRecords(records [][]string) [][]string {
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for i, rec := range records {
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			records[i] = padded
		}
	}
	return records
}

// ReadFirstSheet loads the first worksheet of a workbook, using its first
// row as the header
func ReadFirstSheet(path string) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &domain.Table{}, nil
	}
	return readSheet(f, sheets[0])
}

// ReadSheet loads the named worksheet of a workbook
func ReadSheet(path, sheet string) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

// ReadWorkbook loads every worksheet of a workbook in sheet order
func ReadWorkbook(path string) ([]string, map[string]*domain.Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, apperrors.MissingInput(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	names := f.GetSheetList()
	tables := make(map[string]*domain.Table, len(names))
	for _, name := range names {
		tbl, err := readSheet(f, name)
		if err != nil {
			return nil, nil, err
		}
		tables[name] = tbl
	}
	return names, tables, nil
}

func readSheet(f *excelize.File, sheet string) (*domain.Table, error) {
	// Raw values keep full float precision instead of the General display format
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return &domain.Table{}, nil
	}

	rows = padRecords(rows)
	return &domain.Table{Columns: rows[0], Rows: rows[1:]}, nil
}

// ReadColonLog loads a "<label>: <value> [unit]" text file into a Date,Value
// table. Lines that do not split into a label and a number are skipped.
func ReadColonLog(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open log", err).WithContext("path", path)
	}
	defer f.Close()

	return ParseColonLog(f)
}

// ParseColonLog is ReadColonLog over an open reader
func ParseColonLog(r io.Reader) (*domain.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read log", err)
	}

	tbl := &domain.Table{Columns: []string{LogDateColumn, LogValueColumn}}
	for _, line := range strings.Split(string(data), "\n") {
		label, value, ok := dataprocessing.SplitLogLine(line)
		if !ok {
			continue
		}
		tbl.Rows = append(tbl.Rows, []string{label, strconv.FormatFloat(value, 'f', -1, 64)})
	}
	return tbl, nil
}
