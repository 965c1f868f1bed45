package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"path/filepath"

	"pricepulse/internal/config"
	"pricepulse/internal/files"
	"pricepulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance. A nil paths resolves
// relative file paths against the current directory.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options. The file is
// replaced atomically. It returns the number of bytes written.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (int, error) {
	fullPath := w.resolvePath(filePath)

	slog.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	var buf bytes.Buffer
	if options.BOMPrefix {
		buf.Write(utf8BOM)
	}

	writer := csv.NewWriter(&buf)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return 0, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, err
	}

	if err := files.WriteFileAtomic(fullPath, buf.Bytes()); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// WriteTable writes a table with a BOM, padding short rows to the header width
func (w *CSVWriter) WriteTable(filePath string, tbl *domain.Table) (int, error) {
	width := len(tbl.Columns)
	records := make([][]string, 0, tbl.Len())
	for _, row := range tbl.Rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		records = append(records, row)
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   tbl.Columns,
		Records:   records,
		BOMPrefix: true,
	})
}

// resolvePath resolves a relative path into the CSV output directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return filepath.Join(w.paths.CSVDir, filePath)
}
