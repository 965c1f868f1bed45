package exporter

import (
	"context"
	"log/slog"
	"strings"

	"pricepulse/internal/config"
	"pricepulse/internal/files"
	"pricepulse/pkg/contracts/domain"
)

// sheetRenames maps legacy sheet names to their CSV file stem
var sheetRenames = map[string]string{
	"Rubber_Prices": "Rubber_TSR20",
}

// ExportedSheet describes one written CSV file
type ExportedSheet struct {
	Sheet string `json:"sheet"`
	File  string `json:"file"`
	Rows  int    `json:"rows"`
	Bytes int    `json:"bytes"`
}

// ExportResult lists the CSV files written by ExportSheets
type ExportResult struct {
	Exported []ExportedSheet `json:"exported"`
	Skipped  []string        `json:"skipped"`
}

// CSVName returns the CSV file stem for a sheet name
func CSVName(sheet string) string {
	if renamed, ok := sheetRenames[sheet]; ok {
		return renamed
	}
	return sheet
}

// ExportSheets writes every non-summary sheet of the workbook at
// workbookPath to <outDir>/<sheet>.csv. A missing workbook yields an error
// wrapping errors.ErrMissingInput.
func ExportSheets(ctx context.Context, workbookPath, outDir string) (*ExportResult, error) {
	names, tables, err := files.ReadWorkbook(workbookPath)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Found worksheets",
		slog.String("workbook", workbookPath),
		slog.Any("sheets", names))

	paths := &config.Paths{CSVDir: outDir}
	writer := NewCSVWriter(paths)
	result := &ExportResult{}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if strings.EqualFold(name, config.SummarySheetName) {
			slog.DebugContext(ctx, "Skipping summary worksheet", slog.String("sheet", name))
			result.Skipped = append(result.Skipped, name)
			continue
		}

		tbl := tables[name]
		if tbl == nil {
			tbl = &domain.Table{}
		}

		file := paths.GetCSVPath(CSVName(name))
		n, err := writer.WriteTable(file, tbl)
		if err != nil {
			return result, err
		}

		slog.InfoContext(ctx, "Exported worksheet",
			slog.String("sheet", name),
			slog.String("file", file),
			slog.Int("rows", tbl.Len()),
			slog.Float64("size_kb", float64(n)/1024))

		result.Exported = append(result.Exported, ExportedSheet{
			Sheet: name,
			File:  file,
			Rows:  tbl.Len(),
			Bytes: n,
		})
	}

	slog.InfoContext(ctx, "Export completed", slog.Int("exported", len(result.Exported)))
	return result, nil
}
