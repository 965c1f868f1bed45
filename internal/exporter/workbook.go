package exporter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"pricepulse/internal/config"
	"pricepulse/internal/files"
	"pricepulse/pkg/contracts/domain"
)

// Summary sheet columns, in order
var summaryColumns = []string{
	"Module", "Module_CN", "Sheet_Name", "Records_Count", "Status", "Source_URL", "Generated_At",
}

// Placeholder written to sheets that received no data
const (
	EmptySheetStatus = "No data available"
	emptySheetFormat = "No output data found for sheet: %s"
)

// Sheet is one named data sheet of the integrated workbook
type Sheet struct {
	Name  string
	Table *domain.Table
}

// Workbook is the integrated workbook content
type Workbook struct {
	Summary     []domain.ModuleSummary
	Sheets      []Sheet
	GeneratedAt time.Time
}

// SummaryTable renders module summaries as the Summary sheet table
func SummaryTable(rows []domain.ModuleSummary) *domain.Table {
	tbl := &domain.Table{Columns: append([]string(nil), summaryColumns...)}
	for _, s := range rows {
		tbl.Rows = append(tbl.Rows, []string{
			s.Module,
			s.ModuleCN,
			s.SheetName,
			formatInt(s.RecordsCount),
			s.Status,
			s.SourceURL,
			formatTimestamp(s.GeneratedAt),
		})
	}
	return tbl
}

// EmptySheetTable is the placeholder table for a sheet without data
func EmptySheetTable(name string, at time.Time) *domain.Table {
	return &domain.Table{
		Columns: []string{"Status", "Message", "Generated_At"},
		Rows: [][]string{{
			EmptySheetStatus,
			fmt.Sprintf(emptySheetFormat, name),
			formatTimestamp(at),
		}},
	}
}

// WriteWorkbook writes the integrated workbook to path, replacing any
// existing file. Summary is always the first sheet.
func WriteWorkbook(path string, wb Workbook) error {
	if wb.GeneratedAt.IsZero() {
		wb.GeneratedAt = time.Now()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", config.SummarySheetName); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSheet(f, config.SummarySheetName, SummaryTable(wb.Summary)); err != nil {
		return err
	}
	slog.Info("Created summary worksheet", slog.Int("modules", len(wb.Summary)))

	written := map[string]bool{config.SummarySheetName: true}
	for _, sheet := range wb.Sheets {
		if written[sheet.Name] {
			continue
		}
		written[sheet.Name] = true

		if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}

		tbl := sheet.Table
		if tbl.Empty() {
			tbl = EmptySheetTable(sheet.Name, wb.GeneratedAt)
			slog.Warn("Created empty worksheet", slog.String("sheet", sheet.Name))
		} else {
			slog.Info("Wrote data to worksheet",
				slog.String("sheet", sheet.Name),
				slog.Int("records", tbl.Len()))
		}

		if err := writeSheet(f, sheet.Name, tbl); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := files.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	slog.Info("Integrated workbook created",
		slog.String("path", path),
		slog.Int("sheets", len(written)))
	return nil
}

// writeSheet streams a table into a sheet, header row first
func writeSheet(f *excelize.File, name string, tbl *domain.Table) error {
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", name, err)
	}

	header := make([]interface{}, len(tbl.Columns))
	for i, c := range tbl.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}

	for i, row := range tbl.Rows {
		values := make([]interface{}, len(tbl.Columns))
		for j := range values {
			var cell string
			if j < len(row) {
				cell = row[j]
			}
			values[j] = cellValue(cell)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, name, err)
		}
	}

	return sw.Flush()
}
