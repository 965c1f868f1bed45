// Package exporter writes pipeline outputs: the integrated workbook with its
// Summary sheet, and one CSV file per workbook sheet.
//
// This package contains three components:
//
// CSVWriter: Core CSV writing with an optional UTF-8 BOM for Excel
// compatibility. Relative paths resolve into the CSV output directory.
//
// WriteWorkbook: Assembles integrated_data.xlsx. The Summary sheet comes
// first, followed by one sheet per collector sheet name. Empty sheets carry
// a single "No data available" row.
//
// ExportSheets: Splits a workbook into <sheet>.csv files, skipping the
// Summary sheet and renaming legacy sheet names.
//
// Example usage:
//
//	err := exporter.WriteWorkbook(paths.WorkbookFile, exporter.Workbook{
//	    Summary:     summaries,
//	    Sheets:      sheets,
//	    GeneratedAt: time.Now(),
//	})
//
//	result, err := exporter.ExportSheets(ctx, paths.WorkbookFile, paths.CSVDir)
package exporter
