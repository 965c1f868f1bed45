package domain

import (
	"time"
)

// Table is an untyped raw table: a header row plus data rows of string cells.
// Rows may be shorter than Columns; missing cells read as empty.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no data rows
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// ColumnIndex returns the position of a named column or -1
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at row i, column j or "" when out of range
func (t *Table) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Module summary statuses written to the Summary sheet
const (
	SummaryStatusSuccess = "Success"
	SummaryStatusNoData  = "No Data"
)

// ModuleSummary is one row of the integrated workbook's Summary sheet
type ModuleSummary struct {
	Module       string    `json:"module"`
	ModuleCN     string    `json:"module_cn"`
	SheetName    string    `json:"sheet_name"`
	RecordsCount int       `json:"records_count"`
	Status       string    `json:"status"`
	SourceURL    string    `json:"source_url"`
	GeneratedAt  time.Time `json:"generated_at"`
}
