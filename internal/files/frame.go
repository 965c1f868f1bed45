package files

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	apperrors "pricepulse/internal/errors"
	"pricepulse/pkg/contracts/domain"
)

// naValues are the cell texts read as missing when a table becomes a frame.
// They match the default missing-value markers of pandas readers, which the
// collectors' outputs are written against.
var naValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Frame loads a table into a dataframe of string columns. Missing-value
// cells become NA; blank and duplicated column names are made unique.
// A table without rows yields a frame carrying an error.
func Frame(tbl *domain.Table) dataframe.DataFrame {
	if tbl.Empty() {
		return dataframe.DataFrame{Err: apperrors.NewParsingError("table has no rows", nil)}
	}

	width := len(tbl.Columns)
	records := make([][]string, 0, len(tbl.Rows)+1)
	records = append(records, append([]string(nil), tbl.Columns...))
	for _, row := range tbl.Rows {
		rec := make([]string, width)
		copy(rec, row)
		records = append(records, rec)
	}

	return dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
}

// WithConstant adds or replaces a column holding value on every row
func WithConstant(df dataframe.DataFrame, name, value string) dataframe.DataFrame {
	if df.Err != nil {
		return df
	}
	vals := make([]string, df.Nrow())
	for i := range vals {
		vals[i] = value
	}
	return df.Mutate(series.New(vals, series.String, name))
}

// ConcatFrames stacks frames vertically. Columns are unioned in first-seen
// order and cells a frame lacks are NA. No frames gives an empty table.
func ConcatFrames(frames ...dataframe.DataFrame) (*domain.Table, error) {
	if len(frames) == 0 {
		return &domain.Table{}, nil
	}

	merged := frames[0]
	for _, df := range frames[1:] {
		merged = merged.Concat(df)
	}
	if merged.Err != nil {
		return nil, apperrors.NewParsingError("failed to concatenate tables", merged.Err)
	}
	return TableFromFrame(merged), nil
}

// ConcatTables is ConcatFrames over tables. Tables without rows are ignored.
func ConcatTables(tables ...*domain.Table) (*domain.Table, error) {
	frames := make([]dataframe.DataFrame, 0, len(tables))
	for _, tbl := range tables {
		if tbl.Empty() {
			continue
		}
		frames = append(frames, Frame(tbl))
	}
	return ConcatFrames(frames...)
}

// TableFromFrame converts a frame back to a table. NA cells become empty.
func TableFromFrame(df dataframe.DataFrame) *domain.Table {
	nrow, ncol := df.Dims()
	tbl := &domain.Table{Columns: df.Names(), Rows: make([][]string, nrow)}
	for i := 0; i < nrow; i++ {
		row := make([]string, ncol)
		for j := 0; j < ncol; j++ {
			// Concat copies appended NA cells as the text "NaN", which
			// Frame never lets through as a value
			if s := df.Elem(i, j).String(); s != "NaN" {
				row[j] = s
			}
		}
		tbl.Rows[i] = row
	}
	return tbl
}
