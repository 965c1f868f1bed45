package dataprocessing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricepulse/internal/errors"
	"pricepulse/pkg/contracts/domain"
)

var blsCodes = []SeriesCode{
	{Code: "PCU325212325212P", Name: "Synthetic Rubber"},
	{Code: "PCU325211325211", Name: "Plastics & Resin"},
}

func singleColumn(cells ...string) *domain.Table {
	tbl := &domain.Table{Columns: []string{"observation"}}
	for _, c := range cells {
		tbl.Rows = append(tbl.Rows, []string{c})
	}
	return tbl
}

func TestParseCompactTokens(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  []domain.TimeSeriesRecord
	}{
		{
			name:  "valid token at cutoff",
			cells: []string{"2015M01 100.0"},
			want:  []domain.TimeSeriesRecord{{Year: 2015, Month: 1, Value: 100, Category: "Tire Cord PPI", SourceTag: "FRED"}},
		},
		{
			name:  "year before cutoff excluded",
			cells: []string{"2014M12 99.5"},
			want:  []domain.TimeSeriesRecord{},
		},
		{
			name:  "non matching rows skipped",
			cells: []string{"observation_date", "2015-01-01,100", "2015M1 100", "2015M02 abc", "", "2015M03 -4"},
			want:  []domain.TimeSeriesRecord{},
		},
		{
			name:  "value with two dots dropped",
			cells: []string{"2015M01 1.2.3", "2015M02 102"},
			want:  []domain.TimeSeriesRecord{{Year: 2015, Month: 2, Value: 102, Category: "Tire Cord PPI", SourceTag: "FRED"}},
		},
		{
			name:  "surrounding whitespace skipped",
			cells: []string{" 2015M01 100.0", "2015M02 101 ", "2015M03 102"},
			want:  []domain.TimeSeriesRecord{{Year: 2015, Month: 3, Value: 102, Category: "Tire Cord PPI", SourceTag: "FRED"}},
		},
		{
			name:  "invalid month dropped",
			cells: []string{"2015M13 1.0", "2015M00 1.0"},
			want:  []domain.TimeSeriesRecord{},
		},
		{
			name:  "source order preserved",
			cells: []string{"2016M02 110", "2015M01 100"},
			want: []domain.TimeSeriesRecord{
				{Year: 2016, Month: 2, Value: 110, Category: "Tire Cord PPI", SourceTag: "FRED"},
				{Year: 2015, Month: 1, Value: 100, Category: "Tire Cord PPI", SourceTag: "FRED"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTable(singleColumn(tt.cells...), ParseOptions{
				Layout:    LayoutCompactToken,
				MinYear:   2015,
				Category:  "Tire Cord PPI",
				SourceTag: "FRED",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCompactTokensEveryValidTokenYieldsOneRecord(t *testing.T) {
	for year := 2010; year <= 2025; year++ {
		for month := 1; month <= 12; month++ {
			key := domain.MonthKey{Year: year, Month: month}
			token := strings.Replace(key.Label(), "-", "M", 1) + " 12.5"

			got, err := ParseTable(singleColumn(token), ParseOptions{Layout: LayoutCompactToken, MinYear: 2015})
			require.NoError(t, err)

			if year < 2015 {
				assert.Empty(t, got, token)
				continue
			}
			require.Len(t, got, 1, token)
			assert.Equal(t, year, got[0].Year)
			assert.Equal(t, month, got[0].Month)
			assert.Equal(t, 12.5, got[0].Value)
		}
	}
}

func TestParseWideTable(t *testing.T) {
	header := [][]string{
		{"Series Id:", "PCU325212325212P"},
		{"2015M01", "999", "999"}, // inside the header block, never read
		{"Industry:", "Synthetic rubber"},
		{"Product:", ""},
		{"Base Date:", "201106"},
		{"Year", "Jan"},
	}
	rows := append(header,
		[]string{"2015M01", "100.5", "200"},
		[]string{"2015M02", "", "nan"},
		[]string{"2015M03", "101.2(P)", "NaN"},
		[]string{"2014M12", "90", "80"},
		[]string{"Annual", "1", "2"},
		[]string{"2015M04", "102"},
	)
	tbl := &domain.Table{Columns: []string{"A", "B", "C"}, Rows: rows}

	got, err := ParseTable(tbl, ParseOptions{
		Layout:    LayoutWideTable,
		MinYear:   2015,
		SourceTag: "BLS",
		Codes:     blsCodes,
	})
	require.NoError(t, err)

	want := []domain.TimeSeriesRecord{
		{Year: 2015, Month: 1, Value: 100.5, Category: "Synthetic Rubber", SourceTag: "BLS"},
		{Year: 2015, Month: 1, Value: 200, Category: "Plastics & Resin", SourceTag: "BLS"},
		{Year: 2015, Month: 4, Value: 102, Category: "Synthetic Rubber", SourceTag: "BLS"},
	}
	assert.Equal(t, want, got)
}

func TestParseWideTableHeaderBlockNeverContributes(t *testing.T) {
	rows := make([][]string, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"2020M01", "1"})
	}
	tbl := &domain.Table{Columns: []string{"A", "B"}, Rows: rows}

	for _, h := range []int{1, 3, 6, 9} {
		got, err := ParseTable(tbl, ParseOptions{Layout: LayoutWideTable, HeaderRows: h, Codes: blsCodes[:1]})
		require.NoError(t, err)
		assert.Len(t, got, 10-h, "header rows %d", h)
	}
}

func TestParseWideTableOptionalHeaderAndCutoff(t *testing.T) {
	tbl := &domain.Table{
		Columns: []string{"A", "B"},
		Rows:    [][]string{{"2016M01", "1"}, {"2016M02", "2"}, {"1999M12", "3"}},
	}

	tests := []struct {
		name    string
		opts    ParseOptions
		wantLen int
	}{
		{name: "default header block swallows the rows", opts: ParseOptions{}, wantLen: 0},
		{name: "no header block", opts: ParseOptions{HeaderRows: NoHeaderRows}, wantLen: 2},
		{name: "no header block and no cutoff", opts: ParseOptions{HeaderRows: NoHeaderRows, MinYear: NoMinYear}, wantLen: 3},
		{name: "explicit cutoff", opts: ParseOptions{HeaderRows: NoHeaderRows, MinYear: 2016}, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Layout = LayoutWideTable
			opts.Codes = blsCodes[:1]

			got, err := ParseTable(tbl, opts)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestParseWideTableRejectsInvalidCodes(t *testing.T) {
	tbl := &domain.Table{Columns: []string{"A", "B"}, Rows: [][]string{{"2016M01", "1"}}}

	for name, codes := range map[string][]SeriesCode{
		"no codes":     nil,
		"missing name": {{Code: "PCU325212325212P"}},
		"missing code": {{Name: "Synthetic Rubber"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable(tbl, ParseOptions{Layout: LayoutWideTable, HeaderRows: NoHeaderRows, Codes: codes})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestParseLog(t *testing.T) {
	input := strings.Join([]string{
		"# TSR20 monthly prices",
		"",
		"2015M01: 1.52 USD/kg",
		"  2015M02:1.48  ",
		"2015M03: n/a",
		"2014M12: 1.60 USD/kg",
		"Updated: 2024-01-02",
		"no colon here 1.0",
		"2015-04: 1.50",
	}, "\n")

	got, err := ParseLog(strings.NewReader(input), ParseOptions{
		Layout:    LayoutColonLog,
		Category:  "Rubber TSR20",
		SourceTag: "WorldBank",
	})
	require.NoError(t, err)

	want := []domain.TimeSeriesRecord{
		{Year: 2015, Month: 1, Value: 1.52, Category: "Rubber TSR20", SourceTag: "WorldBank"},
		{Year: 2015, Month: 2, Value: 1.48, Category: "Rubber TSR20", SourceTag: "WorldBank"},
		{Year: 2015, Month: 4, Value: 1.50, Category: "Rubber TSR20", SourceTag: "WorldBank"},
	}
	assert.Equal(t, want, got)
}

func TestParseTableColonLogUsesFirstColumn(t *testing.T) {
	got, err := ParseTable(singleColumn("2016M05: 2.01 USD/kg", "#2016M06: 3"), ParseOptions{Layout: LayoutColonLog})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.01, got[0].Value)
}

func TestSplitLogLine(t *testing.T) {
	label, value, ok := SplitLogLine("Jan 2015: 1,234 USD")
	assert.False(t, ok)

	label, value, ok = SplitLogLine("Jan 2015: 12.5 USD: extra")
	require.True(t, ok)
	assert.Equal(t, "Jan 2015", label)
	assert.Equal(t, 12.5, value)
}

func TestParseDateValue(t *testing.T) {
	tbl := &domain.Table{
		Columns: []string{"Date", "Value", "Source_File"},
		Rows: [][]string{
			{"2015M01", "1.52", "rubber_prices.txt"},
			{"2015M02", "", "rubber_prices.txt"},
			{"bad", "1.0", "rubber_prices.txt"},
			{"2015-03", "1.61"},
		},
	}

	got, err := ParseTable(tbl, ParseOptions{Layout: LayoutDateValue, Category: "Rubber TSR20"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.MonthKey{Year: 2015, Month: 3}, got[1].Key())
	assert.Equal(t, 1.61, got[1].Value)
}

func TestParseYearMonthValue(t *testing.T) {
	tbl := &domain.Table{
		Columns: []string{"Year", "Month", "Exchange_Rate"},
		Rows: [][]string{
			{"2015", "1", "0.859611"},
			{"2015.0", "2.0", "0.882081"},
			{"2015", "13", "0.9"},
			{"2015", "3.5", "0.9"},
			{"2014", "12", "0.8"},
			{"2015", "4", ""},
		},
	}

	got, err := ParseTable(tbl, ParseOptions{Layout: LayoutYearMonthValue, ValueColumn: "Exchange_Rate", Category: "USD/EUR"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.882081, got[1].Value)
	assert.Equal(t, "USD/EUR", got[1].Category)
}

func TestParseTableErrors(t *testing.T) {
	tbl := &domain.Table{Columns: []string{"When", "Value"}}

	_, err := ParseTable(tbl, ParseOptions{Layout: LayoutDateValue})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "Date"`)

	_, err = ParseTable(tbl, ParseOptions{Layout: "pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layout")

	got, err := ParseTable(nil, ParseOptions{Layout: LayoutWideTable})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{" 42 ", 42, true},
		{"-3", -3, true},
		{"", 0, false},
		{"nan", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1,234", 0, false},
		{"12(P)", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
