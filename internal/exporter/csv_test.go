package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
	"pricepulse/pkg/contracts/domain"
)

func TestCSVWriterWriteTable(t *testing.T) {
	paths, err := config.GetPaths(t.TempDir())
	require.NoError(t, err)
	writer := NewCSVWriter(paths)

	tbl := &domain.Table{
		Columns: []string{"Date", "Value", "Source_File"},
		Rows: [][]string{
			{"2015M01", "1.52", "rubber_prices.txt"},
			{"2015M02", "1.48"},
			{"Jan, 2016", "1.1", `quote "x"`},
		},
	}

	n, err := writer.WriteTable("Rubber_TSR20.csv", tbl)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(paths.CSVDir, "Rubber_TSR20.csv"))
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	want := "\xef\xbb\xbfDate,Value,Source_File\n" +
		"2015M01,1.52,rubber_prices.txt\n" +
		"2015M02,1.48,\n" +
		"\"Jan, 2016\",1.1,\"quote \"\"x\"\"\"\n"
	assert.Equal(t, want, string(data))
}

func TestCSVWriterWithoutBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.csv")
	_, err := NewCSVWriter(nil).WriteCSV(path, WriteOptions{
		Headers: []string{"a"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"", ""},
		{"2015", 2015.0},
		{"0.859611", 0.859611},
		{"-4.5", -4.5},
		{"007", "007"},
		{"1.50", "1.50"},
		{"1e3", "1e3"},
		{"NaN", "NaN"},
		{"2015M01", "2015M01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cellValue(tt.in), tt.in)
	}
}
