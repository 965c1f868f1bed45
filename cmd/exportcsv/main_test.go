package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
	"pricepulse/internal/exporter"
	"pricepulse/pkg/contracts/domain"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("logging:\n  output: console\ntelemetry:\n  metrics: false\n  tracing: false\n"), 0644))

	base := []string{"-config", cfgFile, "-workdir", dir}

	// No workbook yet
	assert.Equal(t, 1, run(context.Background(), base, &bytes.Buffer{}))
	assert.NoDirExists(t, filepath.Join(dir, config.DefaultCSVDir))

	wb := exporter.Workbook{
		Sheets: []exporter.Sheet{{Name: "Exchange_Rates", Table: &domain.Table{
			Columns: []string{"Year", "Month", "Exchange_Rate"},
			Rows:    [][]string{{"2024", "1", "0.91"}},
		}}},
		GeneratedAt: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
	}
	require.NoError(t, exporter.WriteWorkbook(filepath.Join(dir, config.DefaultWorkbookFile), wb))

	assert.Equal(t, 0, run(context.Background(), base, &bytes.Buffer{}))
	assert.FileExists(t, filepath.Join(dir, config.DefaultCSVDir, "Exchange_Rates.csv"))
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultCSVDir, "Summary.csv"))

	custom := append(base, "-out", "exports")
	assert.Equal(t, 0, run(context.Background(), custom, &bytes.Buffer{}))
	assert.FileExists(t, filepath.Join(dir, "exports", "Exchange_Rates.csv"))

	assert.Equal(t, 2, run(context.Background(), []string{"-bogus"}, &bytes.Buffer{}))
}
