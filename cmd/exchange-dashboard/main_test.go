package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	args := []string{"-workdir", dir}

	assert.Equal(t, 1, run(context.Background(), args))
	assert.NoFileExists(t, filepath.Join(dir, config.ExchangeDashboardFile))

	csvDir := filepath.Join(dir, config.DefaultCSVDir)
	require.NoError(t, os.MkdirAll(csvDir, 0755))
	data := "Year,Month,Exchange_Rate\n2024,1,0.91\n2024,2,0.92\n2025,1,0.95\n2025,2,0.96\n"
	require.NoError(t, os.WriteFile(filepath.Join(csvDir, "Exchange_Rates.csv"), []byte(data), 0644))

	assert.Equal(t, 0, run(context.Background(), args))
	assert.FileExists(t, filepath.Join(dir, config.ExchangeDashboardFile))

	assert.Equal(t, 2, run(context.Background(), []string{"-prior", "weekly"}))
}
