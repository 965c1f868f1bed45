package integrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pricepulse/internal/config"
	"pricepulse/internal/files"
	"pricepulse/internal/operations"
	"pricepulse/internal/operations/testutil"
	sharedtest "pricepulse/internal/shared/testutil"
	"pricepulse/pkg/contracts/domain"
)

var fixedNow = time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)

func now() time.Time { return fixedNow }

func writeXLSX(t *testing.T, path string, rows ...[]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

// fixtureCollectors mirrors the default layout: two collectors share the
// Commodity_Data sheet and the second of them fails.
func fixtureCollectors(t *testing.T, dir string) []config.CollectorSpec {
	t.Helper()

	testutil.WriteScript(t, dir, "func1/crawler.sh",
		"cat > rubber_prices.txt <<'OUT'",
		"# rubber TSR20",
		"2025-05: 1.72 USD/kg",
		"2025-06: 1.68 USD/kg",
		"not a record",
		"OUT")
	testutil.WriteScript(t, dir, "func2/bls.sh",
		"echo 'HTTP 503 from data.bls.gov' >&2",
		"exit 1")
	testutil.WriteScript(t, dir, "func3/fx.sh",
		"printf 'Year,Month,Exchange_Rate\\n2025,5,0.891\\n2025,6,0.872\\n' > exchange_rates.csv")
	testutil.WriteScript(t, dir, "func4/run.sh", "true")
	writeXLSX(t, filepath.Join(dir, "func4", "output", "fred.xlsx"),
		[]interface{}{"Date", "Tire Cord PPI"},
		[]interface{}{"2025-05-01", 101.5},
		[]interface{}{"2025-06-01", 102.25})

	rubber := testutil.ScriptCollector("rubber", "func1/crawler.sh", "Rubber_TSR20", "func1/rubber_prices.txt")
	rubber.Name = "Commodity Price Crawler"
	rubber.NameCN = "商品价格爬虫"
	rubber.SourceURL = "https://www.worldbank.org/en/research/commodity-markets"

	return []config.CollectorSpec{
		rubber,
		testutil.ScriptCollector("bls", "func2/bls.sh", "Commodity_Data", "func2/output/combined_data.xlsx"),
		testutil.ScriptCollector("fx", "func3/fx.sh", "Exchange_Rates", "func3/exchange_rates.xlsx", "func3/exchange_rates.csv"),
		testutil.ScriptCollector("fred", "func4/run.sh", "Commodity_Data", "func4/output/fred.xlsx"),
	}
}

func newIntegrator(dir string, collectors []config.CollectorSpec) *Integrator {
	return New(ExecContext{
		WorkDir:     dir,
		Interpreter: testutil.ShellInterpreter,
		Timeout:     30 * time.Second,
		Collectors:  collectors,
		Now:         now,
	})
}

func TestRunMergesCollectorOutputs(t *testing.T) {
	dir := t.TempDir()
	res, err := newIntegrator(dir, fixtureCollectors(t, dir)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Run.Succeeded)
	assert.Equal(t, 4, res.Run.Total)
	assert.Equal(t, filepath.Join(dir, config.DefaultWorkbookFile), res.Run.OutputFile)
	assert.Len(t, res.Run.Digest, 64)

	names, tables, err := files.ReadWorkbook(res.Run.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary", "Rubber_TSR20", "Commodity_Data", "Exchange_Rates"}, names)

	rubber := tables["Rubber_TSR20"]
	assert.Equal(t, []string{"Date", "Value", ColumnSourceFile, ColumnDataSource, ColumnGeneratedAt}, rubber.Columns)
	assert.Equal(t, [][]string{
		{"2025-05", "1.72", "rubber_prices.txt", "Commodity Price Crawler", "2025-07-01 09:30:00"},
		{"2025-06", "1.68", "rubber_prices.txt", "Commodity Price Crawler", "2025-07-01 09:30:00"},
	}, rubber.Rows)

	commodity := tables["Commodity_Data"]
	require.Equal(t, 2, commodity.Len(), "the failed bls step contributes nothing")
	assert.Equal(t, "fred.xlsx", commodity.Cell(0, commodity.ColumnIndex(ColumnSourceFile)))
	assert.Equal(t, "102.25", commodity.Cell(1, commodity.ColumnIndex("Tire Cord PPI")))

	fx := tables["Exchange_Rates"]
	assert.Equal(t, 2, fx.Len())
	assert.Equal(t, "exchange_rates.csv", fx.Cell(0, fx.ColumnIndex(ColumnSourceFile)))

	summary := tables["Summary"]
	require.Equal(t, 4, summary.Len())
	assert.Equal(t, []string{
		"Commodity Price Crawler", "商品价格爬虫", "Rubber_TSR20", "2", "Success",
		"https://www.worldbank.org/en/research/commodity-markets", "2025-07-01 09:30:00",
	}, summary.Rows[0])
	// Records count is per sheet, so both Commodity_Data collectors report it
	assert.Equal(t, "2", summary.Rows[1][3])
	assert.Equal(t, "2", summary.Rows[3][3])
}

func TestRunRecordsStepOutcomes(t *testing.T) {
	dir := t.TempDir()
	res, err := newIntegrator(dir, fixtureCollectors(t, dir)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Run.Steps, 4)
	byID := make(map[string]domain.StepOutcome)
	for _, s := range res.Run.Steps {
		assert.Equal(t, res.Run.ID, s.RunID)
		byID[s.StepID] = s
	}
	assert.Equal(t, "completed", byID["rubber"].Status)
	assert.Equal(t, 2, byID["rubber"].Records)
	assert.Equal(t, "failed", byID["bls"].Status)
	assert.NotEmpty(t, byID["bls"].Error)
	assert.Zero(t, byID["bls"].Records)

	assert.Contains(t, res.Response.Steps[1].Output, "HTTP 503")
}

func TestRunWritesPlaceholderForEmptySheets(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "func2/bls.sh", "exit 2")
	collectors := []config.CollectorSpec{
		testutil.ScriptCollector("bls", "func2/bls.sh", "Commodity_Data", "func2/bls_data.xlsx"),
		testutil.ScriptCollector("fx", "func3/missing.sh", "Exchange_Rates", "func3/exchange_rates.txt"),
	}

	res, err := newIntegrator(dir, collectors).Run(context.Background())
	require.NoError(t, err, "collector failures never fail the run")
	assert.Zero(t, res.Run.Succeeded)

	_, tables, err := files.ReadWorkbook(res.Run.OutputFile)
	require.NoError(t, err)

	for _, sheet := range []string{"Commodity_Data", "Exchange_Rates"} {
		tbl := tables[sheet]
		assert.Equal(t, []string{"Status", "Message", "Generated_At"}, tbl.Columns)
		assert.Equal(t, "No output data found for sheet: "+sheet, tbl.Cell(0, 1))
	}
	assert.Equal(t, domain.SummaryStatusNoData, tables["Summary"].Cell(0, 4))
}

func TestRunMissingOutputsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "func1/run.sh", "true")
	logger, handler := sharedtest.NewTestLogger(t)

	collectors := []config.CollectorSpec{
		testutil.ScriptCollector("rubber", "func1/run.sh", "Rubber_TSR20", "func1/rubber_prices.txt"),
	}
	integ := New(ExecContext{
		WorkDir:     dir,
		Interpreter: testutil.ShellInterpreter,
		Collectors:  collectors,
		Logger:      logger,
		Now:         now,
	})

	res, err := integ.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Run.Succeeded)
	assert.Equal(t, domain.SummaryStatusNoData, res.Summary[0].Status)
	assert.True(t, handler.ContainsMessage("Output file does not exist"))
}

func TestRunWorkbookFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "func1/run.sh", "true")
	out := filepath.Join(dir, "taken")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "child"), 0755))

	integ := New(ExecContext{
		WorkDir:     dir,
		OutputFile:  out,
		Interpreter: testutil.ShellInterpreter,
		Collectors: []config.CollectorSpec{
			testutil.ScriptCollector("rubber", "func1/run.sh", "Rubber_TSR20", "func1/x.txt"),
		},
		Now: now,
	})

	_, err := integ.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workbook assembly failed")
}

func TestRunWithInjectedRegistry(t *testing.T) {
	dir := t.TempDir()
	registry := operations.NewRegistry()
	step := testutil.NewMockStep("fx", "fx.txt")
	step.ExecuteFunc = func(_ context.Context, state *operations.OperationState) error {
		return os.WriteFile(filepath.Join(state.WorkDir, "fx.txt"), []byte("2025-06: 0.87\n"), 0644)
	}
	require.NoError(t, registry.Register(step))

	integ := New(ExecContext{
		WorkDir:    dir,
		Registry:   registry,
		Collectors: []config.CollectorSpec{{ID: "fx", Name: "FX", Sheet: "Exchange_Rates", Outputs: []string{"fx.txt"}}},
		Now:        now,
	})

	res, err := integ.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, step.Calls())
	require.Len(t, res.Sheets, 1)
	assert.Equal(t, 1, res.Sheets[0].Table.Len())
}

type fakeSinks struct {
	saveErr   error
	saved     []domain.RunRecord
	published map[string][]domain.ModuleSummary
	events    []domain.RunCompletedEvent
}

func (f *fakeSinks) SaveRun(_ context.Context, run domain.RunRecord) error {
	f.saved = append(f.saved, run)
	return f.saveErr
}

func (f *fakeSinks) PublishSummary(_ context.Context, runID string, rows []domain.ModuleSummary) error {
	if f.published == nil {
		f.published = make(map[string][]domain.ModuleSummary)
	}
	f.published[runID] = rows
	return nil
}

func (f *fakeSinks) NotifyRunCompleted(_ context.Context, event domain.RunCompletedEvent) error {
	f.events = append(f.events, event)
	return nil
}

func TestRunHandsResultToSinks(t *testing.T) {
	dir := t.TempDir()
	sinks := &fakeSinks{saveErr: errors.New("database is locked")}

	res, err := newIntegrator(dir, fixtureCollectors(t, dir)).
		WithRecorder(sinks).
		WithPublisher(sinks).
		WithNotifier(sinks).
		Run(context.Background())
	require.NoError(t, err, "sink failures are logged, not returned")

	require.Len(t, sinks.saved, 1)
	assert.Equal(t, res.Run.ID, sinks.saved[0].ID)
	assert.Len(t, sinks.published[res.Run.ID], 4)
	require.Len(t, sinks.events, 1)
	assert.Equal(t, 3, sinks.events[0].Succeeded)
	assert.Equal(t, res.Run.Digest, sinks.events[0].Digest)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newIntegrator(dir, fixtureCollectors(t, dir)).Run(ctx)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, config.DefaultWorkbookFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSheetSetMerge(t *testing.T) {
	s := newSheetSet()
	s.reserve("A")
	require.NoError(t, s.merge("B", &domain.Table{Columns: []string{"x"}, Rows: [][]string{{"1"}}}))
	require.NoError(t, s.merge("A", &domain.Table{Columns: []string{"y"}, Rows: [][]string{{"2"}}}))
	require.NoError(t, s.merge("A", &domain.Table{Columns: []string{"z", "y"}, Rows: [][]string{{"4", "nan"}}}))
	require.NoError(t, s.merge("B", &domain.Table{}))
	s.reserve("B")

	assert.Equal(t, []string{"A", "B"}, s.order)
	assert.Equal(t, []string{"y", "z"}, s.get("A").Columns)
	assert.Equal(t, [][]string{{"2", ""}, {"", "4"}}, s.get("A").Rows)
	assert.Equal(t, 1, s.get("B").Len())
	assert.True(t, s.get("missing").Empty())
}

func TestReadOutputsConcatenatesWithProvenance(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fx"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fx", "a.csv"),
		[]byte("Year,Month,Exchange_Rate\n2025,5,0.891\n2025,6,NaN\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fx", "b.csv"),
		[]byte("Year,Month,Note\n2025,7,revised\n"), 0644))

	spec := testutil.ScriptCollector("fx", "fx/run.sh", "Exchange_Rates", "fx/a.csv", "fx/missing.csv", "fx/b.csv")
	spec.Name = "Exchange Rates"

	logger, handler := sharedtest.NewTestLogger(t)
	got := readOutputs(logger, dir, spec, "2025-07-01 09:30:00")
	assert.True(t, handler.ContainsMessage("Output file does not exist"))

	assert.Equal(t, []string{
		"Year", "Month", "Exchange_Rate", ColumnSourceFile, ColumnDataSource, ColumnGeneratedAt, "Note",
	}, got.Columns)
	assert.Equal(t, [][]string{
		{"2025", "5", "0.891", "a.csv", "Exchange Rates", "2025-07-01 09:30:00", ""},
		{"2025", "6", "", "a.csv", "Exchange Rates", "2025-07-01 09:30:00", ""},
		{"2025", "7", "", "b.csv", "Exchange Rates", "2025-07-01 09:30:00", "revised"},
	}, got.Rows)
}
