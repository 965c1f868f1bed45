package integrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"pricepulse/internal/config"
	"pricepulse/internal/exporter"
	"pricepulse/internal/files"
	"pricepulse/internal/infrastructure"
	"pricepulse/internal/operations"
	"pricepulse/pkg/contracts/domain"
)

// RunRecorder persists finished runs
type RunRecorder interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
}

// SummaryPublisher publishes the Summary rows somewhere outside the workbook
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, runID string, rows []domain.ModuleSummary) error
}

// RunNotifier announces finished runs
type RunNotifier interface {
	NotifyRunCompleted(ctx context.Context, event domain.RunCompletedEvent) error
}

// ExecContext is everything a run depends on. Paths are resolved against
// WorkDir; the process working directory is never changed.
type ExecContext struct {
	WorkDir string

	// OutputFile is the workbook path, relative to WorkDir unless absolute
	OutputFile string

	// Timeout bounds each collector without its own timeout
	Timeout time.Duration

	Interpreter string
	Collectors  []config.CollectorSpec

	// Registry overrides the steps built from Collectors. Step IDs must
	// match collector IDs.
	Registry *operations.Registry

	Metrics *infrastructure.PipelineMetrics
	Logger  *slog.Logger
	Now     func() time.Time
}

func (e ExecContext) withDefaults() ExecContext {
	if e.WorkDir == "" {
		e.WorkDir = "."
	}
	if e.OutputFile == "" {
		e.OutputFile = config.DefaultWorkbookFile
	}
	if !filepath.IsAbs(e.OutputFile) {
		e.OutputFile = filepath.Join(e.WorkDir, e.OutputFile)
	}
	if e.Timeout <= 0 {
		e.Timeout = config.DefaultStepTimeout
	}
	if e.Interpreter == "" {
		e.Interpreter = config.DefaultInterpreter
	}
	if e.Collectors == nil {
		e.Collectors = config.DefaultCollectors()
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

// Result is the outcome of one integration run
type Result struct {
	Run      domain.RunRecord
	Summary  []domain.ModuleSummary
	Sheets   []exporter.Sheet
	Response *operations.OperationResponse
}

// Integrator runs collectors and assembles the integrated workbook
type Integrator struct {
	exec      ExecContext
	recorder  RunRecorder
	publisher SummaryPublisher
	notifier  RunNotifier
}

// New creates an integrator for the given execution context
func New(exec ExecContext) *Integrator {
	return &Integrator{exec: exec.withDefaults()}
}

// WithRecorder persists every run
func (i *Integrator) WithRecorder(r RunRecorder) *Integrator {
	i.recorder = r
	return i
}

// WithPublisher publishes the Summary rows after every run
func (i *Integrator) WithPublisher(p SummaryPublisher) *Integrator {
	i.publisher = p
	return i
}

// WithNotifier announces every run
func (i *Integrator) WithNotifier(n RunNotifier) *Integrator {
	i.notifier = n
	return i
}

// Run executes all collectors in order and writes the workbook. Collector
// failures are recorded in the result; the error is non-nil only when the
// workbook could not be assembled or the run was cancelled.
func (i *Integrator) Run(ctx context.Context) (*Result, error) {
	exec := i.exec
	logger := exec.Logger

	cfg := operations.NewConfigBuilder().
		WithTimeout(exec.Timeout).
		WithContinueOnError(true).
		Build()

	registry := exec.Registry
	if registry == nil {
		var err error
		registry, err = operations.NewRegistryFromCollectors(exec.Collectors, exec.Interpreter, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build collector steps: %w", err)
		}
	} else {
		for _, spec := range exec.Collectors {
			if spec.Timeout > 0 {
				cfg.SetStepTimeout(spec.ID, spec.Timeout)
			}
		}
	}

	specs := make(map[string]config.CollectorSpec, len(exec.Collectors))
	for _, spec := range exec.Collectors {
		specs[spec.ID] = spec
	}

	manager := operations.NewManager(registry, cfg, exec.Metrics)
	collector := &outputCollector{
		exec:    exec,
		specs:   specs,
		sheets:  newSheetSet(),
		records: make(map[string]int),
	}
	manager.AddObserver(collector)

	startedAt := exec.Now()
	logger.InfoContext(ctx, "Data integration started",
		slog.String("work_dir", exec.WorkDir),
		slog.Int("collectors", registry.Count()))

	resp, err := manager.Execute(ctx, operations.OperationRequest{WorkDir: exec.WorkDir})
	if err != nil && operations.GetErrorType(err) == operations.ErrorTypeCancellation {
		return &Result{Response: resp}, fmt.Errorf("integration cancelled: %w", err)
	}

	generatedAt := exec.Now()
	summary, sheets := collector.assemble(generatedAt)

	wb := exporter.Workbook{
		Summary:     summary,
		Sheets:      sheets,
		GeneratedAt: generatedAt,
	}
	if err := exporter.WriteWorkbook(exec.OutputFile, wb); err != nil {
		logger.ErrorContext(ctx, "Failed to create integrated workbook",
			slog.String("path", exec.OutputFile),
			slog.String("error", err.Error()))
		return &Result{Response: resp, Summary: summary, Sheets: sheets}, fmt.Errorf("workbook assembly failed: %w", err)
	}

	for _, sheet := range sheets {
		infrastructure.RecordSheetRecords(ctx, exec.Metrics, sheet.Name, sheet.Table.Len())
	}

	digest, err := files.Digest(exec.OutputFile)
	if err != nil {
		logger.WarnContext(ctx, "Failed to digest workbook", slog.String("error", err.Error()))
	}

	run := domain.RunRecord{
		ID:         resp.ID,
		StartedAt:  startedAt,
		FinishedAt: exec.Now(),
		Succeeded:  resp.Succeeded,
		Total:      resp.Total,
		OutputFile: exec.OutputFile,
		Digest:     digest,
		Steps:      collector.outcomes(resp),
	}

	logSummary(ctx, logger, run)
	i.afterRun(ctx, run, summary)

	return &Result{
		Run:      run,
		Summary:  summary,
		Sheets:   sheets,
		Response: resp,
	}, nil
}

// afterRun hands the run to the optional recorder, publisher and notifier.
// Their failures are logged and never fail the run.
func (i *Integrator) afterRun(ctx context.Context, run domain.RunRecord, summary []domain.ModuleSummary) {
	logger := i.exec.Logger

	if i.recorder != nil {
		if err := i.recorder.SaveRun(ctx, run); err != nil {
			logger.WarnContext(ctx, "Failed to save run history",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
		}
	}

	if i.publisher != nil {
		if err := i.publisher.PublishSummary(ctx, run.ID, summary); err != nil {
			logger.WarnContext(ctx, "Failed to publish summary",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
		}
	}

	if i.notifier != nil {
		event := domain.RunCompletedEvent{
			RunID:      run.ID,
			Succeeded:  run.Succeeded,
			Total:      run.Total,
			OutputFile: run.OutputFile,
			Digest:     run.Digest,
			Timestamp:  run.FinishedAt,
		}
		if err := i.notifier.NotifyRunCompleted(ctx, event); err != nil {
			logger.WarnContext(ctx, "Failed to send run notification",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
		}
	}
}

func logSummary(ctx context.Context, logger *slog.Logger, run domain.RunRecord) {
	for _, step := range run.Steps {
		if step.Status == string(operations.StepStatusCompleted) {
			logger.InfoContext(ctx, "Module succeeded",
				slog.String("module", step.Name),
				slog.Int("records", step.Records))
			continue
		}
		logger.ErrorContext(ctx, "Module failed",
			slog.String("module", step.Name),
			slog.String("status", step.Status),
			slog.String("error", step.Error))
	}
	logger.InfoContext(ctx, "Data integration finished",
		slog.String("run_id", run.ID),
		slog.String("output", run.OutputFile),
		slog.String("result", fmt.Sprintf("%d/%d", run.Succeeded, run.Total)),
		slog.Duration("duration", run.Duration()))
}

// outputCollector reads outputs as each step finishes
type outputCollector struct {
	exec  ExecContext
	specs map[string]config.CollectorSpec

	mu      sync.Mutex
	sheets  *sheetSet
	records map[string]int
}

// StepFinished implements operations.StepObserver
func (c *outputCollector) StepFinished(ctx context.Context, step operations.Step, state *operations.StepState) {
	spec, ok := c.specs[step.ID()]
	if !ok {
		spec = config.CollectorSpec{ID: step.ID(), Name: step.Name(), Sheet: step.ID(), Outputs: step.Outputs()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !state.Succeeded() {
		snap := state.Snapshot()
		c.exec.Logger.ErrorContext(ctx, "Module execution failed",
			slog.String("module", spec.Name),
			slog.String("error", snap.Message),
			slog.String("output", snap.Output))
		c.sheets.reserve(spec.Sheet)
		return
	}

	data := readOutputs(c.exec.Logger, c.exec.WorkDir, spec, c.exec.Now().Format(config.TimestampLayout))
	c.records[spec.ID] = data.Len()
	state.SetMetadata("records", data.Len())

	if data.Empty() {
		c.exec.Logger.WarnContext(ctx, "No valid data retrieved", slog.String("module", spec.Name))
	} else {
		c.exec.Logger.InfoContext(ctx, "Retrieved data records",
			slog.String("module", spec.Name),
			slog.String("sheet", spec.Sheet),
			slog.Int("records", data.Len()))
	}
	if err := c.sheets.merge(spec.Sheet, data); err != nil {
		c.exec.Logger.ErrorContext(ctx, "Failed to merge sheet data",
			slog.String("module", spec.Name),
			slog.String("sheet", spec.Sheet),
			slog.String("error", err.Error()))
	}
}

// assemble builds the Summary rows and the data sheets in collector order
func (c *outputCollector) assemble(at time.Time) ([]domain.ModuleSummary, []exporter.Sheet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := make([]domain.ModuleSummary, 0, len(c.exec.Collectors))
	var sheets []exporter.Sheet
	seen := make(map[string]bool)

	for _, spec := range c.exec.Collectors {
		tbl := c.sheets.get(spec.Sheet)
		status := domain.SummaryStatusSuccess
		if tbl.Empty() {
			status = domain.SummaryStatusNoData
		}
		summary = append(summary, domain.ModuleSummary{
			Module:       spec.Name,
			ModuleCN:     spec.NameCN,
			SheetName:    spec.Sheet,
			RecordsCount: tbl.Len(),
			Status:       status,
			SourceURL:    spec.SourceURL,
			GeneratedAt:  at,
		})

		if !seen[spec.Sheet] {
			seen[spec.Sheet] = true
			sheets = append(sheets, exporter.Sheet{Name: spec.Sheet, Table: tbl})
		}
	}
	return summary, sheets
}

// outcomes converts step states into persisted step rows
func (c *outputCollector) outcomes(resp *operations.OperationResponse) []domain.StepOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.StepOutcome, 0, len(resp.Steps))
	for _, s := range resp.Steps {
		out = append(out, domain.StepOutcome{
			RunID:    resp.ID,
			StepID:   s.ID,
			Name:     s.Name,
			Status:   string(s.Status),
			Duration: s.Duration(),
			Records:  c.records[s.ID],
			Error:    s.Message,
		})
	}
	return out
}
