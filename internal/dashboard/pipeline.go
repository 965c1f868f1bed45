package dashboard

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pricepulse/internal/config"
	"pricepulse/internal/dataprocessing"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/files"
	"pricepulse/internal/infrastructure"
	"pricepulse/pkg/contracts/domain"
)

// Options controls one dashboard build
type Options struct {
	// WorkDir anchors the relative input paths. Defaults to ".".
	WorkDir string

	// OutDir receives the page. Relative values are joined to WorkDir.
	OutDir string

	Prior    dataprocessing.PriorMode
	MinYear  int
	Snapshot bool
	Now      func() time.Time
	Metrics  *infrastructure.PipelineMetrics
}

func (o Options) withDefaults() Options {
	if o.WorkDir == "" {
		o.WorkDir = "."
	}
	if o.OutDir == "" {
		o.OutDir = o.WorkDir
	} else if !filepath.IsAbs(o.OutDir) {
		o.OutDir = filepath.Join(o.WorkDir, o.OutDir)
	}
	if o.Prior == "" {
		o.Prior = dataprocessing.PriorRecord
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Analysis is the parsed and compared data of one family
type Analysis struct {
	Family      string                               `json:"family"`
	Categories  []string                             `json:"categories"`
	Series      map[string][]domain.TimeSeriesRecord `json:"-"`
	Comparisons []domain.ComparisonResult            `json:"comparisons"`
	Records     int                                  `json:"records"`
}

// Result describes a written dashboard
type Result struct {
	Analysis
	Output string `json:"output"`
}

// Analyze reads and parses every input of fam and computes the latest
// comparisons per category. Every input is checked before any is read, so
// a missing file fails fast with an error wrapping errors.ErrMissingInput.
func Analyze(ctx context.Context, fam Family, opts Options) (*Analysis, error) {
	opts = opts.withDefaults()

	inputs := make([]string, len(fam.Inputs))
	for i, in := range fam.Inputs {
		inputs[i] = resolve(opts.WorkDir, in.Path)
		if _, err := os.Stat(inputs[i]); err != nil {
			if os.IsNotExist(err) {
				return nil, apperrors.MissingInput(in.Path)
			}
			return nil, apperrors.NewStorageError("failed to stat input", err).WithContext("path", in.Path)
		}
	}

	var all []domain.TimeSeriesRecord
	for i, in := range fam.Inputs {
		tbl, err := files.ReadTable(inputs[i])
		if err != nil {
			return nil, err
		}

		parseOpts := in.Options
		if opts.MinYear != 0 {
			parseOpts.MinYear = opts.MinYear
		}
		records, err := dataprocessing.ParseTable(tbl, parseOpts)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", in.Path, err)
		}

		slog.InfoContext(ctx, "Loaded dashboard input",
			slog.String("family", fam.Name),
			slog.String("file", in.Path),
			slog.Int("rows", tbl.Len()),
			slog.Int("records", len(records)))

		all = append(all, records...)
	}

	categories, grouped := dataprocessing.GroupByCategory(all)
	series := make(map[string][]domain.TimeSeriesRecord, len(grouped))
	for category, records := range grouped {
		series[category] = dataprocessing.SortSeries(records)
	}

	comparisons := dataprocessing.NewCalculator(opts.Prior).CompareAll(all)
	if len(comparisons) == 0 {
		return nil, fmt.Errorf("%s: %w", fam.Name, apperrors.ErrNoComparison)
	}

	return &Analysis{
		Family:      fam.Name,
		Categories:  categories,
		Series:      series,
		Comparisons: comparisons,
		Records:     len(all),
	}, nil
}

// Run analyzes fam and writes its HTML page. Nothing is written when an
// input is missing or no comparison could be computed.
func Run(ctx context.Context, fam Family, opts Options) (result *Result, err error) {
	opts = opts.withDefaults()

	ctx, span := infrastructure.StartSpan(ctx, "dashboard.render",
		attribute.String("family", fam.Name),
		attribute.String("prior_mode", string(opts.Prior)))
	defer func() {
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		infrastructure.RecordDashboardRender(ctx, opts.Metrics, fam.Name, err == nil)
		span.End()
	}()

	analysis, err := Analyze(ctx, fam, opts)
	if err != nil {
		return nil, err
	}

	report := Report{
		Categories:  analysis.Categories,
		Series:      analysis.Series,
		Comparisons: analysis.Comparisons,
		GeneratedAt: opts.Now(),
	}
	if opts.Snapshot {
		snap, snapErr := Snapshot(fam, analysis.Categories, analysis.Series)
		if snapErr != nil {
			slog.WarnContext(ctx, "Snapshot rendering failed, page keeps the live chart only",
				slog.String("family", fam.Name),
				slog.String("error", snapErr.Error()))
		} else {
			report.Snapshot = snap
		}
	}

	var buf bytes.Buffer
	if err := Render(&buf, fam, report); err != nil {
		return nil, apperrors.NewRenderError("failed to render dashboard", err).WithContext("family", fam.Name)
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create output directory", err)
	}
	output := filepath.Join(opts.OutDir, fam.OutputFile)
	if err := files.WriteFileAtomic(output, buf.Bytes()); err != nil {
		return nil, apperrors.NewStorageError("failed to write dashboard", err).WithContext("path", output)
	}

	for _, c := range analysis.Comparisons {
		slog.InfoContext(ctx, "Latest comparison",
			slog.String("family", fam.Name),
			slog.String("category", c.Category),
			slog.String("latest", fam.FormatValue(c.Latest.Value)),
			slog.String("date", DateLabel(c.Latest.Year, c.Latest.Month)),
			slog.String("mom", FormatChange(c.PriorMonth.PctChange)),
			slog.String("yoy", FormatChange(c.YearAgo.PctChange)))
	}
	slog.InfoContext(ctx, "Dashboard generated",
		slog.String("family", fam.Name),
		slog.String("output", output),
		slog.Int("records", analysis.Records),
		slog.Int("categories", len(analysis.Categories)))

	return &Result{Analysis: *analysis, Output: output}, nil
}

// RunCLI parses dashboard flags from args, builds fam and returns the
// process exit code: 0 on success, 1 on a missing input, an empty
// comparison or a write failure, 2 on bad flags.
func RunCLI(ctx context.Context, fam Family, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet(fam.Name+"-dashboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	workDir := fs.String("workdir", ".", "directory holding csv_output/")
	outDir := fs.String("out", "", "output directory (defaults to workdir)")
	prior := fs.String("prior", string(dataprocessing.PriorRecord), "prior-period mode: record | calendar")
	minYear := fs.Int("min-year", config.DefaultMinYear, "earliest year included, negative for no cutoff")
	snapshot := fs.Bool("snapshot", false, "embed a static PNG chart for offline viewing")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	mode := dataprocessing.PriorMode(*prior)
	if mode != dataprocessing.PriorRecord && mode != dataprocessing.PriorCalendar {
		fmt.Fprintf(stderr, "invalid -prior %q: want record or calendar\n", *prior)
		return 2
	}

	_, err := Run(ctx, fam, Options{
		WorkDir:  *workDir,
		OutDir:   *outDir,
		Prior:    mode,
		MinYear:  *minYear,
		Snapshot: *snapshot,
	})
	switch {
	case err == nil:
		return 0
	case errors.Is(err, apperrors.ErrMissingInput):
		slog.ErrorContext(ctx, config.ErrMsgMissingInput,
			slog.String("family", fam.Name),
			slog.String("error", err.Error()))
	case errors.Is(err, apperrors.ErrNoComparison):
		slog.ErrorContext(ctx, config.ErrMsgNoComparison,
			slog.String("family", fam.Name))
	default:
		slog.ErrorContext(ctx, "Dashboard generation failed",
			slog.String("family", fam.Name),
			slog.String("error", err.Error()))
	}
	return 1
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
