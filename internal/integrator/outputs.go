package integrator

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"

	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/files"
	"pricepulse/pkg/contracts/domain"
)

// Provenance columns added to every collected table
const (
	ColumnSourceFile  = "Source_File"
	ColumnDataSource  = "Data_Source"
	ColumnGeneratedAt = "Generated_At"
)

// readOutputs loads every output file of a collector, tags each with its
// provenance and concatenates the non-empty ones. Missing or unreadable
// files are logged and skipped.
func readOutputs(logger *slog.Logger, workDir string, spec config.CollectorSpec, generatedAt string) *domain.Table {
	frames := make([]dataframe.DataFrame, 0, len(spec.Outputs))

	for _, rel := range spec.Outputs {
		path := filepath.Join(workDir, rel)

		tbl, err := files.ReadTable(path)
		switch {
		case errors.Is(err, apperrors.ErrMissingInput):
			logger.Warn("Output file does not exist",
				slog.String("collector", spec.ID),
				slog.String("path", rel))
			continue
		case errors.Is(err, files.ErrUnsupportedFormat):
			logger.Warn("Unsupported output file format",
				slog.String("collector", spec.ID),
				slog.String("path", rel))
			continue
		case err != nil:
			logger.Error("Failed to read output file",
				slog.String("collector", spec.ID),
				slog.String("path", rel),
				slog.String("error", err.Error()))
			continue
		}

		if tbl.Empty() {
			logger.Warn("Output file has no records",
				slog.String("collector", spec.ID),
				slog.String("path", rel))
			continue
		}

		df := files.Frame(tbl)
		df = files.WithConstant(df, ColumnSourceFile, filepath.Base(rel))
		df = files.WithConstant(df, ColumnDataSource, spec.Name)
		df = files.WithConstant(df, ColumnGeneratedAt, generatedAt)
		if df.Err != nil {
			logger.Error("Failed to load output file",
				slog.String("collector", spec.ID),
				slog.String("path", rel),
				slog.String("error", df.Err.Error()))
			continue
		}

		logger.Info("Read output file",
			slog.String("collector", spec.ID),
			slog.String("path", rel),
			slog.Int("records", df.Nrow()))

		frames = append(frames, df)
	}

	combined, err := files.ConcatFrames(frames...)
	if err != nil {
		logger.Error("Failed to combine output files",
			slog.String("collector", spec.ID),
			slog.String("error", err.Error()))
		return &domain.Table{}
	}
	return combined
}

// sheetSet keeps the merged sheets in first-seen order
type sheetSet struct {
	order  []string
	tables map[string]*domain.Table
}

func newSheetSet() *sheetSet {
	return &sheetSet{tables: make(map[string]*domain.Table)}
}

// reserve creates an empty entry for the named sheet if it is not present
func (s *sheetSet) reserve(name string) {
	if _, ok := s.tables[name]; !ok {
		s.order = append(s.order, name)
		s.tables[name] = &domain.Table{}
	}
}

// merge appends data below the named sheet, unioning the columns. An empty
// table only reserves the sheet.
func (s *sheetSet) merge(name string, data *domain.Table) error {
	s.reserve(name)
	if data.Empty() {
		return nil
	}
	existing := s.tables[name]
	if existing.Empty() {
		s.tables[name] = data
		return nil
	}

	merged, err := files.ConcatTables(existing, data)
	if err != nil {
		return err
	}
	s.tables[name] = merged
	return nil
}

// get returns the named sheet or an empty table
func (s *sheetSet) get(name string) *domain.Table {
	if tbl, ok := s.tables[name]; ok {
		return tbl
	}
	return &domain.Table{}
}
