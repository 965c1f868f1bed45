package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pricepulse/internal/dashboard"
	"pricepulse/internal/dataprocessing"
	api "pricepulse/pkg/contracts/api/v1"
)

// SummaryService computes the latest comparisons of every dashboard family
// straight from the exported CSV files
type SummaryService struct {
	workDir  string
	minYear  int
	families []dashboard.Family
	logger   *slog.Logger
}

// NewSummaryService analyzes inputs under workDir
func NewSummaryService(workDir string, minYear int, logger *slog.Logger) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryService{
		workDir:  workDir,
		minYear:  minYear,
		families: dashboard.Families(),
		logger:   logger,
	}
}

// Summary analyzes all families concurrently. A family that cannot be
// analyzed carries its error message; the others are unaffected.
func (s *SummaryService) Summary(ctx context.Context, prior dataprocessing.PriorMode) api.SummaryResponse {
	out := make([]api.FamilySummary, len(s.families))

	g, gctx := errgroup.WithContext(ctx)
	for i, fam := range s.families {
		g.Go(func() error {
			summary := api.FamilySummary{Family: fam.Name, Title: fam.TitleEN}
			analysis, err := dashboard.Analyze(gctx, fam, dashboard.Options{
				WorkDir: s.workDir,
				Prior:   prior,
				MinYear: s.minYear,
			})
			if err != nil {
				s.logger.WarnContext(gctx, "Family summary unavailable",
					slog.String("family", fam.Name),
					slog.String("error", err.Error()))
				summary.Error = err.Error()
			} else {
				summary.Records = analysis.Records
				summary.Comparisons = analysis.Comparisons
			}
			out[i] = summary
			return nil
		})
	}
	g.Wait()

	return api.SummaryResponse{
		PriorMode:   string(prior),
		Families:    out,
		GeneratedAt: time.Now().UTC(),
	}
}
