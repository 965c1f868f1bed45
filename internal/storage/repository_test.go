package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricepulse/internal/errors"
	"pricepulse/pkg/contracts/domain"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "pulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRun(id string, started time.Time) domain.RunRecord {
	return domain.RunRecord{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Succeeded:  3,
		Total:      4,
		OutputFile: "integrated_data.xlsx",
		Digest:     "abc123",
		Steps: []domain.StepOutcome{
			{StepID: "rubber", Name: "Commodity Price Crawler", Status: "completed", Duration: 1500 * time.Millisecond, Records: 12},
			{StepID: "bls", Name: "BLS Data Scraper", Status: "failed", Duration: 600 * time.Second, Error: "[timeout] bls: step exceeded timeout of 10m0s"},
			{StepID: "fx", Name: "Exchange Rate Scraper", Status: "completed", Duration: 2 * time.Second, Records: 24},
			{StepID: "fred", Name: "FRED Data Scraper", Status: "completed", Duration: 3 * time.Second, Records: 120},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	started := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveRun(ctx, sampleRun("run-1", started)))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, started, got.StartedAt)
	assert.Equal(t, 90*time.Second, got.Duration())
	assert.Equal(t, 3, got.Succeeded)
	assert.Equal(t, "abc123", got.Digest)

	require.Len(t, got.Steps, 4)
	assert.Equal(t, []string{"rubber", "bls", "fx", "fred"}, []string{
		got.Steps[0].StepID, got.Steps[1].StepID, got.Steps[2].StepID, got.Steps[3].StepID,
	})
	assert.Equal(t, 1500*time.Millisecond, got.Steps[0].Duration)
	assert.Equal(t, "run-1", got.Steps[1].RunID)
	assert.Contains(t, got.Steps[1].Error, "timeout")
}

func TestSaveRunReplacesExisting(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Now().UTC())
	require.NoError(t, repo.SaveRun(ctx, run))

	run.Succeeded = 4
	run.Steps = run.Steps[:1]
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Succeeded)
	assert.Len(t, got.Steps, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].ID)
	assert.Empty(t, runs[0].Steps)

	limited, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	latest, err := repo.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", latest.ID)
	assert.Len(t, latest.Steps, 4)
}

func TestGetRunNotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.GetRun(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, err = repo.LatestRun(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	runs, err := repo.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveRunRequiresID(t *testing.T) {
	repo := newRepo(t)
	assert.Error(t, repo.SaveRun(context.Background(), domain.RunRecord{}))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
