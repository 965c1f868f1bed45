package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/files"
	api "pricepulse/pkg/contracts/api/v1"
)

// DashboardService lists and locates rendered dashboard pages
type DashboardService struct {
	dir    string
	logger *slog.Logger
}

// NewDashboardService serves the pages found in dir
func NewDashboardService(dir string, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{dir: dir, logger: logger}
}

// List returns every .html page in the dashboard directory, sorted by name
func (s *DashboardService) List(ctx context.Context) ([]api.DashboardFile, error) {
	found, err := files.NewDiscovery(s.dir).FindDashboards(".")
	if errors.Is(err, fs.ErrNotExist) {
		return []api.DashboardFile{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read dashboard directory", err).WithContext("directory", s.dir)
	}

	pages := make([]api.DashboardFile, 0, len(found))
	for _, f := range found {
		pages = append(pages, api.DashboardFile{
			Name:     f.Name,
			URL:      "/dashboards/" + f.Name,
			Size:     f.Size,
			Modified: f.ModTime.UTC(),
		})
	}

	s.logger.DebugContext(ctx, "Listed dashboards",
		slog.String("directory", s.dir),
		slog.Int("count", len(pages)))
	return pages, nil
}

// Path resolves a page name to its file. Names are single path segments;
// anything else or a missing page is a not-found error.
func (s *DashboardService) Path(name string) (string, error) {
	if name != filepath.Base(name) || !isPage(name) {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("dashboard %s", name))
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("dashboard %s", name))
	}
	return path, nil
}

func isPage(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".html")
}
