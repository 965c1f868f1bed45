package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
	"pricepulse/pkg/contracts/domain"
)

// summaryHeader is the first row written to the target sheet
var summaryHeader = []interface{}{
	"Run_ID", "Module", "Module_CN", "Sheet_Name", "Records_Count", "Status", "Source_URL", "Generated_At",
}

// SheetsPublisher writes Summary rows to a Google Sheets tab
type SheetsPublisher struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	timeout       time.Duration
}

// NewSheetsPublisher creates a publisher authenticated with the service
// account key in cfg.CredentialsFile. Extra options are appended, which is
// how tests point the client at a local endpoint.
func NewSheetsPublisher(ctx context.Context, cfg config.PublishConfig, opts ...goption.ClientOption) (*SheetsPublisher, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, apperrors.NewConfigError("missing spreadsheet id", nil)
	}

	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = config.SummarySheetName
	}

	if len(opts) == 0 {
		credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, apperrors.NewConfigError("read service account file", err).
				WithContext("path", cfg.CredentialsFile)
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewExternalError("create sheets service", err)
	}

	slog.InfoContext(ctx, "Google Sheets publisher ready",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("sheet", sheetName))

	return &SheetsPublisher{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		timeout:       config.PublishTimeout,
	}, nil
}

// PublishSummary replaces the contents of the target sheet with the
// Summary rows of one run
func (p *SheetsPublisher) PublishSummary(ctx context.Context, runID string, rows []domain.ModuleSummary) error {
	if p.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	clearRange := p.sheetName
	if _, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return apperrors.NewExternalError("clear summary sheet", err).WithContext("sheet", p.sheetName)
	}

	vr := &gsheet.ValueRange{Values: BuildRows(runID, rows)}
	resp, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, fmt.Sprintf("%s!A1", p.sheetName), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return apperrors.NewExternalError("write summary sheet", err).WithContext("sheet", p.sheetName)
	}

	slog.InfoContext(ctx, "Summary published to Google Sheets",
		slog.String("run_id", runID),
		slog.String("range", resp.UpdatedRange),
		slog.Int64("cells", resp.UpdatedCells))
	return nil
}

// BuildRows converts Summary rows to sheet values, header first
func BuildRows(runID string, rows []domain.ModuleSummary) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, summaryHeader)
	for _, r := range rows {
		values = append(values, []interface{}{
			runID,
			r.Module,
			r.ModuleCN,
			r.SheetName,
			r.RecordsCount,
			r.Status,
			r.SourceURL,
			r.GeneratedAt.Format(config.TimestampLayout),
		})
	}
	return values
}
