// Package services holds the read-side logic behind the preview server:
// health, run history, rendered dashboards and live comparison summaries.
//
// Handlers in internal/transport/http stay thin and delegate here. Services
// take their dependencies through constructors and return errors from
// internal/errors so the problem renderer can map them to HTTP statuses.
//
//	runs := services.NewRunService(repo, logger)
//	list, err := runs.ListRuns(ctx, 20)
package services
