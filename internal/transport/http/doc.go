// Package http implements the preview server handlers. Handlers stay thin:
// they parse and validate parameters, call a service from
// internal/services and render JSON with chi/render. Failures are rendered
// as RFC 7807 problems through errors.ErrorHandler.
//
// Routes, as mounted by internal/app:
//
//	GET /healthz               service and storage health
//	GET /dashboards            rendered dashboard pages
//	GET /dashboards/{name}     one page
//	GET /api/runs              run history, newest first (?limit=1..500)
//	GET /api/runs/{id}         one run with its steps
//	GET /api/summary           latest comparisons per family (?prior=record|calendar)
//	GET /metrics               Prometheus exposition
package http
