package services

import "errors"

var (
	// ErrStorageDisabled means run history is not configured
	ErrStorageDisabled = errors.New("run history storage is disabled")
	// ErrNoDashboards means the dashboard directory holds no pages
	ErrNoDashboards = errors.New("no dashboards rendered")
)
