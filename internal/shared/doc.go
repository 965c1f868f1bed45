// Package shared holds helpers used across the pricepulse packages.
//
// The testutil subpackage provides a buffered slog handler so tests can
// assert on structured log output:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := NewSomething(logger)
//	svc.Do()
//	assert.True(t, handler.ContainsMessage("done"))
package shared
