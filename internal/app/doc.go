// Package app wires the application together.
//
// Runtime is the setup every command shares: configuration (config.yaml,
// .env and PULSE_* variables), the JSON slog logger and OpenTelemetry.
// Application is the preview server built on top of it: a chi router with
// the middleware chain, the handlers of internal/transport/http and
// graceful shutdown.
//
// Middleware order:
//
//	RequestID → RealIP → Telemetry → StructuredLogger → Recoverer →
//	SecurityHeaders → RateLimiter → Timeout (API routes only)
//
// Usage:
//
//	rt, err := app.NewRuntime(app.Options{ConfigFile: *configFile})
//	if err != nil {
//	    return err
//	}
//	defer rt.Shutdown(context.Background())
//
//	repo, err := rt.OpenRepository()
//	...
//	return app.NewApplication(rt, repo).Run(ctx)
package app
