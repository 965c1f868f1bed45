package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pricepulse/internal/dashboard"
	"pricepulse/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	slog.SetDefault(infrastructure.NewLogger(os.Stderr, os.Getenv("PULSE_LOGGING_LEVEL")))
	return dashboard.RunCLI(infrastructure.EnsureTraceID(ctx), dashboard.Rubber(), args, os.Stderr)
}
