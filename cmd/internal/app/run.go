package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Run wires config, logging, and signal handling around the App lifecycle.
// cmd/sharebase calls it and owns the exit code.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := LoadConfig()
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	a, err := New(cfg, log)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return a.Run(ctx)
}
