package main

import (
	"context"
	"os"
	"strings"

	"AwardScanner/internal/app"
	"AwardScanner/internal/config"
	"AwardScanner/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	query := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if query == "" {
		logger.Error("usage: awardscanner <query>")
		os.Exit(2)
	}

	application := app.New(cfg, logger)

	if err := application.Run(ctx, query); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
