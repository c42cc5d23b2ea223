package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rawneddy/fieldcatalog/internal/cli"
	"github.com/rawneddy/fieldcatalog/internal/config"
	"github.com/rawneddy/fieldcatalog/internal/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()

	cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if err := cli.Run(version); err != nil {
		slog.Error("command failed", "error", err)
		cleanup()
		os.Exit(1)
	}
	cleanup()
}
