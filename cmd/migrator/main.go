package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bnvault/internal/config"
	"bnvault/internal/convert"
	"bnvault/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML config file (defaults to "+config.DefaultConfigFile+")")
	root := flag.String("root", "", "tree to migrate (defaults to the configured dest)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if *root == "" {
		*root = cfg.Dest
	}

	ctx, stop := signal.NotifyContext(infrastructure.ContextWithRunID(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting migrator", slog.String("root", *root))

	migrated, failed, err := convert.MigrateTree(ctx, *root)
	if err != nil {
		logger.Error("Migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if failed > 0 {
		logger.Error("Migration finished with failures",
			slog.Int("migrated", migrated),
			slog.Int("failed", failed))
		os.Exit(1)
	}
	logger.Info("Migration finished", slog.Int("migrated", migrated))
}
