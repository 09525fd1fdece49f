package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/utafrali/catalog/internal/app"
	"github.com/utafrali/catalog/internal/config"
	pkgconfig "github.com/utafrali/catalog/pkg/config"
	"github.com/utafrali/catalog/pkg/logger"
)

const (
	envFileFlag     = "env-file"
	migrateOnlyFlag = "migrate-only"
)

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	envFile := flags.StringP(envFileFlag, "e", ".env", "file with KEY=VALUE pairs loaded before the environment is read")
	migrateOnly := flags.Bool(migrateOnlyFlag, false, "apply pending migrations and exit")
	_ = flags.Parse(os.Args[1:])

	// An explicitly named env file must exist; the default one is optional.
	if err := pkgconfig.LoadEnvFile(*envFile, flags.Changed(envFileFlag)); err != nil {
		slog.Error("failed to load env file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(logger.Options{Service: "catalog-service", Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *migrateOnly {
		if err := app.Migrate(ctx, cfg, log); err != nil {
			log.Error("migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	log.Info("starting catalog service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
	)

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("catalog service stopped")
}
