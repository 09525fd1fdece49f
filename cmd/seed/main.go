package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/utafrali/catalog/internal/auth"
	"github.com/utafrali/catalog/internal/config"
	"github.com/utafrali/catalog/internal/event"
	"github.com/utafrali/catalog/internal/repository/postgres"
	"github.com/utafrali/catalog/internal/seed"
	"github.com/utafrali/catalog/internal/service"
	"github.com/utafrali/catalog/migrations"
	pkgconfig "github.com/utafrali/catalog/pkg/config"
	"github.com/utafrali/catalog/pkg/database"
	"github.com/utafrali/catalog/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	envFile := flags.StringP("env-file", "e", ".env", "file with KEY=VALUE pairs loaded before the environment is read")
	opts := seed.Options{AdminName: "Catalog Admin"}
	flags.IntVarP(&opts.Count, "count", "n", 50, "number of products to create")
	flags.BoolVar(&opts.Purge, "purge", false, "delete every product before seeding")
	flags.Int64Var(&opts.RandSeed, "seed", 1, "random seed for generated products")
	flags.StringVar(&opts.AdminEmail, "admin-email", "admin@catalog.local", "administrator account email")
	flags.StringVar(&opts.AdminPassword, "admin-password", "Admin123", "administrator account password")
	_ = flags.Parse(os.Args[1:])

	log := logger.New(logger.Options{Service: "catalog-seed", Format: "text"})

	if err := run(*envFile, flags.Changed("env-file"), opts, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(envFile string, envRequired bool, opts seed.Options, log *slog.Logger) error {
	if err := pkgconfig.LoadEnvFile(envFile, envRequired); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	products := postgres.NewProductRepository(pool)
	images := postgres.NewImageRepository(pool)
	catalog := service.NewCatalogService(pool, products, images, service.NoopCache{}, event.NoopProducer{}, nil, log)
	writer := service.NewProductWriter(pool, products, images, catalog, event.NoopProducer{}, nil, log)
	accounts := service.NewAuthService(postgres.NewUserRepository(pool),
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry), cfg.BcryptCost, log)

	res, err := seed.New(pool, accounts, writer, log).Run(ctx, opts)
	if err != nil {
		return err
	}
	log.Info("seed complete",
		slog.String("admin_id", res.AdminID),
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
	)
	return nil
}
