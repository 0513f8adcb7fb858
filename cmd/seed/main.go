package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/northwind-labs/storefront/internal/seed"
	"github.com/northwind-labs/storefront/pkg/config"
	"github.com/northwind-labs/storefront/pkg/db"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	reset := flag.Bool("reset", false, "delete all orders, carts, products and users before seeding")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":   cfg.App.Env,
		"reset": *reset,
	})

	if *reset && cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to reset a production database")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	seeder, err := seed.NewSeeder(dbClient.DB(), cfg.Seed, cfg.Password)
	requireResource(ctx, logg, "seeder", err)

	result, err := seeder.Run(ctx, seed.Options{Reset: *reset})
	if err != nil {
		logg.Error(ctx, "seeding finished with errors", err)
	}
	if result == nil {
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"products_created": result.ProductsCreated,
		"products_skipped": result.ProductsSkipped,
	}), "seed complete")

	for _, account := range result.Accounts {
		switch {
		case !account.Created:
			fmt.Printf("%-6s %s (already present)\n", account.Role, account.Email)
		case account.Password != "":
			fmt.Printf("%-6s %s password=%s\n", account.Role, account.Email, account.Password)
		default:
			fmt.Printf("%-6s %s (configured password)\n", account.Role, account.Email)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
