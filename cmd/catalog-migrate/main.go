package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

const usage = `usage: catalog-migrate [up|down|status]

  up      apply every pending migration (default)
  down    roll back the most recent migration
  status  list migrations and whether they are applied
`

func main() {
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if err := run(flag.Arg(0)); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

func run(command string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	migrator, err := db.NewMigrator(pgxPool, logger)
	if err != nil {
		return fmt.Errorf("error creating migrator: %w", err)
	}
	defer migrator.Close()

	switch command {
	case "", "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = migrator.Status(ctx)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "migrate command completed", "command", command)
	return nil
}
