// Command seed loads reference data from a YAML file into the store named by
// DATABASE_URL.
//
//	seed [-dry-run] seed.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/docstore/backend"
	"github.com/rallyops/designops/internal/seed"
)

type seedConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
}

func main() {
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-dry-run] <seed.yaml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(flag.Arg(0), *dryRun); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(path string, dryRun bool) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	if dryRun {
		slog.Info("seed file is valid", "path", path)
		return nil
	}

	_ = godotenv.Load()
	var cfg seedConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close() //nolint:errcheck

	_, err = seed.Apply(ctx, store, access.NewRepository(store), f)
	return err
}
