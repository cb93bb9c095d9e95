// Command seed applies a YAML fixture to the configured database.
//
//	seed -file fixtures/dev.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/config"
	"github.com/mind-engage/mindengage-training/internal/db"
	"github.com/mind-engage/mindengage-training/internal/logging"
	"github.com/mind-engage/mindengage-training/internal/seed"
	"github.com/mind-engage/mindengage-training/internal/training"
)

func main() {
	cfg := config.FromEnv()
	file := flag.String("file", cfg.SeedFile, "YAML fixture to apply")
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -file <fixture.yaml>")
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Mode == config.ModeOnline)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	f, err := seed.Load(*file)
	if err != nil {
		log.Fatal("load fixture", zap.String("file", *file), zap.Error(err))
	}
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	if _, err := seed.Apply(ctx, training.NewSQLStore(dbh, cfg.DBDriver), f, log); err != nil {
		log.Fatal("apply fixture", zap.String("file", *file), zap.Error(err))
	}
}
