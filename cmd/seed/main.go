// Command seed imports a YAML or JSON vehicle list into the configured
// record store.
//
//	seed -file inventory.yaml [-replace] [-dry-run]
//
// With -dry-run the import runs against an in-memory copy of the vehicles
// collection and only the resulting counts are logged.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/dealership-backend/internal/bootstrap"
	"github.com/tbourn/dealership-backend/internal/config"
	"github.com/tbourn/dealership-backend/internal/seed"
	"github.com/tbourn/dealership-backend/internal/store"
	"github.com/tbourn/dealership-backend/internal/sysutil"
)

func main() {
	file := flag.String("file", "", "inventory file (.yaml, .yml or .json)")
	replace := flag.Bool("replace", false, "overwrite the vehicles collection instead of merging by id")
	dryRun := flag.Bool("dry-run", false, "report what would change without writing to the store")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("open inventory")
	}
	defer f.Close()

	vehicles, err := seed.Parse(f)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("parse inventory")
	}

	backend, db, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("record store init failed")
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	var target store.Backend = backend
	if *dryRun {
		if target, err = seed.Sandbox(ctx, backend); err != nil {
			log.Fatal().Err(err).Msg("read vehicles for dry run")
		}
	}

	im := &seed.Importer{Store: target}
	rep, err := im.Import(ctx, vehicles, *replace)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	if *dryRun {
		log.Info().
			Int("created", rep.Created).
			Int("updated", rep.Updated).
			Int("total", rep.Total).
			Msg("dry run: store left unchanged")
	}
}
