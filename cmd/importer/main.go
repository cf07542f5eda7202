package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"reviewlist/internal/adapters/observability"
	redisad "reviewlist/internal/adapters/redis"
	"reviewlist/internal/app"
	"reviewlist/internal/shared"
	mysqlrepo "reviewlist/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	file := flag.String("file", cfg.FixturePath, "JSON array of review records, or a page object with items")
	flag.Parse()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := readRecords(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("read records failed")
	}
	log.Info().
		Str("file", *file).
		Int("records", len(records)).
		Int("workers", cfg.ImportWorkers).
		Int("batch", cfg.ImportBatch).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	imp := app.NewImportService(mysqlrepo.New(db), cache, cfg.ImportBatch, cfg.ImportWorkers)
	n, err := imp.Import(ctx, records)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	log.Info().Int("reviews", n).Msg("import completed")
}

func readRecords(path string) ([]map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(b, &records); err == nil {
		return records, nil
	}
	var page struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}
