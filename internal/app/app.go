// Package app holds the wiring shared by the command line tools.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalLab/internal/api/twelvedata"
	"github.com/Alias1177/SignalLab/internal/config"
	"github.com/Alias1177/SignalLab/internal/database"
	"github.com/Alias1177/SignalLab/internal/marketdata"
	"github.com/Alias1177/SignalLab/models"
)

// SetupLogger configures the global console logger.
func SetupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl)
	zerolog.SetGlobalLevel(lvl)
}

// CandleSource builds the cached Twelve Data source, falling back to
// synthetic candles when configured. ttl <= 0 uses the default cache TTL.
func CandleSource(cfg *config.Config, ttl time.Duration) *marketdata.Cache {
	var source marketdata.Source = twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		RequestTimeout: cfg.HTTPTimeout(),
		RequestsPerSec: cfg.RequestsPerSec,
		MaxRetries:     cfg.MaxRetries,
	})
	if cfg.MarketDataFallback {
		source = marketdata.WithFallback(source, time.Now)
	}
	return marketdata.NewCache(source, ttl)
}

// PollCacheTTL is the cache TTL for a loop polling every interval: half the
// candle duration, capped at the default TTL, so every tick refetches.
func PollCacheTTL(interval string) time.Duration {
	step, ok := models.IntervalDuration(interval)
	if !ok || step/2 > marketdata.DefaultCacheTTL {
		return marketdata.DefaultCacheTTL
	}
	return step / 2
}

// Signals loads the signal manifest into a store. With a database
// configured the definitions are upserted into Postgres and runs are
// stored there; otherwise everything stays in memory. The returned close
// function releases the store.
func Signals(ctx context.Context, cfg *config.Config) (database.Store, []models.StackEntry, func(), error) {
	defs, stack, err := config.LoadSignals(cfg.SignalsFile)
	if err != nil {
		return nil, nil, nil, err
	}

	if !cfg.DatabaseEnabled() {
		return database.NewMemoryStore(defs...), stack, func() {}, nil
	}

	db, err := database.New(ctx, ConnectionParams(cfg))
	if err != nil {
		return nil, nil, nil, err
	}
	for i := range defs {
		if err := db.SaveSignal(ctx, &defs[i]); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("storing signal %s: %w", defs[i].ID, err)
		}
	}
	log.Info().Int("signals", len(defs)).Str("db", cfg.DBName).Msg("signals synced to database")
	return db, stack, func() { db.Close() }, nil
}

// ConnectionParams maps the DB_* settings.
func ConnectionParams(cfg *config.Config) database.ConnectionParams {
	return database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// SignalIDs lists the ids of stack.
func SignalIDs(stack []models.StackEntry) []string {
	ids := make([]string, len(stack))
	for i, entry := range stack {
		ids[i] = entry.SignalID
	}
	return ids
}
