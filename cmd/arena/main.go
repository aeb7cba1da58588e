package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalLab/internal/app"
	"github.com/Alias1177/SignalLab/internal/config"
	"github.com/Alias1177/SignalLab/internal/database"
	"github.com/Alias1177/SignalLab/internal/sandbox"
	"github.com/Alias1177/SignalLab/internal/trading/arena"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	app.SetupLogger(cfg.LogLevel)

	sweep, err := config.LoadSweep(cfg.SweepFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SweepFile).Msg("Failed to load sweep")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := sandbox.NewHost(cfg.SandboxTimeout())
	defer host.Close(context.Background())

	sweeper := arena.NewSweeper(arena.NewRunner(host), app.CandleSource(cfg, 0), cfg.ArenaWorkers)
	progress := &arena.Progress{}

	done := make(chan struct{})
	go reportProgress(progress, done)

	reports, err := sweeper.Sweep(ctx, arena.SweepRequest{
		StrategyName:   sweep.Strategy,
		Module:         sweep.Module,
		Symbols:        sweep.Symbols,
		Intervals:      sweep.Intervals,
		Days:           sweep.Days,
		InitialCapital: sweep.Capital,
	}, progress)
	close(done)
	if err != nil {
		log.Warn().Err(err).Int("completed", len(reports)).Msg("Sweep interrupted")
	}

	var store database.Store = database.NewMemoryStore()
	if cfg.DatabaseEnabled() {
		db, err := database.New(ctx, app.ConnectionParams(cfg))
		if err != nil {
			log.Error().Err(err).Msg("Database unavailable, runs will not be stored")
		} else {
			defer db.Close()
			store = db
		}
	}

	fmt.Printf("\n===== ARENA: %s =====\n", sweep.Strategy)
	fmt.Printf("%-18s %-20s %10s %8s %8s %8s %7s\n", "RUN", "INDICATOR", "RETURN %", "WIN %", "MAX DD", "SHARPE", "TRADES")
	for _, r := range reports {
		if r.Fault != nil {
			fmt.Printf("%-18s %-20s FAILED: %v\n", r.Label, r.Indicator, r.Fault)
			continue
		}
		m := r.Metrics
		fmt.Printf("%-18s %-20s %10.2f %8.2f %8.2f %8.2f %7d\n",
			r.Label, r.Indicator, m.TotalReturnPct, m.WinRate, m.MaxDrawdown, m.SharpeRatio, m.TotalTrades)

		run, err := database.NewRun(database.RunArena, r.Label, []string{sweep.Strategy}, r)
		if err == nil {
			err = store.SaveRun(ctx, run)
		}
		if err != nil {
			log.Error().Err(err).Str("label", r.Label).Msg("Failed to save arena run")
		}
	}
}

func reportProgress(progress *arena.Progress, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := progress.Snapshot()
			log.Info().
				Int("done", snap.Done).
				Int("total", snap.Total).
				Int("running", snap.Running).
				Str("current", snap.CurrentLabel).
				Msg("Arena progress")
		}
	}
}
