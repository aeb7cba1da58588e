package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalLab/internal/app"
	"github.com/Alias1177/SignalLab/internal/config"
	"github.com/Alias1177/SignalLab/internal/database"
	"github.com/Alias1177/SignalLab/internal/sandbox"
	sig "github.com/Alias1177/SignalLab/internal/signal"
	"github.com/Alias1177/SignalLab/internal/trading/backtest"
	"github.com/Alias1177/SignalLab/models"
)

// recentRunsShown is how many stored backtests are listed after a run.
const recentRunsShown = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	app.SetupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, stack, closeStore, err := app.Signals(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load signals")
	}
	defer closeStore()

	host := sandbox.NewHost(cfg.SandboxTimeout())
	defer host.Close(context.Background())

	evaluator := sig.NewEvaluator(host, uint64(cfg.ScriptMaxSteps), nil)
	engine := backtest.NewEngine(evaluator, store, app.CandleSource(cfg, 0))
	engine.SetDebug(cfg.Debug)

	log.Info().
		Str("symbol", cfg.Symbol).
		Str("interval", cfg.Interval).
		Int("days", cfg.BacktestDays).
		Int("signals", len(stack)).
		Msg("Running backtest...")

	result := engine.RunSymbol(ctx, stack, cfg.Symbol, cfg.Interval, cfg.BacktestDays,
		cfg.TakeProfitPct, cfg.StopLossPct, cfg.InitialCapital)

	fmt.Print(backtest.FormatResults(result))
	if cfg.Debug {
		for _, line := range result.Log {
			fmt.Println(line)
		}
	}

	label := fmt.Sprintf("%s %s %dd", cfg.Symbol, cfg.Interval, cfg.BacktestDays)
	run, err := database.NewRun(database.RunBacktest, label, app.SignalIDs(stack), result)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode run")
		return
	}
	if err := store.SaveRun(ctx, run); err != nil {
		log.Error().Err(err).Msg("Failed to save run")
		return
	}
	log.Info().Str("run_id", run.ID.String()).Msg("Backtest saved")

	if runs, err := store.RecentRuns(ctx, database.RunBacktest, recentRunsShown); err != nil {
		log.Warn().Err(err).Msg("Failed to list recent runs")
	} else {
		fmt.Print(formatRecentRuns(runs))
	}

	if result.Failure != "" {
		os.Exit(2)
	}
}

// formatRecentRuns renders stored backtest runs, newest first.
func formatRecentRuns(runs []database.Run) string {
	if len(runs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n=== RECENT BACKTESTS ===\n")
	for _, run := range runs {
		var summary models.BacktestResult
		if err := json.Unmarshal(run.Summary, &summary); err != nil {
			fmt.Fprintf(&b, "%s  %-24s  (unreadable summary)\n", run.CreatedAt.Format(time.RFC3339), run.Label)
			continue
		}
		fmt.Fprintf(&b, "%s  %-24s  return %7.2f%%  trades %3d  signals %s\n",
			run.CreatedAt.Format(time.RFC3339), run.Label, summary.TotalReturnPct, summary.TotalTrades,
			strings.Join(run.SignalIDs, ","))
	}
	return b.String()
}
