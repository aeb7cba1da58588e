package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalLab/internal/api/broker"
	"github.com/Alias1177/SignalLab/internal/app"
	"github.com/Alias1177/SignalLab/internal/calculate"
	"github.com/Alias1177/SignalLab/internal/config"
	"github.com/Alias1177/SignalLab/internal/notify"
	"github.com/Alias1177/SignalLab/internal/sandbox"
	sig "github.com/Alias1177/SignalLab/internal/signal"
	"github.com/Alias1177/SignalLab/models"
)

// liveLookbackDays is the history fetched on every poll.
const liveLookbackDays = 5

// paperBroker logs orders instead of sending them.
type paperBroker struct{}

func (paperBroker) SubmitOrder(ctx context.Context, symbol, side string, quantity float64) (string, error) {
	id := "paper-" + uuid.NewString()
	log.Info().Str("symbol", symbol).Str("side", side).Float64("quantity", quantity).Str("order_id", id).Msg("Paper order")
	return id, nil
}

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

	var submitter sig.OrderSubmitter = paperBroker{}
	if cfg.BrokerURL != "" {
		submitter = broker.NewClient(broker.ClientOptions{
			BaseURL:        cfg.BrokerURL,
			APIKey:         cfg.BrokerAPIKey,
			RequestTimeout: cfg.HTTPTimeout(),
			RequestsPerSec: cfg.RequestsPerSec,
			MaxRetries:     cfg.MaxRetries,
		})
	}

	var notifier sig.Notifier
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Error().Err(err).Msg("Telegram notifications disabled")
		} else {
			notifier = tg
		}
	}

	trigger := sig.NewLiveTrigger(submitter, notifier, cfg.OrderQuantity)
	defer trigger.Wait()

	host := sandbox.NewHost(cfg.SandboxTimeout())
	defer host.Close(context.Background())

	evaluator := sig.NewEvaluator(host, uint64(cfg.ScriptMaxSteps), trigger)
	source := app.CandleSource(cfg, app.PollCacheTTL(cfg.Interval))

	step, ok := models.IntervalDuration(cfg.Interval)
	if !ok {
		log.Fatal().Str("interval", cfg.Interval).Msg("Unsupported interval")
	}

	defs := make([]*models.SignalDefinition, 0, len(stack))
	for _, entry := range stack {
		def, err := store.GetSignal(ctx, entry.SignalID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to resolve signal")
		}
		defs = append(defs, def)
	}

	log.Info().Str("symbol", cfg.Symbol).Str("interval", cfg.Interval).Int("signals", len(defs)).Msg("Live evaluation started")

	l := &loop{
		source:    source,
		evaluator: evaluator,
		trigger:   trigger,
		defs:      defs,
		symbol:    cfg.Symbol,
		interval:  cfg.Interval,
	}

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		l.poll(ctx)
		source.Cleanup()
		log.Debug().Int("cached_series", source.Len()).Msg("Cache cleaned")

		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return
		case <-ticker.C:
		}
	}
}

// loop tracks the position opened by live orders across polls.
type loop struct {
	source    models.CandleSource
	evaluator *sig.Evaluator
	trigger   *sig.LiveTrigger
	defs      []*models.SignalDefinition
	symbol    string
	interval  string

	active bool
}

// poll evaluates every signal at the latest candle. The position flips
// only when the broker accepted an order; at most one order is placed per
// poll.
func (l *loop) poll(ctx context.Context) {
	candles, err := l.source.Candles(ctx, l.symbol, l.interval, liveLookbackDays)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch candles")
		return
	}
	last := len(candles) - 1
	if last < 0 {
		return
	}

	if snap := calculate.CalculateSnapshot(candles, last); snap != nil {
		log.Debug().
			Float64("close", snap.Close).
			Float64("rsi14", snap.RSI14).
			Float64("sma20", snap.SMA20).
			Float64("macd_hist", snap.MACDHist).
			Float64("atr14", snap.ATR14).
			Int("defined", snap.Defined()).
			Msg("Indicators")
	}

	high, low, closes := models.Highs(candles), models.Lows(candles), models.Closes(candles)
	regime := calculate.ClassifyRegime(high, low, closes, last)
	log.Info().
		Str("regime", regime.Type).
		Str("direction", regime.Direction).
		Float64("strength", regime.Strength).
		Strs("patterns", calculate.CandlePatterns(models.Opens(candles), high, low, closes, last)).
		Msg("Market state")

	var (
		mu       sync.Mutex
		accepted bool
	)
	opts := sig.Options{
		Active: l.active,
		Symbol: l.symbol,
		OnOrder: func(side, orderID string, err error) {
			if err == nil {
				mu.Lock()
				accepted = true
				mu.Unlock()
			}
		},
	}

	for _, def := range l.defs {
		res := l.evaluator.Evaluate(ctx, def, candles, last, opts)
		if res.IsError() {
			log.Warn().Err(res.Err).Str("signal", def.ID).Msg("Evaluation failed")
			continue
		}
		log.Info().Str("signal", def.ID).Str("outcome", res.Outcome.String()).Time("candle", candles[last].Timestamp).Msg("Signal evaluated")

		if !res.IsTrue() || def.Mode != models.ModeLive || opts.NoOrders {
			continue
		}
		l.trigger.Wait()
		mu.Lock()
		placed := accepted
		mu.Unlock()
		if placed {
			l.active = !l.active
			opts.Active, opts.NoOrders = l.active, true
			log.Info().Str("signal", def.ID).Bool("active", l.active).Msg("Position changed")
		}
	}
}
