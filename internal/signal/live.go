package signal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/SignalLab/models"
)

const (
	// DefaultThrottle is the minimum spacing between orders of one signal.
	DefaultThrottle = 30 * time.Second

	submitTimeout = 15 * time.Second
)

// OrderSubmitter places market orders with a broker.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, symbol, side string, quantity float64) (string, error)
}

// Notifier delivers human-readable trade notifications.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// LiveTrigger submits orders for live signals, throttled per signal id.
type LiveTrigger struct {
	submitter OrderSubmitter
	notifier  Notifier
	quantity  float64
	every     time.Duration
	now       func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewLiveTrigger creates a trigger. notifier may be nil.
func NewLiveTrigger(submitter OrderSubmitter, notifier Notifier, quantity float64) *LiveTrigger {
	return &LiveTrigger{
		submitter: submitter,
		notifier:  notifier,
		quantity:  quantity,
		every:     DefaultThrottle,
		now:       time.Now,
		limiters:  make(map[string]*rate.Limiter),
		logger:    log.With().Str("component", "live_trigger").Logger(),
	}
}

func (t *LiveTrigger) allow(signalID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	limiter, ok := t.limiters[signalID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.every), 1)
		t.limiters[signalID] = limiter
	}
	return limiter.AllowN(t.now(), 1)
}

// OrderFunc receives the outcome of a live order submission. err is nil
// when the broker accepted the order.
type OrderFunc func(side, orderID string, err error)

// Fire submits an order for sig unless it fired within the throttle
// window. The side is sell when a position is open, buy otherwise.
// Submission runs in the background; Fire reports whether it started and
// done, when set, is called with the outcome once it finishes.
func (t *LiveTrigger) Fire(ctx context.Context, sig *models.SignalDefinition, symbol string, active bool, done OrderFunc) bool {
	if symbol == "" {
		t.logger.Warn().Str("signal", sig.ID).Msg("live signal without symbol, skipping order")
		return false
	}
	if !t.allow(sig.ID) {
		t.logger.Debug().Str("signal", sig.ID).Msg("live trigger throttled")
		return false
	}

	side := "buy"
	if active {
		side = "sell"
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
		defer cancel()

		orderID, err := t.submitter.SubmitOrder(ctx, symbol, side, t.quantity)
		if done != nil {
			done(side, orderID, err)
		}
		if err != nil {
			t.logger.Error().Err(err).Str("signal", sig.ID).Str("symbol", symbol).Str("side", side).Msg("order submission failed")
			return
		}

		t.logger.Info().
			Str("signal", sig.ID).
			Str("symbol", symbol).
			Str("side", side).
			Float64("quantity", t.quantity).
			Str("order_id", orderID).
			Msg("order submitted")

		if t.notifier != nil {
			msg := fmt.Sprintf("%s %g %s\nsignal: %s (%s)\norder: %s", strings.ToUpper(side), t.quantity, symbol, sig.Name, sig.ID, orderID)
			if err := t.notifier.Notify(ctx, msg); err != nil {
				t.logger.Warn().Err(err).Msg("notification failed")
			}
		}
	}()
	return true
}

// Wait blocks until in-flight submissions finish.
func (t *LiveTrigger) Wait() {
	t.wg.Wait()
}
