package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalLab/models"
)

// WithFallback returns a source that substitutes a synthetic series when
// primary fails or returns nothing. The end of the synthetic series is
// truncated to the interval, relative to now.
func WithFallback(primary Source, now func() time.Time) Source {
	if now == nil {
		now = time.Now
	}
	logger := log.With().Str("component", "marketdata_fallback").Logger()

	return SourceFunc(func(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error) {
		candles, err := primary.Candles(ctx, symbol, interval, days)
		if err == nil && len(candles) > 0 {
			return candles, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		logger.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("using synthetic candles")
		return Synthetic(symbol, interval, days, now()), nil
	})
}

// Synthetic generates a deterministic random-walk series for symbol and
// interval ending at end. The same arguments always produce the same
// candles.
func Synthetic(symbol, interval string, days int, end time.Time) []models.Candle {
	step, ok := models.IntervalDuration(interval)
	if !ok {
		step = 24 * time.Hour
	}
	count := models.CandlesForDays(interval, days)

	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol + "|" + interval))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	price := 50 + rng.Float64()*150
	start := end.UTC().Truncate(step).Add(-time.Duration(count-1) * step)

	candles := make([]models.Candle, count)
	for i := range candles {
		open := price
		change := rng.NormFloat64() * 0.01
		price = math.Max(open*(1+change), 0.01)

		wick := math.Abs(rng.NormFloat64()) * 0.004
		candles[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      open,
			High:      math.Max(open, price) * (1 + wick),
			Low:       math.Min(open, price) * (1 - wick),
			Close:     price,
			Volume:    math.Round(1000 + rng.Float64()*9000),
		}
	}
	return candles
}
