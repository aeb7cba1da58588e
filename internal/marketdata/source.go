// Package marketdata provides candle sources for backtests and arena sweeps.
package marketdata

import (
	"context"

	"github.com/Alias1177/SignalLab/models"
)

// Source supplies candle series.
type Source = models.CandleSource

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error)

// Candles calls f.
func (f SourceFunc) Candles(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error) {
	return f(ctx, symbol, interval, days)
}
