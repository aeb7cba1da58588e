package models

import "context"

// CandleSource supplies ordered candle series for a symbol and interval.
type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, days int) ([]Candle, error)
}

// SignalSource resolves signal definitions by id.
type SignalSource interface {
	GetSignal(ctx context.Context, id string) (*SignalDefinition, error)
}
