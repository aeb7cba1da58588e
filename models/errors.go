package models

import "errors"

var (
	// ErrSignalNotFound is returned by a SignalSource for unknown ids.
	ErrSignalNotFound = errors.New("signal not found")
	// ErrNoCandles is returned by a CandleSource that has no data for the
	// requested symbol and range.
	ErrNoCandles = errors.New("no candles")
)
