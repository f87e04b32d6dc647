package domain

import (
	"errors"
	"fmt"
)

// Candle represents one OHLC bar of a chronological price series.
type Candle struct {
	Symbol     string
	OpenTimeMs int64 // bar open timestamp (ms)
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
}

// Candle validation errors.
var (
	ErrEmptySeries      = errors.New("empty candle series")
	ErrUnorderedCandles = errors.New("candle timestamps not in ascending order")
	ErrMalformedCandle  = errors.New("malformed candle")
)

// ValidateCandles checks chronological ordering and per-bar sanity.
// Equal timestamps are rejected: one bar per instant.
func ValidateCandles(candles []Candle) error {
	if len(candles) == 0 {
		return ErrEmptySeries
	}

	for i, c := range candles {
		if c.High < c.Low || c.Open <= 0 || c.Close <= 0 {
			return fmt.Errorf("%w: index %d (H=%.8f L=%.8f O=%.8f C=%.8f)",
				ErrMalformedCandle, i, c.High, c.Low, c.Open, c.Close)
		}
		if i > 0 && c.OpenTimeMs <= candles[i-1].OpenTimeMs {
			return fmt.Errorf("%w: index %d (%d <= %d)",
				ErrUnorderedCandles, i, c.OpenTimeMs, candles[i-1].OpenTimeMs)
		}
	}

	return nil
}
