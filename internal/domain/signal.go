package domain

import "math"

// Direction of a proposed trade.
type Direction string

// Direction constants.
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Signal is an abstract entry proposal handed to the simulator by an
// external pattern-recognition layer. Immutable once created.
type Signal struct {
	StrategyID string
	Direction  Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
}

// RiskDistance returns the absolute distance between entry and stop.
// A non-positive risk distance makes the signal unsimulatable.
func (s Signal) RiskDistance() float64 {
	return math.Abs(s.EntryPrice - s.StopLoss)
}

// Valid reports whether the signal can be simulated at all.
func (s Signal) Valid() bool {
	if s.Direction != DirectionLong && s.Direction != DirectionShort {
		return false
	}
	return s.EntryPrice > 0 && s.RiskDistance() > 0
}
