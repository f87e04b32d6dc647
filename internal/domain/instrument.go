package domain

import "math"

// TradingHours classifies an instrument's trading-hour density, which
// drives the Sharpe annualization factor.
type TradingHours string

// TradingHours constants.
const (
	TradingHoursContinuous TradingHours = "CONTINUOUS" // 24/7 markets (crypto)
	TradingHoursSession    TradingHours = "SESSION"    // session-bound markets (equities, futures)
)

// Trading periods per year by market type.
const (
	PeriodsPerYearContinuous = 365.0
	PeriodsPerYearSession    = 252.0
)

// Instrument identifies a tradable symbol and its market profile.
type Instrument struct {
	Symbol string
	Hours  TradingHours
}

// AnnualizationFactor returns sqrt(periods per year) for the instrument's
// trading-hour density. Unknown profiles fall back to session markets.
func (i Instrument) AnnualizationFactor() float64 {
	switch i.Hours {
	case TradingHoursContinuous:
		return math.Sqrt(PeriodsPerYearContinuous)
	case TradingHoursSession:
		return math.Sqrt(PeriodsPerYearSession)
	default:
		return math.Sqrt(PeriodsPerYearSession)
	}
}
