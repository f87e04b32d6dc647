package walkforward

import (
	"context"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/simulator"
)

// BreakoutRunner is the reference Runner: a channel-breakout signal layer
// wired to the trade simulator. It exists to exercise the harness end to
// end; real signal generation lives outside this repo and plugs in through
// the Runner interface.
type BreakoutRunner struct {
	configID string
	symbol   string
	cfg      domain.StrategyConfig
}

// NewBreakoutRunner builds a runner for one configuration on one symbol.
func NewBreakoutRunner(configID, symbol string, cfg domain.StrategyConfig) *BreakoutRunner {
	return &BreakoutRunner{configID: configID, symbol: symbol, cfg: cfg}
}

// ID returns the configuration identifier.
func (r *BreakoutRunner) ID() string { return r.configID }

// Run scans the validation segment for channel breakouts, resolves each
// signal with the simulator, and holds at most one position at a time.
// Train bars serve only as lookback warmup for the channel.
func (r *BreakoutRunner) Run(ctx context.Context, bars []domain.Candle, validationStart int) ([]domain.TradeResult, error) {
	lookback := r.cfg.BreakoutLookback
	var trades []domain.TradeResult

	i := validationStart
	if i < lookback {
		i = lookback
	}

	for ; i < len(bars)-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sig, ok := r.signalAt(bars, i)
		if !ok {
			continue
		}

		res := simulator.Simulate(simulator.Input{
			ConfigID: r.configID,
			Symbol:   r.symbol,
			Signal:   sig,
			Candles:  bars[i+1:],
			Policy:   r.cfg.ExitPolicy,
		})
		if res == nil {
			// Unresolved within available data; excluded from statistics.
			continue
		}

		trades = append(trades, *res)

		// One position at a time: resume scanning after the exit bar.
		i += 1 + res.ExitIndex
	}

	return trades, nil
}

// signalAt proposes a breakout signal at bar i, or reports none.
func (r *BreakoutRunner) signalAt(bars []domain.Candle, i int) (domain.Signal, bool) {
	channelHigh := bars[i-r.cfg.BreakoutLookback].High
	channelLow := bars[i-r.cfg.BreakoutLookback].Low
	for j := i - r.cfg.BreakoutLookback + 1; j < i; j++ {
		if bars[j].High > channelHigh {
			channelHigh = bars[j].High
		}
		if bars[j].Low < channelLow {
			channelLow = bars[j].Low
		}
	}

	close := bars[i].Close
	switch {
	case close > channelHigh:
		entry := close
		stop := channelLow
		if entry-stop <= 0 {
			return domain.Signal{}, false
		}
		return domain.Signal{
			StrategyID: r.cfg.Name,
			Direction:  domain.DirectionLong,
			EntryPrice: entry,
			StopLoss:   stop,
			TakeProfit: entry + r.cfg.RiskReward*(entry-stop),
		}, true

	case close < channelLow:
		entry := close
		stop := channelHigh
		if stop-entry <= 0 {
			return domain.Signal{}, false
		}
		return domain.Signal{
			StrategyID: r.cfg.Name,
			Direction:  domain.DirectionShort,
			EntryPrice: entry,
			StopLoss:   stop,
			TakeProfit: entry - r.cfg.RiskReward*(stop-entry),
		}, true
	}

	return domain.Signal{}, false
}
