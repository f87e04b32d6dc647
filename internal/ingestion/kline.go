package ingestion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"overfit-lab/internal/domain"
)

// KlineEvent is one candle update from the exchange stream. Closed is false
// while the interval is still forming; only closed candles are persisted.
type KlineEvent struct {
	Symbol string
	Closed bool
	Candle domain.Candle
}

// Combined-stream kline payload. Numeric fields arrive as strings.
type streamMessage struct {
	Stream string    `json:"stream"`
	Data   klineData `json:"data"`
}

type klineData struct {
	EventType string       `json:"e"`
	EventTime int64        `json:"E"`
	Symbol    string       `json:"s"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTimeMs  int64  `json:"t"`
	CloseTimeMs int64  `json:"T"`
	Symbol      string `json:"s"`
	Interval    string `json:"i"`
	Open        string `json:"o"`
	Close       string `json:"c"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Volume      string `json:"v"`
	IsClosed    bool   `json:"x"`
}

// parseKlineEvent decodes one combined-stream message into a KlineEvent.
// Non-kline messages return (nil, nil).
func parseKlineEvent(raw []byte) (*KlineEvent, error) {
	var msg streamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode stream message: %w", err)
	}
	if msg.Data.EventType != "kline" {
		return nil, nil
	}

	k := msg.Data.Kline

	open, err := parsePrice(k.Open, "open")
	if err != nil {
		return nil, err
	}
	high, err := parsePrice(k.High, "high")
	if err != nil {
		return nil, err
	}
	low, err := parsePrice(k.Low, "low")
	if err != nil {
		return nil, err
	}
	closePrice, err := parsePrice(k.Close, "close")
	if err != nil {
		return nil, err
	}
	volume, err := parsePrice(k.Volume, "volume")
	if err != nil {
		return nil, err
	}

	return &KlineEvent{
		Symbol: msg.Data.Symbol,
		Closed: k.IsClosed,
		Candle: domain.Candle{
			Symbol:     msg.Data.Symbol,
			OpenTimeMs: k.OpenTimeMs,
			Open:       open,
			High:       high,
			Low:        low,
			Close:      closePrice,
			Volume:     volume,
		},
	}, nil
}

func parsePrice(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}

// streamName builds the combined-stream path component for one symbol, e.g.
// "btcusdt@kline_1h".
func streamName(symbol, interval string) string {
	return strings.ToLower(symbol) + "@kline_" + interval
}
