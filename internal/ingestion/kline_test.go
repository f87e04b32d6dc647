package ingestion

import "testing"

const klineFixture = `{
  "stream": "btcusdt@kline_1h",
  "data": {
    "e": "kline",
    "E": 1700003600123,
    "s": "BTCUSDT",
    "k": {
      "t": 1700000000000,
      "T": 1700003599999,
      "s": "BTCUSDT",
      "i": "1h",
      "o": "35000.10",
      "c": "35250.00",
      "h": "35400.50",
      "l": "34900.00",
      "v": "1234.567",
      "x": true
    }
  }
}`

func TestParseKlineEvent(t *testing.T) {
	event, err := parseKlineEvent([]byte(klineFixture))
	if err != nil {
		t.Fatalf("parseKlineEvent: %v", err)
	}
	if event == nil {
		t.Fatal("expected event, got nil")
	}
	if event.Symbol != "BTCUSDT" {
		t.Errorf("Symbol = %q, want BTCUSDT", event.Symbol)
	}
	if !event.Closed {
		t.Error("expected Closed = true")
	}
	c := event.Candle
	if c.OpenTimeMs != 1700000000000 {
		t.Errorf("OpenTimeMs = %d", c.OpenTimeMs)
	}
	if c.Open != 35000.10 || c.High != 35400.50 || c.Low != 34900.00 || c.Close != 35250.00 {
		t.Errorf("unexpected OHLC: %+v", c)
	}
	if c.Volume != 1234.567 {
		t.Errorf("Volume = %v", c.Volume)
	}
}

func TestParseKlineEvent_NonKline(t *testing.T) {
	raw := `{"stream":"btcusdt@depth","data":{"e":"depthUpdate","s":"BTCUSDT"}}`

	event, err := parseKlineEvent([]byte(raw))
	if err != nil {
		t.Fatalf("parseKlineEvent: %v", err)
	}
	if event != nil {
		t.Fatalf("expected nil event for non-kline message, got %+v", event)
	}
}

func TestParseKlineEvent_BadNumber(t *testing.T) {
	raw := `{"stream":"btcusdt@kline_1h","data":{"e":"kline","s":"BTCUSDT","k":{"t":1,"o":"not-a-number","c":"1","h":"1","l":"1","v":"1","x":true}}}`

	if _, err := parseKlineEvent([]byte(raw)); err == nil {
		t.Fatal("expected error for malformed price")
	}
}

func TestStreamName(t *testing.T) {
	if got := streamName("BTCUSDT", "1h"); got != "btcusdt@kline_1h" {
		t.Errorf("streamName = %q", got)
	}
	if got := streamName("ethusdt", "4h"); got != "ethusdt@kline_4h" {
		t.Errorf("streamName = %q", got)
	}
}
