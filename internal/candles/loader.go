package candles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"overfit-lab/internal/domain"
)

// ErrDataFileMissing reports an absent per-symbol data file. Callers may
// treat it as a skip rather than a failure.
var ErrDataFileMissing = errors.New("candle data file missing")

// FileName returns the per-symbol data file name, e.g. "BTCUSDT.csv".
func FileName(symbol string) string {
	return strings.ToUpper(symbol) + ".csv"
}

// LoadSymbol reads the candle series for symbol from dataDir using the
// per-symbol file convention. Returns ErrDataFileMissing when no file exists.
func LoadSymbol(dataDir, symbol string) ([]domain.Candle, error) {
	path := filepath.Join(dataDir, FileName(symbol))

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataFileMissing, path)
		}
		return nil, fmt.Errorf("open candle file: %w", err)
	}
	defer f.Close()

	candles, err := ParseCSV(f, strings.ToUpper(symbol))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return candles, nil
}

// ParseCSV decodes a candle series from CSV rows of
// timestamp,open,high,low,close,volume. A header row is detected and
// skipped. The parsed series is validated for ordering and bar sanity.
func ParseCSV(r io.Reader, symbol string) ([]domain.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var candles []domain.Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if len(record) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, got %d", line, len(record))
		}
		if line == 1 && isHeaderRow(record) {
			continue
		}

		candle, err := parseRow(record, symbol)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, candle)
	}

	if err := domain.ValidateCandles(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func isHeaderRow(record []string) bool {
	_, err := strconv.ParseInt(record[0], 10, 64)
	return err != nil
}

func parseRow(record []string, symbol string) (domain.Candle, error) {
	openTime, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse timestamp %q: %w", record[0], err)
	}

	fields := [5]float64{}
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parse %s %q: %w", names[i], record[i+1], err)
		}
		fields[i] = v
	}

	return domain.Candle{
		Symbol:     symbol,
		OpenTimeMs: openTime,
		Open:       fields[0],
		High:       fields[1],
		Low:        fields[2],
		Close:      fields[3],
		Volume:     fields[4],
	}, nil
}
