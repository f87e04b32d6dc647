package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

func testCandles(symbol string, n int) []*domain.Candle {
	candles := make([]*domain.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = &domain.Candle{
			Symbol:     symbol,
			OpenTimeMs: 1_700_000_000_000 + int64(i)*3_600_000,
			Open:       100 + float64(i),
			High:       101 + float64(i),
			Low:        99 + float64(i),
			Close:      100.5 + float64(i),
			Volume:     1000,
		}
	}
	return candles
}

func TestCandleStore_InsertBulkAndGetBySymbol(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(conn)
	ctx := context.Background()

	candles := testCandles("BTCUSDT", 5)
	require.NoError(t, store.InsertBulk(ctx, candles))

	got, err := store.GetBySymbol(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, got, 5)

	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].OpenTimeMs, got[i-1].OpenTimeMs, "ascending order")
	}
	assert.Equal(t, candles[0].Close, got[0].Close)

	// Unknown symbol comes back empty.
	other, err := store.GetBySymbol(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCandleStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(conn)
	ctx := context.Background()

	candles := testCandles("BTCUSDT", 10)
	require.NoError(t, store.InsertBulk(ctx, candles))

	start := candles[2].OpenTimeMs
	end := candles[6].OpenTimeMs

	got, err := store.GetByTimeRange(ctx, "BTCUSDT", start, end)
	require.NoError(t, err)
	require.Len(t, got, 5, "bounds are inclusive")
	assert.Equal(t, start, got[0].OpenTimeMs)
	assert.Equal(t, end, got[len(got)-1].OpenTimeMs)
}

func TestCandleStore_DuplicateRejected(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(conn)
	ctx := context.Background()

	candles := testCandles("BTCUSDT", 3)
	require.NoError(t, store.InsertBulk(ctx, candles))

	err := store.InsertBulk(ctx, candles[:1])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Intra-batch duplicate fails before anything is sent.
	dup := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTimeMs: 1, Open: 1, High: 1, Low: 1, Close: 1},
		{Symbol: "ETHUSDT", OpenTimeMs: 1, Open: 1, High: 1, Low: 1, Close: 1},
	}
	err = store.InsertBulk(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetBySymbol(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.Empty(t, got)
}
