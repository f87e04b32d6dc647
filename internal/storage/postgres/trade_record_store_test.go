package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

func testTradeRecord(tradeID, configID string, windowIndex int, entryMs int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:     tradeID,
		ConfigID:    configID,
		StrategyID:  "breakout-20",
		Symbol:      "BTCUSDT",
		WindowIndex: windowIndex,
		Direction:   domain.DirectionLong,
		EntryTimeMs: entryMs,
		ExitTimeMs:  entryMs + 3_600_000,
		EntryPrice:  100.05,
		ExitPrice:   102.0,
		PnlPercent:  1.95,
		ExitReason:  domain.ExitReasonTakeProfit,
	}
}

func TestTradeRecordStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeRecordStore(pool)
	ctx := context.Background()

	trade := testTradeRecord("t1", "cfg1", 0, 1_700_000_000_000)
	trade.PartialFired = true
	require.NoError(t, store.Insert(ctx, trade))

	got, err := store.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, trade, got)

	err = store.Insert(ctx, trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeRecordStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeRecordStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testTradeRecord("existing", "cfg1", 0, 1000)))

	// Batch collides on the last record; nothing from it must land.
	batch := []*domain.TradeRecord{
		testTradeRecord("b1", "cfg1", 0, 2000),
		testTradeRecord("b2", "cfg1", 0, 3000),
		testTradeRecord("existing", "cfg1", 0, 4000),
	}
	err := store.InsertBulk(ctx, batch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "b1")
	assert.ErrorIs(t, err, storage.ErrNotFound, "failed batch must roll back")
}

func TestTradeRecordStore_QueriesByConfig(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeRecordStore(pool)
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		testTradeRecord("t3", "cfg1", 1, 3000),
		testTradeRecord("t1", "cfg1", 0, 1000),
		testTradeRecord("t2", "cfg1", 0, 2000),
		testTradeRecord("x1", "cfg2", 0, 1500),
	}
	require.NoError(t, store.InsertBulk(ctx, trades))

	byConfig, err := store.GetByConfigID(ctx, "cfg1")
	require.NoError(t, err)
	require.Len(t, byConfig, 3)
	assert.Equal(t, "t1", byConfig[0].TradeID, "entry time order")
	assert.Equal(t, "t3", byConfig[2].TradeID)

	byWindow, err := store.GetByConfigWindow(ctx, "cfg1", 0)
	require.NoError(t, err)
	require.Len(t, byWindow, 2)
	assert.Equal(t, "t1", byWindow[0].TradeID)

	empty, err := store.GetByConfigWindow(ctx, "cfg1", 9)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
