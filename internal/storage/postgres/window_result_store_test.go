package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

func TestWindowResultStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWindowResultStore(pool)
	ctx := context.Background()

	result := &domain.WindowResult{
		ConfigID:      "cfg1",
		Symbol:        "BTCUSDT",
		WindowMetrics: []float64{1.25, -0.5, 0.75, 2.0},
		TradeCounts:   []int{12, 8, 10, 15},
		PassRate:      0.75,
	}
	require.NoError(t, store.Insert(ctx, result))

	got, err := store.GetByConfigID(ctx, "cfg1", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, result.WindowMetrics, got.WindowMetrics)
	assert.Equal(t, result.TradeCounts, got.TradeCounts)
	assert.Equal(t, result.PassRate, got.PassRate)

	err = store.Insert(ctx, result)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same config on another symbol is a distinct row.
	onEth := *result
	onEth.Symbol = "ETHUSDT"
	assert.NoError(t, store.Insert(ctx, &onEth))

	_, err = store.GetByConfigID(ctx, "cfg1", "SOLUSDT")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWindowResultStore_GetBySymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWindowResultStore(pool)
	ctx := context.Background()

	for _, id := range []string{"cfgB", "cfgA"} {
		r := &domain.WindowResult{
			ConfigID:      id,
			Symbol:        "BTCUSDT",
			WindowMetrics: []float64{0.5},
			TradeCounts:   []int{3},
		}
		require.NoError(t, store.Insert(ctx, r))
	}

	got, err := store.GetBySymbol(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cfgA", got[0].ConfigID, "config_id order")

	empty, err := store.GetBySymbol(ctx, "NOPE")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWindowResultStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWindowResultStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.WindowResult{Symbol: "BTCUSDT"}), storage.ErrInvalidInput)
}
