package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

func TestPBOReportStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPBOReportStore(pool)
	ctx := context.Background()

	report := &domain.PBOResult{
		RunID:               "run1",
		PBO:                 0.3428,
		NumCombinations:     70,
		NumOverfit:          24,
		AvgLogitOOS:         -0.41,
		OOSRankDistribution: []int{30, 25, 15},
		Threshold:           0.5,
		Passes:              true,
		NumConfigs:          3,
		NumWindows:          8,
		Sampled:             false,
	}
	require.NoError(t, store.Insert(ctx, report))

	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, report, got)

	err = store.Insert(ctx, report)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByRunID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPBOReportStore_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPBOReportStore(pool)
	ctx := context.Background()

	for _, id := range []string{"runB", "runA"} {
		r := &domain.PBOResult{RunID: id, OOSRankDistribution: []int{1}}
		require.NoError(t, store.Insert(ctx, r))
	}

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "runA", got[0].RunID, "run_id order")
}

func TestPBOReportStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPBOReportStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.PBOResult{}), storage.ErrInvalidInput)
}
