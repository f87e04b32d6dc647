package memory

import (
	"context"
	"errors"
	"testing"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		TradeID:     "trade1",
		ConfigID:    "cfg1",
		StrategyID:  "breakout-20",
		Symbol:      "BTCUSDT",
		WindowIndex: 0,
		EntryTimeMs: 1000,
		PnlPercent:  1.5,
		ExitReason:  domain.ExitReasonTakeProfit,
	}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.PnlPercent != 1.5 {
		t.Errorf("PnlPercent mismatch: got %f, want %f", got.PnlPercent, 1.5)
	}

	// Mutating the returned copy must not affect the store.
	got.PnlPercent = -99
	again, _ := store.GetByID(ctx, "trade1")
	if again.PnlPercent != 1.5 {
		t.Error("store returned a shared pointer")
	}
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "trade1", ConfigID: "cfg1"}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeRecordStore_NotFound(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeRecordStore_InsertBulk(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", ConfigID: "c1", WindowIndex: 0, EntryTimeMs: 3000},
		{TradeID: "t2", ConfigID: "c1", WindowIndex: 1, EntryTimeMs: 1000},
		{TradeID: "t3", ConfigID: "c2", WindowIndex: 0, EntryTimeMs: 2000},
	}

	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, _ := store.GetByConfigID(ctx, "c1")
	if len(result) != 2 {
		t.Fatalf("Expected 2 trades for c1, got %d", len(result))
	}
	if result[0].TradeID != "t2" || result[1].TradeID != "t1" {
		t.Errorf("Expected entry-time order, got %s then %s", result[0].TradeID, result[1].TradeID)
	}

	byWindow, _ := store.GetByConfigWindow(ctx, "c1", 1)
	if len(byWindow) != 1 || byWindow[0].TradeID != "t2" {
		t.Errorf("Unexpected window query result: %+v", byWindow)
	}
}

func TestTradeRecordStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", ConfigID: "c1"},
		{TradeID: "t1", ConfigID: "c1"},
	}

	err := store.InsertBulk(ctx, trades)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Atomic failure: nothing was inserted.
	if _, err := store.GetByID(ctx, "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("Failed bulk insert must not leave partial data")
	}
}

func TestTradeRecordStore_InvalidInput(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.TradeRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty trade_id, got %v", err)
	}
}
