package storage

import (
	"context"

	"overfit-lab/internal/domain"
)

// CandleStore provides access to candle history storage.
type CandleStore interface {
	// InsertBulk adds multiple candles. Fails entire batch on duplicate (symbol, open_time_ms).
	InsertBulk(ctx context.Context, candles []*domain.Candle) error

	// GetBySymbol retrieves all candles for a symbol, ordered by open time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Candle, error)

	// GetByTimeRange retrieves candles for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error)
}

// TradeRecordStore provides access to trade_records storage.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByConfigID retrieves all trades for a configuration, ordered by entry time ASC.
	GetByConfigID(ctx context.Context, configID string) ([]*domain.TradeRecord, error)

	// GetByConfigWindow retrieves all trades for one configuration window.
	GetByConfigWindow(ctx context.Context, configID string, windowIndex int) ([]*domain.TradeRecord, error)
}

// WindowResultStore provides access to window_results storage.
type WindowResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if (config_id, symbol) exists.
	Insert(ctx context.Context, r *domain.WindowResult) error

	// GetByConfigID retrieves the result for a configuration on a symbol.
	// Returns ErrNotFound if not exists.
	GetByConfigID(ctx context.Context, configID, symbol string) (*domain.WindowResult, error)

	// GetBySymbol retrieves all results for a symbol, ordered by config_id ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.WindowResult, error)
}

// PBOReportStore provides access to pbo_reports storage.
type PBOReportStore interface {
	// Insert adds a new report. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.PBOResult) error

	// GetByRunID retrieves a report by its run ID. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.PBOResult, error)

	// GetAll retrieves all reports, ordered by run_id ASC.
	GetAll(ctx context.Context) ([]*domain.PBOResult, error)
}
