package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

// WindowResultStore implements storage.WindowResultStore using PostgreSQL.
// Metric series are stored as array columns; one row per (config, symbol).
type WindowResultStore struct {
	pool *Pool
}

// NewWindowResultStore creates a new WindowResultStore.
func NewWindowResultStore(pool *Pool) *WindowResultStore {
	return &WindowResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WindowResultStore = (*WindowResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if (config_id, symbol) exists.
func (s *WindowResultStore) Insert(ctx context.Context, r *domain.WindowResult) error {
	if r == nil || r.ConfigID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO window_results (
			config_id, symbol, window_metrics, trade_counts, pass_rate
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ConfigID, r.Symbol, r.WindowMetrics, intsToInt32(r.TradeCounts), r.PassRate,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert window result: %w", err)
	}
	return nil
}

// GetByConfigID retrieves the result for a configuration on a symbol.
func (s *WindowResultStore) GetByConfigID(ctx context.Context, configID, symbol string) (*domain.WindowResult, error) {
	query := `
		SELECT config_id, symbol, window_metrics, trade_counts, pass_rate
		FROM window_results
		WHERE config_id = $1 AND symbol = $2
	`

	row := s.pool.QueryRow(ctx, query, configID, symbol)
	r, err := scanWindowResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get window result: %w", err)
	}
	return r, nil
}

// GetBySymbol retrieves all results for a symbol, ordered by config_id ASC.
func (s *WindowResultStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.WindowResult, error) {
	query := `
		SELECT config_id, symbol, window_metrics, trade_counts, pass_rate
		FROM window_results
		WHERE symbol = $1
		ORDER BY config_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get window results by symbol: %w", err)
	}
	defer rows.Close()

	var results []*domain.WindowResult
	for rows.Next() {
		r, err := scanWindowResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan window result row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate window result rows: %w", err)
	}

	return results, nil
}

func scanWindowResult(row pgx.Row) (*domain.WindowResult, error) {
	var r domain.WindowResult
	var counts []int32

	err := row.Scan(&r.ConfigID, &r.Symbol, &r.WindowMetrics, &counts, &r.PassRate)
	if err != nil {
		return nil, err
	}

	r.TradeCounts = int32ToInts(counts)
	return &r, nil
}

func intsToInt32(xs []int) []int32 {
	out := make([]int32, len(xs))
	for i, x := range xs {
		out[i] = int32(x)
	}
	return out
}

func int32ToInts(xs []int32) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = int(x)
	}
	return out
}
