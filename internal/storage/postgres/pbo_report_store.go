package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

// PBOReportStore implements storage.PBOReportStore using PostgreSQL.
type PBOReportStore struct {
	pool *Pool
}

// NewPBOReportStore creates a new PBOReportStore.
func NewPBOReportStore(pool *Pool) *PBOReportStore {
	return &PBOReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PBOReportStore = (*PBOReportStore)(nil)

const pboReportColumns = `
	run_id, pbo, num_combinations, num_overfit, avg_logit_oos,
	oos_rank_distribution, threshold, passes, num_configs, num_windows, sampled
`

// Insert adds a new report. Returns ErrDuplicateKey if run_id exists.
func (s *PBOReportStore) Insert(ctx context.Context, r *domain.PBOResult) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pbo_reports (
			run_id, pbo, num_combinations, num_overfit, avg_logit_oos,
			oos_rank_distribution, threshold, passes, num_configs, num_windows, sampled
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.PBO, r.NumCombinations, r.NumOverfit, r.AvgLogitOOS,
		intsToInt32(r.OOSRankDistribution), r.Threshold, r.Passes, r.NumConfigs, r.NumWindows, r.Sampled,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pbo report: %w", err)
	}
	return nil
}

// GetByRunID retrieves a report by its run ID. Returns ErrNotFound if not exists.
func (s *PBOReportStore) GetByRunID(ctx context.Context, runID string) (*domain.PBOResult, error) {
	query := `SELECT ` + pboReportColumns + ` FROM pbo_reports WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanPBOReport(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pbo report by run id: %w", err)
	}
	return r, nil
}

// GetAll retrieves all reports, ordered by run_id ASC.
func (s *PBOReportStore) GetAll(ctx context.Context) ([]*domain.PBOResult, error) {
	query := `SELECT ` + pboReportColumns + ` FROM pbo_reports ORDER BY run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all pbo reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.PBOResult
	for rows.Next() {
		r, err := scanPBOReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pbo report row: %w", err)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pbo report rows: %w", err)
	}

	return reports, nil
}

func scanPBOReport(row pgx.Row) (*domain.PBOResult, error) {
	var r domain.PBOResult
	var ranks []int32

	err := row.Scan(
		&r.RunID, &r.PBO, &r.NumCombinations, &r.NumOverfit, &r.AvgLogitOOS,
		&ranks, &r.Threshold, &r.Passes, &r.NumConfigs, &r.NumWindows, &r.Sampled,
	)
	if err != nil {
		return nil, err
	}

	r.OOSRankDistribution = int32ToInts(ranks)
	return &r, nil
}
