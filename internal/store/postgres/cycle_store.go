package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// CycleStore implements domain.CycleStore using PostgreSQL.
type CycleStore struct {
	pool *pgxpool.Pool
}

// NewCycleStore creates a new CycleStore backed by the given connection pool.
func NewCycleStore(pool *pgxpool.Pool) *CycleStore {
	return &CycleStore{pool: pool}
}

const cycleSelectCols = `id, scan_id, start_asset, path, leg_rates,
	total_rate, profit_percent, hops, detected_at`

// InsertBatch stores all cycles of one scan in a single batch round-trip.
func (s *CycleStore) InsertBatch(ctx context.Context, records []domain.CycleRecord) error {
	if len(records) == 0 {
		return nil
	}

	const query = `
		INSERT INTO cycle_history (
			id, scan_id, start_asset, path, leg_rates,
			total_rate, profit_percent, hops, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query,
			r.ID, r.ScanID, r.StartAsset, r.Path, r.LegRates,
			r.TotalRate, r.ProfitPercent, r.Hops, r.DetectedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: insert cycle batch: %w", err)
		}
	}
	return nil
}

// ListRecent returns the most recent cycles ordered by detection time.
func (s *CycleStore) ListRecent(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	query := `SELECT ` + cycleSelectCols + ` FROM cycle_history ORDER BY detected_at DESC, profit_percent DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent cycles: %w", err)
	}
	defer rows.Close()

	return scanCycleRows(rows)
}

// ListBefore returns cycles detected before the cutoff, oldest first. A
// limit of zero or less returns all matching rows.
func (s *CycleStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.CycleRecord, error) {
	query := `SELECT ` + cycleSelectCols + ` FROM cycle_history
		WHERE detected_at < $1 ORDER BY detected_at ASC`
	args := []any{before}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list cycles before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return scanCycleRows(rows)
}

// DeleteBefore removes cycles detected before the cutoff and returns how many
// rows were deleted.
func (s *CycleStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cycle_history WHERE detected_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete cycles before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// scanCycleRows collects query results into CycleRecords.
func scanCycleRows(rows pgx.Rows) ([]domain.CycleRecord, error) {
	var records []domain.CycleRecord
	for rows.Next() {
		var r domain.CycleRecord
		if err := rows.Scan(
			&r.ID, &r.ScanID, &r.StartAsset, &r.Path, &r.LegRates,
			&r.TotalRate, &r.ProfitPercent, &r.Hops, &r.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan cycle row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate cycle rows: %w", err)
	}
	return records, nil
}

// Compile-time interface check.
var _ domain.CycleStore = (*CycleStore)(nil)
