package domain

import (
	"context"
	"time"
)

// CycleRecord is one persisted row of cycle history.
type CycleRecord struct {
	ID            string    `json:"id"`
	ScanID        string    `json:"scan_id"`
	StartAsset    string    `json:"start_asset"`
	Path          []string  `json:"path"`
	LegRates      []float64 `json:"leg_rates"`
	TotalRate     float64   `json:"total_rate"`
	ProfitPercent float64   `json:"profit_percent"`
	Hops          int       `json:"hops"`
	DetectedAt    time.Time `json:"detected_at"`
}

// CycleStore persists discovered cycles for later inspection and archival.
type CycleStore interface {
	InsertBatch(ctx context.Context, records []CycleRecord) error
	ListRecent(ctx context.Context, limit int) ([]CycleRecord, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]CycleRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
