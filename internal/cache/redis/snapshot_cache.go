package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// snapshotKey holds the latest published snapshot as one JSON blob.
const snapshotKey = "arb:snapshot"

// SnapshotCache implements domain.SnapshotCache by storing the whole
// snapshot under a single key. Replacing one value per iteration matches the
// snapshot's replace-wholesale contract; a TTL lets consumers distinguish a
// live scanner from a dead one by key absence.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. A ttl
// of zero stores the snapshot without expiry.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

// SetSnapshot stores the snapshot, replacing any previous one.
func (sc *SnapshotCache) SetSnapshot(ctx context.Context, snap *domain.ArbitrageSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot: %w", err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey, payload, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the latest snapshot. It returns domain.ErrNotFound
// when no snapshot has been stored or the stored one expired.
func (sc *SnapshotCache) GetSnapshot(ctx context.Context) (*domain.ArbitrageSnapshot, error) {
	payload, err := sc.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get snapshot: %w", err)
	}

	var snap domain.ArbitrageSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("redis: decode snapshot: %w", err)
	}
	return &snap, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
