package domain

import (
	"context"
	"time"
)

// SnapshotCache persists the latest ArbitrageSnapshot so delivery-layer
// processes can serve it without talking to the scanner directly.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, snap *ArbitrageSnapshot) error
	GetSnapshot(ctx context.Context) (*ArbitrageSnapshot, error)
}

// StreamMessage represents a single entry read back from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides ephemeral pub/sub fan-out and durable, capped streams
// for scan events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under a limit of
	// `limit` requests per `window`, counting the request when it is.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
