package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// scansStream is the durable stream scan snapshots are appended to.
const scansStream = "cycles"

// SnapshotSource provides the scanner's in-process snapshot.
type SnapshotSource interface {
	Load() *domain.ArbitrageSnapshot
}

// SnapshotHandler serves the latest arbitrage snapshot. It prefers the
// in-process snapshot when the scanner runs in the same process, and falls
// back to the shared cache so a server-only process can still answer.
type SnapshotHandler struct {
	local  SnapshotSource       // optional
	cache  domain.SnapshotCache // optional
	bus    domain.SignalBus     // optional; backs the scan replay endpoint
	logger *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler. Either source may be nil,
// but at least one should be provided for the endpoint to be useful.
func NewSnapshotHandler(local SnapshotSource, cache domain.SnapshotCache, bus domain.SignalBus, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{local: local, cache: cache, bus: bus, logger: logger}
}

// GetSnapshot returns the most recent scan result.
// GET /api/snapshot
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.local != nil {
		if snap := h.local.Load(); snap != nil {
			writeJSON(w, http.StatusOK, snap)
			return
		}
	}

	if h.cache != nil {
		snap, err := h.cache.GetSnapshot(r.Context())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, snap)
			return
		case errors.Is(err, domain.ErrNotFound):
			// fall through to 404
		default:
			h.logger.ErrorContext(r.Context(), "handler: snapshot cache read failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to read snapshot")
			return
		}
	}

	writeError(w, http.StatusNotFound, "no snapshot available yet")
}

// scanEntry is one replayed snapshot together with its stream position.
type scanEntry struct {
	ID       string          `json:"id"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// listScansResponse wraps the scan replay response. LastID is the stream
// position of the newest entry; pass it back as ?after= to page forward.
type listScansResponse struct {
	Scans  []scanEntry `json:"scans"`
	LastID string      `json:"last_id,omitempty"`
}

// ListScans replays recent scan snapshots from the durable stream, letting a
// client that missed live WebSocket pushes catch up.
// GET /api/scans?after=0-0&limit=20
func (h *SnapshotHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		writeError(w, http.StatusNotImplemented, "scan replay not configured")
		return
	}

	after := r.URL.Query().Get("after")
	if after == "" {
		after = "0-0"
	}
	limit := queryLimit(r, 20, 100)

	messages, err := h.bus.StreamRead(r.Context(), scansStream, after, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: scan replay read failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read scan stream")
		return
	}

	resp := listScansResponse{Scans: make([]scanEntry, 0, len(messages))}
	for _, msg := range messages {
		if !json.Valid(msg.Payload) {
			continue
		}
		resp.Scans = append(resp.Scans, scanEntry{
			ID:       msg.ID,
			Snapshot: json.RawMessage(msg.Payload),
		})
		resp.LastID = msg.ID
	}

	writeJSON(w, http.StatusOK, resp)
}
