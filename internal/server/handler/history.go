package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// archivePrefix is where the archiver parks exported cycle history.
const archivePrefix = "archive/cycle_history/"

// HistoryHandler serves persisted cycle history, both the live Postgres rows
// and the monthly archives exported to object storage.
type HistoryHandler struct {
	store  domain.CycleStore // optional; when nil, endpoints return 501
	blobs  domain.BlobReader // optional; when nil, archive endpoints return 501
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler. store and blobs may be nil when
// history persistence is disabled.
func NewHistoryHandler(store domain.CycleStore, blobs domain.BlobReader, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, blobs: blobs, logger: logger}
}

// listHistoryResponse wraps the recent history response.
type listHistoryResponse struct {
	Cycles []domain.CycleRecord `json:"cycles"`
}

// ListRecent returns the most recently detected cycles.
// GET /api/history/recent?limit=50
func (h *HistoryHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "cycle history not configured")
		return
	}

	limit := queryLimit(r, 50, 500)

	records, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list cycle history failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list cycle history")
		return
	}

	if records == nil {
		records = []domain.CycleRecord{}
	}

	writeJSON(w, http.StatusOK, listHistoryResponse{Cycles: records})
}

// archiveEntry describes one exported archive file.
type archiveEntry struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// listArchivesResponse wraps the archive listing.
type listArchivesResponse struct {
	Archives []archiveEntry `json:"archives"`
}

// ListArchives returns the monthly history archive files in object storage.
// GET /api/history/archives
func (h *HistoryHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusNotImplemented, "history archives not configured")
		return
	}

	infos, err := h.blobs.List(r.Context(), archivePrefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	archives := make([]archiveEntry, 0, len(infos))
	for _, info := range infos {
		archives = append(archives, archiveEntry{
			Name:         path.Base(info.Path),
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}

	writeJSON(w, http.StatusOK, listArchivesResponse{Archives: archives})
}

// GetArchive streams one archive file back to the client.
// GET /api/history/archives/{name}
func (h *HistoryHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusNotImplemented, "history archives not configured")
		return
	}

	name := r.PathValue("name")
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "invalid archive name")
		return
	}

	body, err := h.blobs.Get(r.Context(), archivePrefix+name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "archive not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get archive failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read archive")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "handler: archive stream interrupted",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}
