package handler

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// CatalogSource provides the current symbol catalog.
type CatalogSource interface {
	Current() *domain.SymbolCatalog
	Describe() string
}

// CatalogHandler serves the symbol catalog endpoint.
type CatalogHandler struct {
	catalog CatalogSource
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog CatalogSource, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// catalogResponse is the catalog endpoint payload. Symbols is omitted unless
// the client asks for it; the full list runs to a thousand-plus entries.
type catalogResponse struct {
	Summary     string               `json:"summary"`
	SymbolCount int                  `json:"symbol_count"`
	CapturedAt  string               `json:"captured_at,omitempty"`
	Symbols     []domain.SymbolEntry `json:"symbols,omitempty"`
}

// GetCatalog returns the active symbol catalog summary, with the full symbol
// list when ?full=true.
// GET /api/catalog?full=true
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := h.catalog.Current()
	if cat == nil {
		writeError(w, http.StatusNotFound, "catalog not loaded yet")
		return
	}

	resp := catalogResponse{
		Summary:     h.catalog.Describe(),
		SymbolCount: cat.Len(),
		CapturedAt:  cat.CapturedAt.UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("full") == "true" {
		symbols := make([]domain.SymbolEntry, 0, len(cat.Entries))
		for _, e := range cat.Entries {
			symbols = append(symbols, e)
		}
		sort.Slice(symbols, func(i, j int) bool { return symbols[i].Symbol < symbols[j].Symbol })
		resp.Symbols = symbols
	}

	writeJSON(w, http.StatusOK, resp)
}
