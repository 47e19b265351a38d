package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// maxTopQueries caps the ?top= parameter.
const maxTopQueries = 100

type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/v1/analytics. ?top=N sizes the query rankings and
// ?include=searches,reloads trims the response to those sections.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := defaultTopQueries
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopQueries {
			h.write(w, http.StatusBadRequest, map[string]string{
				"error": "top must be an integer between 1 and " + strconv.Itoa(maxTopQueries),
			})
			return
		}
		top = n
	}

	stats := h.aggregator.StatsTop(top)
	if raw := r.URL.Query().Get("include"); raw != "" {
		sections := make(map[string]bool)
		for _, s := range strings.Split(raw, ",") {
			sections[strings.TrimSpace(s)] = true
		}
		if !sections["searches"] && !sections["reloads"] {
			h.write(w, http.StatusBadRequest, map[string]string{
				"error": "include must list searches, reloads or both",
			})
			return
		}
		if !sections["searches"] {
			stats = reloadsOnly(stats)
		}
		if !sections["reloads"] {
			stats.Reloads, stats.FailedReloads = 0, 0
			stats.LastReload, stats.LastReloadFailure = nil, ""
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	h.write(w, http.StatusOK, stats)
}

func reloadsOnly(s AggregatedStats) AggregatedStats {
	return AggregatedStats{
		Reloads:           s.Reloads,
		FailedReloads:     s.FailedReloads,
		LastReload:        s.LastReload,
		LastReloadFailure: s.LastReloadFailure,
		CapturedAt:        s.CapturedAt,
	}
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
