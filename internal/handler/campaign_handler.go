// internal/handler/campaign_handler.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/service"
)

// CampaignHandler serves the read-only reporting endpoints
type CampaignHandler struct {
	Stats     *service.StatsService
	Campaigns *service.CampaignService
	Log       zerolog.Logger
}

// GetStatistics returns the aggregate for the caller's scope
func (h *CampaignHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	stats, err := h.Stats.Aggregate(r.Context(), actor.Scope())
	if err != nil {
		WriteError(w, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ListAttempts returns delivery attempts of one campaign when the route has
// an id, otherwise of every campaign the caller can see
func (h *CampaignHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var campaignID *int
	if idStr := chi.URLParam(r, "id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			http.Error(w, "invalid campaign id", http.StatusBadRequest)
			return
		}
		campaignID = &id
	}

	attempts, err := h.Campaigns.ListAttempts(r.Context(), actor, campaignID)
	if err != nil {
		WriteError(w, h.Log, err)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := attempts[:0]
		for _, a := range attempts {
			if a.Status == status {
				filtered = append(filtered, a)
			}
		}
		attempts = filtered
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":  attempts,
		"count": len(attempts),
	})
}
