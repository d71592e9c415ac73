// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/handler"
	"github.com/unclebandit/mailing-service/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Log             zerolog.Logger
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())

	var body service.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), actor, body)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	var body service.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), actor, id, body)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	if err := c.CampaignService.DeleteCampaign(r.Context(), actor, id); err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())

	// Parse query parameters
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), actor, page, pageSize, status)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // already contains total_count, total_pages, page, page_size
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	details, err := c.CampaignService.GetCampaignDetails(r.Context(), actor, id)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, details)
}

// SendCampaign runs a dispatch invocation. With ?async=true the campaign is
// queued instead and 202 is returned.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if err := c.CampaignService.EnqueueCampaign(r.Context(), actor, id); err != nil {
			handler.WriteError(w, c.Log, err)
			return
		}
		handler.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
			"campaign_id": id,
			"queued":      true,
		})
		return
	}

	result, err := c.CampaignService.SendCampaign(r.Context(), actor, id)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dispatch_id": result.DispatchID,
		"campaign_id": result.CampaignID,
		"dispatched":  result.Dispatched,
		"status":      result.Status,
		"successful":  result.Successful(),
		"failed":      result.Failed(),
		"outcomes":    result.Outcomes,
	})
}

func (c *CampaignController) DisableCampaign(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	campaign, err := c.CampaignService.DisableCampaign(r.Context(), actor, id)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

func urlID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
