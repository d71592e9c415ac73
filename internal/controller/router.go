package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/mailing-service/internal/handler"
)

type Controllers struct {
	Campaigns *CampaignController
	Clients   *ClientController
	Messages  *MessageController
	Reports   *handler.CampaignHandler
}

func NewRouter(c Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(handler.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(handler.Identity)

		// Client routes
		r.Post("/clients", c.Clients.Create)
		r.Get("/clients", c.Clients.List)
		r.Get("/clients/{id}", c.Clients.Get)
		r.Put("/clients/{id}", c.Clients.Update)
		r.Delete("/clients/{id}", c.Clients.Delete)

		// Message routes
		r.Post("/messages", c.Messages.Create)
		r.Get("/messages", c.Messages.List)
		r.Get("/messages/{id}", c.Messages.Get)
		r.Put("/messages/{id}", c.Messages.Update)
		r.Delete("/messages/{id}", c.Messages.Delete)

		// Campaign routes
		r.Post("/campaigns", c.Campaigns.CreateCampaign)
		r.Get("/campaigns", c.Campaigns.ListCampaigns)
		r.Get("/campaigns/{id}", c.Campaigns.GetCampaignDetails)
		r.Put("/campaigns/{id}", c.Campaigns.UpdateCampaign)
		r.Delete("/campaigns/{id}", c.Campaigns.DeleteCampaign)
		r.Post("/campaigns/{id}/send", c.Campaigns.SendCampaign)
		r.Post("/campaigns/{id}/disable", c.Campaigns.DisableCampaign)
		r.Get("/campaigns/{id}/attempts", c.Reports.ListAttempts)

		r.Get("/attempts", c.Reports.ListAttempts)
		r.Get("/statistics", c.Reports.GetStatistics)
	})

	return r
}
