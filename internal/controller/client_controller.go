package controller

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/handler"
	"github.com/unclebandit/mailing-service/internal/service"
)

type ClientController struct {
	ClientService *service.ClientService
	Log           zerolog.Logger
}

func (c *ClientController) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	var body service.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	client, err := c.ClientService.Create(r.Context(), actor, body)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, client)
}

func (c *ClientController) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	clients, err := c.ClientService.List(r.Context(), actor)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": clients})
}

func (c *ClientController) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	client, err := c.ClientService.Get(r.Context(), actor, id)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, client)
}

func (c *ClientController) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body service.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	client, err := c.ClientService.Update(r.Context(), actor, id, body)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, client)
}

func (c *ClientController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := c.ClientService.Delete(r.Context(), actor, id); err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
