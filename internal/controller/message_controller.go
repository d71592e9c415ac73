package controller

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/unclebandit/mailing-service/internal/handler"
	"github.com/unclebandit/mailing-service/internal/service"
)

type MessageController struct {
	MessageService *service.MessageService
	Log            zerolog.Logger
}

func (c *MessageController) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	var body service.MessageInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	message, err := c.MessageService.Create(r.Context(), actor, body)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, message)
}

func (c *MessageController) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	messages, err := c.MessageService.List(r.Context(), actor)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

func (c *MessageController) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	message, err := c.MessageService.Get(r.Context(), actor, id)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, message)
}

func (c *MessageController) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body service.MessageInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	message, err := c.MessageService.Update(r.Context(), actor, id, body)
	if err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, message)
}

func (c *MessageController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := handler.ActorFrom(r.Context())
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := c.MessageService.Delete(r.Context(), actor, id); err != nil {
		handler.WriteError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
