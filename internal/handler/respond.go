package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteError maps an application error to its HTTP status. Unexpected
// errors are logged and hidden behind a generic message.
func WriteError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		msg = "internal error"
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

func StatusFor(err error) int {
	switch {
	case appErrors.IsNotFound(err):
		return http.StatusNotFound
	case appErrors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, appErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, appErrors.ErrDispatchInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
