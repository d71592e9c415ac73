package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/unclebandit/mailing-service/internal/model"
)

type ctxKey struct{}

// Identity reads the caller asserted by the upstream proxy. Requests without
// a numeric X-User-ID or with an unknown X-User-Role are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.Header.Get("X-User-ID"))
		if err != nil || id <= 0 {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid X-User-ID"})
			return
		}
		role := r.Header.Get("X-User-Role")
		switch role {
		case "":
			role = model.RoleUser
		case model.RoleUser, model.RoleManager:
		default:
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown X-User-Role"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), model.Actor{UserID: id, Role: role})))
	})
}

func WithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom returns the caller stored by Identity.
func ActorFrom(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(model.Actor)
	return a, ok
}
