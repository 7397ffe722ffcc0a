package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller injected by the auth
// middleware. Core operations still receive the username as an
// explicit argument; the context carries it only across the adapter.
type Principal struct {
	Username string
	Role     domain.Role
}

// principalFrom extracts the authenticated principal from the context
func principalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Authenticate validates the bearer token and stores the principal in
// the request context
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing authorization header"})
			return
		}

		username, role, err := h.Auth.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, Principal{Username: username, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-admin principals
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFrom(r.Context())
		if !ok || p.Role != domain.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
