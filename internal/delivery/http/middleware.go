package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tixlabs/tix-server/config"
	"github.com/tixlabs/tix-server/internal/models"
	"github.com/tixlabs/tix-server/internal/service"
)

type claimsKey struct{}

func claimsFrom(ctx context.Context) (service.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(service.Claims)
	return c, ok
}

// Authenticate validates the bearer token and stashes the caller's claims
// in the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			h.respondError(w, r, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		claims, err := h.authSvc.ParseToken(tokenStr)
		if err != nil {
			h.respondError(w, r, http.StatusUnauthorized, "Invalid or expired token", err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, *claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireEventManager gates routes to organizers and admins. Must run
// after Authenticate.
func (h *Handler) RequireEventManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok || !claims.Role.CanManageEvents() {
			h.respondError(w, r, http.StatusForbidden, "Organizer access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates routes to admins. Must run after Authenticate.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok || claims.Role != models.RoleAdmin {
			h.respondError(w, r, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS answers preflights and tags responses for the configured origins.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	allowAll := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
