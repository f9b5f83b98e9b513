package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	u, err := h.userSvc.Me(r.Context(), claims)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, u)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	users, err := h.userSvc.List(r.Context(), claims)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, users)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	if err := h.userSvc.Delete(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"message": "User deleted",
	})
}
