package http

import (
	"net/http"

	"github.com/tixlabs/tix-server/internal/service"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !h.decode(w, r, &in) {
		return
	}

	out, err := h.authSvc.Register(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusCreated, out)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !h.decode(w, r, &in) {
		return
	}

	out, err := h.authSvc.Login(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, out)
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var in googleLoginRequest
	if !h.decode(w, r, &in) {
		return
	}

	out, err := h.authSvc.GoogleLogin(r.Context(), in.IDToken)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, out)
}
