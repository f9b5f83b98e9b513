package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tixlabs/tix-server/internal/service"
	"github.com/tixlabs/tix-server/pkg/util"
)

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var in service.CreateEventInput
	if !h.decode(w, r, &in) {
		return
	}

	e, err := h.eventSvc.Create(r.Context(), claims, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusCreated, e)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.eventSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, e)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := service.ListEventsInput{
		Search:   q.Get("search"),
		Location: q.Get("location"),
	}
	if v := q.Get("page"); v != "" {
		in.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		in.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("date"); v != "" {
		d, err := time.Parse(util.DateFormat, v)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD", err)
			return
		}
		in.Date = &d
	}

	out, err := h.eventSvc.List(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, out)
}

func (h *Handler) ListOrganizerEvents(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	events, err := h.eventSvc.ListByOrganizer(r.Context(), claims)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, events)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var in service.UpdateEventInput
	if !h.decode(w, r, &in) {
		return
	}

	e, err := h.eventSvc.Update(r.Context(), claims, chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, e)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	if err := h.eventSvc.Delete(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"message": "Event deleted",
	})
}

func (h *Handler) EventAnalytics(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	out, err := h.eventSvc.Analytics(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, out)
}

func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	if err := h.eventSvc.JoinWaitlist(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusCreated, map[string]any{
		"message": "Added to the waitlist",
	})
}
