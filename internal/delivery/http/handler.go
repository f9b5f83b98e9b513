package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tixlabs/tix-server/internal/service"
	"github.com/tixlabs/tix-server/pkg/logger"
)

type Handler struct {
	authSvc     service.AuthService
	eventSvc    service.EventService
	purchaseSvc service.PurchaseService
	ticketSvc   service.TicketService
	userSvc     service.UserService
	l           logger.Logger
	validator   *validator.Validate
}

func NewHandler(
	authSvc service.AuthService,
	eventSvc service.EventService,
	purchaseSvc service.PurchaseService,
	ticketSvc service.TicketService,
	userSvc service.UserService,
	l logger.Logger,
) *Handler {
	return &Handler{
		authSvc:     authSvc,
		eventSvc:    eventSvc,
		purchaseSvc: purchaseSvc,
		ticketSvc:   ticketSvc,
		userSvc:     userSvc,
		l:           l,
		validator:   validator.New(),
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "tix-server",
	})
}

// decode reads and validates a JSON body into dst.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) respondJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.l.Errorf(ctx, "delivery.http.Handler.respondJSON: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	if err != nil {
		h.l.Debugf(r.Context(), "delivery.http.Handler.respondError: %s: %v", message, err)
	}

	h.respondJSON(r.Context(), w, statusCode, map[string]any{
		"error": message,
		"code":  statusCode,
	})
}

// respondServiceError maps the service-layer sentinels onto HTTP statuses.
// The InvalidTicket / AlreadyUsed split matters to the scanning UI and must
// survive the mapping.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var capErr *service.CapacityExceededError
	if errors.As(err, &capErr) {
		h.respondJSON(r.Context(), w, http.StatusBadRequest, map[string]any{
			"error":     "Not enough tickets left",
			"code":      http.StatusBadRequest,
			"remaining": capErr.Remaining,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrEventNotFound):
		h.respondError(w, r, http.StatusNotFound, "Event not found", err)
	case errors.Is(err, service.ErrUserNotFound):
		h.respondError(w, r, http.StatusNotFound, "User not found", err)
	case errors.Is(err, service.ErrTicketNotFound):
		h.respondError(w, r, http.StatusNotFound, "INVALID TICKET", err)
	case errors.Is(err, service.ErrTicketUsed):
		h.respondError(w, r, http.StatusBadRequest, "ALREADY SCANNED", err)
	case errors.Is(err, service.ErrInvalidQuantity):
		h.respondError(w, r, http.StatusBadRequest, "Quantity must be between 1 and 5", err)
	case errors.Is(err, service.ErrEventNotSoldOut):
		h.respondError(w, r, http.StatusBadRequest, "Event is not sold out", err)
	case errors.Is(err, service.ErrCapacityBelowSold):
		h.respondError(w, r, http.StatusBadRequest, "Capacity cannot drop below tickets already sold", err)
	case errors.Is(err, service.ErrInvalidCredentials):
		h.respondError(w, r, http.StatusUnauthorized, "Invalid credentials", err)
	case errors.Is(err, service.ErrUsernameTaken):
		h.respondError(w, r, http.StatusConflict, "Username already taken", err)
	case errors.Is(err, service.ErrEmailTaken):
		h.respondError(w, r, http.StatusConflict, "Email already registered", err)
	case errors.Is(err, service.ErrAlreadyWaitlisted):
		h.respondError(w, r, http.StatusConflict, "Already on the waitlist", err)
	case errors.Is(err, service.ErrForbidden):
		h.respondError(w, r, http.StatusForbidden, "Not allowed", err)
	default:
		h.l.Errorf(r.Context(), "delivery.http.Handler.respondServiceError: %v", err)
		h.respondError(w, r, http.StatusInternalServerError, "Something went wrong", err)
	}
}
