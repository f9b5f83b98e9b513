package http

import (
	"net/http"

	"github.com/tixlabs/tix-server/internal/service"
)

func (h *Handler) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var in service.PurchaseInput
	if !h.decode(w, r, &in) {
		return
	}
	in.UserID = claims.UserID

	// 202: the order is enqueued, not fulfilled. The scan code in the
	// response is a claim check, not a guarantee.
	out, err := h.purchaseSvc.Purchase(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusAccepted, out)
}

func (h *Handler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	tickets, err := h.ticketSvc.ListMine(r.Context(), claims.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, tickets)
}

type verifyRequest struct {
	ScanCode string `json:"scan_code" validate:"required"`
}

func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var in verifyRequest
	if !h.decode(w, r, &in) {
		return
	}

	out, err := h.ticketSvc.Verify(r.Context(), in.ScanCode)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, out)
}
