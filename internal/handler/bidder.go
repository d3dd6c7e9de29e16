package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/allocation"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/service"
)

const defaultAvailableLimit = 10

// BidderHandler serves bidder number allocation.
type BidderHandler struct {
	svc *service.BidderService
	log *zap.Logger
}

// NewBidderHandler constructs a BidderHandler.
func NewBidderHandler(svc *service.BidderService, log *zap.Logger) *BidderHandler {
	return &BidderHandler{svc: svc, log: log}
}

// Assign handles POST /events/{id}/guests/{guestID}/bidder-number
func (h *BidderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	guestID := chi.URLParam(r, "guestID")

	n, err := h.svc.AssignBidderNumber(r.Context(), chi.URLParam(r, "id"), guestID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to assign bidder number")
		return
	}

	writeJSON(w, http.StatusOK, model.BidderAssignment{GuestID: guestID, BidderNumber: n})
}

// Reassign handles PUT /events/{id}/guests/{guestID}/bidder-number
// If another guest holds the number they are moved to the next free one.
func (h *BidderHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	var req model.ReassignBidderRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	res, err := h.svc.ReassignBidderNumber(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guestID"), req.BidderNumber)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to reassign bidder number")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Release handles DELETE /events/{id}/guests/{guestID}/bidder-number
func (h *BidderHandler) Release(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.ReleaseBidderNumber(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guestID"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to release bidder number")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// Available handles GET /events/{id}/bidder-numbers/available?limit=N
func (h *BidderHandler) Available(w http.ResponseWriter, r *http.Request) {
	limit := defaultAvailableLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > allocation.BidderCapacity {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("limit must be an integer between 1 and %d", allocation.BidderCapacity))
			return
		}
		limit = n
	}

	numbers, err := h.svc.AvailableBidderNumbers(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list available bidder numbers")
		return
	}

	writeJSON(w, http.StatusOK, map[string][]int{"available": numbers})
}

// Count handles GET /events/{id}/bidder-numbers/count
func (h *BidderHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.BidderCount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to count bidders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// Check handles GET /events/{id}/bidder-numbers/{number}/check
// A taken number answers 409 with the holder in the message.
func (h *BidderHandler) Check(w http.ResponseWriter, r *http.Request) {
	number, err := intParam(r, "number")
	if err != nil {
		writeError(w, http.StatusBadRequest, "number must be an integer")
		return
	}

	if err := h.svc.ValidateBidderNumberUniqueness(r.Context(), chi.URLParam(r, "id"), number); err != nil {
		writeServiceError(w, r, h.log, err, "failed to check bidder number")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bidder_number": number, "available": true})
}
