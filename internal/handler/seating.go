package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/service"
)

// SeatingHandler serves table assignment, occupancy and auto-assign.
type SeatingHandler struct {
	seating *service.SeatingService
	auto    *service.AutoAssigner
	log     *zap.Logger
}

// NewSeatingHandler constructs a SeatingHandler.
func NewSeatingHandler(seating *service.SeatingService, auto *service.AutoAssigner, log *zap.Logger) *SeatingHandler {
	return &SeatingHandler{seating: seating, auto: auto, log: log}
}

// AssignTable handles PUT /events/{id}/guests/{guestID}/table
func (h *SeatingHandler) AssignTable(w http.ResponseWriter, r *http.Request) {
	var req model.AssignTableRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	g, err := h.seating.AssignGuestToTable(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guestID"), req.TableNumber)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to assign table")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// RemoveTable handles DELETE /events/{id}/guests/{guestID}/table
func (h *SeatingHandler) RemoveTable(w http.ResponseWriter, r *http.Request) {
	g, err := h.seating.UnseatGuest(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guestID"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to remove guest from table")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// Occupancy handles GET /events/{id}/seating/tables/{table}/occupancy
func (h *SeatingHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	table, err := intParam(r, "table")
	if err != nil {
		writeError(w, http.StatusBadRequest, "table must be an integer")
		return
	}

	n, err := h.seating.TableOccupancy(r.Context(), chi.URLParam(r, "id"), table)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to count table occupancy")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"table_number": table, "occupancy": n})
}

// Tables handles GET /events/{id}/seating/tables
func (h *SeatingHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.seating.TableOverview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to load tables")
		return
	}

	writeJSON(w, http.StatusOK, tables)
}

// Unassigned handles GET /events/{id}/seating/unassigned
func (h *SeatingHandler) Unassigned(w http.ResponseWriter, r *http.Request) {
	guests, err := h.seating.UnassignedGuests(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list unassigned guests")
		return
	}

	if guests == nil {
		guests = []model.Guest{}
	}

	writeJSON(w, http.StatusOK, guests)
}

// AutoAssign handles POST /events/{id}/seating/auto-assign
// A partial result (guests left unseated) is still 200; see unassigned_count.
func (h *SeatingHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	res, err := h.auto.AutoAssign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to auto-assign tables")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
