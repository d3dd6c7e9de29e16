// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/allocation"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/repository"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/service"
)

// EventHandler serves events, seating configuration and parties.
type EventHandler struct {
	svc *service.EventService
	log *zap.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, allocation.ErrTableFull),
		errors.Is(err, allocation.ErrBidderTaken),
		errors.Is(err, allocation.ErrBidderExhausted),
		errors.Is(err, service.ErrGuestCancelled):
		return http.StatusConflict
	case errors.Is(err, allocation.ErrInvalidSeatingConfig),
		errors.Is(err, allocation.ErrSeatingNotConfigured),
		errors.Is(err, allocation.ErrBidderOutOfRange),
		errors.Is(err, allocation.ErrTableOutOfRange),
		errors.Is(err, repository.ErrGuestNotInEvent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status. Internal errors are
// logged and replaced by msg so storage details never reach the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

func decodeOrReject(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// intParam parses an integer URL parameter.
func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ConfigureSeating handles PUT /events/{id}/seating
// Both fields must be given together; send both as null to clear seating.
func (h *EventHandler) ConfigureSeating(w http.ResponseWriter, r *http.Request) {
	var req model.SeatingConfigRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	event, err := h.svc.ConfigureSeating(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to configure seating")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ─── Registrations and guests ─────────────────────────────────────────────────

// CreateRegistration handles POST /events/{id}/registrations
func (h *EventHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRegistrationRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	reg, err := h.svc.CreateRegistration(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to create registration")
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list registrations")
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// AddGuest handles POST /events/{id}/registrations/{regID}/guests
func (h *EventHandler) AddGuest(w http.ResponseWriter, r *http.Request) {
	var in model.GuestInput
	if !decodeOrReject(w, r, &in) {
		return
	}

	g, err := h.svc.AddGuest(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "regID"), in)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to add guest")
		return
	}

	writeJSON(w, http.StatusCreated, g)
}

// ListGuests handles GET /events/{id}/guests
func (h *EventHandler) ListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := h.svc.ListGuests(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list guests")
		return
	}

	if guests == nil {
		guests = []model.Guest{}
	}

	writeJSON(w, http.StatusOK, guests)
}

// CancelGuest handles DELETE /events/{id}/guests/{guestID}
// The guest's seat and bidder number are released.
func (h *EventHandler) CancelGuest(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.CancelGuest(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guestID"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to cancel guest")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
