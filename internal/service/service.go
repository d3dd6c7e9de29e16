// Package service implements business logic, validation and orchestration
// between HTTP handlers and the repository layer. Allocation rules live in
// package allocation; the services here read a consistent snapshot inside
// Store.WithinEvent, apply those rules and write the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/allocation"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/repository"
)

// ErrValidation marks a malformed request (missing name, bad email, ...).
var ErrValidation = errors.New("validation failed")

// ErrGuestCancelled is returned when an allocation targets a cancelled guest.
var ErrGuestCancelled = errors.New("guest has been cancelled")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// withTimeout bounds one allocation operation. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// activeGuest loads guestID and checks that it belongs to eventID and has not
// been cancelled.
func activeGuest(ctx context.Context, r repository.Reader, eventID, guestID string) (*model.Guest, error) {
	g, err := r.GetGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if g.EventID != eventID {
		return nil, repository.ErrGuestNotInEvent
	}
	if g.Cancelled() {
		return nil, ErrGuestCancelled
	}
	return g, nil
}

// guestInEvent checks membership only; cancelled guests pass.
func guestInEvent(ctx context.Context, r repository.Reader, eventID, guestID string) error {
	g, err := r.GetGuest(ctx, guestID)
	if err != nil {
		return err
	}
	if g.EventID != eventID {
		return repository.ErrGuestNotInEvent
	}
	return nil
}

// EventService orchestrates event, party and seating-configuration operations.
type EventService struct {
	store   repository.Store
	log     *zap.Logger
	timeout time.Duration
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.Store, log *zap.Logger, timeout time.Duration) *EventService {
	return &EventService{store: store, log: log, timeout: timeout}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, validationError("event name is required")
	}
	if err := allocation.ValidateSeatingConfig(req.TableCount, req.MaxGuestsPerTable); err != nil {
		return nil, err
	}

	event := &model.Event{
		ID:                uuid.New().String(),
		Name:              req.Name,
		Description:       req.Description,
		TableCount:        req.TableCount,
		MaxGuestsPerTable: req.MaxGuestsPerTable,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event created", zap.String("event_id", event.ID), zap.String("name", event.Name))
	return event, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, validationError("event id is required")
	}
	return s.store.GetEvent(ctx, id)
}

// ConfigureSeating validates and stores table_count and max_guests_per_table
// as a unit. Existing table assignments are left as they are even when the
// new capacity is smaller.
func (s *EventService) ConfigureSeating(ctx context.Context, eventID string, req model.SeatingConfigRequest) (*model.Event, error) {
	if err := allocation.ValidateSeatingConfig(req.TableCount, req.MaxGuestsPerTable); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var updated model.Event
	err := s.store.WithinEvent(ctx, eventID, func(tx repository.Tx, event *model.Event) error {
		if err := tx.UpdateSeatingConfig(ctx, eventID, req.TableCount, req.MaxGuestsPerTable); err != nil {
			return err
		}
		updated = *event
		updated.TableCount = req.TableCount
		updated.MaxGuestsPerTable = req.MaxGuestsPerTable
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("seating configured",
		zap.String("event_id", eventID),
		zap.Intp("table_count", req.TableCount),
		zap.Intp("max_guests_per_table", req.MaxGuestsPerTable))
	return &updated, nil
}

// CreateRegistration creates a party: the purchaser as primary guest plus any
// additional members. Nobody is seated or numbered here.
func (s *EventService) CreateRegistration(ctx context.Context, eventID string, req model.CreateRegistrationRequest) (*model.Registration, error) {
	req.PurchaserEmail = strings.TrimSpace(strings.ToLower(req.PurchaserEmail))
	if req.PurchaserEmail == "" {
		return nil, validationError("purchaser_email is required")
	}
	if !isValidEmail(req.PurchaserEmail) {
		return nil, validationError("purchaser_email is not a valid email address")
	}
	primaryName := strings.TrimSpace(req.PrimaryName)
	if primaryName == "" {
		return nil, validationError("primary_name is required")
	}
	for i, g := range req.Guests {
		if strings.TrimSpace(g.Name) == "" {
			return nil, validationError("guests[%d].name is required", i)
		}
	}

	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reg := &model.Registration{
		ID:             uuid.New().String(),
		EventID:        eventID,
		PurchaserEmail: req.PurchaserEmail,
		CreatedAt:      now,
	}
	reg.Guests = append(reg.Guests, newGuest(reg, primaryName, req.PurchaserEmail, true, now))
	for i, in := range req.Guests {
		// Offset creation times so party order is stable in storage.
		at := now.Add(time.Duration(i+1) * time.Microsecond)
		reg.Guests = append(reg.Guests, newGuest(reg, strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), false, at))
	}

	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}
	s.log.Info("registration created",
		zap.String("event_id", eventID),
		zap.String("registration_id", reg.ID),
		zap.Int("party_size", len(reg.Guests)))
	return reg, nil
}

// ListRegistrations returns all registrations for an event.
func (s *EventService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListRegistrations(ctx, eventID)
}

// AddGuest adds a non-primary member to an existing registration.
func (s *EventService) AddGuest(ctx context.Context, eventID, registrationID string, in model.GuestInput) (*model.Guest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	reg, err := s.store.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.EventID != eventID {
		return nil, repository.ErrNotFound
	}

	g := newGuest(reg, name, strings.TrimSpace(in.Email), false, time.Now().UTC())
	if err := s.store.AddGuest(ctx, &g); err != nil {
		return nil, fmt.Errorf("add guest: %w", err)
	}
	s.log.Info("guest added",
		zap.String("event_id", eventID),
		zap.String("registration_id", registrationID),
		zap.String("guest_id", g.ID))
	return &g, nil
}

// ListGuests returns the active guests of an event.
func (s *EventService) ListGuests(ctx context.Context, eventID string) ([]model.Guest, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListGuests(ctx, eventID)
}

// CancelGuest cancels one guest: their bidder number returns to the gap pool
// through the same release path as HandleRegistrationCancellation and their
// seat is freed, in a single transaction. Other party members are
// not touched.
func (s *EventService) CancelGuest(ctx context.Context, eventID, guestID string) (*model.Guest, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var (
		cancelled model.Guest
		released  *int
	)
	err := s.store.WithinEvent(ctx, eventID, func(tx repository.Tx, _ *model.Event) error {
		g, err := activeGuest(ctx, tx, eventID, guestID)
		if err != nil {
			return err
		}
		if released, err = releaseBidderNumber(ctx, tx, g); err != nil {
			return err
		}
		at := time.Now().UTC()
		if err := tx.CancelGuest(ctx, guestID, at); err != nil {
			return err
		}
		cancelled = *g
		cancelled.CancelledAt = &at
		cancelled.BidderNumber = nil
		cancelled.TableNumber = nil
		cancelled.IsTableCaptain = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordRelease(s.log, eventID, guestID, released)
	s.log.Info("guest cancelled", zap.String("event_id", eventID), zap.String("guest_id", guestID))
	return &cancelled, nil
}

func newGuest(reg *model.Registration, name, email string, primary bool, at time.Time) model.Guest {
	return model.Guest{
		ID:             uuid.New().String(),
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		Name:           name,
		Email:          email,
		IsPrimary:      primary,
		CreatedAt:      at,
	}
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
