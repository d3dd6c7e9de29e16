// Package repository implements persistence for events, registrations and
// guests. PostgresStore talks to PostgreSQL through pgx directly (no ORM);
// MemoryStore backs tests and database-less local runs.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrGuestNotInEvent is returned when a guest id belongs to a different event
// than the one named in the request.
var ErrGuestNotInEvent = errors.New("guest does not belong to this event")

// Reader holds the queries available both inside and outside a transaction.
// Cancelled guests are invisible to every guest query except GetGuest.
type Reader interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	GetGuest(ctx context.Context, id string) (*model.Guest, error)
	ListGuests(ctx context.Context, eventID string) ([]model.Guest, error)

	// HeldBidderNumbers returns every non-null bidder number in the event, ascending.
	HeldBidderNumbers(ctx context.Context, eventID string) ([]int, error)
	GuestByBidderNumber(ctx context.Context, eventID string, number int) (*model.Guest, error)
	CountBidders(ctx context.Context, eventID string) (int, error)

	// TableOccupancy counts guests at table, ignoring excludeGuestID when non-empty.
	TableOccupancy(ctx context.Context, eventID string, table int, excludeGuestID string) (int, error)
	TableOccupancies(ctx context.Context, eventID string) (map[int]int, error)
	// UnassignedGuests returns guests without a table, oldest first.
	UnassignedGuests(ctx context.Context, eventID string) ([]model.Guest, error)
}

// Tx is the read-write view handed to WithinEvent callbacks.
type Tx interface {
	Reader

	SetBidderNumber(ctx context.Context, guestID string, number *int) error
	SetTableNumber(ctx context.Context, guestID string, table *int) error
	MarkTableCaptain(ctx context.Context, guestID string) error
	UpdateSeatingConfig(ctx context.Context, eventID string, tableCount, maxGuestsPerTable *int) error
	// CancelGuest stamps cancelled_at and clears table and bidder number.
	CancelGuest(ctx context.Context, guestID string, at time.Time) error
}

// Store is the persistence boundary used by the service layer.
type Store interface {
	Reader

	CreateEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateRegistration(ctx context.Context, reg *model.Registration) error
	GetRegistration(ctx context.Context, id string) (*model.Registration, error)
	ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
	AddGuest(ctx context.Context, guest *model.Guest) error

	// WithinEvent runs fn in one transaction holding an exclusive lock on the
	// event, so allocation operations on the same event run one at a time.
	// fn receives the locked event. Writes commit only if fn returns nil.
	WithinEvent(ctx context.Context, eventID string, fn func(tx Tx, event *model.Event) error) error
}
