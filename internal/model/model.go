// Package model defines the core domain types for event seating and bidder
// number allocation.
package model

import "time"

// Event is a fundraising event. Seating is configured when both TableCount
// and MaxGuestsPerTable are set.
type Event struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	TableCount        *int      `json:"table_count"`
	MaxGuestsPerTable *int      `json:"max_guests_per_table"`
	CreatedAt         time.Time `json:"created_at"`
}

// SeatingConfigured reports whether both seating fields are set.
func (e *Event) SeatingConfigured() bool {
	return e.TableCount != nil && e.MaxGuestsPerTable != nil
}

// TotalSeats returns table_count * max_guests_per_table, or 0 when unconfigured.
func (e *Event) TotalSeats() int {
	if !e.SeatingConfigured() {
		return 0
	}
	return *e.TableCount * *e.MaxGuestsPerTable
}

// Registration is one purchaser's party for an event. Seating lives on its
// guests, not on the registration.
type Registration struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	PurchaserEmail string    `json:"purchaser_email"`
	CreatedAt      time.Time `json:"created_at"`
	Guests         []Guest   `json:"guests,omitempty"`
}

// Guest is a seat-holding member of a registration.
type Guest struct {
	ID             string     `json:"id"`
	RegistrationID string     `json:"registration_id"`
	EventID        string     `json:"event_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	IsPrimary      bool       `json:"is_primary"`
	IsTableCaptain bool       `json:"is_table_captain"`
	TableNumber    *int       `json:"table_number"`
	BidderNumber   *int       `json:"bidder_number"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Cancelled reports whether the guest has been cancelled.
func (g *Guest) Cancelled() bool {
	return g.CancelledAt != nil
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	TableCount        *int   `json:"table_count,omitempty"`
	MaxGuestsPerTable *int   `json:"max_guests_per_table,omitempty"`
}

// SeatingConfigRequest sets or clears an event's seating configuration.
type SeatingConfigRequest struct {
	TableCount        *int `json:"table_count"`
	MaxGuestsPerTable *int `json:"max_guests_per_table"`
}

// GuestInput describes a party member to create.
type GuestInput struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// CreateRegistrationRequest creates a party. The purchaser becomes the
// primary guest; Guests are the additional members.
type CreateRegistrationRequest struct {
	PurchaserEmail string       `json:"purchaser_email"`
	PrimaryName    string       `json:"primary_name"`
	Guests         []GuestInput `json:"guests,omitempty"`
}

// AssignTableRequest is the payload for seating a single guest.
type AssignTableRequest struct {
	TableNumber int `json:"table_number"`
}

// ReassignBidderRequest is the payload for moving a guest to a given number.
type ReassignBidderRequest struct {
	BidderNumber int `json:"bidder_number"`
}

// BidderAssignment is the result of assigning the next bidder number.
type BidderAssignment struct {
	GuestID      string `json:"guest_id"`
	BidderNumber int    `json:"bidder_number"`
}

// BidderReassignment is the result of a reassignment. PreviousHolderID is set
// when the number was taken from another guest, who was moved to
// PreviousHolderNumber.
type BidderReassignment struct {
	GuestID              string  `json:"guest_id"`
	BidderNumber         int     `json:"bidder_number"`
	PreviousHolderID     *string `json:"previous_holder_id"`
	PreviousHolderNumber *int    `json:"previous_holder_number,omitempty"`
}

// TableAssignment records one guest seated by auto-assign.
type TableAssignment struct {
	GuestID        string `json:"guest_id"`
	RegistrationID string `json:"registration_id"`
	TableNumber    int    `json:"table_number"`
	IsTableCaptain bool   `json:"is_table_captain"`
}

// AutoAssignResult summarises a bulk seating pass. A shortfall is reported
// through UnassignedCount and Warnings, never as an error.
type AutoAssignResult struct {
	AssignedCount   int               `json:"assigned_count"`
	UnassignedCount int               `json:"unassigned_count"`
	Assignments     []TableAssignment `json:"assignments"`
	Warnings        []string          `json:"warnings"`
}

// TableOverview describes the occupancy of one table.
type TableOverview struct {
	TableNumber int      `json:"table_number"`
	Occupancy   int      `json:"occupancy"`
	Capacity    int      `json:"capacity"`
	Remaining   int      `json:"remaining"`
	GuestIDs    []string `json:"guest_ids"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
