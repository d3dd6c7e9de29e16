package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/allocation"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/metrics"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/repository"
)

// SeatingService handles single-guest table membership with capacity
// enforcement, plus occupancy queries.
type SeatingService struct {
	store   repository.Store
	log     *zap.Logger
	timeout time.Duration
}

// NewSeatingService constructs a SeatingService.
func NewSeatingService(store repository.Store, log *zap.Logger, timeout time.Duration) *SeatingService {
	return &SeatingService{store: store, log: log, timeout: timeout}
}

// ValidateSeatingConfig is the pure configuration check.
func (s *SeatingService) ValidateSeatingConfig(tableCount, maxGuestsPerTable *int) error {
	return allocation.ValidateSeatingConfig(tableCount, maxGuestsPerTable)
}

// AssignGuestToTable seats one guest. The occupancy count and the write run
// under the event lock, so concurrent requests cannot jointly overflow a
// table. A guest already at the target table does not count against it.
func (s *SeatingService) AssignGuestToTable(ctx context.Context, eventID, guestID string, table int) (*model.Guest, error) {
	defer metrics.ObserveSince("assign_guest_to_table", time.Now())
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var seated model.Guest
	err := s.store.WithinEvent(ctx, eventID, func(tx repository.Tx, event *model.Event) error {
		if !event.SeatingConfigured() {
			return allocation.ErrSeatingNotConfigured
		}
		g, err := activeGuest(ctx, tx, eventID, guestID)
		if err != nil {
			return err
		}
		if table < 1 || table > *event.TableCount {
			return allocation.CheckTable(table, *event.TableCount, *event.MaxGuestsPerTable, 0)
		}
		occupied, err := tx.TableOccupancy(ctx, eventID, table, guestID)
		if err != nil {
			return err
		}
		if err := allocation.CheckTable(table, *event.TableCount, *event.MaxGuestsPerTable, occupied); err != nil {
			return err
		}
		if err := tx.SetTableNumber(ctx, guestID, &table); err != nil {
			return err
		}
		seated = *g
		seated.TableNumber = &table
		return nil
	})
	if err != nil {
		if errors.Is(err, allocation.ErrTableFull) {
			metrics.TableAssignments.WithLabelValues("full").Inc()
		} else if errors.Is(err, allocation.ErrTableOutOfRange) {
			metrics.TableAssignments.WithLabelValues("out_of_range").Inc()
		}
		return nil, err
	}

	metrics.TableAssignments.WithLabelValues("assigned").Inc()
	s.log.Info("guest assigned to table",
		zap.String("event_id", eventID),
		zap.String("guest_id", guestID),
		zap.Int("table_number", table))
	return &seated, nil
}

// RemoveGuestFromTable clears the guest's table unconditionally.
func (s *SeatingService) RemoveGuestFromTable(ctx context.Context, guestID string) (*model.Guest, error) {
	g, err := s.store.GetGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err = s.store.WithinEvent(ctx, g.EventID, func(tx repository.Tx, _ *model.Event) error {
		cur, err := tx.GetGuest(ctx, guestID)
		if err != nil {
			return err
		}
		g = cur
		if cur.TableNumber == nil {
			return nil
		}
		return tx.SetTableNumber(ctx, guestID, nil)
	})
	if err != nil {
		return nil, err
	}

	if g.TableNumber != nil {
		s.log.Info("guest removed from table",
			zap.String("event_id", g.EventID),
			zap.String("guest_id", guestID),
			zap.Int("table_number", *g.TableNumber))
	}
	g.TableNumber = nil
	return g, nil
}

// UnseatGuest is RemoveGuestFromTable scoped to an event.
func (s *SeatingService) UnseatGuest(ctx context.Context, eventID, guestID string) (*model.Guest, error) {
	if err := guestInEvent(ctx, s.store, eventID, guestID); err != nil {
		return nil, err
	}
	return s.RemoveGuestFromTable(ctx, guestID)
}

// TableOccupancy returns the number of guests at table.
func (s *SeatingService) TableOccupancy(ctx context.Context, eventID string, table int) (int, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}
	return s.store.TableOccupancy(ctx, eventID, table, "")
}

// UnassignedGuests returns the event's guests without a table.
func (s *SeatingService) UnassignedGuests(ctx context.Context, eventID string) ([]model.Guest, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.UnassignedGuests(ctx, eventID)
}

// TableOverview lists every table with its occupancy and seated guests.
func (s *SeatingService) TableOverview(ctx context.Context, eventID string) ([]model.TableOverview, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.SeatingConfigured() {
		return nil, allocation.ErrSeatingNotConfigured
	}
	guests, err := s.store.ListGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}

	capacity := *event.MaxGuestsPerTable
	tables := make([]model.TableOverview, *event.TableCount)
	for i := range tables {
		tables[i] = model.TableOverview{TableNumber: i + 1, Capacity: capacity, GuestIDs: []string{}}
	}
	for _, g := range guests {
		if g.TableNumber == nil || *g.TableNumber < 1 || *g.TableNumber > len(tables) {
			continue
		}
		t := &tables[*g.TableNumber-1]
		t.Occupancy++
		t.GuestIDs = append(t.GuestIDs, g.ID)
	}
	for i := range tables {
		tables[i].Remaining = max(capacity-tables[i].Occupancy, 0)
	}
	return tables, nil
}
