package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/allocation"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/metrics"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/notify"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/repository"
)

// BidderService owns the per-event mapping between guests and bidder numbers
// in [100, 999]. The next number is never cached; it is recomputed from the
// holder rows inside the event lock on every call.
type BidderService struct {
	store   repository.Store
	pub     notify.Publisher
	log     *zap.Logger
	timeout time.Duration
}

// NewBidderService constructs a BidderService.
func NewBidderService(store repository.Store, pub notify.Publisher, log *zap.Logger, timeout time.Duration) *BidderService {
	return &BidderService{store: store, pub: pub, log: log, timeout: timeout}
}

// AssignBidderNumber gives the guest the lowest unused number in the event.
// A guest that already holds a number keeps it.
func (s *BidderService) AssignBidderNumber(ctx context.Context, eventID, guestID string) (int, error) {
	defer metrics.ObserveSince("assign_bidder_number", time.Now())
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var assigned int
	fresh := false
	err := s.store.WithinEvent(ctx, eventID, func(tx repository.Tx, _ *model.Event) error {
		g, err := activeGuest(ctx, tx, eventID, guestID)
		if err != nil {
			return err
		}
		if g.BidderNumber != nil {
			assigned = *g.BidderNumber
			return nil
		}

		held, err := tx.HeldBidderNumbers(ctx, eventID)
		if err != nil {
			return err
		}
		n, err := allocation.NextAvailable(held)
		if err != nil {
			return err
		}
		if err := tx.SetBidderNumber(ctx, guestID, &n); err != nil {
			return err
		}
		assigned, fresh = n, true
		return nil
	})
	if err != nil {
		if errors.Is(err, allocation.ErrBidderExhausted) {
			s.log.Warn("bidder numbers exhausted", zap.String("event_id", eventID))
		}
		return 0, err
	}

	if fresh {
		metrics.BidderNumbersAssigned.Inc()
		s.log.Info("bidder number assigned",
			zap.String("event_id", eventID),
			zap.String("guest_id", guestID),
			zap.Int("bidder_number", assigned))
	}
	return assigned, nil
}

// AvailableBidderNumbers returns the first limit unused numbers, gaps first.
// It reads without locking, so the list is advisory.
func (s *BidderService) AvailableBidderNumbers(ctx context.Context, eventID string, limit int) ([]int, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	held, err := s.store.HeldBidderNumbers(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return allocation.Available(held, limit), nil
}

// BidderCount returns how many guests in the event hold a number.
func (s *BidderService) BidderCount(ctx context.Context, eventID string) (int, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}
	return s.store.CountBidders(ctx, eventID)
}

// ValidateBidderNumberUniqueness fails with ErrBidderTaken when number is
// already held in the event. It is a pre-check for manual number entry.
func (s *BidderService) ValidateBidderNumberUniqueness(ctx context.Context, eventID string, number int) error {
	if err := allocation.ValidateBidderNumber(number); err != nil {
		return err
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return err
	}
	holder, err := s.store.GuestByBidderNumber(ctx, eventID, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &allocation.RuleError{
		Kind: allocation.ErrBidderTaken,
		Msg:  fmt.Sprintf("bidder number %d is already assigned to guest %s", number, holder.ID),
	}
}

// ReassignBidderNumber moves the guest to number.
//
// When another guest holds number, that holder is not rejected but bumped:
// they get the lowest number free before this call, which excludes both
// number and the requester's old number, and the requester takes number.
// With all 900 numbers held the holder gets the requester's old number.
// Both rows change in one transaction. PreviousHolderID in the result names
// the bumped guest so the caller can notify them.
func (s *BidderService) ReassignBidderNumber(ctx context.Context, eventID, guestID string, number int) (*model.BidderReassignment, error) {
	defer metrics.ObserveSince("reassign_bidder_number", time.Now())
	if err := allocation.ValidateBidderNumber(number); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	result := &model.BidderReassignment{GuestID: guestID, BidderNumber: number}
	err := s.store.WithinEvent(ctx, eventID, func(tx repository.Tx, _ *model.Event) error {
		g, err := activeGuest(ctx, tx, eventID, guestID)
		if err != nil {
			return err
		}
		if g.BidderNumber != nil && *g.BidderNumber == number {
			return nil
		}

		holder, err := tx.GuestByBidderNumber(ctx, eventID, number)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return tx.SetBidderNumber(ctx, guestID, &number)
		case err != nil:
			return err
		}

		held, err := tx.HeldBidderNumbers(ctx, eventID)
		if err != nil {
			return err
		}
		replacement, err := allocation.NextAvailable(held)
		switch {
		case err == nil:
			// Move the holder off number first so the unique index never sees two holders.
			if err := tx.SetBidderNumber(ctx, holder.ID, &replacement); err != nil {
				return err
			}
		case errors.Is(err, allocation.ErrBidderExhausted) && g.BidderNumber != nil:
			// Every number is held, so the holder takes the requester's old one.
			// The requester is cleared first to free it.
			replacement = *g.BidderNumber
			if err := tx.SetBidderNumber(ctx, guestID, nil); err != nil {
				return err
			}
			if err := tx.SetBidderNumber(ctx, holder.ID, &replacement); err != nil {
				return err
			}
		default:
			return err
		}
		if err := tx.SetBidderNumber(ctx, guestID, &number); err != nil {
			return err
		}
		result.PreviousHolderID = &holder.ID
		result.PreviousHolderNumber = &replacement
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.PreviousHolderID == nil {
		s.log.Info("bidder number reassigned",
			zap.String("event_id", eventID),
			zap.String("guest_id", guestID),
			zap.Int("bidder_number", number))
		return result, nil
	}

	metrics.BidderNumberSwaps.Inc()
	s.log.Info("bidder number reassigned with swap",
		zap.String("event_id", eventID),
		zap.String("guest_id", guestID),
		zap.Int("bidder_number", number),
		zap.String("previous_holder_id", *result.PreviousHolderID),
		zap.Int("previous_holder_number", *result.PreviousHolderNumber))

	err = s.pub.Publish(ctx, notify.Notification{
		Type:    notify.TypeBidderNumberBumped,
		EventID: eventID,
		Data: notify.BidderBumped{
			GuestID:        *result.PreviousHolderID,
			PreviousNumber: number,
			NewNumber:      *result.PreviousHolderNumber,
			TakenByGuestID: guestID,
		},
	})
	if err != nil {
		s.log.Warn("publish bumped bidder notification failed",
			zap.String("event_id", eventID), zap.Error(err))
	}
	return result, nil
}

// HandleRegistrationCancellation clears the guest's bidder number, returning
// it to the gap pool. Other guests are unaffected.
func (s *BidderService) HandleRegistrationCancellation(ctx context.Context, guestID string) (*model.Guest, error) {
	g, err := s.store.GetGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var released *int
	err = s.store.WithinEvent(ctx, g.EventID, func(tx repository.Tx, _ *model.Event) error {
		cur, err := tx.GetGuest(ctx, guestID)
		if err != nil {
			return err
		}
		g = cur
		released, err = releaseBidderNumber(ctx, tx, cur)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordRelease(s.log, g.EventID, guestID, released)
	g.BidderNumber = nil
	return g, nil
}

// releaseBidderNumber clears g's number inside tx and returns the number it
// held, or nil.
func releaseBidderNumber(ctx context.Context, tx repository.Tx, g *model.Guest) (*int, error) {
	if g.BidderNumber == nil {
		return nil, nil
	}
	released := *g.BidderNumber
	if err := tx.SetBidderNumber(ctx, g.ID, nil); err != nil {
		return nil, err
	}
	return &released, nil
}

// recordRelease runs after commit.
func recordRelease(log *zap.Logger, eventID, guestID string, released *int) {
	if released == nil {
		return
	}
	metrics.BidderNumbersReleased.Inc()
	log.Info("bidder number released",
		zap.String("event_id", eventID),
		zap.String("guest_id", guestID),
		zap.Int("bidder_number", *released))
}

// ReleaseBidderNumber is HandleRegistrationCancellation scoped to an event.
func (s *BidderService) ReleaseBidderNumber(ctx context.Context, eventID, guestID string) (*model.Guest, error) {
	if err := guestInEvent(ctx, s.store, eventID, guestID); err != nil {
		return nil, err
	}
	return s.HandleRegistrationCancellation(ctx, guestID)
}
