package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/allocation"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/metrics"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/notify"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/repository"
)

// AutoAssigner bulk-seats every unassigned guest of an event.
type AutoAssigner struct {
	store   repository.Store
	pub     notify.Publisher
	log     *zap.Logger
	timeout time.Duration
}

// NewAutoAssigner constructs an AutoAssigner.
func NewAutoAssigner(store repository.Store, pub notify.Publisher, log *zap.Logger, timeout time.Duration) *AutoAssigner {
	return &AutoAssigner{store: store, pub: pub, log: log, timeout: timeout}
}

// AutoAssign packs all unassigned guests into tables, keeping parties
// together where possible (see allocation.Pack). Only currently unassigned
// members of a party are placed; members already seated stay where they are.
//
// The whole pass runs in one transaction under the event lock, which also
// keeps concurrent manual assignments and other auto-assign runs for the
// event out until it commits. Running out of seats is not an error: check
// UnassignedCount and Warnings in the result.
func (a *AutoAssigner) AutoAssign(ctx context.Context, eventID string) (*model.AutoAssignResult, error) {
	defer metrics.ObserveSince("auto_assign", time.Now())
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	result := &model.AutoAssignResult{Assignments: []model.TableAssignment{}, Warnings: []string{}}
	err := a.store.WithinEvent(ctx, eventID, func(tx repository.Tx, event *model.Event) error {
		if !event.SeatingConfigured() {
			return allocation.ErrSeatingNotConfigured
		}
		guests, err := tx.UnassignedGuests(ctx, eventID)
		if err != nil {
			return err
		}
		if len(guests) == 0 {
			return nil
		}
		occupancy, err := tx.TableOccupancies(ctx, eventID)
		if err != nil {
			return err
		}

		seated := 0
		for _, n := range occupancy {
			seated += n
		}
		if free := event.TotalSeats() - seated; free < len(guests) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Event has %d free seats of %d for %d unassigned guests", max(free, 0), event.TotalSeats(), len(guests)))
		}

		plan := allocation.Pack(guests, occupancy, *event.TableCount, *event.MaxGuestsPerTable)
		for _, p := range plan.Placements {
			table := p.TableNumber
			if err := tx.SetTableNumber(ctx, p.GuestID, &table); err != nil {
				return err
			}
			if p.Captain {
				if err := tx.MarkTableCaptain(ctx, p.GuestID); err != nil {
					return err
				}
			}
			result.Assignments = append(result.Assignments, model.TableAssignment{
				GuestID:        p.GuestID,
				RegistrationID: p.RegistrationID,
				TableNumber:    p.TableNumber,
				IsTableCaptain: p.Captain,
			})
		}
		result.AssignedCount = len(plan.Placements)
		result.UnassignedCount = len(plan.Unassigned)
		result.Warnings = append(result.Warnings, plan.Warnings...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.AssignedCount == 0 && result.UnassignedCount == 0 {
		return result, nil
	}

	metrics.AutoAssignGuests.WithLabelValues("assigned").Add(float64(result.AssignedCount))
	metrics.AutoAssignGuests.WithLabelValues("unassigned").Add(float64(result.UnassignedCount))

	fields := []zap.Field{
		zap.String("event_id", eventID),
		zap.Int("assigned_count", result.AssignedCount),
		zap.Int("unassigned_count", result.UnassignedCount),
		zap.Strings("warnings", result.Warnings),
	}
	if result.UnassignedCount > 0 {
		a.log.Warn("auto-assign left guests unseated", fields...)
	} else {
		a.log.Info("auto-assign completed", fields...)
	}

	err = a.pub.Publish(ctx, notify.Notification{
		Type:    notify.TypeSeatingAutoAssign,
		EventID: eventID,
		Data: notify.AutoAssigned{
			AssignedCount:   result.AssignedCount,
			UnassignedCount: result.UnassignedCount,
			Warnings:        len(result.Warnings),
		},
	})
	if err != nil {
		a.log.Warn("publish auto-assign notification failed", zap.String("event_id", eventID), zap.Error(err))
	}
	return result, nil
}
