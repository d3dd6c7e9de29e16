package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
)

func intPtr(v int) *int { return &v }

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, store.CreateEvent(ctx, &model.Event{
		ID: "evt-1", Name: "Gala", TableCount: intPtr(2), MaxGuestsPerTable: intPtr(4), CreatedAt: now,
	}))
	require.NoError(t, store.CreateRegistration(ctx, &model.Registration{
		ID: "reg-1", EventID: "evt-1", PurchaserEmail: "a@example.org", CreatedAt: now,
		Guests: []model.Guest{
			{ID: "g1", RegistrationID: "reg-1", EventID: "evt-1", IsPrimary: true, BidderNumber: intPtr(100), CreatedAt: now},
			{ID: "g2", RegistrationID: "reg-1", EventID: "evt-1", TableNumber: intPtr(1), CreatedAt: now.Add(time.Second)},
		},
	}))
	return store
}

func TestMemoryStore_WithinEvent_CommitsOnSuccess(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	err := store.WithinEvent(ctx, "evt-1", func(tx Tx, event *model.Event) error {
		assert.Equal(t, "Gala", event.Name)
		return tx.SetBidderNumber(ctx, "g2", intPtr(101))
	})
	require.NoError(t, err)

	held, err := store.HeldBidderNumbers(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 101}, held)
}

func TestMemoryStore_WithinEvent_RollsBackOnError(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinEvent(ctx, "evt-1", func(tx Tx, _ *model.Event) error {
		require.NoError(t, tx.SetBidderNumber(ctx, "g1", intPtr(500)))
		require.NoError(t, tx.SetBidderNumber(ctx, "g2", intPtr(100)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	g1, err := store.GetGuest(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 100, *g1.BidderNumber)
	g2, err := store.GetGuest(ctx, "g2")
	require.NoError(t, err)
	assert.Nil(t, g2.BidderNumber)
}

func TestMemoryStore_WithinEvent_CancelledContextDiscardsWrites(t *testing.T) {
	store := seedStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := store.WithinEvent(ctx, "evt-1", func(tx Tx, _ *model.Event) error {
		cancel()
		return tx.SetTableNumber(ctx, "g1", intPtr(2))
	})
	assert.ErrorIs(t, err, context.Canceled)

	g1, err := store.GetGuest(context.Background(), "g1")
	require.NoError(t, err)
	assert.Nil(t, g1.TableNumber)
}

func TestMemoryStore_WithinEvent_UnknownEvent(t *testing.T) {
	store := seedStore(t)
	err := store.WithinEvent(context.Background(), "nope", func(Tx, *model.Event) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CancelledGuestsAreInvisible(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithinEvent(ctx, "evt-1", func(tx Tx, _ *model.Event) error {
		return tx.CancelGuest(ctx, "g2", time.Now())
	}))

	occ, err := store.TableOccupancy(ctx, "evt-1", 1, "")
	require.NoError(t, err)
	assert.Equal(t, 0, occ)

	guests, err := store.ListGuests(ctx, "evt-1")
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "g1", guests[0].ID)

	g2, err := store.GetGuest(ctx, "g2")
	require.NoError(t, err)
	assert.True(t, g2.Cancelled())
	assert.Nil(t, g2.TableNumber)
}

func TestMemoryStore_Queries(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	unassigned, err := store.UnassignedGuests(ctx, "evt-1")
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, "g1", unassigned[0].ID)

	occ, err := store.TableOccupancy(ctx, "evt-1", 1, "g2")
	require.NoError(t, err)
	assert.Equal(t, 0, occ)

	occs, err := store.TableOccupancies(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1}, occs)

	holder, err := store.GuestByBidderNumber(ctx, "evt-1", 100)
	require.NoError(t, err)
	assert.Equal(t, "g1", holder.ID)

	_, err = store.GuestByBidderNumber(ctx, "evt-1", 101)
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := store.CountBidders(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	regs, err := store.ListRegistrations(ctx, "evt-1")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Len(t, regs[0].Guests, 2)
}
