//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/allocation"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/config"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/database"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
)

func testEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testPool connects to TEST_DB_* and applies migrations, or skips.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg := config.Database{
		Host:     testEnv("TEST_DB_HOST", "localhost"),
		Port:     testEnv("TEST_DB_PORT", "5432"),
		User:     testEnv("TEST_DB_USER", "postgres"),
		Password: testEnv("TEST_DB_PASSWORD", "postgres"),
		DBName:   testEnv("TEST_DB_NAME", "eventseating_test"),
		SSLMode:  testEnv("TEST_DB_SSLMODE", "disable"),
		MaxConns: 10,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pool, err := database.NewPool(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
	}
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(context.Background(), pool))
	return pool
}

func seedPostgres(t *testing.T, store *PostgresStore, guests int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	event := &model.Event{ID: uuid.NewString(), Name: "Integration Gala", TableCount: intPtr(2), MaxGuestsPerTable: intPtr(3), CreatedAt: now}
	require.NoError(t, store.CreateEvent(ctx, event))
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM events WHERE id = $1`, event.ID)
	})

	reg := &model.Registration{ID: uuid.NewString(), EventID: event.ID, PurchaserEmail: "it@example.org", CreatedAt: now}
	ids := make([]string, guests)
	for i := range ids {
		ids[i] = uuid.NewString()
		reg.Guests = append(reg.Guests, model.Guest{
			ID: ids[i], RegistrationID: reg.ID, EventID: event.ID, Name: "Guest",
			IsPrimary: i == 0, CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}
	require.NoError(t, store.CreateRegistration(ctx, reg))
	return event.ID, ids
}

func TestPostgresStore_WithinEvent_SerializesAllocation(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	eventID, guests := seedPostgres(t, store, 20)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, len(guests))
	for i, id := range guests {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = store.WithinEvent(ctx, eventID, func(tx Tx, _ *model.Event) error {
				held, err := tx.HeldBidderNumbers(ctx, eventID)
				if err != nil {
					return err
				}
				n, err := allocation.NextAvailable(held)
				if err != nil {
					return err
				}
				return tx.SetBidderNumber(ctx, id, &n)
			})
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	held, err := store.HeldBidderNumbers(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, held, 20)
	for i, n := range held {
		assert.Equal(t, 100+i, n)
	}
}

func TestPostgresStore_UniqueBidderIndex(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	eventID, guests := seedPostgres(t, store, 2)
	ctx := context.Background()

	err := store.WithinEvent(ctx, eventID, func(tx Tx, _ *model.Event) error {
		if err := tx.SetBidderNumber(ctx, guests[0], intPtr(150)); err != nil {
			return err
		}
		return tx.SetBidderNumber(ctx, guests[1], intPtr(150))
	})
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr), "expected a postgres error, got %v", err)
	assert.Equal(t, "23505", pgErr.Code)

	// The whole transaction rolled back.
	count, err := store.CountBidders(ctx, eventID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPostgresStore_OccupancyAndCancel(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	eventID, guests := seedPostgres(t, store, 3)
	ctx := context.Background()

	require.NoError(t, store.WithinEvent(ctx, eventID, func(tx Tx, _ *model.Event) error {
		for _, id := range guests {
			if err := tx.SetTableNumber(ctx, id, intPtr(1)); err != nil {
				return err
			}
		}
		if err := tx.MarkTableCaptain(ctx, guests[0]); err != nil {
			return err
		}
		return tx.SetBidderNumber(ctx, guests[1], intPtr(100))
	}))

	occ, err := store.TableOccupancy(ctx, eventID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 3, occ)
	occ, err = store.TableOccupancy(ctx, eventID, 1, guests[0])
	require.NoError(t, err)
	assert.Equal(t, 2, occ)

	require.NoError(t, store.WithinEvent(ctx, eventID, func(tx Tx, _ *model.Event) error {
		return tx.CancelGuest(ctx, guests[1], time.Now().UTC())
	}))

	occupancies, err := store.TableOccupancies(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2}, occupancies)

	held, err := store.HeldBidderNumbers(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, held)

	g, err := store.GetGuest(ctx, guests[1])
	require.NoError(t, err)
	assert.True(t, g.Cancelled())
	assert.Nil(t, g.TableNumber)

	captain, err := store.GetGuest(ctx, guests[0])
	require.NoError(t, err)
	assert.True(t, captain.IsTableCaptain)
}

func TestPostgresStore_NotFound(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()

	_, err := store.GetEvent(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.WithinEvent(ctx, uuid.NewString(), func(Tx, *model.Event) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetGuest(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
