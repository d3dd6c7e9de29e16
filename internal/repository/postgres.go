package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, so the same queries
// run inside and outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const eventColumns = `id, name, description, table_count, max_guests_per_table, created_at`

const guestColumns = `id, registration_id, event_id, name, email, is_primary, is_table_captain,
	table_number, bidder_number, cancelled_at, created_at`

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	queries
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{queries: queries{db: pool}, pool: pool}
}

// WithinEvent serialises allocation work per event.
//
// SELECT ... FOR UPDATE on the event row is taken first. Every assignment,
// reassignment, release and auto-assign for the event goes through here, so a
// second transaction blocks on that row until the first commits or rolls
// back. The scan of held numbers or table occupancy that follows therefore
// always sees the previous writer's result, and two requests can never both
// pick the same "lowest available" number or both squeeze into the last seat.
func (s *PostgresStore) WithinEvent(ctx context.Context, eventID string, fn func(tx Tx, event *model.Event) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	event, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if err = fn(&pgTx{queries{db: tx}}, event); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateEvent inserts a new event.
func (s *PostgresStore) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, name, description, table_count, max_guests_per_table, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Description, e.TableCount, e.MaxGuestsPerTable, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns all events ordered by creation time descending.
func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CreateRegistration inserts a registration and all of its guests atomically.
func (s *PostgresStore) CreateRegistration(ctx context.Context, reg *model.Registration) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, purchaser_email, created_at)
		 VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.EventID, reg.PurchaserEmail, reg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	for i := range reg.Guests {
		if err = insertGuest(ctx, tx, &reg.Guests[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetRegistration returns a registration without its guests.
func (s *PostgresStore) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	var reg model.Registration
	err := s.pool.QueryRow(ctx,
		`SELECT id, event_id, purchaser_email, created_at FROM registrations WHERE id = $1`,
		id,
	).Scan(&reg.ID, &reg.EventID, &reg.PurchaserEmail, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

// ListRegistrations returns an event's registrations with their active guests.
func (s *PostgresStore) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, purchaser_email, created_at
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	index := make(map[string]int)
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.PurchaserEmail, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		index[reg.ID] = len(regs)
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	guests, err := s.ListGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, g := range guests {
		if i, ok := index[g.RegistrationID]; ok {
			regs[i].Guests = append(regs[i].Guests, g)
		}
	}
	return regs, nil
}

// AddGuest inserts one guest into an existing registration.
func (s *PostgresStore) AddGuest(ctx context.Context, g *model.Guest) error {
	return insertGuest(ctx, s.pool, g)
}

func insertGuest(ctx context.Context, db dbtx, g *model.Guest) error {
	_, err := db.Exec(ctx,
		`INSERT INTO guests (id, registration_id, event_id, name, email, is_primary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.RegistrationID, g.EventID, g.Name, g.Email, g.IsPrimary, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}
	return nil
}

// queries implements Reader on top of any dbtx.
type queries struct {
	db dbtx
}

func (q queries) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(q.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (q queries) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
	g, err := scanGuest(q.db.QueryRow(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	return g, nil
}

func (q queries) ListGuests(ctx context.Context, eventID string) ([]model.Guest, error) {
	return q.listGuests(ctx,
		`SELECT `+guestColumns+` FROM guests
		 WHERE event_id = $1 AND cancelled_at IS NULL
		 ORDER BY created_at ASC, id ASC`, eventID)
}

func (q queries) UnassignedGuests(ctx context.Context, eventID string) ([]model.Guest, error) {
	return q.listGuests(ctx,
		`SELECT `+guestColumns+` FROM guests
		 WHERE event_id = $1 AND cancelled_at IS NULL AND table_number IS NULL
		 ORDER BY created_at ASC, id ASC`, eventID)
}

func (q queries) listGuests(ctx context.Context, sql string, args ...any) ([]model.Guest, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var guests []model.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

func (q queries) HeldBidderNumbers(ctx context.Context, eventID string) ([]int, error) {
	rows, err := q.db.Query(ctx,
		`SELECT bidder_number FROM guests
		 WHERE event_id = $1 AND bidder_number IS NOT NULL AND cancelled_at IS NULL
		 ORDER BY bidder_number ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bidder numbers: %w", err)
	}
	defer rows.Close()

	held := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan bidder number: %w", err)
		}
		held = append(held, n)
	}
	return held, rows.Err()
}

func (q queries) GuestByBidderNumber(ctx context.Context, eventID string, number int) (*model.Guest, error) {
	g, err := scanGuest(q.db.QueryRow(ctx,
		`SELECT `+guestColumns+` FROM guests
		 WHERE event_id = $1 AND bidder_number = $2 AND cancelled_at IS NULL`,
		eventID, number,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get guest by bidder number: %w", err)
	}
	return g, nil
}

func (q queries) CountBidders(ctx context.Context, eventID string) (int, error) {
	var n int
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM guests
		 WHERE event_id = $1 AND bidder_number IS NOT NULL AND cancelled_at IS NULL`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bidders: %w", err)
	}
	return n, nil
}

func (q queries) TableOccupancy(ctx context.Context, eventID string, table int, excludeGuestID string) (int, error) {
	var n int
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM guests
		 WHERE event_id = $1 AND table_number = $2 AND cancelled_at IS NULL
		   AND ($3 = '' OR id <> $3)`,
		eventID, table, excludeGuestID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count table occupancy: %w", err)
	}
	return n, nil
}

func (q queries) TableOccupancies(ctx context.Context, eventID string) (map[int]int, error) {
	rows, err := q.db.Query(ctx,
		`SELECT table_number, COUNT(*) FROM guests
		 WHERE event_id = $1 AND table_number IS NOT NULL AND cancelled_at IS NULL
		 GROUP BY table_number`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("count occupancies: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var table, n int
		if err := rows.Scan(&table, &n); err != nil {
			return nil, fmt.Errorf("scan occupancy: %w", err)
		}
		out[table] = n
	}
	return out, rows.Err()
}

// pgTx adds the write operations available inside WithinEvent.
type pgTx struct {
	queries
}

func (t *pgTx) SetBidderNumber(ctx context.Context, guestID string, number *int) error {
	return t.updateGuest(ctx, `UPDATE guests SET bidder_number = $2 WHERE id = $1`, guestID, number)
}

func (t *pgTx) SetTableNumber(ctx context.Context, guestID string, table *int) error {
	return t.updateGuest(ctx, `UPDATE guests SET table_number = $2 WHERE id = $1`, guestID, table)
}

func (t *pgTx) MarkTableCaptain(ctx context.Context, guestID string) error {
	return t.updateGuest(ctx, `UPDATE guests SET is_table_captain = TRUE WHERE id = $1`, guestID)
}

func (t *pgTx) CancelGuest(ctx context.Context, guestID string, at time.Time) error {
	return t.updateGuest(ctx,
		`UPDATE guests
		 SET cancelled_at = $2, table_number = NULL, bidder_number = NULL, is_table_captain = FALSE
		 WHERE id = $1`,
		guestID, at)
}

func (t *pgTx) UpdateSeatingConfig(ctx context.Context, eventID string, tableCount, maxGuestsPerTable *int) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE events SET table_count = $2, max_guests_per_table = $3 WHERE id = $1`,
		eventID, tableCount, maxGuestsPerTable,
	)
	if err != nil {
		return fmt.Errorf("update seating config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) updateGuest(ctx context.Context, sql string, args ...any) error {
	tag, err := t.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update guest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.TableCount, &e.MaxGuestsPerTable, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanGuest(row pgx.Row) (*model.Guest, error) {
	var g model.Guest
	err := row.Scan(&g.ID, &g.RegistrationID, &g.EventID, &g.Name, &g.Email, &g.IsPrimary,
		&g.IsTableCaptain, &g.TableNumber, &g.BidderNumber, &g.CancelledAt, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
