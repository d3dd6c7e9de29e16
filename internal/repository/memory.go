package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
)

// MemoryStore is an in-process Store used by tests and when STORE=memory.
// WithinEvent holds the write lock for the whole callback and works on a
// copy of the state, which replaces the live state only when fn succeeds.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

type memState struct {
	events        map[string]model.Event
	registrations map[string]model.Registration
	guests        map[string]model.Guest
	// guestOrder is insertion order, used as the created_at tiebreaker.
	guestOrder []string
}

func newMemState() *memState {
	return &memState{
		events:        map[string]model.Event{},
		registrations: map[string]model.Registration{},
		guests:        map[string]model.Guest{},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		events:        make(map[string]model.Event, len(s.events)),
		registrations: make(map[string]model.Registration, len(s.registrations)),
		guests:        make(map[string]model.Guest, len(s.guests)),
		guestOrder:    append([]string(nil), s.guestOrder...),
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.registrations {
		c.registrations[k] = v
	}
	for k, v := range s.guests {
		c.guests[k] = v
	}
	return c
}

func (r *MemoryStore) reader() memReader {
	return memReader{st: r.state}
}

func (r *MemoryStore) WithinEvent(ctx context.Context, eventID string, fn func(tx Tx, event *model.Event) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	e, ok := r.state.events[eventID]
	if !ok {
		return ErrNotFound
	}

	work := r.state.clone()
	if err := fn(&memTx{memReader{st: work}}, &e); err != nil {
		return err
	}
	// A cancelled or expired context discards the work, like a rolled back transaction.
	if err := ctx.Err(); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *MemoryStore) CreateEvent(_ context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.events[e.ID] = *e
	return nil
}

func (r *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]model.Event, 0, len(r.state.events))
	for _, e := range r.state.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (r *MemoryStore) CreateRegistration(_ context.Context, reg *model.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *reg
	stored.Guests = nil
	r.state.registrations[reg.ID] = stored
	for _, g := range reg.Guests {
		r.state.addGuest(g)
	}
	return nil
}

func (r *MemoryStore) GetRegistration(_ context.Context, id string) (*model.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.state.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &reg, nil
}

func (r *MemoryStore) ListRegistrations(_ context.Context, eventID string) ([]model.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var regs []model.Registration
	index := map[string]int{}
	for _, reg := range r.state.registrations {
		if reg.EventID != eventID {
			continue
		}
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	for i := range regs {
		index[regs[i].ID] = i
	}
	for _, g := range r.reader().filter(eventID, func(model.Guest) bool { return true }) {
		if i, ok := index[g.RegistrationID]; ok {
			regs[i].Guests = append(regs[i].Guests, g)
		}
	}
	return regs, nil
}

func (r *MemoryStore) AddGuest(_ context.Context, g *model.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.addGuest(*g)
	return nil
}

func (s *memState) addGuest(g model.Guest) {
	if _, exists := s.guests[g.ID]; !exists {
		s.guestOrder = append(s.guestOrder, g.ID)
	}
	s.guests[g.ID] = g
}

// The Reader methods of MemoryStore take the read lock and delegate to memReader.

func (r *MemoryStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().GetEvent(ctx, id)
}

func (r *MemoryStore) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().GetGuest(ctx, id)
}

func (r *MemoryStore) ListGuests(ctx context.Context, eventID string) ([]model.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().ListGuests(ctx, eventID)
}

func (r *MemoryStore) HeldBidderNumbers(ctx context.Context, eventID string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().HeldBidderNumbers(ctx, eventID)
}

func (r *MemoryStore) GuestByBidderNumber(ctx context.Context, eventID string, number int) (*model.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().GuestByBidderNumber(ctx, eventID, number)
}

func (r *MemoryStore) CountBidders(ctx context.Context, eventID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().CountBidders(ctx, eventID)
}

func (r *MemoryStore) TableOccupancy(ctx context.Context, eventID string, table int, excludeGuestID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().TableOccupancy(ctx, eventID, table, excludeGuestID)
}

func (r *MemoryStore) TableOccupancies(ctx context.Context, eventID string) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().TableOccupancies(ctx, eventID)
}

func (r *MemoryStore) UnassignedGuests(ctx context.Context, eventID string) ([]model.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader().UnassignedGuests(ctx, eventID)
}

// memReader implements Reader over a memState. Callers hold the lock.
type memReader struct {
	st *memState
}

func (q memReader) GetEvent(_ context.Context, id string) (*model.Event, error) {
	e, ok := q.st.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (q memReader) GetGuest(_ context.Context, id string) (*model.Guest, error) {
	g, ok := q.st.guests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

// filter returns the event's active guests matching keep, in insertion order.
func (q memReader) filter(eventID string, keep func(model.Guest) bool) []model.Guest {
	var out []model.Guest
	for _, id := range q.st.guestOrder {
		g := q.st.guests[id]
		if g.EventID != eventID || g.Cancelled() || !keep(g) {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (q memReader) ListGuests(_ context.Context, eventID string) ([]model.Guest, error) {
	return q.filter(eventID, func(model.Guest) bool { return true }), nil
}

func (q memReader) HeldBidderNumbers(_ context.Context, eventID string) ([]int, error) {
	held := []int{}
	for _, g := range q.filter(eventID, func(g model.Guest) bool { return g.BidderNumber != nil }) {
		held = append(held, *g.BidderNumber)
	}
	sort.Ints(held)
	return held, nil
}

func (q memReader) GuestByBidderNumber(_ context.Context, eventID string, number int) (*model.Guest, error) {
	found := q.filter(eventID, func(g model.Guest) bool {
		return g.BidderNumber != nil && *g.BidderNumber == number
	})
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (q memReader) CountBidders(ctx context.Context, eventID string) (int, error) {
	held, _ := q.HeldBidderNumbers(ctx, eventID)
	return len(held), nil
}

func (q memReader) TableOccupancy(_ context.Context, eventID string, table int, excludeGuestID string) (int, error) {
	return len(q.filter(eventID, func(g model.Guest) bool {
		return g.TableNumber != nil && *g.TableNumber == table && g.ID != excludeGuestID
	})), nil
}

func (q memReader) TableOccupancies(_ context.Context, eventID string) (map[int]int, error) {
	out := map[int]int{}
	for _, g := range q.filter(eventID, func(g model.Guest) bool { return g.TableNumber != nil }) {
		out[*g.TableNumber]++
	}
	return out, nil
}

func (q memReader) UnassignedGuests(_ context.Context, eventID string) ([]model.Guest, error) {
	return q.filter(eventID, func(g model.Guest) bool { return g.TableNumber == nil }), nil
}

// memTx adds writes on the transaction's private copy.
type memTx struct {
	memReader
}

func (t *memTx) update(guestID string, mutate func(g *model.Guest)) error {
	g, ok := t.st.guests[guestID]
	if !ok {
		return ErrNotFound
	}
	mutate(&g)
	t.st.guests[guestID] = g
	return nil
}

func (t *memTx) SetBidderNumber(_ context.Context, guestID string, number *int) error {
	return t.update(guestID, func(g *model.Guest) { g.BidderNumber = copyInt(number) })
}

func (t *memTx) SetTableNumber(_ context.Context, guestID string, table *int) error {
	return t.update(guestID, func(g *model.Guest) { g.TableNumber = copyInt(table) })
}

func (t *memTx) MarkTableCaptain(_ context.Context, guestID string) error {
	return t.update(guestID, func(g *model.Guest) { g.IsTableCaptain = true })
}

func (t *memTx) CancelGuest(_ context.Context, guestID string, at time.Time) error {
	return t.update(guestID, func(g *model.Guest) {
		g.CancelledAt = &at
		g.TableNumber = nil
		g.BidderNumber = nil
		g.IsTableCaptain = false
	})
}

func (t *memTx) UpdateSeatingConfig(_ context.Context, eventID string, tableCount, maxGuestsPerTable *int) error {
	e, ok := t.st.events[eventID]
	if !ok {
		return ErrNotFound
	}
	e.TableCount = copyInt(tableCount)
	e.MaxGuestsPerTable = copyInt(maxGuestsPerTable)
	t.st.events[eventID] = e
	return nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
