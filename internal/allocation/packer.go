package allocation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
)

// Party is the set of currently unassigned guests of one registration.
type Party struct {
	RegistrationID string
	Guests         []model.Guest
}

// Placement seats one guest at one table.
type Placement struct {
	GuestID        string
	RegistrationID string
	TableNumber    int
	Captain        bool
}

// Plan is the outcome of packing. Unassigned holds the ids of guests for whom
// no seat remained.
type Plan struct {
	Placements []Placement
	Unassigned []string
	Warnings   []string
}

// GroupParties groups guests by registration. Parties keep the order in which
// their first guest appears, and within a party the primary guest comes first
// so a split seats the purchaser before the rest.
func GroupParties(guests []model.Guest) []Party {
	index := make(map[string]int)
	var parties []Party
	for _, g := range guests {
		i, ok := index[g.RegistrationID]
		if !ok {
			i = len(parties)
			index[g.RegistrationID] = i
			parties = append(parties, Party{RegistrationID: g.RegistrationID})
		}
		parties[i].Guests = append(parties[i].Guests, g)
	}
	for i := range parties {
		sort.SliceStable(parties[i].Guests, func(a, b int) bool {
			return parties[i].Guests[a].IsPrimary && !parties[i].Guests[b].IsPrimary
		})
	}
	return parties
}

// Pack seats unassigned guests with first-fit-decreasing over parties.
//
// Parties are taken largest first. Each party goes whole to the lowest table
// with enough room; failing that it is split across tables in ascending
// order, filling each before moving on. Guests left over once every table is
// full stay unassigned. This is a greedy heuristic, not an optimal packing.
//
// occupancy maps table number to seats already taken and is not modified.
func Pack(guests []model.Guest, occupancy map[int]int, tableCount, capacity int) Plan {
	remaining := make([]int, tableCount+1)
	for t := 1; t <= tableCount; t++ {
		remaining[t] = max(capacity-occupancy[t], 0)
	}

	parties := GroupParties(guests)
	sort.SliceStable(parties, func(i, j int) bool {
		return len(parties[i].Guests) > len(parties[j].Guests)
	})

	plan := Plan{Placements: []Placement{}, Unassigned: []string{}, Warnings: []string{}}
	for _, p := range parties {
		size := len(p.Guests)

		if t := firstFit(remaining, size); t > 0 {
			remaining[t] -= size
			for _, g := range p.Guests {
				plan.Placements = append(plan.Placements, place(g, t))
			}
			continue
		}

		var used []int
		next := 0
		for t := 1; t <= tableCount && next < size; t++ {
			if remaining[t] == 0 {
				continue
			}
			n := min(remaining[t], size-next)
			for _, g := range p.Guests[next : next+n] {
				plan.Placements = append(plan.Placements, place(g, t))
			}
			remaining[t] -= n
			next += n
			used = append(used, t)
		}
		if len(used) > 1 {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"Party %s (%d guests) split across tables %s", p.RegistrationID, size, joinInts(used)))
		}
		if next < size {
			for _, g := range p.Guests[next:] {
				plan.Unassigned = append(plan.Unassigned, g.ID)
			}
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"No capacity for %d of %d guests in party %s", size-next, size, p.RegistrationID))
		}
	}
	return plan
}

func firstFit(remaining []int, size int) int {
	for t := 1; t < len(remaining); t++ {
		if remaining[t] >= size {
			return t
		}
	}
	return 0
}

func place(g model.Guest, table int) Placement {
	return Placement{
		GuestID:        g.ID,
		RegistrationID: g.RegistrationID,
		TableNumber:    table,
		Captain:        g.IsPrimary,
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
