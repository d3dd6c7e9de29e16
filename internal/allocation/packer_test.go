package allocation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/model"
)

// party builds size guests for registration reg; the first is primary.
func party(reg string, size int) []model.Guest {
	guests := make([]model.Guest, size)
	for i := range guests {
		guests[i] = model.Guest{
			ID:             fmt.Sprintf("%s-g%d", reg, i),
			RegistrationID: reg,
			IsPrimary:      i == 0,
		}
	}
	return guests
}

func concat(parts ...[]model.Guest) []model.Guest {
	var out []model.Guest
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func tablesByGuest(plan Plan) map[string]int {
	out := make(map[string]int, len(plan.Placements))
	for _, p := range plan.Placements {
		out[p.GuestID] = p.TableNumber
	}
	return out
}

func TestPack_LargestFirst(t *testing.T) {
	guests := concat(party("small", 2), party("mid", 3), party("big", 4))

	plan := Pack(guests, nil, 2, 5)

	assert.Len(t, plan.Placements, 9)
	assert.Empty(t, plan.Unassigned)
	assert.Empty(t, plan.Warnings)
	assert.Equal(t, "big", plan.Placements[0].RegistrationID)

	seats := tablesByGuest(plan)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 1, seats[fmt.Sprintf("big-g%d", i)])
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, 2, seats[fmt.Sprintf("mid-g%d", i)])
	}
	for i := 0; i < 2; i++ {
		assert.Equal(t, 2, seats[fmt.Sprintf("small-g%d", i)])
	}
}

func TestPack_PartyStaysTogetherAndPrimaryIsCaptain(t *testing.T) {
	guests := party("r1", 4)

	plan := Pack(guests, map[int]int{1: 6}, 3, 8)

	require.Len(t, plan.Placements, 4)
	captains := 0
	for _, p := range plan.Placements {
		assert.Equal(t, 2, p.TableNumber)
		if p.Captain {
			captains++
			assert.Equal(t, "r1-g0", p.GuestID)
		}
	}
	assert.Equal(t, 1, captains)
}

func TestPack_SplitsWhenNoTableFits(t *testing.T) {
	guests := party("r1", 6)

	plan := Pack(guests, map[int]int{1: 1, 2: 2}, 2, 4)

	require.Len(t, plan.Placements, 3+2)
	seats := tablesByGuest(plan)
	assert.Equal(t, 1, seats["r1-g0"])
	assert.Equal(t, 1, seats["r1-g2"])
	assert.Equal(t, 2, seats["r1-g3"])
	assert.Equal(t, []string{"r1-g5"}, plan.Unassigned)
	require.Len(t, plan.Warnings, 2)
	assert.Contains(t, plan.Warnings[0], "split across tables 1, 2")
	assert.Contains(t, plan.Warnings[1], "No capacity for 1 of 6 guests")
}

func TestPack_PrimarySeatedFirstInSplit(t *testing.T) {
	guests := party("r1", 3)
	// Put the primary last in input order.
	guests[0], guests[2] = guests[2], guests[0]

	plan := Pack(guests, nil, 2, 2)

	require.Len(t, plan.Placements, 3)
	assert.Equal(t, "r1-g0", plan.Placements[0].GuestID)
	assert.True(t, plan.Placements[0].Captain)
	assert.Equal(t, 1, plan.Placements[0].TableNumber)
}

func TestPack_NoCapacity(t *testing.T) {
	guests := party("r1", 2)

	plan := Pack(guests, map[int]int{1: 4}, 1, 4)

	assert.Empty(t, plan.Placements)
	assert.ElementsMatch(t, []string{"r1-g0", "r1-g1"}, plan.Unassigned)
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "No capacity for 2 of 2")
}

func TestPack_OverfilledTableTreatedAsFull(t *testing.T) {
	guests := party("r1", 1)

	plan := Pack(guests, map[int]int{1: 9}, 2, 8)

	require.Len(t, plan.Placements, 1)
	assert.Equal(t, 2, plan.Placements[0].TableNumber)
}

func TestPack_EqualSizesKeepArrivalOrder(t *testing.T) {
	guests := concat(party("first", 2), party("second", 2))

	plan := Pack(guests, nil, 2, 2)

	seats := tablesByGuest(plan)
	assert.Equal(t, 1, seats["first-g0"])
	assert.Equal(t, 2, seats["second-g0"])
}

func TestPack_Empty(t *testing.T) {
	plan := Pack(nil, nil, 5, 5)
	assert.Empty(t, plan.Placements)
	assert.Empty(t, plan.Unassigned)
	assert.Empty(t, plan.Warnings)
}

func TestGroupParties(t *testing.T) {
	guests := []model.Guest{
		{ID: "a1", RegistrationID: "a"},
		{ID: "b1", RegistrationID: "b", IsPrimary: true},
		{ID: "a2", RegistrationID: "a", IsPrimary: true},
	}

	parties := GroupParties(guests)

	require.Len(t, parties, 2)
	assert.Equal(t, "a", parties[0].RegistrationID)
	assert.Equal(t, "a2", parties[0].Guests[0].ID)
	assert.Equal(t, "a1", parties[0].Guests[1].ID)
	assert.Equal(t, "b", parties[1].RegistrationID)
}
