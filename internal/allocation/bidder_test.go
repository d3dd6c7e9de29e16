package allocation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAvailable_Empty(t *testing.T) {
	n, err := NextAvailable(nil)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestNextAvailable_FillsGapsFirst(t *testing.T) {
	held := []int{104, 100, 102}

	n, err := NextAvailable(held)
	require.NoError(t, err)
	assert.Equal(t, 101, n)

	held = append(held, n)
	n, err = NextAvailable(held)
	require.NoError(t, err)
	assert.Equal(t, 103, n)

	held = append(held, n)
	n, err = NextAvailable(held)
	require.NoError(t, err)
	assert.Equal(t, 105, n)
}

func TestNextAvailable_Exhausted(t *testing.T) {
	held := make([]int, 0, BidderCapacity)
	for n := MinBidderNumber; n <= MaxBidderNumber; n++ {
		held = append(held, n)
	}

	_, err := NextAvailable(held)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBidderExhausted))
	assert.Contains(t, err.Error(), "900")
}

func TestNextAvailable_LastNumber(t *testing.T) {
	held := make([]int, 0, BidderCapacity)
	for n := MinBidderNumber; n < MaxBidderNumber; n++ {
		held = append(held, n)
	}

	n, err := NextAvailable(held)
	require.NoError(t, err)
	assert.Equal(t, 999, n)
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, []int{101, 103, 105, 106, 107}, Available([]int{100, 102, 104}, 5))
	assert.Equal(t, []int{100, 101, 102}, Available(nil, 3))
	assert.Equal(t, []int{}, Available([]int{100}, 0))
}

func TestAvailable_IgnoresDuplicatesAndOutOfRange(t *testing.T) {
	got := Available([]int{5, 100, 100, 1200, 101}, 2)
	assert.Equal(t, []int{102, 103}, got)
}

func TestAvailable_CappedByKeyspace(t *testing.T) {
	got := Available(nil, 5000)
	assert.Len(t, got, BidderCapacity)
	assert.Equal(t, 999, got[len(got)-1])
}

func TestValidateBidderNumber(t *testing.T) {
	assert.NoError(t, ValidateBidderNumber(100))
	assert.NoError(t, ValidateBidderNumber(999))

	for _, n := range []int{0, 99, 1000, -5} {
		err := ValidateBidderNumber(n)
		require.Error(t, err, "n=%d", n)
		assert.True(t, errors.Is(err, ErrBidderOutOfRange))
	}
}
