package allocation

import "sort"

// Bidder numbers per event live in [MinBidderNumber, MaxBidderNumber].
const (
	MinBidderNumber = 100
	MaxBidderNumber = 999

	// BidderCapacity is the maximum number of distinct holders per event.
	BidderCapacity = MaxBidderNumber - MinBidderNumber + 1
)

// ValidateBidderNumber fails when n lies outside the bidder keyspace.
func ValidateBidderNumber(n int) error {
	if n < MinBidderNumber || n > MaxBidderNumber {
		return violation(ErrBidderOutOfRange, "bidder number %d is not between %d and %d", n, MinBidderNumber, MaxBidderNumber)
	}
	return nil
}

// NextAvailable returns the lowest number >= MinBidderNumber not present in
// held. Released numbers are therefore reused before the range is extended.
// It returns ErrBidderExhausted when every number up to MaxBidderNumber is held.
func NextAvailable(held []int) (int, error) {
	free := Available(held, 1)
	if len(free) == 0 {
		return 0, violation(ErrBidderExhausted, "all %d bidder numbers (%d-%d) are assigned", BidderCapacity, MinBidderNumber, MaxBidderNumber)
	}
	return free[0], nil
}

// Available returns up to limit unheld numbers in ascending order, gaps first.
// held need not be sorted or deduplicated; values outside the keyspace are ignored.
func Available(held []int, limit int) []int {
	if limit <= 0 {
		return []int{}
	}
	sorted := append([]int(nil), held...)
	sort.Ints(sorted)

	out := make([]int, 0, min(limit, BidderCapacity))
	i := 0
	for n := MinBidderNumber; n <= MaxBidderNumber && len(out) < limit; n++ {
		for i < len(sorted) && sorted[i] < n {
			i++
		}
		if i < len(sorted) && sorted[i] == n {
			continue
		}
		out = append(out, n)
	}
	return out
}
