// Package allocation holds the pure seating and bidder-number algorithms:
// seating configuration rules, gap-filling number allocation and the
// first-fit-decreasing table packer. Nothing here touches storage; callers
// feed it a snapshot read inside a locked transaction.
package allocation

import (
	"errors"
	"fmt"
)

// Sentinel errors for every allocation rule. Detailed errors wrap these.
var (
	ErrInvalidSeatingConfig = errors.New("invalid seating configuration")
	ErrSeatingNotConfigured = errors.New("seating is not configured for this event")
	ErrBidderOutOfRange     = errors.New("bidder number out of range")
	ErrBidderTaken          = errors.New("bidder number already assigned")
	ErrBidderExhausted      = errors.New("no bidder numbers available")
	ErrTableOutOfRange      = errors.New("table number out of range")
	ErrTableFull            = errors.New("table is full")
)

// RuleError is a violated allocation rule. Error returns the detailed message
// and Unwrap the sentinel, so callers can match with errors.Is.
type RuleError struct {
	Kind error
	Msg  string
}

func (e *RuleError) Error() string { return e.Msg }

func (e *RuleError) Unwrap() error { return e.Kind }

func violation(kind error, format string, args ...any) error {
	return &RuleError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
