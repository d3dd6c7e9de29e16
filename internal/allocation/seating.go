package allocation

// Seating configuration bounds.
const (
	MaxTableCount        = 1000
	MaxGuestsPerTableCap = 50
)

// ValidateSeatingConfig checks an event's seating fields as a unit. Both nil
// means unconfigured and is valid; exactly one nil is rejected.
func ValidateSeatingConfig(tableCount, maxGuestsPerTable *int) error {
	if tableCount == nil && maxGuestsPerTable == nil {
		return nil
	}
	if tableCount == nil || maxGuestsPerTable == nil {
		return violation(ErrInvalidSeatingConfig,
			"table_count and max_guests_per_table must be set together")
	}
	switch {
	case *tableCount <= 0:
		return violation(ErrInvalidSeatingConfig, "table_count must be positive")
	case *tableCount > MaxTableCount:
		return violation(ErrInvalidSeatingConfig, "table_count cannot exceed %d", MaxTableCount)
	case *maxGuestsPerTable <= 0:
		return violation(ErrInvalidSeatingConfig, "max_guests_per_table must be positive")
	case *maxGuestsPerTable > MaxGuestsPerTableCap:
		return violation(ErrInvalidSeatingConfig, "max_guests_per_table cannot exceed %d", MaxGuestsPerTableCap)
	}
	return nil
}

// CheckTable validates a single-guest placement: table must be in
// [1, tableCount] and occupancy (excluding the guest being placed) must be
// below capacity.
func CheckTable(table, tableCount, capacity, occupancy int) error {
	if table < 1 || table > tableCount {
		return violation(ErrTableOutOfRange, "table %d is out of range (1-%d)", table, tableCount)
	}
	if occupancy >= capacity {
		return violation(ErrTableFull, "Table %d is full (%d/%d seats)", table, occupancy, capacity)
	}
	return nil
}
