package allocation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestValidateSeatingConfig(t *testing.T) {
	tests := []struct {
		name    string
		tables  *int
		maxPer  *int
		wantErr string
	}{
		{name: "both unset", tables: nil, maxPer: nil},
		{name: "both set", tables: intPtr(15), maxPer: intPtr(8)},
		{name: "upper bounds", tables: intPtr(1000), maxPer: intPtr(50)},
		{name: "only tables", tables: intPtr(15), maxPer: nil, wantErr: "must be set together"},
		{name: "only max", tables: nil, maxPer: intPtr(8), wantErr: "must be set together"},
		{name: "zero tables", tables: intPtr(0), maxPer: intPtr(8), wantErr: "table_count must be positive"},
		{name: "too many tables", tables: intPtr(1001), maxPer: intPtr(8), wantErr: "cannot exceed 1000"},
		{name: "negative max", tables: intPtr(10), maxPer: intPtr(-1), wantErr: "max_guests_per_table must be positive"},
		{name: "max too large", tables: intPtr(10), maxPer: intPtr(51), wantErr: "cannot exceed 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeatingConfig(tt.tables, tt.maxPer)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSeatingConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckTable(t *testing.T) {
	assert.NoError(t, CheckTable(1, 10, 8, 0))
	assert.NoError(t, CheckTable(10, 10, 8, 7))

	err := CheckTable(0, 10, 8, 0)
	assert.True(t, errors.Is(err, ErrTableOutOfRange))

	err = CheckTable(11, 10, 8, 0)
	assert.True(t, errors.Is(err, ErrTableOutOfRange))
	assert.Contains(t, err.Error(), "out of range")

	err = CheckTable(3, 10, 8, 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableFull))
	assert.Equal(t, "Table 3 is full (8/8 seats)", err.Error())
}
