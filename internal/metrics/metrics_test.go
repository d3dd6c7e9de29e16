package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSince(t *testing.T) {
	before := testutil.CollectAndCount(operationDuration)
	ObserveSince("metrics_test_op", time.Now().Add(-50*time.Millisecond))
	assert.Equal(t, before+1, testutil.CollectAndCount(operationDuration))
}

func TestCounterVecLabels(t *testing.T) {
	before := testutil.ToFloat64(TableAssignments.WithLabelValues("full"))
	TableAssignments.WithLabelValues("full").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(TableAssignments.WithLabelValues("full")))

	AutoAssignGuests.WithLabelValues("assigned").Add(3)
	err := testutil.CollectAndCompare(AutoAssignGuests, strings.NewReader(`
# HELP auto_assign_guests_total Guests processed by auto-assign, by outcome
# TYPE auto_assign_guests_total counter
auto_assign_guests_total{outcome="assigned"} 3
`), "auto_assign_guests_total")
	require.NoError(t, err)
}
