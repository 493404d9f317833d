package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSimulation(t *testing.T) {
	okBefore := testutil.ToFloat64(simulationsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(simulationsTotal.WithLabelValues("error"))
	buysBefore := testutil.ToFloat64(simulatedTrades.WithLabelValues("buy"))

	RecordSimulation(time.Millisecond, 3, 2, nil)
	RecordSimulation(0, 0, 0, errors.New("bad config"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(simulationsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(simulationsTotal.WithLabelValues("error")))
	assert.Equal(t, buysBefore+3, testutil.ToFloat64(simulatedTrades.WithLabelValues("buy")))
}

func TestCacheCounters(t *testing.T) {
	hits := testutil.ToFloat64(cacheRequests.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheRequests.WithLabelValues("miss"))

	RecordCacheHit()
	RecordCacheMiss()
	RecordCacheMiss()

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheRequests.WithLabelValues("miss")))
}
