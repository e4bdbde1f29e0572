package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRefresh_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(refreshTicksTotal.WithLabelValues(OutcomeSkipped))
	ObserveRefresh(OutcomeSkipped, time.Second)
	ObserveRefresh(OutcomeSkipped, 0)
	assert.Equal(t, before+2, testutil.ToFloat64(refreshTicksTotal.WithLabelValues(OutcomeSkipped)))
}

func TestSetCorpus(t *testing.T) {
	SetCorpus(42, 7)
	assert.Equal(t, 42.0, testutil.ToFloat64(corpusRecords))
	assert.Equal(t, 7.0, testutil.ToFloat64(snapshotVersion))

	SetConsecutiveFailures(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(consecutiveFailures))
}

func TestObserveSearch(t *testing.T) {
	before := testutil.ToFloat64(searchRequestsTotal.WithLabelValues(OutcomeNotReady))
	ObserveSearch(OutcomeNotReady, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(searchRequestsTotal.WithLabelValues(OutcomeNotReady)))
}

func TestIncPanic(t *testing.T) {
	before := testutil.ToFloat64(httpPanicsTotal.WithLabelValues("/search"))
	IncPanic("/search")
	assert.Equal(t, before+1, testutil.ToFloat64(httpPanicsTotal.WithLabelValues("/search")))
}
