package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSourceAttempt("s", OutcomeSuccess, time.Second)
		m.AddRejected("s", 3)
		m.IncrementIdentity("authoritative")
		m.IncrementGrade("A")
		m.ObservePass(time.Second, true)
	})
}

func TestCollectorsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSourceAttempt("loopfeed", OutcomeUnavailable, 20*time.Millisecond)
	m.ObserveSourceAttempt("loopfeed", OutcomeUnavailable, 30*time.Millisecond)
	m.ObserveSourceAttempt("county", OutcomeSuccess, time.Second)
	m.AddRejected("county", 4)
	m.AddRejected("county", 0)
	m.IncrementGrade("B")
	m.ObservePass(2*time.Second, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceAttempts.WithLabelValues("loopfeed", OutcomeUnavailable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceAttempts.WithLabelValues("county", OutcomeSuccess)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RejectedRecords.WithLabelValues("county")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Grades.WithLabelValues("B")))
	assert.Zero(t, testutil.ToFloat64(m.AllSourcesFailed))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SourceLatency))
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "duplicate registration against one registry")
}
