package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AddGenerated(12)
	m.AddGenerated(0)
	m.Booking("booked")
	m.Booking("booked")
	m.Booking("conflict")
	m.Transition("AVAILABLE")

	assert.Equal(t, 12.0, testutil.ToFloat64(m.SlotsGenerated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("booked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlotTransitions.WithLabelValues("AVAILABLE")))
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("GET", "/api/speaking-slots", 200, 20*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.AddGenerated(3)
		m.Booking("booked")
		m.Transition("BOOKED")
		m.ObserveAutogen(1.5)
		m.NotificationFailed()
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
}
