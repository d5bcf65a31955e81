package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the scheduler's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	SlotsGenerated   prometheus.Counter
	BookingsTotal    *prometheus.CounterVec
	SlotTransitions  *prometheus.CounterVec
	AutogenDuration  prometheus.Histogram
	NotificationsErr prometheus.Counter
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SlotsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "speaking",
			Name:      "slots_generated_total",
			Help:      "Speaking slots inserted by manual and automatic generation.",
		}),
		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speaking",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),
		SlotTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speaking",
			Name:      "slot_transitions_total",
			Help:      "Slot status changes by target status.",
		}, []string{"to"}),
		AutogenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "speaking",
			Name:      "autogen_duration_seconds",
			Help:      "Duration of automatic slot generation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationsErr: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "speaking",
			Name:      "notification_errors_total",
			Help:      "Teacher notifications that failed to send.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "speaking",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.SlotsGenerated, m.BookingsTotal, m.SlotTransitions, m.AutogenDuration, m.NotificationsErr, m.HTTPDuration)
	return m
}

func (m *Metrics) AddGenerated(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SlotsGenerated.Add(float64(n))
}

func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.SlotTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) ObserveAutogen(seconds float64) {
	if m == nil {
		return
	}
	m.AutogenDuration.Observe(seconds)
}

func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.NotificationsErr.Inc()
}

// ObserveHTTP records one request. Unmatched routes share the "unmatched" label.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
