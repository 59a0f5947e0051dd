package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flows.
type BookingMetrics struct {
	checksTotal    *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	eventsTotal    *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "bookings",
			Name:      "availability_checks_total",
			Help:      "Total availability checks by outcome",
		}, []string{"outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "bookings",
			Name:      "booked_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "bookings",
			Name:      "events_published_total",
			Help:      "Total booking events published to the notification channel",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "receptionist",
			Subsystem: "webhooks",
			Name:      "latency_seconds",
			Help:      "Latency of voice vendor webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"vendor"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.checksTotal, m.bookingsTotal, m.eventsTotal, m.webhookLatency)
	return m
}

func (m *BookingMetrics) ObserveCheck(outcome string) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveEventPublish(status string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveWebhookLatency(vendor string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(vendor).Observe(seconds)
}
