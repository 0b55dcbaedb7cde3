package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts clinic operations. A nil *BookingMetrics is a no-op.
type BookingMetrics struct {
	bookings      *prometheus.CounterVec
	cancellations prometheus.Counter
	storeSize     *prometheus.GaugeVec
	persistence   *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "cancelled_slots_total",
			Help:      "Slots removed by cancellation or cascade",
		}),
		storeSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "store",
			Name:      "entries",
			Help:      "Number of stored patients, services and slots",
		}, []string{"store"}),
		persistence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "storage",
			Name:      "duration_seconds",
			Help:      "Latency of snapshot load and save",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.cancellations, m.storeSize, m.persistence)
	return m
}

// ObserveBooking records one booking attempt. outcome is "booked" or a
// rejection reason.
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCancelled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cancellations.Add(float64(n))
}

func (m *BookingMetrics) SetStoreSizes(patients, services, slots int) {
	if m == nil {
		return
	}
	m.storeSize.WithLabelValues("patients").Set(float64(patients))
	m.storeSize.WithLabelValues("services").Set(float64(services))
	m.storeSize.WithLabelValues("slots").Set(float64(slots))
}

func (m *BookingMetrics) ObservePersistence(op string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.persistence.WithLabelValues(op, status).Observe(seconds)
}
