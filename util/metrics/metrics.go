package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Reservations    *prometheus.CounterVec
	Payments        *prometheus.CounterVec
	PaymentAmount   prometheus.Counter
	DamageReports   prometheus.Counter
	Maintenance     *prometheus.CounterVec
	BookingConflict prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bikerental_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikerental_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		Reservations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bikerental_reservations_total",
			Help: "Reservation transitions by resulting status",
		}, []string{"status"}),

		Payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bikerental_payments_total",
			Help: "Completed payments by method",
		}, []string{"method"}),

		PaymentAmount: f.NewCounter(prometheus.CounterOpts{
			Name: "bikerental_payment_amount_total",
			Help: "Sum of completed payment amounts",
		}),

		DamageReports: f.NewCounter(prometheus.CounterOpts{
			Name: "bikerental_damage_reports_total",
			Help: "Total number of damage reports",
		}),

		Maintenance: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bikerental_maintenance_total",
			Help: "Maintenance transitions by resulting status",
		}, []string{"status"}),

		BookingConflict: f.NewCounter(prometheus.CounterOpts{
			Name: "bikerental_booking_conflicts_total",
			Help: "Bookings rejected because the bike was taken or locked",
		}),
	}
}

func (m *Metrics) Reservation(status string) {
	if m == nil {
		return
	}
	m.Reservations.WithLabelValues(status).Inc()
}

func (m *Metrics) Payment(method string, amount float64) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(method).Inc()
	m.PaymentAmount.Add(amount)
}

func (m *Metrics) Damage() {
	if m == nil {
		return
	}
	m.DamageReports.Inc()
}

func (m *Metrics) MaintenanceStatus(status string) {
	if m == nil {
		return
	}
	m.Maintenance.WithLabelValues(status).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.BookingConflict.Inc()
}
