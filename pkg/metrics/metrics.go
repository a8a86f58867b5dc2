package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduling metrics
	AppointmentsBooked    prometheus.Counter
	AppointmentsCancelled *prometheus.CounterVec
	AvailabilityCascades  *prometheus.CounterVec

	// Notification metrics
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter

	// Reconciler metrics
	SweepsTotal       prometheus.Counter
	AppointmentsSwept prometheus.Counter
	SweepDuration     prometheus.Histogram
	SweepErrors       prometheus.Counter
}

// New creates the application metrics on the default registry.
func New(namespace string) *Metrics {
	return NewWith(prometheus.DefaultRegisterer, namespace)
}

// NewWith registers the metrics against an explicit registerer. Tests use
// this with a fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AppointmentsBooked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_booked_total",
			Help:      "Total number of appointments booked",
		}),
		AppointmentsCancelled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_cancelled_total",
			Help:      "Total number of appointments cancelled",
		}, []string{"actor"}),
		AvailabilityCascades: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cascades_total",
			Help:      "Total number of availability status cascades applied to appointments",
		}, []string{"status"}),

		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of cancellation notifications dispatched",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of cancellation notifications that failed to send",
		}),

		SweepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciler_sweeps_total",
			Help:      "Total number of reconciler sweep iterations",
		}),
		AppointmentsSwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciler_appointments_expired_total",
			Help:      "Total number of pending appointments expired by the reconciler",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciler_sweep_duration_seconds",
			Help:      "Time spent per reconciler sweep",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		SweepErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciler_sweep_errors_total",
			Help:      "Total number of reconciler sweep iterations that returned an error",
		}),
	}
}
