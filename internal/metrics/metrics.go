package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campustrade",
			Name:      "bookings_total",
			Help:      "Booking attempts by result.",
		},
		[]string{"result"},
	)

	appointmentUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campustrade",
			Name:      "appointment_updates_total",
			Help:      "Appointment mutations by resulting status.",
		},
		[]string{"status"},
	)

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campustrade",
			Name:      "realtime_events_total",
			Help:      "Realtime events published by event kind.",
		},
		[]string{"event"},
	)

	emails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campustrade",
			Name:      "emails_total",
			Help:      "Appointment emails by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

// Register registers all collectors. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookings, appointmentUpdates, realtimeEvents, emails)
	})
}

func IncBooking(result string) {
	bookings.WithLabelValues(result).Inc()
}

func IncAppointmentUpdate(status string) {
	appointmentUpdates.WithLabelValues(status).Inc()
}

func IncRealtimeEvent(event string) {
	realtimeEvents.WithLabelValues(event).Inc()
}

func IncEmail(kind, result string) {
	emails.WithLabelValues(kind, result).Inc()
}
