package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the domain events operators actually watch. Exposed on
// /metrics by cmd/api.
var (
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_checkins_total",
		Help: "Successful attendance check-ins by shift.",
	}, []string{"shift"})

	CheckOuts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_checkouts_total",
		Help: "Successful attendance check-outs by shift.",
	}, []string{"shift"})

	BookingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_booking_requests_total",
		Help: "Seat booking requests by shift.",
	}, []string{"shift"})

	BookingApprovals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyhall_booking_approvals_total",
		Help: "Bookings transitioned to booked.",
	})

	SeatConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyhall_seat_conflicts_total",
		Help: "Booking attempts rejected because the seat was taken.",
	})

	AbsencesMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyhall_absences_marked_total",
		Help: "Absent rows materialized by the sweep.",
	})

	NotificationsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyhall_notifications_queued_total",
		Help: "Notifications handed to the delivery queue.",
	})
)
