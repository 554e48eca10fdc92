package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
	guestAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guest_access_total",
			Help: "Guest content access decisions by reason",
		},
		[]string{"decision"},
	)
)

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}
