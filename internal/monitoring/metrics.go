package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_payment_submissions_total",
			Help: "Payment proof submissions by outcome",
		},
		[]string{"outcome"},
	)

	TicketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raffle_tickets_issued_total",
			Help: "Total ticket numbers issued",
		},
	)

	ValidationConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "raffle_validation_confidence",
			Help:    "Confidence reported by the payment proof validator",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)
