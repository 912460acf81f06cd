package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studioslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_bookings_total",
			Help: "Bookings created, by initial status",
		},
		[]string{"status"},
	)

	BookingFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_booking_failures_total",
			Help: "Rejected booking attempts, by reason",
		},
		[]string{"reason"},
	)

	BookingCancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_booking_cancellations_total",
			Help: "Booking cancellations, by refund outcome",
		},
		[]string{"refunded"},
	)

	WaitlistPromotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studioslot_waitlist_promotions_total",
			Help: "Waitlisted bookings promoted to booked",
		},
	)

	ClassCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studioslot_class_cancellations_total",
			Help: "Classes cancelled by staff",
		},
	)

	CreditMovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_credit_movements_total",
			Help: "Pack credits moved through the ledger, by direction",
		},
		[]string{"direction"},
	)

	TxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studioslot_tx_retries_total",
			Help: "Transactions aborted by a concurrent writer and retried",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studioslot_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	PassesIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_passes_issued_total",
			Help: "Passes recorded from payment events",
		},
		[]string{"type"},
	)

	PassesExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studioslot_passes_expired_total",
			Help: "Passes moved to expired by the sweeper",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status string) {
	BookingsTotal.WithLabelValues(status).Inc()
}

func RecordBookingFailure(reason string) {
	BookingFailuresTotal.WithLabelValues(reason).Inc()
}

func RecordBookingCancellation(refunded bool) {
	label := "false"
	if refunded {
		label = "true"
	}
	BookingCancellationsTotal.WithLabelValues(label).Inc()
}

func RecordWaitlistPromotion() {
	WaitlistPromotionsTotal.Inc()
}

func RecordClassCancellation() {
	ClassCancellationsTotal.Inc()
}

func RecordCreditDebit(amount int) {
	CreditMovementsTotal.WithLabelValues("debit").Add(float64(amount))
}

func RecordCreditRefund(amount int) {
	CreditMovementsTotal.WithLabelValues("refund").Add(float64(amount))
}

func RecordTxRetry() {
	TxRetriesTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordPassIssued(passType string) {
	PassesIssuedTotal.WithLabelValues(passType).Inc()
}

func RecordPassesExpired(n int64) {
	PassesExpiredTotal.Add(float64(n))
}
