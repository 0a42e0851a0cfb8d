package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursebook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursebook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursebook_bookings_total",
			Help: "Total number of course bookings",
		},
		[]string{"status", "payment_type"},
	)

	BundleBookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursebook_bundle_bookings_total",
			Help: "Total number of bundle bookings",
		},
		[]string{"status", "payment_type"},
	)

	SessionFullRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursebook_session_full_rejections_total",
			Help: "Booking attempts rejected because the session was full",
		},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursebook_payments_total",
			Help: "Payment records by final status",
		},
		[]string{"status"},
	)

	OrphanedBookingsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursebook_orphaned_bookings_swept_total",
			Help: "Pending bookings without a payment cancelled by the reconciliation sweep",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursebook_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coursebook_email_queue_length",
			Help: "Current length of the email outbox queue",
		},
	)

	TenantsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursebook_tenants_created_total",
			Help: "Total number of tenants onboarded",
		},
	)

	PlanChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursebook_plan_changes_total",
			Help: "Tenant plan changes by target plan",
		},
		[]string{"plan"},
	)

	AchievementsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursebook_achievements_awarded_total",
			Help: "Achievements upserted by level",
		},
		[]string{"level"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status, paymentType string) {
	BookingsTotal.WithLabelValues(status, paymentType).Inc()
}

func RecordBundleBooking(status, paymentType string) {
	BundleBookingsTotal.WithLabelValues(status, paymentType).Inc()
}

func RecordSessionFullRejection() {
	SessionFullRejectionsTotal.Inc()
}

func RecordPayment(status string) {
	PaymentsTotal.WithLabelValues(status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordTenantCreated() {
	TenantsCreatedTotal.Inc()
}

func RecordPlanChange(plan string) {
	PlanChangesTotal.WithLabelValues(plan).Inc()
}

func RecordAchievement(level string) {
	AchievementsAwardedTotal.WithLabelValues(level).Inc()
}
