// Package metrics defines the business counters exported on /metrics next to
// the HTTP instrumentation: contact submissions, newsletter subscription
// outcomes, and outbound notifications.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for subscriptions.
const (
	OutcomeSubscribed   = "subscribed"
	OutcomeDuplicate    = "duplicate"
	OutcomeInvalid      = "invalid"
	OutcomeUnsubscribed = "unsubscribed"
	OutcomeError        = "error"
)

var (
	// ContactSubmissions counts accepted contact forms by request type.
	ContactSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealership",
			Name:      "contact_submissions_total",
			Help:      "Accepted contact form submissions.",
		},
		[]string{"request_type"},
	)

	// Subscriptions counts newsletter subscribe/unsubscribe results.
	Subscriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealership",
			Name:      "newsletter_events_total",
			Help:      "Newsletter subscription attempts by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	// Notifications counts outbound emails by kind and result.
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealership",
			Name:      "notifications_total",
			Help:      "Outbound notifications by kind and result (sent|failed).",
		},
		[]string{"kind", "result"},
	)

	// VehicleWrites counts inventory mutations by operation.
	VehicleWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealership",
			Name:      "vehicle_writes_total",
			Help:      "Inventory create/update/delete operations.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(ContactSubmissions, Subscriptions, Notifications, VehicleWrites)
}

// NotificationResult maps a send error to the result label.
func NotificationResult(err error) string {
	if err != nil {
		return "failed"
	}
	return "sent"
}
