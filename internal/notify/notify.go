// Package notify delivers best-effort email notifications: the dealership
// inbox hears about new contact submissions and subscribers get a welcome
// message. Messages are rendered from embedded Liquid templates and handed
// to a Mailer (log, SMTP, or Amazon SES).
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/metrics"
	"github.com/tbourn/dealership-backend/internal/sysutil"
)

// Kind selects the template set and default recipient.
type Kind string

const (
	KindContact Kind = "contact" // to the dealership inbox
	KindWelcome Kind = "welcome" // to the new subscriber
)

// Event is what services hand to a Notifier.
type Event struct {
	Kind    Kind
	To      string         // empty for KindContact means the admin inbox
	ReplyTo string         // customer address for contact notifications
	Data    map[string]any // template bindings
}

// Message is a rendered email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Notifier sends one event. Callers treat every error as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Mailer transports a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned when an event resolves to no address.
var ErrNoRecipient = errors.New("notify: no recipient")

// Dispatcher renders events and passes them to a Mailer.
type Dispatcher struct {
	Renderer   *Renderer
	Mailer     Mailer
	AdminEmail string
	SiteName   string
}

// Notify implements Notifier.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) (err error) {
	defer func() {
		metrics.Notifications.WithLabelValues(string(ev.Kind), metrics.NotificationResult(err)).Inc()
	}()

	to := ev.To
	if ev.Kind == KindContact {
		to = sysutil.FirstNonEmpty(ev.To, d.AdminEmail)
	}
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}

	data := make(map[string]any, len(ev.Data)+1)
	for k, v := range ev.Data {
		data[k] = v
	}
	data["siteName"] = d.SiteName

	msg, err := d.Renderer.Render(ev.Kind, data)
	if err != nil {
		return err
	}
	msg.To = to
	msg.ReplyTo = ev.ReplyTo
	return d.Mailer.Send(ctx, msg)
}

// ContactEvent builds the admin notification for a stored submission.
func ContactEvent(c domain.ContactSubmission) Event {
	return Event{
		Kind:    KindContact,
		ReplyTo: c.Email,
		Data: map[string]any{
			"name":             c.FullName(),
			"firstName":        c.FirstName,
			"lastName":         c.LastName,
			"email":            c.Email,
			"phone":            c.Phone,
			"subject":          c.Subject,
			"message":          c.Message,
			"requestType":      c.RequestType,
			"preferredContact": c.PreferredContact,
			"bestTimeToCall":   c.BestTimeToCall,
			"vehicleId":        c.VehicleID,
			"vehicleTitle":     c.VehicleTitle,
			"subscribed":       c.SubscribedToNewsletter,
			"timestamp":        c.Timestamp.Format(time.RFC1123),
		},
	}
}

// WelcomeEvent builds the subscriber welcome email.
func WelcomeEvent(s domain.NewsletterSubscriber) Event {
	return Event{
		Kind: KindWelcome,
		To:   s.Email,
		Data: map[string]any{
			"name":   s.Name,
			"email":  s.Email,
			"source": s.Source,
		},
	}
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, ev Event) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }
