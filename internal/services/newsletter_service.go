// Package services – NewsletterService
//
// NewsletterService owns the newsletter-subscribers collection. Emails are
// unique case-insensitively; a duplicate is rejected before any write and
// before any notification. The stored address keeps the caller's casing.

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/metrics"
	"github.com/tbourn/dealership-backend/internal/notify"
	"github.com/tbourn/dealership-backend/internal/store"
	"github.com/tbourn/dealership-backend/internal/sysutil"
)

// NewsletterService manages subscriptions.
type NewsletterService struct {
	Store         store.Backend
	Notifier      notify.Notifier // optional; nil disables welcome emails
	NotifyTimeout time.Duration
	Now           func() time.Time
}

// SubscribeInput is the public subscribe payload.
type SubscribeInput struct {
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Source    string   `json:"source"`
	Interests []string `json:"interests"`
}

// SubscribeResult reports what happened. Notified is false when the welcome
// email could not be sent; the subscription still stands.
type SubscribeResult struct {
	Accepted   bool
	Notified   bool
	Subscriber domain.NewsletterSubscriber
}

func (s *NewsletterService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Subscribe validates and appends a subscriber, then sends a welcome email.
func (s *NewsletterService) Subscribe(ctx context.Context, in SubscribeInput) (res SubscribeResult, err error) {
	tr := otel.Tracer("services/NewsletterService")
	ctx, span := tr.Start(ctx, "Subscribe", trace.WithAttributes(attribute.String("source", in.Source)))
	defer span.End()

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = domain.SourceWebsite
	}
	defer func() {
		metrics.Subscriptions.WithLabelValues(sourceLabel(source), subscribeOutcome(err)).Inc()
	}()

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return res, invalid("email", "email is required")
	}
	if !ValidEmail(email) {
		return res, invalid("email", "invalid email address")
	}

	all, err := store.ReadAll[domain.NewsletterSubscriber](ctx, s.Store, store.NewsletterSubscribers)
	if err != nil {
		return res, err
	}
	for _, sub := range all {
		if domain.SameEmail(sub.Email, email) {
			return res, ErrDuplicateSubscriber
		}
	}

	sub := domain.NewsletterSubscriber{
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		Source:    source,
		Interests: cleanList(in.Interests),
		Timestamp: s.now(),
	}
	if err := store.WriteAll(ctx, s.Store, store.NewsletterSubscribers, append(all, sub)); err != nil {
		return res, err
	}

	sysutil.Logger(ctx).Info().Str("email", sysutil.RedactEmail(email)).Str("source", source).Msg("newsletter subscribed")

	res = SubscribeResult{Accepted: true, Subscriber: sub}
	res.Notified = deliver(ctx, s.Notifier, notify.WelcomeEvent(sub), s.NotifyTimeout)
	return res, nil
}

// Unsubscribe removes the first subscriber matching email case-insensitively.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) (err error) {
	tr := otel.Tracer("services/NewsletterService")
	ctx, span := tr.Start(ctx, "Unsubscribe")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email", "email is required")
	}

	all, err := store.ReadAll[domain.NewsletterSubscriber](ctx, s.Store, store.NewsletterSubscribers)
	if err != nil {
		return err
	}
	idx := -1
	for i, sub := range all {
		if domain.SameEmail(sub.Email, email) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	all = append(all[:idx], all[idx+1:]...)
	if err := store.WriteAll(ctx, s.Store, store.NewsletterSubscribers, all); err != nil {
		return err
	}
	metrics.Subscriptions.WithLabelValues(domain.SourceAdmin, metrics.OutcomeUnsubscribed).Inc()
	return nil
}

// List returns subscribers in stored order.
func (s *NewsletterService) List(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	return store.ReadAll[domain.NewsletterSubscriber](ctx, s.Store, store.NewsletterSubscribers)
}

func subscribeOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSubscribed
	case errors.Is(err, ErrDuplicateSubscriber):
		return metrics.OutcomeDuplicate
	case IsValidation(err):
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}

// sourceLabel bounds metric cardinality; source itself is free text.
func sourceLabel(s string) string {
	switch s {
	case domain.SourceWebsite, domain.SourceContact, domain.SourceAdmin, domain.SourceImport, domain.SourceEvent:
		return s
	}
	return "other"
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
