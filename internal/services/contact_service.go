// Package services – ContactService
//
// ContactService validates and stores contact-form submissions, notifies the
// dealership inbox, and, when the visitor opted in, cascades into the
// newsletter. Submissions are never deduplicated.

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/metrics"
	"github.com/tbourn/dealership-backend/internal/notify"
	"github.com/tbourn/dealership-backend/internal/store"
	"github.com/tbourn/dealership-backend/internal/sysutil"
)

// ContactService handles the contact pipeline.
type ContactService struct {
	Store         store.Backend
	Newsletter    *NewsletterService // optional; nil skips the opt-in cascade
	Notifier      notify.Notifier
	NotifyTimeout time.Duration
	IDGen         func() string
	Now           func() time.Time
}

// ContactInput is the public form payload: a submission minus server fields.
type ContactInput struct {
	FirstName              string `json:"firstName"`
	LastName               string `json:"lastName"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	Subject                string `json:"subject"`
	Message                string `json:"message"`
	RequestType            string `json:"requestType"`
	PreferredContact       string `json:"preferredContact"`
	SubscribedToNewsletter bool   `json:"subscribedToNewsletter"`
	BestTimeToCall         string `json:"bestTimeToCall"`
	VehicleID              string `json:"vehicleId"`
	VehicleTitle           string `json:"vehicleTitle"`
}

// SubmitResult reports a stored submission. Notified is informational.
type SubmitResult struct {
	Accepted   bool
	Notified   bool
	Submission domain.ContactSubmission
}

func (s *ContactService) newID() string {
	if s.IDGen != nil {
		return s.IDGen()
	}
	return uuid.NewString()
}

func (s *ContactService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit validates, appends, notifies, then runs the newsletter cascade.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (SubmitResult, error) {
	tr := otel.Tracer("services/ContactService")
	ctx, span := tr.Start(ctx, "Submit", trace.WithAttributes(
		attribute.String("request_type", in.RequestType),
		attribute.Bool("subscribe", in.SubscribedToNewsletter),
	))
	defer span.End()

	sub, err := s.normalize(in)
	if err != nil {
		return SubmitResult{}, err
	}
	if sub.VehicleID != "" && sub.VehicleTitle == "" {
		sub.VehicleTitle = s.vehicleTitle(ctx, sub.VehicleID)
	}
	sub.ID = s.newID()
	sub.Timestamp = s.now()

	if _, err := store.Append(ctx, s.Store, store.ContactSubmissions, sub); err != nil {
		return SubmitResult{}, err
	}
	metrics.ContactSubmissions.WithLabelValues(sub.RequestType).Inc()

	res := SubmitResult{Accepted: true, Submission: sub}
	res.Notified = deliver(ctx, s.Notifier, notify.ContactEvent(sub), s.NotifyTimeout)

	if sub.SubscribedToNewsletter && s.Newsletter != nil {
		_, cerr := s.Newsletter.Subscribe(ctx, SubscribeInput{
			Email:  sub.Email,
			Name:   sub.FirstName + " " + sub.LastName,
			Source: domain.SourceContact,
		})
		switch {
		case cerr == nil, errors.Is(cerr, ErrDuplicateSubscriber):
		default:
			sysutil.Logger(ctx).Warn().Err(cerr).Str("email", sysutil.RedactEmail(sub.Email)).Msg("newsletter cascade failed")
		}
	}
	return res, nil
}

func (s *ContactService) normalize(in ContactInput) (domain.ContactSubmission, error) {
	c := domain.ContactSubmission{
		FirstName:              strings.TrimSpace(in.FirstName),
		LastName:               strings.TrimSpace(in.LastName),
		Email:                  strings.TrimSpace(in.Email),
		Phone:                  strings.TrimSpace(in.Phone),
		Subject:                strings.TrimSpace(in.Subject),
		Message:                strings.TrimSpace(in.Message),
		RequestType:            strings.ToLower(strings.TrimSpace(in.RequestType)),
		PreferredContact:       strings.ToLower(strings.TrimSpace(in.PreferredContact)),
		SubscribedToNewsletter: in.SubscribedToNewsletter,
		VehicleID:              strings.TrimSpace(in.VehicleID),
		VehicleTitle:           strings.TrimSpace(in.VehicleTitle),
	}

	if f := firstMissing(
		field{"firstName", c.FirstName},
		field{"lastName", c.LastName},
		field{"email", c.Email},
		field{"phone", c.Phone},
		field{"subject", c.Subject},
		field{"message", c.Message},
	); f != "" {
		return c, invalid(f, f+" is required")
	}
	if !ValidEmail(c.Email) {
		return c, invalid("email", "invalid email address")
	}
	if !ValidPhone(c.Phone) {
		return c, invalid("phone", "invalid phone number")
	}

	if c.RequestType == "" {
		c.RequestType = domain.RequestGeneral
	} else if !domain.ValidRequestType(c.RequestType) {
		return c, invalid("requestType", "requestType must be one of general, sales, service, financing")
	}
	if c.PreferredContact == "" {
		c.PreferredContact = domain.ContactByEmail
	} else if !domain.ValidPreferredContact(c.PreferredContact) {
		return c, invalid("preferredContact", "preferredContact must be email or phone")
	}
	if c.PreferredContact == domain.ContactByPhone {
		c.BestTimeToCall = strings.TrimSpace(in.BestTimeToCall)
	}
	return c, nil
}

// vehicleTitle resolves a display title. Unknown ids resolve to "".
func (s *ContactService) vehicleTitle(ctx context.Context, id string) string {
	vs, err := store.ReadAll[domain.Vehicle](ctx, s.Store, store.Vehicles)
	if err != nil {
		sysutil.Logger(ctx).Warn().Err(err).Msg("vehicle lookup for contact failed")
		return ""
	}
	for _, v := range vs {
		if v.ID == id {
			return v.Title()
		}
	}
	return ""
}

// List returns submissions in insertion order.
func (s *ContactService) List(ctx context.Context) ([]domain.ContactSubmission, error) {
	return store.ReadAll[domain.ContactSubmission](ctx, s.Store, store.ContactSubmissions)
}

// Delete removes the submission with id.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/ContactService")
	ctx, span := tr.Start(ctx, "Delete", trace.WithAttributes(attribute.String("contact.id", id)))
	defer span.End()

	all, err := store.ReadAll[domain.ContactSubmission](ctx, s.Store, store.ContactSubmissions)
	if err != nil {
		return err
	}
	for i, c := range all {
		if c.ID == id && id != "" {
			return store.WriteAll(ctx, s.Store, store.ContactSubmissions, append(all[:i], all[i+1:]...))
		}
	}
	return ErrNotFound
}
