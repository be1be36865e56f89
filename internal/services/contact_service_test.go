package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/notify"
	"github.com/tbourn/dealership-backend/internal/store"
)

func newContact(b store.Backend, n notify.Notifier) *ContactService {
	return &ContactService{
		Store:      b,
		Newsletter: newNewsletter(b, n),
		Notifier:   n,
		IDGen:      seqIDs("c"),
		Now:        clock(),
	}
}

func minimalContact() ContactInput {
	return ContactInput{FirstName: "A", LastName: "B", Email: "a@b.com", Phone: "1234567", Subject: "s", Message: "m"}
}

func TestSubmit_DefaultsApplied(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemoryBackend()
	n := &recordingNotifier{}
	svc := newContact(b, n)

	res, err := svc.Submit(ctx, minimalContact())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Accepted || !res.Notified {
		t.Fatalf("result = %+v", res)
	}

	all, _ := svc.List(ctx)
	if len(all) != 1 {
		t.Fatalf("stored %d, want 1", len(all))
	}
	c := all[0]
	if c.RequestType != domain.RequestGeneral || c.PreferredContact != domain.ContactByEmail || c.SubscribedToNewsletter {
		t.Fatalf("defaults wrong: %+v", c)
	}
	if c.ID != "c1" || c.Timestamp.IsZero() {
		t.Fatalf("server fields not assigned: %+v", c)
	}
	if k := n.kinds(); len(k) != 1 || k[0] != notify.KindContact {
		t.Fatalf("notifications = %v", k)
	}
}

func TestSubmit_RequiredFieldsInOrder(t *testing.T) {
	svc := newContact(store.NewMemoryBackend(), nil)
	in := ContactInput{Phone: "1234567"}
	cases := []struct {
		fill func(*ContactInput)
		want string
	}{
		{func(*ContactInput) {}, "firstName"},
		{func(c *ContactInput) { c.FirstName = "A" }, "lastName"},
		{func(c *ContactInput) { c.LastName = "B" }, "email"},
		{func(c *ContactInput) { c.Email = "a@b.com"; c.Phone = "" }, "phone"},
		{func(c *ContactInput) { c.Phone = "1234567" }, "subject"},
		{func(c *ContactInput) { c.Subject = "s" }, "message"},
	}
	for _, tc := range cases {
		tc.fill(&in)
		_, err := svc.Submit(context.Background(), in)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.want {
			t.Fatalf("want missing %q, got %v", tc.want, err)
		}
	}
}

func TestSubmit_FormatValidation(t *testing.T) {
	svc := newContact(store.NewMemoryBackend(), nil)
	tests := []struct {
		name  string
		mut   func(*ContactInput)
		field string
	}{
		{"bad email", func(c *ContactInput) { c.Email = "a@b" }, "email"},
		{"short phone", func(c *ContactInput) { c.Phone = "12345" }, "phone"},
		{"letters in phone", func(c *ContactInput) { c.Phone = "555-CALL-NOW" }, "phone"},
		{"long phone", func(c *ContactInput) { c.Phone = "123456789012345678901" }, "phone"},
		{"request type", func(c *ContactInput) { c.RequestType = "trade-in" }, "requestType"},
		{"preferred contact", func(c *ContactInput) { c.PreferredContact = "fax" }, "preferredContact"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := minimalContact()
			tc.mut(&in)
			_, err := svc.Submit(context.Background(), in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("want %s ValidationError, got %v", tc.field, err)
			}
		})
	}

	all, _ := svc.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("invalid submissions must not be stored, have %d", len(all))
	}
}

func TestSubmit_BestTimeOnlyForPhone(t *testing.T) {
	ctx := context.Background()
	svc := newContact(store.NewMemoryBackend(), nil)

	in := minimalContact()
	in.BestTimeToCall = "evenings"
	res, _ := svc.Submit(ctx, in)
	if res.Submission.BestTimeToCall != "" {
		t.Fatalf("email preference should drop bestTimeToCall: %+v", res.Submission)
	}

	in.PreferredContact = "Phone"
	res, _ = svc.Submit(ctx, in)
	if res.Submission.PreferredContact != domain.ContactByPhone || res.Submission.BestTimeToCall != "evenings" {
		t.Fatalf("phone preference should keep bestTimeToCall: %+v", res.Submission)
	}
}

func TestSubmit_NoDedupAndInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc := newContact(store.NewMemoryBackend(), nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(ctx, minimalContact()); err != nil {
			t.Fatal(err)
		}
	}
	all, _ := svc.List(ctx)
	if len(all) != 3 || all[0].ID != "c1" || all[2].ID != "c3" {
		t.Fatalf("want three in insertion order, got %+v", all)
	}
}

func TestSubmit_CascadeToNewsletter(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemoryBackend()
	n := &recordingNotifier{}
	svc := newContact(b, n)

	in := minimalContact()
	in.FirstName, in.LastName = "Ada", "Lovelace"
	in.SubscribedToNewsletter = true
	if _, err := svc.Submit(ctx, in); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	subs, _ := svc.Newsletter.List(ctx)
	if len(subs) != 1 || subs[0].Name != "Ada Lovelace" || subs[0].Source != domain.SourceContact {
		t.Fatalf("cascade subscriber = %+v", subs)
	}

	// Already subscribed: the duplicate is swallowed.
	in.Email = "A@B.COM"
	res, err := svc.Submit(ctx, in)
	if err != nil || !res.Accepted {
		t.Fatalf("second submit should succeed, got %+v, %v", res, err)
	}
	subs, _ = svc.Newsletter.List(ctx)
	if len(subs) != 1 {
		t.Fatalf("subscribers = %d, want 1", len(subs))
	}
	contacts, _ := svc.List(ctx)
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(contacts))
	}
}

func TestSubmit_NotificationFailureDoesNotFail(t *testing.T) {
	svc := newContact(store.NewMemoryBackend(), &recordingNotifier{err: errors.New("relay unreachable")})
	res, err := svc.Submit(context.Background(), minimalContact())
	if err != nil || !res.Accepted || res.Notified {
		t.Fatalf("got %+v, %v", res, err)
	}
}

func TestSubmit_CanceledRequestStillNotifies(t *testing.T) {
	n := &recordingNotifier{}
	svc := newContact(store.NewMemoryBackend(), n)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The store ignores ctx, so the write succeeds; delivery is detached.
	res, err := svc.Submit(ctx, minimalContact())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Notified {
		t.Fatal("notification should run on a detached context")
	}
}

func TestSubmit_ResolvesVehicleTitle(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemoryBackend()
	_ = store.WriteAll(ctx, b, store.Vehicles, []domain.Vehicle{{ID: "v9", Year: 2021, Make: "Subaru", Model: "Outback", Trim: "Limited"}})
	svc := newContact(b, nil)

	in := minimalContact()
	in.VehicleID = "v9"
	res, err := svc.Submit(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Submission.VehicleTitle != "2021 Subaru Outback Limited" {
		t.Fatalf("title = %q", res.Submission.VehicleTitle)
	}

	in.VehicleID, in.VehicleTitle = "gone", "Sold unit"
	res, _ = svc.Submit(ctx, in)
	if res.Submission.VehicleID != "gone" || res.Submission.VehicleTitle != "Sold unit" {
		t.Fatalf("explicit title should be kept: %+v", res.Submission)
	}
}

func TestSubmit_StorageErrorPropagates(t *testing.T) {
	n := &recordingNotifier{}
	svc := newContact(newBroken(), n)
	_, err := svc.Submit(context.Background(), minimalContact())
	if !errors.Is(err, store.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(n.kinds()) != 0 {
		t.Fatal("must not notify after a failed write")
	}
}

func TestContactDelete(t *testing.T) {
	ctx := context.Background()
	svc := newContact(newSQLBackend(t), nil)
	_, _ = svc.Submit(ctx, minimalContact())
	_, _ = svc.Submit(ctx, minimalContact())

	if err := svc.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if err := svc.Delete(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank id: %v", err)
	}
	all, _ := svc.List(ctx)
	if len(all) != 1 || all[0].ID != "c2" {
		t.Fatalf("remaining = %+v", all)
	}
}
