package domain

import (
	"strings"
	"time"
)

// Subscriber sources seen in the collection. Source is free text; these are
// the values the application itself writes.
const (
	SourceWebsite = "website"
	SourceContact = "contact"
	SourceAdmin   = "admin"
	SourceImport  = "import"
	SourceEvent   = "event"
)

// NewsletterSubscriber is a single newsletter opt-in. At most one record per
// case-folded email exists in the collection.
type NewsletterSubscriber struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Source    string    `json:"source"`
	Interests []string  `json:"interests,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SameEmail compares two addresses the way subscriber uniqueness is defined.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
