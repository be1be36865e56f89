// Package domain defines the records persisted in the dealership's
// collections and the small value types shared by the store, service, and
// HTTP layers.
package domain

import "time"

// Request types accepted on a contact submission.
const (
	RequestGeneral   = "general"
	RequestSales     = "sales"
	RequestService   = "service"
	RequestFinancing = "financing"
)

// Preferred contact channels.
const (
	ContactByEmail = "email"
	ContactByPhone = "phone"
)

// ContactSubmission is an inquiry captured by the public contact form.
// Timestamp is assigned when the record is appended and never changes.
type ContactSubmission struct {
	ID                     string    `json:"id"`
	FirstName              string    `json:"firstName"`
	LastName               string    `json:"lastName"`
	Email                  string    `json:"email"`
	Phone                  string    `json:"phone"`
	Subject                string    `json:"subject"`
	Message                string    `json:"message"`
	RequestType            string    `json:"requestType"`
	PreferredContact       string    `json:"preferredContact"`
	SubscribedToNewsletter bool      `json:"subscribedToNewsletter"`
	BestTimeToCall         string    `json:"bestTimeToCall,omitempty"`
	VehicleID              string    `json:"vehicleId,omitempty"`
	VehicleTitle           string    `json:"vehicleTitle,omitempty"`
	Timestamp              time.Time `json:"timestamp"`
}

// FullName joins first and last name with a single space.
func (c ContactSubmission) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ValidRequestType reports whether s is one of the known request types.
func ValidRequestType(s string) bool {
	switch s {
	case RequestGeneral, RequestSales, RequestService, RequestFinancing:
		return true
	}
	return false
}

// ValidPreferredContact reports whether s is a known contact channel.
func ValidPreferredContact(s string) bool {
	return s == ContactByEmail || s == ContactByPhone
}
