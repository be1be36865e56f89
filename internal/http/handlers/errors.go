// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and are returned in the `code` field of every
// ErrorResponse so clients can branch without parsing messages.
//
// Example response:
//
//	{
//	  "success": false,
//	  "error": "Email is already subscribed",
//	  "message": "Email is already subscribed",
//	  "code": "already_subscribed",
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "already_subscribed"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeStorage          = "storage_error"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// User-facing messages.
const (
	msgContactThanks     = "Thank you for contacting us! We'll get back to you soon."
	msgSubscribed        = "Successfully subscribed to newsletter"
	msgAlreadySubscribed = "Email is already subscribed"
	msgUnsubscribed      = "Successfully unsubscribed"
	msgSubscriberMissing = "Email not found in subscribers list"
	msgVehicleMissing    = "Vehicle not found"
	msgContactMissing    = "Contact submission not found"
	msgStorage           = "We could not save your request. Please try again later."
	msgInvalidJSON       = "request body must be valid JSON"
)
