// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints.
// Every failure goes through fail(), which writes one ErrorResponse shape and
// logs server-side errors with the request-scoped logger. failErr() maps
// service errors onto that shape.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dealership-backend/internal/http/middleware"
	"github.com/tbourn/dealership-backend/internal/services"
	"github.com/tbourn/dealership-backend/internal/store"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
// Error and Message carry the same text; form clients read one, admin
// clients the other.
type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	// Human-readable message (safe to show to users)
	Error   string `json:"error" example:"Email is already subscribed"`
	Message string `json:"message" example:"Email is already subscribed"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"already_subscribed"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// fail aborts the request with a structured error. 5xx responses are logged.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		Success:   false,
		Error:     msg,
		Message:   msg,
		Code:      code,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error to a response. notFound is the message used
// for services.ErrNotFound, which differs per resource.
func failErr(c *gin.Context, err error, notFound string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Error())
	case errors.Is(err, services.ErrDuplicateSubscriber):
		fail(c, http.StatusConflict, ErrCodeConflict, msgAlreadySubscribed)
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, notFound)
	case errors.Is(err, store.ErrStorage):
		middleware.LoggerFrom(c).Error().Err(err).Msg("storage failure")
		fail(c, http.StatusInternalServerError, ErrCodeStorage, msgStorage)
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// MessageResponse is the success shape of the public form endpoints.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Successfully subscribed to newsletter"`
	// EmailSent reports whether the notification went out. Omitted on
	// endpoints that send none.
	EmailSent *bool  `json:"emailSent,omitempty" example:"true"`
	ID        string `json:"id,omitempty" example:"3f1c2a4e-5b6d-4e7f-8a9b-0c1d2e3f4a5b"`
}

func sent(b bool) *bool { return &b }
