// Package handlers exposes the dealership API over Gin.
//
// Handlers are transport-thin: they bind input, delegate to application
// services, and translate service errors into HTTP results.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/http/middleware"
	"github.com/tbourn/dealership-backend/internal/search"
	"github.com/tbourn/dealership-backend/internal/services"
	"github.com/tbourn/dealership-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ContactService is the contact pipeline consumed by the handlers.
type ContactService interface {
	Submit(ctx context.Context, in services.ContactInput) (services.SubmitResult, error)
	List(ctx context.Context) ([]domain.ContactSubmission, error)
	Delete(ctx context.Context, id string) error
}

// NewsletterService is the newsletter pipeline consumed by the handlers.
type NewsletterService interface {
	Subscribe(ctx context.Context, in services.SubscribeInput) (services.SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context) ([]domain.NewsletterSubscriber, error)
}

// VehicleService is inventory CRUD consumed by the handlers.
type VehicleService interface {
	List(ctx context.Context) ([]domain.Vehicle, error)
	Get(ctx context.Context, id string) (domain.Vehicle, error)
	Create(ctx context.Context, in domain.VehicleInput) (domain.Vehicle, error)
	Update(ctx context.Context, id string, p domain.VehiclePatch) (domain.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

//
// Handler wiring
//

// Options tunes the admin list views.
type Options struct {
	// SearchThreshold is the minimum query coverage for ?q= matches.
	SearchThreshold float64
	// Search configures the token index built per request.
	Search []search.Option
	// MaxListLimit caps ?limit=; zero means uncapped.
	MaxListLimit int
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	contacts   ContactService
	newsletter NewsletterService
	vehicles   VehicleService
	opts       Options
}

// New constructs a Handlers bound to the given services.
func New(contacts ContactService, newsletter NewsletterService, vehicles VehicleService, opts Options) *Handlers {
	return &Handlers{contacts: contacts, newsletter: newsletter, vehicles: vehicles, opts: opts}
}

func (h *Handlers) listQuery(c *gin.Context) services.ListQuery {
	return services.ListQuery{
		Q:         strings.TrimSpace(c.Query("q")),
		Sort:      strings.ToLower(strings.TrimSpace(c.Query("sort"))),
		Limit:     utils.Limit(c.Query("limit"), h.opts.MaxListLimit),
		Threshold: h.opts.SearchThreshold,
		Search:    h.opts.Search,
	}
}

// degrade logs a failed list read. Admin views render an empty table
// instead of an error page.
func degrade(c *gin.Context, what string, err error) {
	middleware.LoggerFrom(c).Error().Err(err).Str("collection", what).Msg("list read failed, serving empty result")
}

// optionalBool parses a boolean query value. Absent means nil.
func optionalBool(c *gin.Context, key string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, key+" must be true or false")
		return nil, false
	}
	return &b, true
}

// logStored ties a stored form record to the Idempotency-Key that produced it,
// so a later replay can be traced to the original write.
func logStored(c *gin.Context, collection, id string, emailSent bool) {
	ev := middleware.LoggerFrom(c).Info().
		Str("collection", collection).
		Bool("email_sent", emailSent)
	if id != "" {
		ev = ev.Str("id", id)
	}
	if key, has := middleware.GetIdempotencyKey(c); has {
		ev = ev.Str("idempotency_key", key)
	}
	ev.Msg("form stored")
}
