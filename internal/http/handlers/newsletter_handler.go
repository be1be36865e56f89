// Newsletter HTTP handlers.
//
//   - POST   /newsletter           (public subscribe)
//   - GET    /newsletter           (admin list; q, source, sort, limit)
//   - GET    /newsletter/export    (admin CSV)
//   - DELETE /newsletter?email=    (unsubscribe)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/services"
)

// Subscribe godoc
// @ID          subscribeNewsletter
// @Summary     Subscribe to the newsletter
// @Description Emails are unique case-insensitively. A welcome email is attempted; its failure is reported in emailSent only.
// @Tags        Newsletter
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay protection key"
// @Param       body body services.SubscribeInput true "Subscriber"
// @Success     200 {object} handlers.MessageResponse
// @Failure     400 {object} handlers.ErrorResponse "Invalid email"
// @Failure     409 {object} handlers.ErrorResponse "Already subscribed"
// @Failure     500 {object} handlers.ErrorResponse "Storage failure"
// @Router      /newsletter [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	var in services.SubscribeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	res, err := h.newsletter.Subscribe(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, msgSubscriberMissing)
		return
	}
	logStored(c, "newsletter-subscribers", "", res.Notified)
	ok(c, http.StatusOK, MessageResponse{Success: true, Message: msgSubscribed, EmailSent: sent(res.Notified)})
}

// Unsubscribe godoc
// @ID          unsubscribeNewsletter
// @Summary     Remove a subscriber
// @Tags        Newsletter
// @Produce     json
// @Param       email query string true "Subscriber email (any casing)"
// @Success     200 {object} handlers.MessageResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /newsletter [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	if err := h.newsletter.Unsubscribe(c.Request.Context(), c.Query("email")); err != nil {
		failErr(c, err, msgSubscriberMissing)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Success: true, Message: msgUnsubscribed})
}

// ListSubscribers godoc
// @ID          listSubscribers
// @Summary     List newsletter subscribers
// @Tags        Newsletter
// @Produce     json
// @Param       q      query string false "Free-text search"
// @Param       source query string false "Source tag"
// @Param       sort   query string false "newest|oldest"
// @Param       limit  query int    false "Max rows"
// @Success     200 {array} domain.NewsletterSubscriber
// @Router      /newsletter [get]
func (h *Handlers) ListSubscribers(c *gin.Context) {
	ok(c, http.StatusOK, h.filteredSubscribers(c))
}

func (h *Handlers) filteredSubscribers(c *gin.Context) []domain.NewsletterSubscriber {
	all, err := h.newsletter.List(c.Request.Context())
	if err != nil {
		degrade(c, "newsletter-subscribers", err)
		return []domain.NewsletterSubscriber{}
	}
	return services.FilterSubscribers(all, services.SubscriberQuery{
		ListQuery: h.listQuery(c),
		Source:    strings.TrimSpace(c.Query("source")),
	})
}

// ExportSubscribers godoc
// @ID          exportSubscribers
// @Summary     Download subscribers as CSV
// @Tags        Newsletter
// @Produce     text/csv
// @Success     200 {string} string "CSV file"
// @Router      /newsletter/export [get]
func (h *Handlers) ExportSubscribers(c *gin.Context) {
	rows := h.filteredSubscribers(c)
	writeCSV(c, "newsletter-subscribers", subscriberCSVHeader, func(emit func([]string) error) error {
		for _, r := range rows {
			if err := emit(subscriberCSVRow(r)); err != nil {
				return err
			}
		}
		return nil
	})
}
