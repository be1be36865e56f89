// Contact HTTP handlers.
//
//   - POST   /contact          (public form)
//   - GET    /contact          (admin list; q, requestType, sort, limit)
//   - GET    /contact/export   (admin CSV)
//   - DELETE /contact/{id}     (admin delete)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/services"
)

// SubmitContact godoc
// @ID          submitContact
// @Summary     Submit the contact form
// @Description Stores the inquiry, notifies the dealership, and subscribes the visitor when they opted in. A failed email never fails the request; it is reported in emailSent.
// @Tags        Contact
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay protection key"
// @Param       body body services.ContactInput true "Contact form"
// @Success     200 {object} handlers.MessageResponse
// @Failure     400 {object} handlers.ErrorResponse "Missing or invalid field"
// @Failure     429 {object} handlers.ErrorResponse "Rate limited"
// @Failure     500 {object} handlers.ErrorResponse "Storage failure"
// @Router      /contact [post]
func (h *Handlers) SubmitContact(c *gin.Context) {
	var in services.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}

	res, err := h.contacts.Submit(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, msgContactMissing)
		return
	}
	logStored(c, "contact-submissions", res.Submission.ID, res.Notified)
	ok(c, http.StatusOK, MessageResponse{
		Success:   true,
		Message:   msgContactThanks,
		EmailSent: sent(res.Notified),
		ID:        res.Submission.ID,
	})
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contact submissions
// @Description Newest first by default. An unreadable collection yields an empty array.
// @Tags        Contact
// @Produce     json
// @Param       q           query string false "Free-text search"
// @Param       requestType query string false "general|sales|service|financing"
// @Param       sort        query string false "newest|oldest"
// @Param       limit       query int    false "Max rows"
// @Success     200 {array} domain.ContactSubmission
// @Router      /contact [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	ok(c, http.StatusOK, h.filteredContacts(c))
}

func (h *Handlers) filteredContacts(c *gin.Context) []domain.ContactSubmission {
	all, err := h.contacts.List(c.Request.Context())
	if err != nil {
		degrade(c, "contact-submissions", err)
		return []domain.ContactSubmission{}
	}
	return services.FilterContacts(all, services.ContactQuery{
		ListQuery:   h.listQuery(c),
		RequestType: strings.TrimSpace(c.Query("requestType")),
	})
}

// ExportContacts godoc
// @ID          exportContacts
// @Summary     Download contact submissions as CSV
// @Tags        Contact
// @Produce     text/csv
// @Param       q           query string false "Free-text search"
// @Param       requestType query string false "general|sales|service|financing"
// @Success     200 {string} string "CSV file"
// @Router      /contact/export [get]
func (h *Handlers) ExportContacts(c *gin.Context) {
	rows := h.filteredContacts(c)
	writeCSV(c, "contact-submissions", contactCSVHeader, func(emit func([]string) error) error {
		for _, r := range rows {
			if err := emit(contactCSVRow(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteContact godoc
// @ID          deleteContact
// @Summary     Delete a contact submission
// @Tags        Contact
// @Produce     json
// @Param       id path string true "Submission ID"
// @Success     200 {object} handlers.MessageResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /contact/{id} [delete]
func (h *Handlers) DeleteContact(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, msgContactMissing)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Success: true, Message: "Contact submission deleted"})
}
