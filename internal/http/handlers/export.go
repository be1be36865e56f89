package handlers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dealership-backend/internal/domain"
)

var contactCSVHeader = []string{
	"id", "timestamp", "firstName", "lastName", "email", "phone", "requestType",
	"preferredContact", "bestTimeToCall", "subscribedToNewsletter", "vehicleId",
	"vehicleTitle", "subject", "message",
}

func contactCSVRow(r domain.ContactSubmission) []string {
	return []string{
		r.ID, r.Timestamp.Format(time.RFC3339), r.FirstName, r.LastName, r.Email,
		r.Phone, r.RequestType, r.PreferredContact, r.BestTimeToCall,
		strconv.FormatBool(r.SubscribedToNewsletter), r.VehicleID, r.VehicleTitle,
		csvSafe(r.Subject), csvSafe(r.Message),
	}
}

var subscriberCSVHeader = []string{"email", "name", "source", "interests", "timestamp"}

func subscriberCSVRow(r domain.NewsletterSubscriber) []string {
	return []string{
		csvSafe(r.Email), csvSafe(r.Name), csvSafe(r.Source),
		csvSafe(strings.Join(r.Interests, "; ")), r.Timestamp.Format(time.RFC3339),
	}
}

// writeCSV streams a CSV attachment named <base>-<date>.csv.
func writeCSV(c *gin.Context, base string, header []string, rows func(emit func([]string) error) error) {
	name := fmt.Sprintf("%s-%s.csv", base, time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(200)

	w := csv.NewWriter(c.Writer)
	emit := func(rec []string) error { return w.Write(rec) }
	if err := emit(header); err == nil {
		err = rows(emit)
		if err != nil {
			degrade(c, base, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		degrade(c, base, err)
	}
}

// csvSafe neutralizes leading characters that spreadsheets evaluate as
// formulas. Form fields are attacker-controlled.
func csvSafe(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
