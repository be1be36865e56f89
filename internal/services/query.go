package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/search"
	"github.com/tbourn/dealership-backend/internal/utils"
)

// Sort orders accepted by the admin list views.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortYearDesc  = "year_desc"
	SortMileage   = "mileage_asc"
)

// ListQuery is the common part of every admin list request. Filtering runs
// over the fully loaded collection.
type ListQuery struct {
	Q         string
	Sort      string
	Limit     int
	Threshold float64
	Search    []search.Option // tunes the ?q= index (stopwords, prefix length)
}

// ContactQuery filters contact submissions.
type ContactQuery struct {
	ListQuery
	RequestType string
}

// SubscriberQuery filters newsletter subscribers.
type SubscriberQuery struct {
	ListQuery
	Source string
}

// VehicleQuery filters inventory.
type VehicleQuery struct {
	ListQuery
	Make      string
	Condition string
	BodyType  string
	Featured  *bool
}

// FilterContacts applies q to all. Default order is newest first.
func FilterContacts(all []domain.ContactSubmission, q ContactQuery) []domain.ContactSubmission {
	out := make([]domain.ContactSubmission, 0, len(all))
	for _, c := range all {
		if q.RequestType != "" && !strings.EqualFold(c.RequestType, q.RequestType) {
			continue
		}
		out = append(out, c)
	}
	out = searchRecords(out, q.ListQuery, func(c domain.ContactSubmission) string {
		return strings.Join([]string{c.FirstName, c.LastName, c.Email, c.Phone, c.Subject, c.Message, c.VehicleTitle}, " ")
	})
	if q.Q == "" {
		oldest := q.Sort == SortOldest
		sort.SliceStable(out, func(i, j int) bool {
			if oldest {
				return out[i].Timestamp.Before(out[j].Timestamp)
			}
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	}
	return utils.Take(out, q.Limit)
}

// FilterSubscribers applies q to all. Default order is newest first.
func FilterSubscribers(all []domain.NewsletterSubscriber, q SubscriberQuery) []domain.NewsletterSubscriber {
	out := make([]domain.NewsletterSubscriber, 0, len(all))
	for _, s := range all {
		if q.Source != "" && !strings.EqualFold(s.Source, q.Source) {
			continue
		}
		out = append(out, s)
	}
	out = searchRecords(out, q.ListQuery, func(s domain.NewsletterSubscriber) string {
		return s.Email + " " + s.Name + " " + strings.Join(s.Interests, " ")
	})
	if q.Q == "" {
		oldest := q.Sort == SortOldest
		sort.SliceStable(out, func(i, j int) bool {
			if oldest {
				return out[i].Timestamp.Before(out[j].Timestamp)
			}
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	}
	return utils.Take(out, q.Limit)
}

// FilterVehicles applies q to all. Without a sort or query, stored order is
// kept.
func FilterVehicles(all []domain.Vehicle, q VehicleQuery) []domain.Vehicle {
	out := make([]domain.Vehicle, 0, len(all))
	for _, v := range all {
		if q.Make != "" && !strings.EqualFold(v.Make, q.Make) {
			continue
		}
		if q.Condition != "" && !strings.EqualFold(v.Condition, q.Condition) {
			continue
		}
		if q.BodyType != "" && !strings.EqualFold(v.BodyType, q.BodyType) {
			continue
		}
		if q.Featured != nil && v.Featured != *q.Featured {
			continue
		}
		out = append(out, v)
	}
	out = searchRecords(out, q.ListQuery, func(v domain.Vehicle) string {
		return strings.Join([]string{v.Title(), v.VIN, v.StockNumber, v.ExteriorColor, v.BodyType, v.Description}, " ")
	})

	var less func(a, b domain.Vehicle) bool
	switch q.Sort {
	case SortNewest:
		less = func(a, b domain.Vehicle) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		less = func(a, b domain.Vehicle) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceAsc:
		less = func(a, b domain.Vehicle) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b domain.Vehicle) bool { return a.Price > b.Price }
	case SortYearDesc:
		less = func(a, b domain.Vehicle) bool { return a.Year > b.Year }
	case SortMileage:
		less = func(a, b domain.Vehicle) bool { return a.Mileage < b.Mileage }
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return utils.Take(out, q.Limit)
}

// searchRecords keeps the records matching q.Q, best match first. A blank
// query returns items unchanged.
func searchRecords[T any](items []T, q ListQuery, text func(T) string) []T {
	if strings.TrimSpace(q.Q) == "" || len(items) == 0 {
		return items
	}
	docs := make([]search.Doc, len(items))
	for i, it := range items {
		docs[i] = search.Doc{Ref: strconv.Itoa(i), Text: text(it)}
	}
	hits := search.New(docs, q.Search...).Match(q.Q, q.Threshold)
	out := make([]T, 0, len(hits))
	for _, h := range hits {
		i, _ := strconv.Atoi(h.Ref)
		out = append(out, items[i])
	}
	return out
}
