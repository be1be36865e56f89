package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/store"
)

// DocumentStore is the table backend for the record store: one row per
// collection whose data column holds the full JSON array. A save is a single
// upsert, so readers see the old or the new document and nothing between.
type DocumentStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDocumentStore wraps db. The schema must already be migrated.
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ store.Backend = (*DocumentStore)(nil)

// Load implements store.Backend.
func (d *DocumentStore) Load(ctx context.Context, c store.Collection) ([]byte, error) {
	var doc domain.Document
	err := d.db.WithContext(ctx).Where("name = ?", string(c)).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Data), nil
}

// Save implements store.Backend.
func (d *DocumentStore) Save(ctx context.Context, c store.Collection, data []byte) error {
	doc := domain.Document{Name: string(c), Data: string(data), UpdatedAt: d.now()}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&doc).Error
}
