package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/dealership-backend/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (scope, key) pair.
var ErrDuplicate = errors.New("duplicate")

// IdempotencyStore keeps replayable responses in the idempotency table.
type IdempotencyStore struct {
	db *gorm.DB
}

// NewIdempotencyStore wraps db.
func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Lookup returns the stored status and body for a live (scope, key), or
// ErrNotFound when none exists or it has expired.
func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string, now time.Time) (int, []byte, error) {
	rec, err := GetIdempotency(ctx, s.db, scope, key, now)
	if err != nil {
		return 0, nil, err
	}
	return rec.Status, rec.Body, nil
}

// Save records a response. A concurrent first write wins; the loser gets
// ErrDuplicate.
func (s *IdempotencyStore) Save(ctx context.Context, scope, key string, status int, body []byte, ttl time.Duration) error {
	_, err := CreateIdempotency(ctx, s.db, scope, key, status, body, ttl)
	return err
}

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at > ?", scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, status int, body []byte, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		Scope:     scope,
		Key:       key,
		Status:    status,
		Body:      body,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") ||
			strings.Contains(low, "duplicate key value") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpired deletes records whose TTL has passed and returns how many
// were removed.
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
