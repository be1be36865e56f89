package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/dealership-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid schema leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	rec, err := GetIdempotency(context.Background(), db, "POST /api/contact|1.2.3.4", "   ", time.Now())
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound), got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID:        "expired",
		Scope:     "s",
		Key:       "k1",
		Status:    200,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if rec, err := GetIdempotency(context.Background(), db, "s", "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(context.Background(), db, "s", "missing", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec, err)
	}
}

func TestIdempotencyStore_SaveLookupAndDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	s := NewIdempotencyStore(db)
	ctx := context.Background()
	body := []byte(`{"success":true,"emailSent":true}`)

	if err := s.Save(ctx, "POST /api/newsletter|ip", "k9", 200, body, 90*time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	status, got, err := s.Lookup(ctx, "POST /api/newsletter|ip", "k9", time.Now())
	if err != nil || status != 200 || string(got) != string(body) {
		t.Fatalf("Lookup = %d %q %v", status, got, err)
	}

	if err := s.Save(ctx, "POST /api/newsletter|ip", "k9", 409, nil, time.Minute); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, _, err := s.Lookup(ctx, "POST /api/contact|ip", "k9", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other scope should miss, got %v", err)
	}
	if _, _, err := s.Lookup(ctx, "POST /api/newsletter|ip", "k9", time.Now().Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired entry should miss, got %v", err)
	}
}

func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	_, err := CreateIdempotency(context.Background(), db, "s", "k", 200, nil, time.Minute)
	if err == nil {
		t.Fatalf("expected error when table is missing")
	}
	if err == ErrDuplicate {
		t.Fatalf("expected non-duplicate error, got ErrDuplicate")
	}
}

func TestGetIdempotency_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	_, err := GetIdempotency(context.Background(), db, "s", "k", time.Now())
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()
	rows := []domain.Idempotency{
		{ID: "old", Scope: "s", Key: "a", Status: 200, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)},
		{ID: "live", Scope: "s", Key: "b", Status: 200, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	n, err := PurgeExpired(context.Background(), db, now)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired = %d, %v", n, err)
	}
	var left int64
	db.Model(&domain.Idempotency{}).Count(&left)
	if left != 1 {
		t.Fatalf("expected 1 row left, got %d", left)
	}
}
