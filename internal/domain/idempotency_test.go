package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (Idempotency{}).TableName() != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q", (Idempotency{}).TableName())
	}
	if (Document{}).TableName() != "collections" {
		t.Fatalf("Document.TableName() = %q", (Document{}).TableName())
	}
}

func TestIdempotency_Migration_UniqueScopeKey(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_scope_key") {
		t.Fatalf("expected composite index ux_scope_key")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:        "id-1",
		Scope:     "POST /api/newsletter|10.0.0.1",
		Key:       "k1",
		Status:    200,
		Body:      []byte(`{"success":true}`),
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Scope != rec.Scope || got.Key != "k1" || got.Status != 200 || string(got.Body) != `{"success":true}` {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be auto-filled")
	}

	dup := &Idempotency{ID: "id-2", Scope: rec.Scope, Key: "k1", Status: 200, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (scope, key)")
	}

	other := &Idempotency{ID: "id-3", Scope: "POST /api/contact|10.0.0.1", Key: "k1", Status: 200, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("same key on another scope should be allowed: %v", err)
	}
}

func TestDocument_MigrateAndUpsertByName(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Document{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	now := time.Now().UTC()
	if err := db.Create(&Document{Name: "vehicles", Data: "[]", UpdatedAt: now}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Create(&Document{Name: "vehicles", Data: "[{}]", UpdatedAt: now}).Error; err == nil {
		t.Fatalf("expected primary key violation on name")
	}
}
