package domain

import "time"

// Idempotency records the first response produced for an Idempotency-Key so
// a retried form submission replays it instead of storing a second record.
// Scope is "<METHOD> <route>" plus the client address, so the same key sent to
// different endpoints never collides.
type Idempotency struct {
	ID        string    `gorm:"size:36;primaryKey"`
	Scope     string    `gorm:"size:255;not null;uniqueIndex:ux_scope_key,priority:1"`
	Key       string    `gorm:"size:255;not null;uniqueIndex:ux_scope_key,priority:2"`
	Status    int       `gorm:"not null"`
	Body      []byte    // bytea on Postgres, blob on SQLite
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// Document is one collection stored as a single row by the table backend.
// Data holds the whole JSON array, so a write replaces it in one statement.
type Document struct {
	Name      string    `gorm:"size:64;primaryKey"`
	Data      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (Document) TableName() string { return "collections" }
