// Package store persists named collections as whole JSON arrays.
//
// A Backend moves raw document bytes; the generic helpers in this file own
// the JSON encoding and the read policy: a missing or unparsable document is
// an empty collection, while any other failure is a *StorageError.
//
// Writes replace the entire document. Append is a read-modify-write with no
// locking, so two concurrent writers to the same collection race and the
// last writer wins. That is acceptable for form traffic and intentionally not
// coordinated here.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbourn/dealership-backend/internal/sysutil"
)

// Collection names a persisted JSON array.
type Collection string

// Known collections.
const (
	ContactSubmissions    Collection = "contact-submissions"
	NewsletterSubscribers Collection = "newsletter-subscribers"
	Vehicles              Collection = "vehicles"
)

// Backend loads and saves raw collection documents.
//
// Load returns (nil, nil) when the document does not exist. Save must make
// the new document visible all at once: readers see either the old bytes or
// the new bytes, never a mix.
type Backend interface {
	Load(ctx context.Context, c Collection) ([]byte, error)
	Save(ctx context.Context, c Collection, data []byte) error
}

// ErrStorage is matched by every *StorageError via errors.Is.
var ErrStorage = errors.New("storage error")

// StorageError reports a read or write failure against a collection.
type StorageError struct {
	Op         string // "read" or "write"
	Collection Collection
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ReadAll returns the records of c in stored order.
func ReadAll[T any](ctx context.Context, b Backend, c Collection) ([]T, error) {
	raw, err := b.Load(ctx, c)
	if err != nil {
		return nil, &StorageError{Op: "read", Collection: c, Err: err}
	}
	if len(raw) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		sysutil.Logger(ctx).Warn().Err(err).Str("collection", string(c)).Msg("unparsable collection treated as empty")
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// WriteAll replaces the whole collection with records.
func WriteAll[T any](ctx context.Context, b Backend, c Collection, records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &StorageError{Op: "write", Collection: c, Err: err}
	}
	if err := b.Save(ctx, c, raw); err != nil {
		return &StorageError{Op: "write", Collection: c, Err: err}
	}
	return nil
}

// Append adds rec to the end of the collection and returns the new contents.
func Append[T any](ctx context.Context, b Backend, c Collection, rec T) ([]T, error) {
	all, err := ReadAll[T](ctx, b, c)
	if err != nil {
		return nil, err
	}
	all = append(all, rec)
	if err := WriteAll(ctx, b, c, all); err != nil {
		return nil, err
	}
	return all, nil
}
