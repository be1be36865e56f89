package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/dealership-backend/internal/notify"
	"github.com/tbourn/dealership-backend/internal/repo"
	"github.com/tbourn/dealership-backend/internal/store"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func clock() func() time.Time {
	var mu sync.Mutex
	t := fixedNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// newSQLBackend returns a DocumentStore on a private in-memory database.
func newSQLBackend(t *testing.T) *repo.DocumentStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return repo.NewDocumentStore(db)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
	panic  bool
}

func (r *recordingNotifier) Notify(ctx context.Context, ev notify.Event) error {
	if r.panic {
		panic("mailer exploded")
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return r.err
}

func (r *recordingNotifier) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// brokenBackend reads fine but fails every write.
type brokenBackend struct{ *store.MemoryBackend }

func (b *brokenBackend) Save(context.Context, store.Collection, []byte) error {
	return errors.New("disk full")
}

func newBroken() *brokenBackend {
	return &brokenBackend{MemoryBackend: store.NewMemoryBackend()}
}
