package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type rec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type failingBackend struct {
	loadErr error
	saveErr error
	data    []byte
}

func (f *failingBackend) Load(context.Context, Collection) ([]byte, error) { return f.data, f.loadErr }
func (f *failingBackend) Save(context.Context, Collection, []byte) error    { return f.saveErr }

func TestReadAll_MissingCollectionIsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, b := range map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   &FileBackend{Dir: t.TempDir()},
	} {
		got, err := ReadAll[rec](ctx, b, Vehicles)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("%s: want empty non-nil slice, got %#v", name, got)
		}
	}
}

func TestReadAll_CorruptDocumentIsEmpty(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	_ = b.Save(ctx, Vehicles, []byte("{not json"))
	got, err := ReadAll[rec](ctx, b, Vehicles)
	if err != nil || len(got) != 0 {
		t.Fatalf("corrupt doc: got %v, %v", got, err)
	}

	_ = b.Save(ctx, Vehicles, []byte("null"))
	got, err = ReadAll[rec](ctx, b, Vehicles)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("null doc: got %#v, %v", got, err)
	}
}

func TestReadAll_LoadFailureIsStorageError(t *testing.T) {
	boom := errors.New("permission denied")
	_, err := ReadAll[rec](context.Background(), &failingBackend{loadErr: boom}, ContactSubmissions)
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "read" || se.Collection != ContactSubmissions {
		t.Fatalf("want read StorageError, got %v", err)
	}
	if !errors.Is(err, ErrStorage) || !errors.Is(err, boom) {
		t.Fatalf("StorageError should match ErrStorage and wrap cause: %v", err)
	}
}

func TestWriteAll_FailureIsStorageError(t *testing.T) {
	err := WriteAll(context.Background(), &failingBackend{saveErr: errors.New("disk full")}, Vehicles, []rec{{ID: "1"}})
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "write" {
		t.Fatalf("want write StorageError, got %v", err)
	}
	if se.Error() != "store: write vehicles: disk full" {
		t.Fatalf("message = %q", se.Error())
	}
}

func TestAppend_PreservesOrderAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	b := &FileBackend{Dir: t.TempDir()}

	for _, r := range []rec{{"1", "a"}, {"2", "b"}, {"3", "c"}} {
		if _, err := Append(ctx, b, NewsletterSubscribers, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := ReadAll[rec](ctx, b, NewsletterSubscribers)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []rec{{"1", "a"}, {"2", "b"}, {"3", "c"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	before, _ := os.ReadFile(filepath.Join(b.Dir, "newsletter-subscribers.json"))
	if err := WriteAll(ctx, b, NewsletterSubscribers, got); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	after, _ := os.ReadFile(filepath.Join(b.Dir, "newsletter-subscribers.json"))
	if string(before) != string(after) {
		t.Fatalf("writeAll(readAll(x)) changed content")
	}
}

func TestAppend_ReadFailureSkipsWrite(t *testing.T) {
	fb := &failingBackend{loadErr: errors.New("io"), saveErr: errors.New("must not be called")}
	_, err := Append(context.Background(), fb, Vehicles, rec{ID: "x"})
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "read" {
		t.Fatalf("want read error, got %v", err)
	}
}

func TestWriteAll_NilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	if err := WriteAll[rec](ctx, b, Vehicles, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, _ := b.Load(ctx, Vehicles)
	if string(raw) != "[]" {
		t.Fatalf("want [], got %q", raw)
	}
}
