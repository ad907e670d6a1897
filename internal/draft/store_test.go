package draft

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/stylus/internal/apperror"
	"github.com/debemdeboas/stylus/internal/db"
)

func strPtr(s string) *string { return &s }

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db.SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	conn := db.NewSQLite(db.MemoryPath)
	if err := conn.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewSQLStore(conn)
}

// forEachStore runs the same contract checks against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLStore(t)) })
}

func TestStoreUpsertAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		modified := time.Date(2026, 3, 4, 10, 30, 0, 123_000_000, time.UTC)

		d := Draft{
			ID:             "draft-1",
			Content:        "Dear diary",
			LastModified:   modified,
			ContentPreview: strPtr("Dear diary"),
		}
		if err := s.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		got, err := s.Get(ctx, "draft-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Content != "Dear diary" {
			t.Errorf("Expected content %q, got %q", "Dear diary", got.Content)
		}
		if !got.LastModified.Equal(modified) {
			t.Errorf("Expected last modified %v, got %v", modified, got.LastModified)
		}
		if got.ContentPreview == nil || *got.ContentPreview != "Dear diary" {
			t.Errorf("Unexpected preview %v", got.ContentPreview)
		}
		if got.Title != nil {
			t.Errorf("Expected no title, got %q", *got.Title)
		}
	})
}

func TestStoreUpsertReplacesWholeRecord(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		first := Draft{ID: "d", Content: "one", LastModified: time.UnixMilli(1000), Title: strPtr("old title")}
		second := Draft{ID: "d", Content: "two", LastModified: time.UnixMilli(2000)}

		if err := s.Upsert(ctx, first); err != nil {
			t.Fatalf("First upsert failed: %v", err)
		}
		if err := s.Upsert(ctx, second); err != nil {
			t.Fatalf("Second upsert failed: %v", err)
		}

		got, err := s.Get(ctx, "d")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Content != "two" {
			t.Errorf("Expected replaced content, got %q", got.Content)
		}
		if got.Title != nil {
			t.Error("Expected title to be cleared by a full replace")
		}

		all, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("Expected a single record after two upserts, got %d", len(all))
		}
	})
}

func TestStoreGetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if apperror.KindOf(err) != apperror.KindNotFound {
			t.Errorf("Expected not_found kind, got %s", apperror.KindOf(err))
		}
	})
}

func TestStoreDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if err := s.Upsert(ctx, Draft{ID: "gone", Content: "x", LastModified: time.Now()}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if err := s.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := s.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected deleted draft to be gone, got %v", err)
		}

		all, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, d := range all {
			if d.ID == "gone" {
				t.Error("Deleted draft still listed")
			}
		}

		if err := s.Delete(ctx, "never-existed"); err != nil {
			t.Errorf("Expected deleting a missing draft to succeed, got %v", err)
		}
	})
}

func TestStoreListOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		for i, id := range []ID{"oldest", "newest", "middle"} {
			offset := map[ID]time.Duration{"oldest": 0, "middle": time.Hour, "newest": 2 * time.Hour}[id]
			d := Draft{ID: id, Content: strings.Repeat("x", i+1), LastModified: base.Add(offset)}
			if err := s.Upsert(ctx, d); err != nil {
				t.Fatalf("Upsert %s failed: %v", id, err)
			}
		}

		all, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}

		expected := []ID{"newest", "middle", "oldest"}
		if len(all) != len(expected) {
			t.Fatalf("Expected %d drafts, got %d", len(expected), len(all))
		}
		for i, id := range expected {
			if all[i].ID != id {
				t.Errorf("Position %d: expected %s, got %s", i, id, all[i].ID)
			}
		}
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, Draft{ID: "c", Content: "x", ContentPreview: strPtr("x")}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, _ := s.Get(ctx, "c")
	*got.ContentPreview = "mutated"

	again, _ := s.Get(ctx, "c")
	if *again.ContentPreview != "x" {
		t.Error("Mutating a returned draft changed the stored record")
	}
}

func TestSQLStoreSurfacesStorageErrors(t *testing.T) {
	conn := db.NewSQLite(db.MemoryPath)
	if err := conn.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	s := NewSQLStore(conn)

	// Dropping the table makes every statement fail.
	if _, err := conn.ExecContext(context.Background(), "DROP TABLE drafts"); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	defer conn.Close()

	err := s.Upsert(context.Background(), Draft{ID: "x", Content: "y"})
	if apperror.KindOf(err) != apperror.KindStorage {
		t.Errorf("Expected storage error from Upsert, got %v", err)
	}

	_, err = s.List(context.Background())
	if apperror.KindOf(err) != apperror.KindStorage {
		t.Errorf("Expected storage error from List, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		max      int
		expected string
	}{
		{"short content untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long content truncated", "hello world", 5, "hello..."},
		{"counts runes not bytes", "héllo wörld", 7, "héllo w..."},
		{"empty", "", 100, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Preview(tc.content, tc.max); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" \t\n") {
		t.Error("Whitespace should be blank")
	}
	if IsBlank(" a ") {
		t.Error("Text with letters should not be blank")
	}
}
