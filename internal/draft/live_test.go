package draft

import (
	"context"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

func nextLookup(t *testing.T, ch <-chan Lookup) Lookup {
	t.Helper()
	select {
	case l, ok := <-ch:
		if !ok {
			t.Fatal("Watch channel closed unexpectedly")
		}
		return l
	case <-time.After(waitTimeout):
		t.Fatal("Timed out waiting for lookup")
	}
	return Lookup{}
}

func waitForLookup(t *testing.T, ch <-chan Lookup, done func(Lookup) bool) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case l := <-ch:
			if done(l) {
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for the expected lookup")
		}
	}
}

func nextSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("WatchAll channel closed unexpectedly")
		}
		return s
	case <-time.After(waitTimeout):
		t.Fatal("Timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestLiveWatchFollowsDraft(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewLive(NewMemoryStore())
	updates := store.Watch(ctx, "d1")

	first := nextLookup(t, updates)
	if first.Draft != nil || first.Err != nil {
		t.Fatalf("Expected missing draft without error, got %+v", first)
	}

	if err := store.Upsert(ctx, Draft{ID: "d1", Content: "v1", LastModified: time.Now()}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Earlier states may be coalesced; wait for the write to show up.
	waitForLookup(t, updates, func(l Lookup) bool {
		return l.Draft != nil && l.Draft.Content == "v1"
	})

	if err := store.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if l := nextLookup(t, updates); l.Draft != nil {
		t.Errorf("Expected draft to be gone after delete, got %+v", l.Draft)
	}
}

func TestLiveWatchIgnoresOtherDrafts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewLive(NewMemoryStore())
	updates := store.Watch(ctx, "mine")
	nextLookup(t, updates)

	if err := store.Upsert(ctx, Draft{ID: "other", Content: "x"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	select {
	case l := <-updates:
		t.Errorf("Did not expect an update for another draft, got %+v", l)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLiveWatchAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewLive(NewMemoryStore())
	lists := store.WatchAll(ctx)

	if s := nextSnapshot(t, lists); len(s.Drafts) != 0 || s.Err != nil {
		t.Fatalf("Expected empty initial list, got %+v", s)
	}

	base := time.Now()
	store.Upsert(ctx, Draft{ID: "a", Content: "a", LastModified: base})
	store.Upsert(ctx, Draft{ID: "b", Content: "b", LastModified: base.Add(time.Minute)})

	deadline := time.After(waitTimeout)
	for {
		select {
		case s := <-lists:
			if len(s.Drafts) == 2 {
				if s.Drafts[0].ID != "b" {
					t.Errorf("Expected newest draft first, got %s", s.Drafts[0].ID)
				}
				return
			}
		case <-deadline:
			t.Fatal("Never observed both drafts")
		}
	}
}

func TestLiveWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewLive(NewMemoryStore())
	updates := store.WatchAll(ctx)
	nextSnapshot(t, updates)

	cancel()

	select {
	case _, ok := <-updates:
		if ok {
			// A final snapshot may race with the cancel; the next read must see the close.
			if _, ok := <-updates; ok {
				t.Error("Expected channel to close after cancel")
			}
		}
	case <-time.After(waitTimeout):
		t.Fatal("Watch channel not closed after cancel")
	}
}

func TestLiveDoesNotPublishFailedWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewLive(NewMemoryStore())
	updates := store.Watch(ctx, "d")
	nextLookup(t, updates)

	cancelled, cancelWrite := context.WithCancel(context.Background())
	cancelWrite()
	if err := store.Upsert(cancelled, Draft{ID: "d", Content: "x"}); err == nil {
		t.Fatal("Expected upsert with cancelled context to fail")
	}

	select {
	case l := <-updates:
		t.Errorf("Did not expect an update after a failed write, got %+v", l)
	case <-time.After(50 * time.Millisecond):
	}
}
