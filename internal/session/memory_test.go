package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := &Session{ID: "s1", Username: "ana", ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Username != "ana" {
		t.Errorf("Username = %q, want %q", got.Username, "ana")
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, &Session{ID: "s1", Username: "ana", ExpiresAt: time.Now().Add(time.Hour)})

	got, _ := store.Get(ctx, "s1")
	got.Username = "mallory"

	again, _ := store.Get(ctx, "s1")
	if again.Username != "ana" {
		t.Errorf("stored session was mutated through Get() result: %q", again.Username)
	}
}

func TestMemoryStore_ExpiredSessionIsDropped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, &Session{ID: "old", Username: "ana", ExpiresAt: time.Now().Add(-time.Second)})

	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, expired session should have been removed", store.Len())
	}
}

func TestMemoryStore_SaveSweepsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		s := &Session{ID: fmt.Sprintf("s%d", i), Username: "ana", ExpiresAt: now.Add(time.Millisecond)}
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	if store.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000 before expiry", store.Len())
	}

	now = now.Add(48 * time.Hour)
	if err := store.Save(ctx, &Session{ID: "fresh", Username: "ben", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if store.Len() != 1 {
		t.Errorf("Len() = %d after expiry and a new login, want 1", store.Len())
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("Get(fresh) error = %v", err)
	}
}

func TestMemoryStore_SweepKeepsLiveSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	_ = store.Save(ctx, &Session{ID: "short", ExpiresAt: now.Add(time.Minute)})
	_ = store.Save(ctx, &Session{ID: "long", ExpiresAt: now.Add(24 * time.Hour)})

	now = now.Add(2 * time.Hour)
	_ = store.Save(ctx, &Session{ID: "new", ExpiresAt: now.Add(time.Hour)})

	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (long and new)", store.Len())
	}
	if _, err := store.Get(ctx, "long"); err != nil {
		t.Errorf("Get(long) error = %v, want the live session kept", err)
	}
}

func TestMemoryStore_DeleteMissingIsNoop(t *testing.T) {
	if err := NewMemoryStore().Delete(context.Background(), "nope"); err != nil {
		t.Errorf("Delete() error = %v, want nil", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			_ = store.Save(ctx, &Session{ID: id, Username: id, ExpiresAt: time.Now().Add(time.Hour)})
			_, _ = store.Get(ctx, id)
			if i%3 == 0 {
				_ = store.Delete(ctx, id)
			}
		}(i)
	}
	wg.Wait()
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), "memory", "")
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T, want *MemoryStore", s)
	}

	if _, err := Open(context.Background(), "etcd", ""); err == nil {
		t.Error("Open(etcd) error = nil, want unknown store error")
	}
}
