package storage

import (
	"testing"
	"time"
)

func TestBoltStoreMarksAndExpiresEvents(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		EventTTL:        1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(dir+"/tracker.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	seen, err := store.SeenEvent("daily/1/200")
	if err != nil || seen {
		t.Fatalf("expected unseen event, seen=%v err=%v", seen, err)
	}

	if err := store.MarkEvent("daily/1/200"); err != nil {
		t.Fatalf("MarkEvent: %v", err)
	}

	seen, err = store.SeenEvent("daily/1/200")
	if err != nil || !seen {
		t.Fatalf("expected event marked as seen, got seen=%v err=%v", seen, err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	seen, err = store.SeenEvent("daily/1/200")
	if err != nil {
		t.Fatalf("SeenEvent after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkEvent("x"); err != nil {
		t.Fatalf("noop store MarkEvent: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}
