package daemon

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/jordanwest/tkt/internal/cache"
	"github.com/jordanwest/tkt/internal/store"
	"github.com/jordanwest/tkt/internal/types"
)

func setupDaemon(t *testing.T) (*Daemon, *store.Store, *cache.DB) {
	t.Helper()

	tmp := t.TempDir()
	db, err := cache.Open(filepath.Join(tmp, "cache.db"))
	if err != nil {
		t.Fatalf("cache.Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n := 0
	mint := func() (string, error) {
		n++
		return types.LocalIDPrefix + string(rune('0'+n)), nil
	}
	st := store.New(filepath.Join(tmp, "items"), types.FullCapabilities(), mint)
	if err := st.Init(); err != nil {
		t.Fatalf("store.Init() failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.DebounceInterval = 10 * time.Millisecond
	cfg.Logger = log.New(io.Discard, "", 0)

	d, err := New(db, st, nil, cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return d, st, db
}

func TestNewRejectsNilDeps(t *testing.T) {
	if _, err := New(nil, nil, nil, nil); err == nil {
		t.Fatal("New() with nil db should fail")
	}
}

func TestRebuildCache(t *testing.T) {
	d, st, db := setupDaemon(t)

	for _, title := range []string{"One", "Two"} {
		if _, err := st.Create(&types.WorkItem{Title: title}); err != nil {
			t.Fatalf("Create(%s) failed: %v", title, err)
		}
	}

	if err := d.RebuildCache(); err != nil {
		t.Fatalf("RebuildCache() failed: %v", err)
	}

	items, err := db.ListItems(context.Background(), cache.ListOptions{})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("cached %d items, want 2", len(items))
	}
}

func TestSyncItemFileUpsertAndDelete(t *testing.T) {
	d, st, db := setupDaemon(t)

	created, err := st.Create(&types.WorkItem{Title: "Watched"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	path := filepath.Join(st.Dir(), store.Filename(created.ID))

	if err := d.syncItemFile(path); err != nil {
		t.Fatalf("syncItemFile() failed: %v", err)
	}
	items, err := db.ListItems(context.Background(), cache.ListOptions{})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Watched" {
		t.Fatalf("cache = %v, want one item titled Watched", items)
	}

	if err := st.Delete(created.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := d.syncItemFile(path); err != nil {
		t.Fatalf("syncItemFile() after delete failed: %v", err)
	}
	items, err = db.ListItems(context.Background(), cache.ListOptions{})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("cache has %d items after delete, want 0", len(items))
	}
}

func TestWatcherMirrorsChanges(t *testing.T) {
	d, st, db := setupDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	// Give the watcher a moment to attach before writing.
	time.Sleep(50 * time.Millisecond)

	if _, err := st.Create(&types.WorkItem{Title: "Live"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		items, err := db.ListItems(context.Background(), cache.ListOptions{})
		if err != nil {
			t.Fatalf("ListItems() failed: %v", err)
		}
		if len(items) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cache never picked up the new item")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
}
