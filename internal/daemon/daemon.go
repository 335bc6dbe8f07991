// Package daemon implements the background process that keeps the
// SQLite query cache in step with the item files and runs periodic
// sync passes against the remote backend.
//
// Item files remain the source of truth. The daemon watches the items
// directory with fsnotify, debounces bursts of writes, and mirrors each
// change into the cache. A ticker triggers full sync passes; triggers
// arriving while a pass is in flight are coalesced by the sync manager.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jordanwest/tkt/internal/cache"
	"github.com/jordanwest/tkt/internal/store"
	"github.com/jordanwest/tkt/internal/syncer"
)

// Config holds daemon tuning knobs.
type Config struct {
	// SyncInterval is how often a full sync pass runs.
	SyncInterval time.Duration

	// DebounceInterval batches rapid file updates before mirroring
	// them into the cache.
	DebounceInterval time.Duration

	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     30 * time.Second,
		DebounceInterval: 100 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the items directory and keeps the query cache and
// remote backend in step with it.
type Daemon struct {
	db       *cache.DB
	store    *store.Store
	manager  *syncer.Manager
	itemsDir string
	config   *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon. manager may be nil, in which case the daemon
// only maintains the cache and never contacts a remote.
func New(db *cache.DB, st *store.Store, manager *syncer.Manager, config *Config) (*Daemon, error) {
	if db == nil {
		return nil, fmt.Errorf("cache db cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		db:          db,
		store:       st,
		manager:     manager,
		itemsDir:    st.Dir(),
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start rebuilds the cache, begins watching for item file changes, and
// runs periodic sync passes. Blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.RebuildCache(); err != nil {
		return fmt.Errorf("initial cache rebuild failed: %w", err)
	}

	if err := d.watcher.Add(d.itemsDir); err != nil {
		return fmt.Errorf("failed to watch items directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.itemsDir)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	if d.manager != nil {
		d.wg.Add(1)
		go d.runSyncLoop()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()
	d.config.Logger.Println("Daemon stopped")
	return nil
}

// RebuildCache replaces the cache contents with the full item set.
// Called on startup and after a sync pass rewrites the store.
func (d *Daemon) RebuildCache() error {
	items, err := d.store.List("")
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	if err := d.db.RebuildFrom(d.ctx, items); err != nil {
		return err
	}
	d.config.Logger.Printf("Cache rebuilt with %d items", len(items))
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()
	d.changeQueue[path] = time.Now()
}

// processChangeQueue drains the debounced change map on a ticker.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		if err := d.syncItemFile(path); err != nil {
			d.config.Logger.Printf("Error syncing %s: %v", path, err)
		}
		delete(d.changeQueue, path)
	}
}

// syncItemFile mirrors a single item file change into the cache. A
// missing file means the item was deleted.
func (d *Daemon) syncItemFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		id := store.ItemIDFromPath(path)
		d.config.Logger.Printf("Removing cached item: %s", id)
		return d.db.DeleteItem(d.ctx, id)
	}

	item, err := store.ReadItemFile(path)
	if err != nil {
		return fmt.Errorf("failed to read item file: %w", err)
	}
	return d.db.UpsertItem(d.ctx, item)
}

// runSyncLoop triggers periodic sync passes.
func (d *Daemon) runSyncLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.manager.Sync(d.ctx); err != nil {
				d.config.Logger.Printf("Sync pass failed: %v", err)
			}
		}
	}
}
