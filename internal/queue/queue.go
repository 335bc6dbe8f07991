// Package queue implements the durable mutation queue: an append-only
// log (with in-place collapsing) of local mutations not yet confirmed
// by the remote system of record.
//
// The queue lives in a single JSON file rewritten wholesale on every
// mutation. A corrupt or unparsable file reads as an empty queue rather
// than a fatal error: the queue is a derived artifact of durable local
// intent and can be reconstructed by re-diffing local and remote state.
package queue

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jordanwest/tkt/internal/types"
)

// Queue is a file-backed mutation queue. Entries drain in append order;
// at most one entry exists per (item id, action) pair.
type Queue struct {
	path string
	mu   sync.Mutex
}

type queueFile struct {
	Entries []types.QueueEntry `json:"entries"`
}

// New creates a queue backed by the given file path. The file is
// created on first append.
func New(path string) *Queue {
	return &Queue{path: path}
}

// Read returns all pending entries in append order (oldest first).
func (q *Queue) Read() ([]types.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadLocked(), nil
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.loadLocked())
}

// Append adds an entry, collapsing any existing entry with the same
// (item id, action) pair. This bounds the queue to one pending action
// of each kind per item no matter how many times the user edits offline.
func (q *Queue) Append(entry types.QueueEntry) error {
	if !entry.Action.IsValid() {
		return fmt.Errorf("invalid queue action: %q", entry.Action)
	}
	if entry.ItemID == "" {
		return fmt.Errorf("queue entry requires an item id")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.loadLocked()
	kept := entries[:0]
	for _, e := range entries {
		if e.ItemID == entry.ItemID && e.Action == entry.Action {
			continue
		}
		kept = append(kept, e)
	}
	kept = append(kept, entry)
	return q.saveLocked(kept)
}

// Remove deletes the entry with the given (item id, action) pair, if
// present. Removing an absent entry is not an error.
func (q *Queue) Remove(itemID string, action types.Action) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.loadLocked()
	kept := entries[:0]
	for _, e := range entries {
		if e.ItemID == itemID && e.Action == action {
			continue
		}
		kept = append(kept, e)
	}
	return q.saveLocked(kept)
}

// Clear removes every entry.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.saveLocked(nil)
}

// RenameItem rewrites the item id on every matching entry in place,
// used after a remote create confirms a server-assigned id for a
// locally-minted one. Idempotent: renaming an id with no entries is a
// no-op.
func (q *Queue) RenameItem(oldID, newID string) error {
	if oldID == newID {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.loadLocked()
	changed := false
	for i := range entries {
		if entries[i].ItemID == oldID {
			entries[i].ItemID = newID
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return q.saveLocked(entries)
}

// SetError attaches a remote failure to a pending entry. The entry
// stays queued and is retried on the next sync pass.
func (q *Queue) SetError(itemID string, action types.Action, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.loadLocked()
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ItemID == itemID && entries[i].Action == action {
			entries[i].LastError = message
			entries[i].LastTriedAt = &now
		}
	}
	return q.saveLocked(entries)
}

// loadLocked reads the queue file. Missing or corrupt files read as
// empty; the queue is reconstructible and must never brick the CLI.
func (q *Queue) loadLocked() []types.QueueEntry {
	data, err := os.ReadFile(q.path)
	if err != nil {
		return nil
	}

	var qf queueFile
	if err := json.Unmarshal(data, &qf); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring corrupt queue file %s: %v\n", q.path, err)
		return nil
	}
	return qf.Entries
}

// saveLocked rewrites the whole queue file via temp-and-rename.
func (q *Queue) saveLocked(entries []types.QueueEntry) error {
	qf := queueFile{Entries: entries}
	if qf.Entries == nil {
		qf.Entries = []types.QueueEntry{}
	}

	data, err := json.MarshalIndent(qf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}
	data = append(data, '\n')

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Errorf("failed to generate temp suffix: %w", err)
	}
	tmp := q.path + ".tmp." + hex.EncodeToString(suffix)

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write queue file: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace queue file: %w", err)
	}
	return nil
}
