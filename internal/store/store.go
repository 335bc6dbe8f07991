// Package store implements the local work item store: a durable,
// file-backed CRUD layer that is always the fast, writable source of
// truth. One JSON file per item lives under .tkt/items/.
//
// The store owns relationship-integrity validation (parent chains and
// dependency graphs stay acyclic) and capability-gated field validation:
// a write the active remote cannot represent is rejected before it
// reaches disk, so it can never end up in the mutation queue either.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jordanwest/tkt/internal/types"
)

// MintFunc produces the next locally-minted work item id.
type MintFunc func() (string, error)

// Store is a file-backed work item store. All methods are safe for
// concurrent use within one process; the design assumes single-process
// ownership of the data directory.
type Store struct {
	dir  string
	caps types.Capabilities
	mint MintFunc

	mu sync.Mutex
	// cached is the read-through list snapshot; nil means invalid.
	// Every mutation clears it so List always reflects disk truth.
	cached []*types.WorkItem
}

// New creates a store over dir. caps is the capability descriptor of
// the active remote backend; mint supplies local ids for Create.
func New(dir string, caps types.Capabilities, mint MintFunc) *Store {
	return &Store{dir: dir, caps: caps, mint: mint}
}

// Init creates the items directory.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create items directory: %w", err)
	}
	return nil
}

// Dir returns the items directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, Filename(id))
}

// List returns all items, optionally filtered to one iteration, sorted
// by creation time (oldest first). Listing reads through an in-memory
// cache that every mutation invalidates.
func (s *Store) List(iteration string) ([]*types.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		items, err := s.loadSortedLocked()
		if err != nil {
			return nil, err
		}
		s.cached = items
	}

	out := make([]*types.WorkItem, 0, len(s.cached))
	for _, item := range s.cached {
		if iteration != "" && item.Iteration != iteration {
			continue
		}
		out = append(out, item.Clone())
	}
	return out, nil
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (*types.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id string) (*types.WorkItem, error) {
	item, err := ReadItemFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", id, types.ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

// Create validates, assigns a local id and timestamps, and persists a
// new work item. Validation runs before any write reaches disk.
func (s *Store) Create(input *types.WorkItem) (*types.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := input.Clone()
	if item.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if item.Priority == "" {
		item.Priority = types.DefaultPriority
	}
	if item.Status == "" {
		item.Status = "open"
	}
	if item.Type == "" {
		item.Type = "task"
	}

	if err := s.checkItemCapabilities(item); err != nil {
		return nil, err
	}

	if item.Parent != "" || len(item.DependsOn) > 0 {
		all, err := s.loadMapLocked()
		if err != nil {
			return nil, err
		}
		// The new item has no id yet; relationship checks use a
		// placeholder that cannot collide with stored ids.
		if err := validateRelationships(all, "(new)", item.Parent, item.DependsOn, item.DependsOn); err != nil {
			return nil, err
		}
	}

	id, err := s.mint()
	if err != nil {
		return nil, fmt.Errorf("failed to mint local id: %w", err)
	}
	item.ID = id
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := WriteItemFile(s.dir, item); err != nil {
		return nil, err
	}
	s.invalidateLocked()
	return item.Clone(), nil
}

// Update applies a partial update to an item. Capability validation runs
// first, then relationship validation for any parent/dependsOn change,
// all before anything is persisted.
func (s *Store) Update(id string, patch *types.ItemPatch) (*types.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}

	if err := s.checkPatchCapabilities(patch); err != nil {
		return nil, err
	}

	if patch.Parent != nil || patch.DependsOn != nil {
		all, err := s.loadMapLocked()
		if err != nil {
			return nil, err
		}
		parent := ""
		if patch.Parent != nil {
			parent = *patch.Parent
		}
		var listed, added []string
		if patch.DependsOn != nil {
			listed = *patch.DependsOn
			added = newDependencies(item.DependsOn, listed)
		}
		if err := validateRelationships(all, id, parent, listed, added); err != nil {
			return nil, err
		}
	}

	patch.Apply(item)
	item.UpdatedAt = time.Now().UTC()

	if err := WriteItemFile(s.dir, item); err != nil {
		return nil, err
	}
	s.invalidateLocked()
	return item.Clone(), nil
}

// Delete removes an item and cascades: any other item pointing at it as
// parent has the reference cleared, and any dependsOn entry naming it is
// removed. The cascade is a single scan over the remaining items,
// persisting only the ones that actually changed.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, types.ErrNotFound)
		}
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}

	all, err := s.loadMapLocked()
	if err != nil {
		return err
	}
	for _, other := range all {
		changed := false
		if other.Parent == id {
			other.Parent = ""
			changed = true
		}
		if other.HasDependency(id) {
			other.DependsOn = removeString(other.DependsOn, id)
			changed = true
		}
		if changed {
			other.UpdatedAt = time.Now().UTC()
			if err := WriteItemFile(s.dir, other); err != nil {
				return err
			}
		}
	}

	s.invalidateLocked()
	return nil
}

// AddComment appends a comment to an item, assigning the comment an id
// and timestamp.
func (s *Store) AddComment(id string, comment types.Comment) (*types.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.caps.Comments {
		return nil, &types.ValidationError{Kind: types.ValidationUnsupportedField, Field: "comments"}
	}

	item, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	item.Comments = append(item.Comments, comment)
	item.UpdatedAt = time.Now().UTC()

	if err := WriteItemFile(s.dir, item); err != nil {
		return nil, err
	}
	s.invalidateLocked()
	return &comment, nil
}

// RenameItem rewrites an item's id and every reference to it from other
// items' parent and dependsOn fields. The sync manager calls this after
// a remote create confirms a server-assigned id for a locally-minted one.
func (s *Store) RenameItem(oldID, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID == newID {
		return nil
	}

	item, err := s.getLocked(oldID)
	if err != nil {
		return err
	}

	item.ID = newID
	if err := WriteItemFile(s.dir, item); err != nil {
		return err
	}
	if err := os.Remove(s.path(oldID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old item file %s: %w", oldID, err)
	}

	all, err := s.loadMapLocked()
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID == newID {
			continue
		}
		changed := false
		if other.Parent == oldID {
			other.Parent = newID
			changed = true
		}
		if other.HasDependency(oldID) {
			for i, d := range other.DependsOn {
				if d == oldID {
					other.DependsOn[i] = newID
				}
			}
			changed = true
		}
		if changed {
			if err := WriteItemFile(s.dir, other); err != nil {
				return err
			}
		}
	}

	s.invalidateLocked()
	return nil
}

// ReplaceAll overwrites the store's view with the given item set, as
// happens when the pull phase refreshes local state from the remote
// system of record. Items whose ids appear in preserve are kept as-is:
// locally-created items with pending queue entries have no remote
// counterpart yet and must survive the refresh.
func (s *Store) ReplaceAll(items []*types.WorkItem, preserve map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read items directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		if preserve[id] {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove item file %s: %w", entry.Name(), err)
		}
	}

	for _, item := range items {
		if preserve[item.ID] {
			continue
		}
		if err := WriteItemFile(s.dir, item); err != nil {
			return err
		}
	}

	s.invalidateLocked()
	return nil
}

// invalidateLocked drops the list cache so the next List re-reads disk.
func (s *Store) invalidateLocked() {
	s.cached = nil
}

func (s *Store) loadMapLocked() (map[string]*types.WorkItem, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*types.WorkItem{}, nil
		}
		return nil, fmt.Errorf("failed to read items directory: %w", err)
	}

	all := make(map[string]*types.WorkItem, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		item, err := ReadItemFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// Skip unreadable records rather than failing the whole scan.
			fmt.Fprintf(os.Stderr, "Warning: skipping invalid item file %s: %v\n", entry.Name(), err)
			continue
		}
		all[item.ID] = item
	}
	return all, nil
}

func (s *Store) loadSortedLocked() ([]*types.WorkItem, error) {
	all, err := s.loadMapLocked()
	if err != nil {
		return nil, err
	}
	items := make([]*types.WorkItem, 0, len(all))
	for _, item := range all {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func removeString(slice []string, item string) []string {
	out := slice[:0]
	for _, s := range slice {
		if s != item {
			out = append(out, s)
		}
	}
	return out
}
