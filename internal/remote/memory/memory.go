// Package memory provides an in-process remote adapter.
//
// It behaves like a real tracker - server-assigned ids, full field
// support, not-found errors - while keeping everything in memory. It
// backs the "memory" backend and gives the sync manager a deterministic
// remote for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jordanwest/tkt/internal/remote"
	"github.com/jordanwest/tkt/internal/types"
)

func init() {
	remote.Register("memory", func(projectRef string) (remote.Adapter, error) {
		return New(), nil
	})
}

// Adapter is an in-memory remote tracker.
type Adapter struct {
	mu     sync.Mutex
	items  map[string]*types.WorkItem
	nextID int

	statuses   []string
	itemTypes  []string
	iterations []string
	assignees  []string
}

// New returns an empty in-memory adapter with full capabilities.
func New() *Adapter {
	return &Adapter{
		items:      make(map[string]*types.WorkItem),
		nextID:     1,
		statuses:   []string{"open", "in_progress", "done"},
		itemTypes:  []string{"bug", "feature", "task", "epic", "chore"},
		iterations: []string{},
		assignees:  []string{},
	}
}

func (a *Adapter) Name() string { return "memory" }

func (a *Adapter) GetCapabilities() types.Capabilities {
	return types.FullCapabilities()
}

func (a *Adapter) GetStatuses(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.statuses...), nil
}

func (a *Adapter) GetIterations(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.iterations...), nil
}

func (a *Adapter) GetWorkItemTypes(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.itemTypes...), nil
}

func (a *Adapter) GetAssignees(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.assignees...), nil
}

func (a *Adapter) ListWorkItems(ctx context.Context, iteration string) ([]*types.WorkItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var items []*types.WorkItem
	for _, item := range a.items {
		if iteration != "" && item.Iteration != iteration {
			continue
		}
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (a *Adapter) GetWorkItem(ctx context.Context, id string) (*types.WorkItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	item, ok := a.items[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, types.ErrNotFound)
	}
	return item.Clone(), nil
}

func (a *Adapter) CreateWorkItem(ctx context.Context, item *types.WorkItem) (*types.WorkItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	created := item.Clone()
	created.ID = strconv.Itoa(a.nextID)
	a.nextID++
	now := time.Now()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	a.items[created.ID] = created
	return created.Clone(), nil
}

func (a *Adapter) UpdateWorkItem(ctx context.Context, id string, patch *types.ItemPatch) (*types.WorkItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	item, ok := a.items[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, types.ErrNotFound)
	}
	patch.Apply(item)
	item.UpdatedAt = time.Now()
	return item.Clone(), nil
}

func (a *Adapter) DeleteWorkItem(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.items[id]; !ok {
		return fmt.Errorf("%s: %w", id, types.ErrNotFound)
	}
	delete(a.items, id)
	return nil
}

func (a *Adapter) AddComment(ctx context.Context, id string, comment types.Comment) (*types.Comment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	item, ok := a.items[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, types.ErrNotFound)
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	item.Comments = append(item.Comments, comment)
	item.UpdatedAt = time.Now()
	saved := item.Comments[len(item.Comments)-1]
	return &saved, nil
}

// Seed inserts items directly, bypassing id assignment. Test helper.
func (a *Adapter) Seed(items ...*types.WorkItem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, item := range items {
		a.items[item.ID] = item.Clone()
	}
}

// Count returns the number of remote items. Test helper.
func (a *Adapter) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}
