package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jordanwest/tkt/internal/types"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testItem(id, title string) *types.WorkItem {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &types.WorkItem{
		ID:        id,
		Title:     title,
		Type:      "task",
		Status:    "open",
		Priority:  types.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"items", "deps"} {
		var count int
		err := db.conn.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestUpsertAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	item := testItem("1", "First")
	item.Labels = []string{"backend", "urgent"}
	if err := db.UpsertItem(ctx, item); err != nil {
		t.Fatalf("UpsertItem() failed: %v", err)
	}

	// Upsert again with changes; should update, not duplicate.
	item.Title = "First (renamed)"
	item.Status = "done"
	if err := db.UpsertItem(ctx, item); err != nil {
		t.Fatalf("second UpsertItem() failed: %v", err)
	}

	items, err := db.ListItems(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	got := items[0]
	if got.Title != "First (renamed)" {
		t.Errorf("Title = %q, want %q", got.Title, "First (renamed)")
	}
	if got.Status != "done" {
		t.Errorf("Status = %q, want done", got.Status)
	}
	if len(got.Labels) != 2 || got.Labels[0] != "backend" {
		t.Errorf("Labels = %v, want [backend urgent]", got.Labels)
	}
}

func TestListFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := testItem("1", "A")
	a.Status = "open"
	a.Iteration = "sprint-1"
	a.Labels = []string{"infra"}

	b := testItem("2", "B")
	b.Status = "done"
	b.Iteration = "sprint-2"
	b.Assignee = "sam"

	for _, item := range []*types.WorkItem{a, b} {
		if err := db.UpsertItem(ctx, item); err != nil {
			t.Fatalf("UpsertItem(%s) failed: %v", item.ID, err)
		}
	}

	cases := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"by status", ListOptions{Status: "done"}, []string{"2"}},
		{"by iteration", ListOptions{Iteration: "sprint-1"}, []string{"1"}},
		{"by assignee", ListOptions{Assignee: "sam"}, []string{"2"}},
		{"by label", ListOptions{Label: "infra"}, []string{"1"}},
		{"no filter", ListOptions{}, []string{"1", "2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := db.ListItems(ctx, tc.opts)
			if err != nil {
				t.Fatalf("ListItems() failed: %v", err)
			}
			if len(items) != len(tc.want) {
				t.Fatalf("got %d items, want %d", len(items), len(tc.want))
			}
			for i, id := range tc.want {
				if items[i].ID != id {
					t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, id)
				}
			}
		})
	}
}

func TestDependencyEdges(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	base := testItem("1", "Base")
	if err := db.UpsertItem(ctx, base); err != nil {
		t.Fatalf("UpsertItem() failed: %v", err)
	}

	dependent := testItem("2", "Dependent")
	dependent.DependsOn = []string{"1"}
	if err := db.UpsertItem(ctx, dependent); err != nil {
		t.Fatalf("UpsertItem() failed: %v", err)
	}

	items, err := db.ListItems(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if len(items[1].DependsOn) != 1 || items[1].DependsOn[0] != "1" {
		t.Errorf("DependsOn = %v, want [1]", items[1].DependsOn)
	}

	// Rewriting the item with no deps clears the edges.
	dependent.DependsOn = nil
	if err := db.UpsertItem(ctx, dependent); err != nil {
		t.Fatalf("UpsertItem() failed: %v", err)
	}
	deps, err := db.depsFor(ctx, "2")
	if err != nil {
		t.Fatalf("depsFor() failed: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("deps = %v, want none", deps)
	}
}

func TestDeleteItem(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	item := testItem("1", "Doomed")
	item.DependsOn = nil
	if err := db.UpsertItem(ctx, item); err != nil {
		t.Fatalf("UpsertItem() failed: %v", err)
	}
	if err := db.DeleteItem(ctx, "1"); err != nil {
		t.Fatalf("DeleteItem() failed: %v", err)
	}
	// Idempotent.
	if err := db.DeleteItem(ctx, "1"); err != nil {
		t.Fatalf("second DeleteItem() failed: %v", err)
	}

	items, err := db.ListItems(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items after delete, want 0", len(items))
	}
}

func TestGetStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := testItem("1", "A")
	b := testItem("2", "B")
	b.Status = "done"
	c := testItem("3", "C")
	c.Priority = types.PriorityHigh

	for _, item := range []*types.WorkItem{a, b, c} {
		if err := db.UpsertItem(ctx, item); err != nil {
			t.Fatalf("UpsertItem(%s) failed: %v", item.ID, err)
		}
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByStatus["open"] != 2 || stats.ByStatus["done"] != 1 {
		t.Errorf("ByStatus = %v, want open:2 done:1", stats.ByStatus)
	}
	if stats.ByPriority["high"] != 1 {
		t.Errorf("ByPriority = %v, want high:1", stats.ByPriority)
	}
}

func TestRebuildFrom(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	stale := testItem("stale", "Stale")
	if err := db.UpsertItem(ctx, stale); err != nil {
		t.Fatalf("UpsertItem() failed: %v", err)
	}

	fresh := []*types.WorkItem{testItem("1", "Fresh A"), testItem("2", "Fresh B")}
	if err := db.RebuildFrom(ctx, fresh); err != nil {
		t.Fatalf("RebuildFrom() failed: %v", err)
	}

	items, err := db.ListItems(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items after rebuild, want 2", len(items))
	}
	for _, item := range items {
		if item.ID == "stale" {
			t.Error("stale item survived rebuild")
		}
	}
}
