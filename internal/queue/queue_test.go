package queue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jordanwest/tkt/internal/types"
)

func testQueue(t *testing.T) *Queue {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "queue.json"))
}

func TestAppendAndRead(t *testing.T) {
	q := testQueue(t)

	entries := []types.QueueEntry{
		{Action: types.ActionCreate, ItemID: "local-1"},
		{Action: types.ActionUpdate, ItemID: "7"},
		{Action: types.ActionDelete, ItemID: "8"},
	}
	for _, e := range entries {
		if err := q.Append(e); err != nil {
			t.Fatalf("Append(%s/%s) failed: %v", e.Action, e.ItemID, err)
		}
	}

	got, err := q.Read()
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	for i, e := range entries {
		if got[i].ItemID != e.ItemID || got[i].Action != e.Action {
			t.Errorf("entry %d = %s/%s, want %s/%s", i, got[i].Action, got[i].ItemID, e.Action, e.ItemID)
		}
		if got[i].Timestamp.IsZero() {
			t.Errorf("entry %d missing timestamp", i)
		}
	}
}

func TestAppendValidates(t *testing.T) {
	q := testQueue(t)

	if err := q.Append(types.QueueEntry{Action: "explode", ItemID: "1"}); err == nil {
		t.Error("Append() accepted an invalid action")
	}
	if err := q.Append(types.QueueEntry{Action: types.ActionCreate}); err == nil {
		t.Error("Append() accepted an empty item id")
	}
}

func TestAppendCollapsesSamePair(t *testing.T) {
	q := testQueue(t)

	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	if err := q.Append(types.QueueEntry{Action: types.ActionUpdate, ItemID: "7", Timestamp: early}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := q.Append(types.QueueEntry{Action: types.ActionComment, ItemID: "7", Timestamp: early}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := q.Append(types.QueueEntry{Action: types.ActionUpdate, ItemID: "7", Timestamp: late}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	entries, _ := q.Read()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (update collapsed, comment kept)", len(entries))
	}
	// The surviving update is the later one and moves to the tail.
	last := entries[len(entries)-1]
	if last.Action != types.ActionUpdate || !last.Timestamp.Equal(late) {
		t.Errorf("tail entry = %s@%v, want update@%v", last.Action, last.Timestamp, late)
	}
}

func TestRemove(t *testing.T) {
	q := testQueue(t)

	q.Append(types.QueueEntry{Action: types.ActionCreate, ItemID: "local-1"})
	q.Append(types.QueueEntry{Action: types.ActionUpdate, ItemID: "local-1"})

	if err := q.Remove("local-1", types.ActionCreate); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	entries, _ := q.Read()
	if len(entries) != 1 || entries[0].Action != types.ActionUpdate {
		t.Fatalf("entries = %+v, want only the update", entries)
	}

	// Removing an absent pair is not an error.
	if err := q.Remove("local-1", types.ActionCreate); err != nil {
		t.Fatalf("Remove() of absent entry failed: %v", err)
	}
}

func TestRenameItem(t *testing.T) {
	q := testQueue(t)

	q.Append(types.QueueEntry{Action: types.ActionUpdate, ItemID: "local-1"})
	q.Append(types.QueueEntry{Action: types.ActionComment, ItemID: "local-1"})
	q.Append(types.QueueEntry{Action: types.ActionUpdate, ItemID: "other"})

	if err := q.RenameItem("local-1", "42"); err != nil {
		t.Fatalf("RenameItem() failed: %v", err)
	}

	entries, _ := q.Read()
	for _, e := range entries {
		if e.ItemID == "local-1" {
			t.Errorf("entry %s still carries the old id", e.Action)
		}
	}
	if entries[0].ItemID != "42" || entries[2].ItemID != "other" {
		t.Errorf("entries = %+v", entries)
	}

	// Renaming an id with no entries is a no-op.
	if err := q.RenameItem("ghost", "43"); err != nil {
		t.Fatalf("RenameItem() of absent id failed: %v", err)
	}
}

func TestSetError(t *testing.T) {
	q := testQueue(t)

	q.Append(types.QueueEntry{Action: types.ActionCreate, ItemID: "local-1"})
	if err := q.SetError("local-1", types.ActionCreate, "remote said no"); err != nil {
		t.Fatalf("SetError() failed: %v", err)
	}

	entries, _ := q.Read()
	if entries[0].LastError != "remote said no" {
		t.Errorf("LastError = %q", entries[0].LastError)
	}
	if entries[0].LastTriedAt == nil {
		t.Error("LastTriedAt not set")
	}
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte("{this is not json"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	q := New(path)
	entries, err := q.Read()
	if err != nil {
		t.Fatalf("Read() of corrupt file failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries from corrupt file, want 0", len(entries))
	}

	// The queue stays usable and the next write repairs the file.
	if err := q.Append(types.QueueEntry{Action: types.ActionCreate, ItemID: "local-1"}); err != nil {
		t.Fatalf("Append() after corruption failed: %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestClear(t *testing.T) {
	q := testQueue(t)
	q.Append(types.QueueEntry{Action: types.ActionCreate, ItemID: "local-1"})

	if err := q.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", q.Len())
	}
}
