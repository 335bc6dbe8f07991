package types

import (
	"testing"
	"time"
)

func TestIsLocalID(t *testing.T) {
	cases := map[string]bool{
		"local-1":   true,
		"local-999": true,
		"42":        false,
		"":          false,
		"LOCAL-1":   false,
	}
	for id, want := range cases {
		if got := IsLocalID(id); got != want {
			t.Errorf("IsLocalID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	w := &WorkItem{ID: "1", Title: "ok"}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() of valid item failed: %v", err)
	}

	if err := (&WorkItem{Title: "no id"}).Validate(); err == nil {
		t.Error("Validate() accepted a missing id")
	}
	if err := (&WorkItem{ID: "1"}).Validate(); err == nil {
		t.Error("Validate() accepted a missing title")
	}
	if err := (&WorkItem{ID: "1", Title: "x", Priority: "urgent-ish"}).Validate(); err == nil {
		t.Error("Validate() accepted an unknown priority")
	}
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Now()
	w := &WorkItem{
		ID:        "1",
		Title:     "x",
		Labels:    []string{"a"},
		DependsOn: []string{"2"},
		Comments:  []Comment{{ID: "c1", Body: "hi"}},
		Due:       &due,
	}

	c := w.Clone()
	c.Labels[0] = "changed"
	c.DependsOn[0] = "changed"
	c.Comments[0].Body = "changed"
	*c.Due = c.Due.Add(time.Hour)

	if w.Labels[0] != "a" || w.DependsOn[0] != "2" || w.Comments[0].Body != "hi" {
		t.Error("Clone() shares slice memory with the original")
	}
	if !w.Due.Equal(due) {
		t.Error("Clone() shares the due pointer with the original")
	}
}

func TestPatchApply(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	w := &WorkItem{
		ID:       "1",
		Title:    "Before",
		Status:   "open",
		Assignee: "kim",
		Parent:   "9",
		Due:      &due,
	}

	title := "After"
	empty := ""
	labels := []string{"x"}
	patch := &ItemPatch{
		Title:    &title,
		Assignee: &empty,
		Parent:   &empty,
		Labels:   &labels,
		ClearDue: true,
	}
	patch.Apply(w)

	if w.Title != "After" {
		t.Errorf("Title = %q", w.Title)
	}
	if w.Status != "open" {
		t.Errorf("unpatched Status changed to %q", w.Status)
	}
	if w.Assignee != "" || w.Parent != "" {
		t.Error("empty values should clear assignee and parent")
	}
	if len(w.Labels) != 1 || w.Labels[0] != "x" {
		t.Errorf("Labels = %v", w.Labels)
	}
	if w.Due != nil {
		t.Error("ClearDue did not clear the due date")
	}
}

func TestPatchFromItem(t *testing.T) {
	due := time.Now()
	w := &WorkItem{
		ID:        "1",
		Title:     "Full",
		Status:    "done",
		Iteration: "s1",
		Labels:    []string{"a"},
		DependsOn: []string{"2"},
		Due:       &due,
	}

	patch := PatchFromItem(w)
	target := &WorkItem{ID: "1", Title: "stale"}
	patch.Apply(target)

	if target.Title != "Full" || target.Status != "done" || target.Iteration != "s1" {
		t.Errorf("replayed item = %+v", target)
	}
	if len(target.DependsOn) != 1 || target.Due == nil {
		t.Errorf("replay lost deps or due: %+v", target)
	}
}
