// Package types defines the core data structures shared across tkt:
// work items, queued mutations, sync status, and remote capabilities.
package types

import (
	"fmt"
	"strings"
	"time"
)

// LocalIDPrefix marks identifiers minted by the local store before the
// remote system of record has confirmed creation and issued its own id.
const LocalIDPrefix = "local-"

// IsLocalID reports whether id was minted locally and has not yet been
// remapped to a remote-assigned identifier.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// Priority is the urgency of a work item.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// DefaultPriority is the neutral priority assigned when none is given.
// A remote that does not support priorities still accepts this value.
const DefaultPriority = PriorityMedium

// IsValid reports whether p is one of the known priority levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Priorities returns all valid priority levels, lowest first.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// Comment is a single comment on a work item.
type Comment struct {
	ID        string    `json:"id,omitempty"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
}

// WorkItem represents one ticket. Items are stored one JSON file per
// record under .tkt/items/{id}.json; the local store is the writable
// source of truth and the remote tracker is refreshed from it during sync.
type WorkItem struct {
	ID string `json:"id"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Status      string   `json:"status,omitempty"`
	Iteration   string   `json:"iteration,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Labels      []string `json:"labels,omitempty"`

	Comments []Comment `json:"comments,omitempty"`

	// Parent and DependsOn reference other work item ids. Both graphs
	// are kept acyclic by the store's relationship validation.
	Parent    string   `json:"parent,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`

	Due *time.Time `json:"due,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the WorkItem has the required field values.
func (w *WorkItem) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("id is required")
	}
	if w.Title == "" {
		return fmt.Errorf("title is required")
	}
	if w.Priority != "" && !w.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %q", w.Priority)
	}
	return nil
}

// Clone returns a deep copy of the item. Callers that hand items across
// component boundaries clone first so later edits cannot alias.
func (w *WorkItem) Clone() *WorkItem {
	c := *w
	if w.Labels != nil {
		c.Labels = append([]string(nil), w.Labels...)
	}
	if w.DependsOn != nil {
		c.DependsOn = append([]string(nil), w.DependsOn...)
	}
	if w.Comments != nil {
		c.Comments = append([]Comment(nil), w.Comments...)
	}
	if w.Due != nil {
		due := *w.Due
		c.Due = &due
	}
	return &c
}

// HasDependency reports whether id is listed in DependsOn.
func (w *WorkItem) HasDependency(id string) bool {
	for _, d := range w.DependsOn {
		if d == id {
			return true
		}
	}
	return false
}

// ItemPatch is a partial update to a work item. Nil fields are left
// untouched. A non-nil empty Parent clears the parent reference.
type ItemPatch struct {
	Title       *string
	Description *string
	Type        *string
	Status      *string
	Iteration   *string
	Priority    *Priority
	Assignee    *string
	Labels      *[]string
	Parent      *string
	DependsOn   *[]string
	Due         *time.Time
	ClearDue    bool
}

// Apply copies the set fields of the patch onto the item.
// Relationship and capability validation happen before Apply is called.
func (p *ItemPatch) Apply(w *WorkItem) {
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.Type != nil {
		w.Type = *p.Type
	}
	if p.Status != nil {
		w.Status = *p.Status
	}
	if p.Iteration != nil {
		w.Iteration = *p.Iteration
	}
	if p.Priority != nil {
		w.Priority = *p.Priority
	}
	if p.Assignee != nil {
		w.Assignee = *p.Assignee
	}
	if p.Labels != nil {
		w.Labels = append([]string(nil), (*p.Labels)...)
	}
	if p.Parent != nil {
		w.Parent = *p.Parent
	}
	if p.DependsOn != nil {
		w.DependsOn = append([]string(nil), (*p.DependsOn)...)
	}
	if p.Due != nil {
		due := *p.Due
		w.Due = &due
	}
	if p.ClearDue {
		w.Due = nil
	}
}

// PatchFromItem builds a full patch carrying every field of the item.
// The sync push phase uses this to replay the current local snapshot
// through the remote adapter's update operation.
func PatchFromItem(w *WorkItem) *ItemPatch {
	labels := append([]string(nil), w.Labels...)
	deps := append([]string(nil), w.DependsOn...)
	p := &ItemPatch{
		Title:       &w.Title,
		Description: &w.Description,
		Type:        &w.Type,
		Status:      &w.Status,
		Iteration:   &w.Iteration,
		Priority:    &w.Priority,
		Assignee:    &w.Assignee,
		Labels:      &labels,
		Parent:      &w.Parent,
		DependsOn:   &deps,
	}
	if w.Due != nil {
		due := *w.Due
		p.Due = &due
	} else {
		p.ClearDue = true
	}
	return p
}
