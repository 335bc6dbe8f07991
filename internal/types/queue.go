package types

import "time"

// Action identifies the kind of a queued mutation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionComment Action = "comment"
)

// IsValid reports whether a is a known queue action.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionComment:
		return true
	}
	return false
}

// QueueEntry records one local mutation not yet confirmed by the remote.
// At most one entry exists per (ItemID, Action) pair: a newer entry for
// the same pair replaces the older one.
type QueueEntry struct {
	Action    Action    `json:"action"`
	ItemID    string    `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`

	// Comment carries the comment body for ActionComment entries.
	Comment *Comment `json:"comment,omitempty"`

	// LastError holds the most recent remote failure for this entry.
	// Failed entries stay queued and are retried on the next sync pass.
	LastError   string     `json:"last_error,omitempty"`
	LastTriedAt *time.Time `json:"last_tried_at,omitempty"`
}
