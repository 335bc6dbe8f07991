package types

import "time"

// SyncState is the sync manager's coarse state.
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStateSyncing SyncState = "syncing"
	SyncStateError   SyncState = "error"
)

// SyncError records one failed queue entry from a sync pass.
// Adapter failures are per-entry and recoverable; they never abort the
// pass and are retried on the next trigger.
type SyncError struct {
	Entry     QueueEntry `json:"entry"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// SyncStatus is the derived, non-persistent view of the sync manager.
// It is recomputed after every sync attempt and pushed to observers on
// each state transition.
type SyncStatus struct {
	State        SyncState   `json:"state"`
	PendingCount int         `json:"pending_count"`
	LastSyncTime time.Time   `json:"last_sync_time"`
	Errors       []SyncError `json:"errors,omitempty"`
}
