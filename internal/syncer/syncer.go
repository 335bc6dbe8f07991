package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jordanwest/tkt/internal/config"
	"github.com/jordanwest/tkt/internal/queue"
	"github.com/jordanwest/tkt/internal/remote"
	"github.com/jordanwest/tkt/internal/store"
	"github.com/jordanwest/tkt/internal/types"
)

// Observer receives a status snapshot after each state transition.
// Observers are invoked synchronously on the syncing goroutine.
type Observer func(types.SyncStatus)

// Manager drains the mutation queue against a remote adapter, remaps
// locally-minted ids, and refreshes the store from the remote.
type Manager struct {
	store   *store.Store
	queue   *queue.Queue
	adapter remote.Adapter
	cfg     *config.Config
	logger  *log.Logger

	// passMu serializes sync passes; TryLock implements coalescing.
	passMu sync.Mutex

	statusMu  sync.Mutex
	status    types.SyncStatus
	observers []Observer
}

// New creates a sync manager. cfg may be nil; the pull phase then skips
// refreshing the known remote vocabulary. If logger is nil, a default
// logger writing to stderr is used.
func New(st *store.Store, q *queue.Queue, adapter remote.Adapter, cfg *config.Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Manager{
		store:   st,
		queue:   q,
		adapter: adapter,
		cfg:     cfg,
		logger:  logger,
		status: types.SyncStatus{
			State:        types.SyncStateIdle,
			PendingCount: q.Len(),
		},
	}
}

// Subscribe registers an observer for status transitions.
func (m *Manager) Subscribe(fn Observer) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.observers = append(m.observers, fn)
}

// Status returns the current status snapshot.
func (m *Manager) Status() types.SyncStatus {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.status
}

// Sync runs a full reconciliation pass: push (remapping ids as
// creates confirm), then pull. A call
// arriving while a pass is in flight is coalesced and returns
// immediately; callers rely on the status stream to observe the
// in-flight pass completing. Adapter failures never surface as an
// error here - they accumulate in SyncStatus.Errors.
func (m *Manager) Sync(ctx context.Context) error {
	if !m.begin() {
		m.logger.Printf("sync already in progress, coalescing trigger")
		return nil
	}
	defer m.end()

	m.transition(types.SyncStateSyncing, nil)

	errs := m.runPush(ctx)

	if err := m.runPull(ctx); err != nil {
		m.logger.Printf("pull failed: %v", err)
		errs = append(errs, types.SyncError{
			Message:   fmt.Sprintf("pull failed: %v", err),
			Timestamp: time.Now().UTC(),
		})
	}

	m.finish(errs)
	return nil
}

// PushPending drains the queue and remaps ids without the pull phase.
// Used after a single local edit to surface near-real-time pending
// counts without paying for a full remote refresh.
func (m *Manager) PushPending(ctx context.Context) error {
	if !m.begin() {
		m.logger.Printf("sync already in progress, coalescing push")
		return nil
	}
	defer m.end()

	m.transition(types.SyncStateSyncing, nil)
	errs := m.runPush(ctx)
	m.finish(errs)
	return nil
}

// runPush drains the queue in order. A confirmed create remaps its id
// immediately, in the store and in the queue file, so every later
// entry in the same pass and the pull phase only ever see the remote
// id. Returns the per-entry errors recorded during the pass.
func (m *Manager) runPush(ctx context.Context) []types.SyncError {
	entries, err := m.queue.Read()
	if err != nil {
		return []types.SyncError{{
			Message:   fmt.Sprintf("failed to read queue: %v", err),
			Timestamp: time.Now().UTC(),
		}}
	}

	entries = m.cancelUnconfirmedDeletes(entries)

	var errs []types.SyncError
	idMap := make(map[string]string)

	for _, entry := range entries {
		// Earlier creates in this pass already renamed the queue file;
		// the in-memory entry still holds the old id.
		if mapped, ok := idMap[entry.ItemID]; ok {
			entry.ItemID = mapped
		}

		remoteID, err := m.applyEntry(ctx, entry)
		if err != nil {
			msg := err.Error()
			errs = append(errs, types.SyncError{
				Entry:     entry,
				Message:   msg,
				Timestamp: time.Now().UTC(),
			})
			if errors.Is(err, errItemGone) {
				// Retrying can never succeed; drop the entry instead
				// of leaving it to fail on every pass.
				m.logger.Printf("dropping %s/%s: %s", entry.Action, entry.ItemID, msg)
				if rerr := m.queue.Remove(entry.ItemID, entry.Action); rerr != nil {
					m.logger.Printf("failed to drop entry: %v", rerr)
				}
				continue
			}
			m.logger.Printf("entry %s/%s failed: %s", entry.Action, entry.ItemID, msg)
			if serr := m.queue.SetError(entry.ItemID, entry.Action, msg); serr != nil {
				m.logger.Printf("failed to record entry error: %v", serr)
			}
			continue
		}

		if entry.Action == types.ActionCreate && remoteID != "" && remoteID != entry.ItemID {
			m.logger.Printf("remapping %s -> %s", entry.ItemID, remoteID)
			idMap[entry.ItemID] = remoteID
			if rerr := m.store.RenameItem(entry.ItemID, remoteID); rerr != nil && !errors.Is(rerr, types.ErrNotFound) {
				m.logger.Printf("failed to remap %s in store: %v", entry.ItemID, rerr)
			}
			if rerr := m.queue.RenameItem(entry.ItemID, remoteID); rerr != nil {
				m.logger.Printf("failed to remap %s in queue: %v", entry.ItemID, rerr)
			}
			entry.ItemID = remoteID
		}
		if err := m.queue.Remove(entry.ItemID, entry.Action); err != nil {
			m.logger.Printf("failed to remove confirmed entry: %v", err)
		}
	}

	return errs
}

// cancelUnconfirmedDeletes resolves a queued delete for an item whose
// create was never confirmed remotely: both entries are dropped locally
// and the remote is never contacted, since it has no record to delete.
func (m *Manager) cancelUnconfirmedDeletes(entries []types.QueueEntry) []types.QueueEntry {
	pendingCreate := make(map[string]bool)
	for _, e := range entries {
		if e.Action == types.ActionCreate && types.IsLocalID(e.ItemID) {
			pendingCreate[e.ItemID] = true
		}
	}

	cancelled := make(map[string]bool)
	for _, e := range entries {
		if e.Action == types.ActionDelete && pendingCreate[e.ItemID] {
			cancelled[e.ItemID] = true
		}
	}
	if len(cancelled) == 0 {
		return entries
	}

	kept := entries[:0]
	for _, e := range entries {
		if cancelled[e.ItemID] {
			m.logger.Printf("cancelling local %s/%s: create never reached the remote", e.Action, e.ItemID)
			if err := m.queue.Remove(e.ItemID, e.Action); err != nil {
				m.logger.Printf("failed to drop cancelled entry: %v", err)
			}
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// errItemGone marks an entry whose local item disappeared before the
// push could snapshot it. The entry can never succeed.
var errItemGone = errors.New("item no longer exists locally")

// applyEntry invokes the matching adapter operation for one entry.
// For creates, the returned string is the remote-assigned id. A panic
// from a misbehaving adapter is converted into an ordinary error so it
// cannot crash the orchestrator.
func (m *Manager) applyEntry(ctx context.Context, entry types.QueueEntry) (remoteID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &types.AdapterError{Op: string(entry.Action), Err: fmt.Errorf("adapter panic: %v", r)}
		}
	}()

	switch entry.Action {
	case types.ActionCreate:
		snapshot, gerr := m.store.Get(entry.ItemID)
		if gerr != nil {
			if errors.Is(gerr, types.ErrNotFound) {
				return "", errItemGone
			}
			return "", gerr
		}
		created, cerr := m.adapter.CreateWorkItem(ctx, snapshot)
		if cerr != nil {
			return "", &types.AdapterError{Op: "create", Err: cerr}
		}
		return created.ID, nil

	case types.ActionUpdate:
		snapshot, gerr := m.store.Get(entry.ItemID)
		if gerr != nil {
			if errors.Is(gerr, types.ErrNotFound) {
				return "", errItemGone
			}
			return "", gerr
		}
		if _, uerr := m.adapter.UpdateWorkItem(ctx, entry.ItemID, types.PatchFromItem(snapshot)); uerr != nil {
			return "", &types.AdapterError{Op: "update", Err: uerr}
		}
		return "", nil

	case types.ActionComment:
		if entry.Comment == nil {
			return "", fmt.Errorf("comment entry for %s has no comment data", entry.ItemID)
		}
		if _, cerr := m.adapter.AddComment(ctx, entry.ItemID, *entry.Comment); cerr != nil {
			return "", &types.AdapterError{Op: "comment", Err: cerr}
		}
		return "", nil

	case types.ActionDelete:
		if derr := m.adapter.DeleteWorkItem(ctx, entry.ItemID); derr != nil {
			if errors.Is(derr, types.ErrNotFound) {
				// Already gone remotely; the intent is satisfied.
				return "", nil
			}
			return "", &types.AdapterError{Op: "delete", Err: derr}
		}
		return "", nil
	}

	return "", fmt.Errorf("unknown queue action: %q", entry.Action)
}

// runPull fetches the remote item set and overwrites the local view,
// preserving locally-created items whose create has not been confirmed.
// It then refreshes the known remote vocabulary in the config record.
func (m *Manager) runPull(ctx context.Context) error {
	items, err := m.adapter.ListWorkItems(ctx, "")
	if err != nil {
		return &types.AdapterError{Op: "list", Err: err}
	}

	preserve := make(map[string]bool)
	entries, err := m.queue.Read()
	if err == nil {
		for _, e := range entries {
			if types.IsLocalID(e.ItemID) {
				preserve[e.ItemID] = true
			}
		}
	}

	if err := m.store.ReplaceAll(items, preserve); err != nil {
		return fmt.Errorf("failed to refresh local store: %w", err)
	}
	m.logger.Printf("pulled %d items (%d local preserved)", len(items), len(preserve))

	if m.cfg != nil {
		m.refreshVocabulary(ctx)
	}
	return nil
}

// refreshVocabulary updates the cached statuses/types/iterations/
// assignees. Lookup failures are logged, not fatal: the item pull
// already succeeded.
func (m *Manager) refreshVocabulary(ctx context.Context) {
	statuses, err := m.adapter.GetStatuses(ctx)
	if err != nil {
		m.logger.Printf("failed to fetch statuses: %v", err)
	}
	itemTypes, err := m.adapter.GetWorkItemTypes(ctx)
	if err != nil {
		m.logger.Printf("failed to fetch work item types: %v", err)
	}
	iterations, err := m.adapter.GetIterations(ctx)
	if err != nil {
		m.logger.Printf("failed to fetch iterations: %v", err)
	}
	assignees, err := m.adapter.GetAssignees(ctx)
	if err != nil {
		m.logger.Printf("failed to fetch assignees: %v", err)
	}

	m.cfg.SetKnown(statuses, itemTypes, iterations, assignees)
	if err := m.cfg.Save(); err != nil {
		m.logger.Printf("failed to save config: %v", err)
	}
}

// begin claims the single-pass lock. Returns false when a pass is
// already running, in which case the trigger is coalesced.
func (m *Manager) begin() bool {
	return m.passMu.TryLock()
}

func (m *Manager) end() {
	m.passMu.Unlock()
}

// finish records the terminal state of a pass and notifies observers.
func (m *Manager) finish(errs []types.SyncError) {
	state := types.SyncStateIdle
	if len(errs) > 0 {
		state = types.SyncStateError
	}
	m.transition(state, errs)
}

// transition updates the status snapshot and invokes every observer
// synchronously with the new value.
func (m *Manager) transition(state types.SyncState, errs []types.SyncError) {
	m.statusMu.Lock()
	m.status = types.SyncStatus{
		State:        state,
		PendingCount: m.queue.Len(),
		LastSyncTime: m.status.LastSyncTime,
		Errors:       errs,
	}
	if state == types.SyncStateIdle || state == types.SyncStateError {
		m.status.LastSyncTime = time.Now().UTC()
	}
	snapshot := m.status
	observers := append([]Observer(nil), m.observers...)
	m.statusMu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
