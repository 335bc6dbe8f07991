package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jordanwest/tkt/internal/cache"
	"github.com/jordanwest/tkt/internal/types"
)

// Handler bridges sync manager status transitions and item changes into
// dashboard messages. Register OnSyncStatus with syncer.Manager.Subscribe.
type Handler struct {
	server *Server
	db     *cache.DB
	logger *log.Logger
}

// NewHandler creates a handler broadcasting through server. db may be
// nil, in which case stats messages are skipped.
func NewHandler(server *Server, db *cache.DB, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, db: db, logger: logger}
}

// OnSyncStatus broadcasts a sync status transition.
func (h *Handler) OnSyncStatus(status types.SyncStatus) {
	data := SyncStatusData{
		State:        string(status.State),
		PendingCount: status.PendingCount,
		LastSyncTime: status.LastSyncTime,
		ErrorCount:   len(status.Errors),
	}
	for _, e := range status.Errors {
		data.Errors = append(data.Errors, e.Message)
	}

	h.send(MessageTypeSyncStatus, data)

	// A completed pass likely changed the item set.
	if status.State != types.SyncStateSyncing {
		h.BroadcastStats()
	}
}

// OnItemChanged broadcasts a local item mutation.
func (h *Handler) OnItemChanged(action string, item *types.WorkItem) {
	data := ItemUpdateData{Action: action}
	if item != nil {
		data.ItemID = item.ID
		data.Title = item.Title
		data.Status = item.Status
		data.Assignee = item.Assignee
	}
	h.send(MessageTypeItemUpdate, data)
}

// OnItemDeleted broadcasts an item deletion by id.
func (h *Handler) OnItemDeleted(id string) {
	h.send(MessageTypeItemUpdate, ItemUpdateData{ItemID: id, Action: "deleted"})
}

// BroadcastStats queries the cache for aggregate counts and broadcasts
// them.
func (h *Handler) BroadcastStats() {
	if h.db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := h.db.GetStats(ctx)
	if err != nil {
		h.logger.Printf("Failed to compute stats: %v", err)
		return
	}
	h.send(MessageTypeStats, stats)
}

func (h *Handler) send(typ MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      payload,
	})
}
