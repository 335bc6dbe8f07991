// Package remote defines the adapter contract for remote trackers.
//
// The sync manager drives every remote interaction through the Adapter
// interface and must not know whether an implementation is backed by an
// HTTP client, a CLI subprocess, or an in-memory fake. Each adapter
// carries a static capability descriptor declaring which fields and
// relationships the remote system can represent; the store consults it
// to reject unsupported writes before they are queued.
package remote

import (
	"context"

	"github.com/jordanwest/tkt/internal/types"
)

// Adapter is the surface the sync manager consumes for one remote
// system of record. Implementations return types.ErrNotFound (wrapped
// or bare) when an id is absent.
type Adapter interface {
	// Name returns the backend identifier (e.g. "memory").
	Name() string

	// GetCapabilities returns the static capability descriptor for
	// this remote. It must be cheap and never fail.
	GetCapabilities() types.Capabilities

	GetStatuses(ctx context.Context) ([]string, error)
	GetIterations(ctx context.Context) ([]string, error)
	GetWorkItemTypes(ctx context.Context) ([]string, error)
	GetAssignees(ctx context.Context) ([]string, error)

	// ListWorkItems returns the remote item set, optionally filtered
	// to one iteration.
	ListWorkItems(ctx context.Context, iteration string) ([]*types.WorkItem, error)

	GetWorkItem(ctx context.Context, id string) (*types.WorkItem, error)

	// CreateWorkItem creates the item remotely. The returned item
	// carries the remote-assigned id.
	CreateWorkItem(ctx context.Context, item *types.WorkItem) (*types.WorkItem, error)

	UpdateWorkItem(ctx context.Context, id string, patch *types.ItemPatch) (*types.WorkItem, error)
	DeleteWorkItem(ctx context.Context, id string) error
	AddComment(ctx context.Context, id string, comment types.Comment) (*types.Comment, error)
}
