// Package syncer orchestrates reconciliation between the local store
// and a remote tracker.
//
// A sync pass has three phases:
//
//  1. Push: drain the mutation queue through the remote adapter in
//     append order. Adapter failures are recorded per entry and never
//     abort the pass; confirmed entries are removed.
//  2. Remap: for every remote create, rewrite the locally-minted id to
//     the server-assigned one in both the item store (including other
//     items' parent/dependsOn references) and the queue, so later
//     passes target the correct remote id.
//  3. Pull: refresh the local view from the remote system of record,
//     preserving unconfirmed local items, and refresh the known
//     statuses/iterations/types/assignees in the config record.
//
// Only one pass runs at a time; a trigger arriving mid-pass is
// coalesced. Observers subscribe to status transitions and are invoked
// synchronously after each one.
//
// Entries within a pass apply sequentially, never concurrently: a
// queued update may only be meaningful after the create before it has
// resolved a server-assigned id.
package syncer
