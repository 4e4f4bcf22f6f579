package syncer

import "context"

// Manager is the reconciliation engine: it drains the pending operation
// queue against the remote service, re-validating stock at replay time, and
// refreshes the local replica from the source of truth afterward.
//
// A manager is an explicitly constructed instance with a Start/Stop
// lifecycle, owned by the composition root.
type Manager interface {
	// SyncToServer drains the pending queue. It is a no-op when offline or
	// when a drain is already in progress.
	SyncToServer(ctx context.Context, actorID *string) error

	// RefreshFromRemote overwrites the replica's products and clients from
	// the remote service and stamps their last-sync metadata.
	RefreshFromRemote(ctx context.Context) error

	// PendingCount reports how many operations are waiting to be replayed.
	PendingCount(ctx context.Context) (int, error)

	// Subscribe registers an observer for lifecycle events. The returned
	// function unsubscribes it.
	Subscribe(fn func(Event)) (unsubscribe func())

	// Start applies the staleness refresh rule and registers the
	// offline->online trigger. Stop releases the trigger.
	Start(ctx context.Context) error
	Stop()
}
