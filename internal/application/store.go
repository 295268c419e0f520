package application

import "context"

// Store is append-only: Create assigns the id; nothing updates or deletes.
type Store interface {
	Create(ctx context.Context, app Application) (Application, error)
	ListForOwner(ctx context.Context, uid string) ([]Application, error)
	ListForProxySubmitter(ctx context.Context, uid string) ([]Application, error)
	// LatestForOwnerAndFund returns the most recently submitted application
	// for (owner, fund), or sentinel.ErrNotFound when none exists.
	LatestForOwnerAndFund(ctx context.Context, uid, fundCode string) (Application, error)
}

// Feed delivers push notifications for newly created applications, filtered
// by owner or by proxy submitter.
type Feed interface {
	SubscribeForOwner(uid string, fn func(Application)) (unsubscribe func())
	SubscribeForProxySubmitter(uid string, fn func(Application)) (unsubscribe func())
}
