package identity

import "context"

// Store persists fund identities. Upsert keyed by the deterministic identity
// id keeps re-verification idempotent at the storage layer too.
type Store interface {
	Upsert(ctx context.Context, fi FundIdentity) error
	FindByID(ctx context.Context, id string) (FundIdentity, error)
	ListForUser(ctx context.Context, uid string) ([]FundIdentity, error)
	Delete(ctx context.Context, id string) error
}
