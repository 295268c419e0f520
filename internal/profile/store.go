package profile

import "context"

// Store persists user profiles. Interface-driven so the in-memory and
// Postgres implementations stay interchangeable.
type Store interface {
	Save(ctx context.Context, p *UserProfile) error
	FindByUID(ctx context.Context, uid string) (*UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*UserProfile, error)
}

// Feed delivers push updates for a single user's profile document. The
// callback receives the full current profile, or nil when the document is
// absent. Implementations must call the callback once with the current state
// on subscribe, then on every change, until the unsubscribe func runs.
type Feed interface {
	Subscribe(uid string, fn func(*UserProfile)) (unsubscribe func())
}
