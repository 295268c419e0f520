package profile

import (
	"context"
	"sync"
)

// FeedStore decorates any Store with the per-user push feed the hydration
// controller subscribes to. Writes fan out to subscribers after the backing
// store accepts them, so subscribers only ever see persisted documents.
type FeedStore struct {
	inner Store

	mu      sync.Mutex
	subs    map[string]map[int]func(*UserProfile)
	nextSub int
}

func NewFeedStore(inner Store) *FeedStore {
	return &FeedStore{
		inner: inner,
		subs:  make(map[string]map[int]func(*UserProfile)),
	}
}

func (s *FeedStore) Save(ctx context.Context, p *UserProfile) error {
	if err := s.inner.Save(ctx, p); err != nil {
		return err
	}

	s.mu.Lock()
	fns := make([]func(*UserProfile), 0, len(s.subs[p.UID.String()]))
	for _, fn := range s.subs[p.UID.String()] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Deliver outside the lock; subscribers may call back into the store.
	for _, fn := range fns {
		fn(p.Clone())
	}
	return nil
}

func (s *FeedStore) FindByUID(ctx context.Context, uid string) (*UserProfile, error) {
	return s.inner.FindByUID(ctx, uid)
}

func (s *FeedStore) FindByEmail(ctx context.Context, email string) (*UserProfile, error) {
	return s.inner.FindByEmail(ctx, email)
}

// Subscribe registers a callback for one user's profile changes. The callback
// fires immediately with the current document (or nil) and again on every
// Save through this decorator until unsubscribe is called.
func (s *FeedStore) Subscribe(uid string, fn func(*UserProfile)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs[uid] == nil {
		s.subs[uid] = make(map[int]func(*UserProfile))
	}
	s.subs[uid][id] = fn
	s.mu.Unlock()

	current, err := s.inner.FindByUID(context.Background(), uid)
	if err != nil {
		current = nil
	}
	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[uid], id)
	}
}
