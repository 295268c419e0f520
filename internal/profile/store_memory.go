package profile

import (
	"context"
	"strings"
	"sync"

	"relief/pkg/platform/sentinel"
)

// InMemoryStore holds profiles and fans out per-user change notifications.
// It favors clarity over performance; the subscription path mirrors the
// remote document store's push feed closely enough for the hydration
// controller not to care which one it is wired to.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*UserProfile
	subs     map[string]map[int]func(*UserProfile)
	nextSub  int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[string]*UserProfile),
		subs:     make(map[string]map[int]func(*UserProfile)),
	}
}

func (s *InMemoryStore) Save(_ context.Context, p *UserProfile) error {
	s.mu.Lock()
	stored := p.Clone()
	s.profiles[p.UID.String()] = stored
	fns := make([]func(*UserProfile), 0, len(s.subs[p.UID.String()]))
	for _, fn := range s.subs[p.UID.String()] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Deliver outside the lock; subscribers may call back into the store.
	for _, fn := range fns {
		fn(stored.Clone())
	}
	return nil
}

func (s *InMemoryStore) FindByUID(_ context.Context, uid string) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[uid]; ok {
		return p.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			return p.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Subscribe registers a callback for one user's profile changes. The callback
// fires immediately with the current document (or nil) and again on every
// Save until unsubscribe is called.
func (s *InMemoryStore) Subscribe(uid string, fn func(*UserProfile)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs[uid] == nil {
		s.subs[uid] = make(map[int]func(*UserProfile))
	}
	s.subs[uid][id] = fn
	current := s.profiles[uid]
	s.mu.Unlock()

	fn(current.Clone())

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[uid], id)
	}
}
