package identity

import (
	"context"
	"sort"
	"sync"

	"relief/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[string]FundIdentity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[string]FundIdentity)}
}

func (s *InMemoryStore) Upsert(_ context.Context, fi FundIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[fi.ID.String()] = fi.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (FundIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fi, ok := s.identities[id]; ok {
		return fi.Clone(), nil
	}
	return FundIdentity{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListForUser(_ context.Context, uid string) ([]FundIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FundIdentity
	for _, fi := range s.identities {
		if fi.OwnerUID.String() == uid {
			out = append(out, fi.Clone())
		}
	}
	// Deterministic order so active-identity fallback ties break stably.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.identities, id)
	return nil
}
