package fund

import (
	"context"
	"sort"
	"strings"
	"sync"

	"relief/pkg/platform/sentinel"
)

// InMemoryStore keeps the catalog lightweight and testable.
type InMemoryStore struct {
	mu    sync.RWMutex
	funds map[string]Fund
}

func NewInMemoryStore(funds ...Fund) *InMemoryStore {
	s := &InMemoryStore{funds: make(map[string]Fund)}
	for _, f := range funds {
		s.funds[strings.ToUpper(f.Code.String())] = f
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, code string) (Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.funds[strings.ToUpper(code)]; ok {
		return f, nil
	}
	return Fund{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Fund, 0, len(s.funds))
	for _, f := range s.funds {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
