package application

import (
	"context"
	"sort"
	"sync"

	"relief/pkg/domain"
	"relief/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in submission order and fans out create
// notifications to owner and proxy-submitter subscribers.
type InMemoryStore struct {
	mu           sync.RWMutex
	applications []Application
	ownerSubs    map[string]map[int]func(Application)
	proxySubs    map[string]map[int]func(Application)
	nextSub      int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		ownerSubs: make(map[string]map[int]func(Application)),
		proxySubs: make(map[string]map[int]func(Application)),
	}
}

func (s *InMemoryStore) Create(_ context.Context, app Application) (Application, error) {
	s.mu.Lock()
	app.ID = domain.NewApplicationID()
	s.applications = append(s.applications, app)

	var fns []func(Application)
	for _, fn := range s.ownerSubs[app.OwnerUID.String()] {
		fns = append(fns, fn)
	}
	if app.IsProxy {
		for _, fn := range s.proxySubs[app.SubmittedBy.String()] {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(app)
	}
	return app, nil
}

func (s *InMemoryStore) ListForOwner(_ context.Context, uid string) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Application
	for _, app := range s.applications {
		if app.OwnerUID.String() == uid {
			out = append(out, app)
		}
	}
	sortBySubmittedDesc(out)
	return out, nil
}

func (s *InMemoryStore) ListForProxySubmitter(_ context.Context, uid string) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Application
	for _, app := range s.applications {
		if app.IsProxy && app.SubmittedBy.String() == uid {
			out = append(out, app)
		}
	}
	sortBySubmittedDesc(out)
	return out, nil
}

func (s *InMemoryStore) LatestForOwnerAndFund(_ context.Context, uid, fundCode string) (Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		latest Application
		found  bool
	)
	for _, app := range s.applications {
		if app.OwnerUID.String() != uid || app.FundCode.String() != fundCode {
			continue
		}
		if !found || app.SubmittedDate.After(latest.SubmittedDate) {
			latest = app
			found = true
		}
	}
	if !found {
		return Application{}, sentinel.ErrNotFound
	}
	return latest, nil
}

func (s *InMemoryStore) SubscribeForOwner(uid string, fn func(Application)) (unsubscribe func()) {
	return s.subscribe(s.ownerSubs, uid, fn)
}

func (s *InMemoryStore) SubscribeForProxySubmitter(uid string, fn func(Application)) (unsubscribe func()) {
	return s.subscribe(s.proxySubs, uid, fn)
}

func (s *InMemoryStore) subscribe(subs map[string]map[int]func(Application), uid string, fn func(Application)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	if subs[uid] == nil {
		subs[uid] = make(map[int]func(Application))
	}
	subs[uid][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(subs[uid], id)
	}
}

func sortBySubmittedDesc(apps []Application) {
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].SubmittedDate.After(apps[j].SubmittedDate)
	})
}
