package session

import (
	"sync"
	"time"

	"relief/internal/access"
	"relief/internal/draft"
	"relief/internal/identity"
	"relief/internal/profile"
	"relief/pkg/domain"
)

// Navigator is the engine's handle on the UI's location. The hydration
// controller and the access router are the only writers. GoTo with the page
// already current must be a no-op.
type Navigator interface {
	Current() access.Page
	GoTo(page access.Page)
}

// AuthSnapshot is what the authentication layer reports on every auth state
// change. Admin comes from the token's authorization claim and is re-read on
// every change; the stored profile's role copy is never trusted.
type AuthSnapshot struct {
	SignedIn         bool
	UID              domain.UserID
	Admin            bool
	AccountCreatedAt time.Time
}

// State is one consistent view of the session, rebuilt wholesale on every
// hydration. Readers always see either the previous snapshot or the new one,
// never a half-applied mix; that is the whole-object replacement discipline
// that keeps a slow background refresh from interleaving with a foreground
// edit.
type State struct {
	// Profile is the working profile: the stored document with the active
	// identity's fund fields overlaid and the claim-derived role applied.
	Profile             *profile.UserProfile
	Identities          []identity.FundIdentity
	Active              *identity.FundIdentity
	Draft               *draft.Draft
	Role                domain.Role
	HasEligibleIdentity bool
	Trapped             bool
	// Provisioning marks an authenticated user whose profile document has
	// not arrived yet but is still within the creation grace window.
	Provisioning bool
}

// AccessState projects the routing facts out of the session state.
func (s *State) AccessState() access.State {
	st := access.State{Role: domain.RoleUser}
	if s == nil {
		return st
	}
	st.Role = s.Role
	st.HasEligibleIdentity = s.HasEligibleIdentity
	if s.Active != nil {
		st.VerificationStatus = s.Active.VerificationStatus
		st.EligibilityStatus = s.Active.EligibilityStatus
	}
	return st
}

// Session is the explicit per-user context object: constructed once per
// authenticated session and torn down on sign-out. All engine entry points
// hang off it instead of module-level singletons.
type Session struct {
	hydrator *Hydrator
	nav      Navigator

	mu          sync.RWMutex
	auth        AuthSnapshot
	state       *State
	closed      bool
	unsubscribe func()
}

// State returns the current snapshot; nil before the first hydration.
func (s *Session) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UserID returns the authenticated user, or zero after sign-out.
func (s *Session) UserID() domain.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth.UID
}

// ActiveFund reports the active identity's fund, if any.
func (s *Session) ActiveFund() (domain.FundCode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil || s.state.Active == nil {
		return "", false
	}
	return s.state.Active.FundCode, true
}

// Navigate routes a navigation request through the access router and applies
// the outcome. Evaluated fresh on every call; never cached.
func (s *Session) Navigate(target access.Page) access.Outcome {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()

	outcome := access.Navigate(st.AccessState(), s.nav.Current(), target)
	switch outcome.Decision {
	case access.Granted, access.Rewritten:
		s.nav.GoTo(outcome.Page)
	case access.Suppressed:
		// Stay put.
	}
	if s.hydrator.metrics != nil {
		s.hydrator.metrics.NavigationOutcomes.WithLabelValues(string(outcome.Decision)).Inc()
	}
	return outcome
}

// Close tears the session down: feed subscription, state, draft pointer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.state = nil
	s.auth = AuthSnapshot{}
}

// adopt records the feed subscription handle, or releases it immediately if
// the session was closed during the subscription's initial delivery.
func (s *Session) adopt(unsubscribe func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

func (s *Session) replaceState(st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}
