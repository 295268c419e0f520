package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"relief/internal/access"
	"relief/internal/draft"
	"relief/internal/identity"
	"relief/internal/platform/metrics"
	"relief/internal/profile"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/audit"
	"relief/pkg/platform/sentinel"
)

// Hydrator rebuilds session state from the stores whenever the auth state or
// the profile document changes. One hydrator serves the whole process; each
// Start call produces an independent Session.
type Hydrator struct {
	profiles   profile.Store
	feed       profile.Feed
	identities identity.Store
	drafts     *draft.Cache

	grace   time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Recorder
}

// Deps are the stores hydration reads from.
type Deps struct {
	Profiles   profile.Store
	Feed       profile.Feed
	Identities identity.Store
	Drafts     *draft.Cache
}

type Option func(*Hydrator)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hydrator) { h.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hydrator) { h.metrics = m }
}

func WithAuditRecorder(r audit.Recorder) Option {
	return func(h *Hydrator) { h.auditor = r }
}

// WithProvisioningGrace overrides how long after account creation a missing
// profile document is tolerated before the session is treated as corrupt.
func WithProvisioningGrace(d time.Duration) Option {
	return func(h *Hydrator) { h.grace = d }
}

func NewHydrator(deps Deps, opts ...Option) *Hydrator {
	h := &Hydrator{
		profiles:   deps.Profiles,
		feed:       deps.Feed,
		identities: deps.Identities,
		drafts:     deps.Drafts,
		grace:      10 * time.Second,
		logger:     slog.Default(),
		auditor:    audit.NopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start opens a session for an auth change. For a sign-out it clears state
// and routes to the sign-in page. For a sign-in it subscribes to the user's
// profile feed and hydrates immediately; every later push on the feed
// rehydrates with a fresh whole-state snapshot.
func (h *Hydrator) Start(ctx context.Context, auth AuthSnapshot, nav Navigator) *Session {
	s := &Session{hydrator: h, nav: nav, auth: auth}

	if !auth.SignedIn {
		nav.GoTo(access.PageSignIn)
		return s
	}

	// The feed delivers the current document synchronously before Subscribe
	// returns, and that delivery can close the session (missing profile past
	// the provisioning grace). adopt releases the handle in that case instead
	// of parking it on a dead session.
	s.adopt(h.feed.Subscribe(string(auth.UID), func(p *profile.UserProfile) {
		h.rehydrate(ctx, s, p)
	}))
	return s
}

// Snapshot computes a one-shot session view for stateless callers. Returns
// the state plus the page the caller should be forced to, if any.
func (h *Hydrator) Snapshot(ctx context.Context, auth AuthSnapshot, current access.Page) (*State, access.Page, error) {
	if !auth.SignedIn {
		return nil, access.PageSignIn, nil
	}

	p, err := h.profiles.FindByUID(ctx, auth.UID.String())
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	if p == nil {
		if time.Since(auth.AccountCreatedAt) <= h.grace {
			st := &State{Role: domain.RoleFromClaim(auth.Admin), Provisioning: true}
			return st, "", nil
		}
		return nil, access.PageSignIn,
			dErrors.New(dErrors.CodeUnauthorized, "account profile is missing")
	}

	st, err := h.build(ctx, auth, p)
	if err != nil {
		return nil, "", err
	}
	forced, _ := Landing(st, current)
	return st, forced, nil
}

// rehydrate is the single code path that turns a profile push into session
// state. It builds the complete new State off to the side and swaps it in at
// the end so concurrent readers never observe a partial update.
func (h *Hydrator) rehydrate(ctx context.Context, s *Session, p *profile.UserProfile) {
	s.mu.RLock()
	auth := s.auth
	prev := s.state
	s.mu.RUnlock()
	if !auth.SignedIn {
		return
	}
	log := h.logger.With("uid", auth.UID)

	if p == nil {
		// No profile document. Backend provisioning runs async after
		// registration, so within the grace window this is a normal race
		// and we wait for the feed to push the created document. Past it
		// the account is corrupt and the only safe move is sign-out.
		if time.Since(auth.AccountCreatedAt) <= h.grace {
			s.replaceState(&State{Role: domain.RoleFromClaim(auth.Admin), Provisioning: true})
			return
		}
		log.Error("profile document missing past provisioning grace, forcing sign-out")
		h.auditor.Record(ctx, audit.Event{
			Category: audit.CategorySecurity,
			UserID:   auth.UID,
			Action:   "session_integrity_signout",
			Reason:   "profile document missing",
		})
		s.Close()
		s.nav.GoTo(access.PageSignIn)
		return
	}

	st, err := h.build(ctx, auth, p)
	if err != nil {
		// Keep whatever state we had; a transient store error must not
		// wipe a working session.
		log.Error("session hydration failed", "error", err)
		return
	}

	s.replaceState(st)

	if st.Trapped && (prev == nil || !prev.Trapped) {
		if h.metrics != nil {
			h.metrics.LockoutsTotal.Inc()
		}
		h.auditor.Record(ctx, audit.Event{
			Category: audit.CategorySecurity,
			UserID:   auth.UID,
			FundCode: st.Profile.FundCode,
			Action:   "lockout_entered",
			Reason:   "verification failed with no eligible identity",
		})
	}

	if forced, ok := Landing(st, s.nav.Current()); ok {
		s.nav.GoTo(forced)
	}
}

// build assembles a complete State from the stores: identity selection,
// profile overlay, role overwrite, draft load, trap computation.
func (h *Hydrator) build(ctx context.Context, auth AuthSnapshot, p *profile.UserProfile) (*State, error) {
	identities, err := h.identities.ListForUser(ctx, auth.UID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity list failed")
	}

	active := selectActive(p, identities)

	working := p.Clone()
	working.Role = domain.RoleFromClaim(auth.Admin)
	if active != nil {
		working.FundCode = active.FundCode
		working.FundName = active.FundName
		working.VerificationStatus = active.VerificationStatus
		working.EligibilityStatus = active.EligibilityStatus
	} else {
		working.FundCode = ""
		working.FundName = ""
		working.VerificationStatus = ""
		working.EligibilityStatus = ""
	}

	st := &State{
		Profile:             working,
		Identities:          identities,
		Active:              active,
		Role:                working.Role,
		HasEligibleIdentity: identity.HasEligible(identities),
	}
	st.Trapped = st.AccessState().IsTrapped()

	// Drafts are fund-scoped; switching identities drops the in-memory
	// draft and loads whatever is cached for the new fund.
	if active != nil && h.drafts != nil {
		d, err := h.drafts.Load(ctx, auth.UID, active.FundCode)
		if err != nil {
			h.logger.Warn("loading draft during hydration",
				"uid", auth.UID, "fund", active.FundCode, "error", err)
		} else {
			st.Draft = d
		}
	}
	return st, nil
}

// Landing applies the post-hydration routing rules, in order: the lockout
// trap forces the relief queue, an identity that is not verified-and-eligible
// forces the verification screen, a fully eligible user sitting on a gate
// page is bounced to home, and otherwise navigation is left untouched.
func Landing(st *State, current access.Page) (access.Page, bool) {
	if st.Provisioning {
		return "", false
	}
	if st.Trapped {
		if current == access.PageReliefQueue {
			return "", false
		}
		return access.PageReliefQueue, true
	}
	if st.Active == nil || !st.Active.IsEligible() {
		if current == access.PageVerification {
			return "", false
		}
		return access.PageVerification, true
	}
	if access.IsGatePage(current) {
		return access.PageHome, true
	}
	return "", false
}

// selectActive resolves the active identity: the profile's recorded pointer
// when it still names an owned identity, else the most recently used one,
// else none. ListForUser returns identities sorted by id, so ties on
// LastUsedAt resolve deterministically to the first.
func selectActive(p *profile.UserProfile, identities []identity.FundIdentity) *identity.FundIdentity {
	if len(identities) == 0 {
		return nil
	}
	if p.ActiveIdentityID != nil {
		for i := range identities {
			if identities[i].ID == *p.ActiveIdentityID {
				fi := identities[i].Clone()
				return &fi
			}
		}
	}
	sorted := make([]identity.FundIdentity, len(identities))
	copy(sorted, identities)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].LastUsedAt, sorted[j].LastUsedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	fi := sorted[0].Clone()
	return &fi
}
