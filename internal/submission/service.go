package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"relief/internal/application"
	"relief/internal/decision"
	"relief/internal/draft"
	"relief/internal/fund"
	"relief/internal/identity"
	"relief/internal/ledger"
	"relief/internal/platform/metrics"
	"relief/internal/profile"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/audit"
	"relief/pkg/platform/sentinel"
	pstrings "relief/pkg/platform/strings"
	"relief/pkg/requestcontext"
)

const (
	pathSelf  = "self"
	pathProxy = "proxy"
)

// Service orchestrates one submission end to end: gather context, run the
// local rules, hand the decision service the final call, persist, clean up.
// Nothing is written before the decision service answers; a failure there
// leaves the draft untouched so the applicant can retry.
type Service struct {
	catalog      *fund.Catalog
	profiles     profile.Store
	identities   identity.Store
	applications application.Store
	ledger       *ledger.Ledger
	finalizer    decision.Finalizer
	drafts       *draft.Cache

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Recorder
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditRecorder(r audit.Recorder) Option {
	return func(s *Service) { s.auditor = r }
}

// WithDraftCache enables draft invalidation after successful submissions.
func WithDraftCache(c *draft.Cache) Option {
	return func(s *Service) { s.drafts = c }
}

func New(
	catalog *fund.Catalog,
	profiles profile.Store,
	identities identity.Store,
	applications application.Store,
	l *ledger.Ledger,
	finalizer decision.Finalizer,
	opts ...Option,
) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("fund catalog is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	if applications == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if l == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if finalizer == nil {
		return nil, fmt.Errorf("decision finalizer is required")
	}
	svc := &Service{
		catalog:      catalog,
		profiles:     profiles,
		identities:   identities,
		applications: applications,
		ledger:       l,
		finalizer:    finalizer,
		auditor:      audit.NopRecorder{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Submit runs the self-service path for the authenticated caller.
func (s *Service) Submit(ctx context.Context, req Request) (Result, error) {
	uid := requestcontext.UserID(ctx)
	if uid.IsZero() {
		return Result{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if req.FundCode.IsZero() {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "fund code is required")
	}

	var (
		f  fund.Fund
		p  *profile.UserProfile
		fi identity.FundIdentity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		f, err = s.catalog.Lookup(gctx, req.FundCode)
		return err
	})
	g.Go(func() error {
		var err error
		p, err = s.profiles.FindByUID(gctx, uid.String())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
		}
		return nil
	})
	g.Go(func() error {
		id := domain.NewIdentityID(uid, req.FundCode)
		var err error
		fi, err = s.identities.FindByID(gctx, id.String())
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "no verified identity for this fund")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	balances, err := s.ledger.Balances(ctx, uid, f)
	if err != nil {
		return Result{}, err
	}
	if !ledger.CanApply(fi.VerificationStatus, fi.EligibilityStatus, balances) {
		return Result{}, dErrors.New(dErrors.CodeForbidden, "not currently able to apply for this fund")
	}

	applicant := applyEdits(p, req.ProfileEdits)

	app, final, err := s.finalize(ctx, f, *applicant, fi.OwnerUID, req.Event, balances)
	if err != nil {
		return Result{}, err
	}

	// Last look before the write: if the caller switched identities while
	// the decision service was thinking, the submission no longer matches
	// their fund context. Abort; the draft survives.
	fresh, err := s.profiles.FindByUID(ctx, uid.String())
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	if fresh.ActiveIdentityID == nil || *fresh.ActiveIdentityID != fi.ID {
		return Result{}, dErrors.New(dErrors.CodeConflict, "active fund changed during submission")
	}

	app.SubmittedBy = uid
	created, err := s.persist(ctx, app, pathSelf)
	if err != nil {
		return Result{}, err
	}

	s.cleanup(ctx, uid, f.Code)
	s.saveEdits(ctx, p, req.ProfileEdits)

	s.auditor.Record(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		UserID:   uid,
		FundCode: f.Code,
		Action:   "application_submitted",
		Decision: string(created.Status),
	})
	return Result{Application: created, Reasons: final.Reasons}, nil
}

// SubmitProxy runs the admin-on-behalf path. The admin's active fund wins
// over anything the form carried, the applicant must already hold an account,
// and the ledger is read against the applicant, never the admin.
func (s *Service) SubmitProxy(ctx context.Context, req ProxyRequest) (Result, error) {
	adminUID := requestcontext.UserID(ctx)
	if adminUID.IsZero() {
		return Result{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !requestcontext.Role(ctx).IsAdmin() {
		return Result{}, dErrors.New(dErrors.CodeForbidden, "proxy submission requires admin role")
	}

	adminProfile, err := s.profiles.FindByUID(ctx, adminUID.String())
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	if adminProfile.ActiveIdentityID == nil || adminProfile.FundCode.IsZero() {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "proxy submission requires an active fund")
	}
	fundCode := adminProfile.FundCode

	applicant, err := s.profiles.FindByEmail(ctx, req.ApplicantEmail)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Never provisions accounts: a session the admin does not
			// control must not come into existence as a side effect.
			return Result{}, dErrors.New(dErrors.CodeNotFound, "applicant account not found")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "applicant lookup failed")
	}

	f, err := s.catalog.Lookup(ctx, fundCode)
	if err != nil {
		return Result{}, err
	}

	balances, err := s.ledger.Balances(ctx, applicant.UID, f)
	if err != nil {
		return Result{}, err
	}
	if balances.TwelveMonthRemaining <= 0 || balances.LifetimeRemaining <= 0 {
		return Result{}, dErrors.New(dErrors.CodeForbidden, "applicant's grant balances are exhausted")
	}

	app, final, err := s.finalize(ctx, f, *applicant, applicant.UID, req.Event, balances)
	if err != nil {
		return Result{}, err
	}

	// Same last look as the self path: the admin switching their own active
	// fund mid-flight invalidates the fund this submission was decided for.
	freshAdmin, err := s.profiles.FindByUID(ctx, adminUID.String())
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	if freshAdmin.ActiveIdentityID == nil || freshAdmin.FundCode != fundCode {
		return Result{}, dErrors.New(dErrors.CodeConflict, "active fund changed during submission")
	}

	app.SubmittedBy = adminUID
	app.IsProxy = true
	created, err := s.persist(ctx, app, pathProxy)
	if err != nil {
		return Result{}, err
	}

	s.cleanup(ctx, adminUID, f.Code)

	s.auditor.Record(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		UserID:   applicant.UID,
		FundCode: f.Code,
		Action:   "application_submitted_proxy",
		Decision: string(created.Status),
		ActorID:  adminUID.String(),
	})
	return Result{Application: created, Reasons: final.Reasons}, nil
}

// finalize runs the local rules and the external decision round trip, and
// shapes the resulting application. It performs no writes.
func (s *Service) finalize(
	ctx context.Context,
	f fund.Fund,
	applicant profile.UserProfile,
	owner domain.UserID,
	event application.EventDetails,
	balances ledger.Balances,
) (application.Application, *decision.FinalizeResult, error) {
	prelim := decision.EvaluatePreliminary(decision.Input{
		Fund:     f,
		Event:    event,
		Balances: balances,
	})

	started := time.Now()
	final, err := s.finalizer.Finalize(ctx, decision.FinalizeRequest{
		OwnerUID:    owner,
		Fund:        f,
		Event:       event,
		Balances:    balances,
		Preliminary: prelim,
		Applicant:   applicant,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "decision service round trip failed",
				"user_id", owner,
				"fund_code", f.Code,
				"error", err,
			)
		}
		return application.Application{}, nil, err
	}
	s.metrics.ObserveDecisionLatency(time.Since(started))

	app := application.Application{
		OwnerUID:             owner,
		FundCode:             f.Code,
		ProfileSnapshot:      applicant,
		Event:                event,
		SubmittedDate:        requestcontext.Now(ctx),
		Status:               final.Outcome.ToStatus(),
		Reasons:              pstrings.DedupeAndTrim(final.Reasons),
		TwelveMonthRemaining: final.TwelveMonthRemaining,
		LifetimeRemaining:    final.LifetimeRemaining,
	}
	if app.Status != application.StatusSubmitted {
		decisioned := final.DecisionedDate
		app.DecisionedDate = &decisioned
	}
	return app, final, nil
}

func (s *Service) persist(ctx context.Context, app application.Application, path string) (application.Application, error) {
	created, err := s.applications.Create(ctx, app)
	if err != nil {
		return application.Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "application write failed")
	}
	if s.metrics != nil {
		s.metrics.SubmissionsTotal.WithLabelValues(string(created.Status), path).Inc()
	}
	return created, nil
}

// cleanup drops the fund-scoped draft and any assistant conversation cache.
// Best effort; the application is already persisted.
func (s *Service) cleanup(ctx context.Context, uid domain.UserID, code domain.FundCode) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.Clear(ctx, uid, code); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "clearing draft after submission",
			"user_id", uid,
			"fund_code", code,
			"error", err,
		)
	}
}

// saveEdits persists inline profile edits after a successful submission.
// Silent on both outcomes: the submission already succeeded and the user is
// not told twice.
func (s *Service) saveEdits(ctx context.Context, stored *profile.UserProfile, edits *ProfileEdits) {
	if edits == nil {
		return
	}
	updated := applyEdits(stored, edits)
	updated.UpdatedAt = requestcontext.Now(ctx)
	if err := s.profiles.Save(ctx, updated); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "saving inline profile edits",
			"user_id", stored.UID,
			"error", err,
		)
	}
}

// applyEdits overlays non-empty edit fields on a clone of the stored profile.
func applyEdits(p *profile.UserProfile, edits *ProfileEdits) *profile.UserProfile {
	cp := p.Clone()
	if edits == nil {
		return cp
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cp.FirstName, edits.FirstName)
	set(&cp.LastName, edits.LastName)
	set(&cp.Phone, edits.Phone)
	set(&cp.Street, edits.Street)
	set(&cp.City, edits.City)
	set(&cp.State, edits.State)
	set(&cp.Zip, edits.Zip)
	set(&cp.Country, edits.Country)
	set(&cp.Employer, edits.Employer)
	set(&cp.JobTitle, edits.JobTitle)
	return cp
}
