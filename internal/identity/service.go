package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"relief/internal/fund"
	"relief/internal/platform/metrics"
	"relief/internal/profile"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/audit"
	"relief/pkg/platform/sentinel"
	"relief/pkg/requestcontext"
)

// Service owns the identity lifecycle: idempotent creation from verification
// outcomes, activation (switching), and removal. Activation is the single
// place the profile's denormalized fund fields get rewritten, so the two
// copies cannot drift.
type Service struct {
	identities Store
	profiles   profile.Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    audit.Recorder
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

func New(identities Store, profiles profile.Store, opts ...Option) (*Service, error) {
	if identities == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	svc := &Service{
		identities: identities,
		profiles:   profiles,
		auditor:    audit.NopRecorder{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// List returns all identities for a user in deterministic order.
func (s *Service) List(ctx context.Context, uid domain.UserID) ([]FundIdentity, error) {
	identities, err := s.identities.ListForUser(ctx, uid.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}
	return identities, nil
}

// VerificationOutcome captures a terminal verification result to be written
// onto the (possibly new) identity for the fund.
type VerificationOutcome struct {
	UID    domain.UserID
	Fund   fund.Fund
	Method fund.VerificationMethod
	Passed bool
}

// RecordOutcome creates or updates the identity for (uid, fund) from a
// terminal verification result. Success marks the identity passed+Eligible,
// touches LastUsedAt and activates it. Failure marks it failed+Not Eligible
// and activates it only when the user has no active identity yet, so the
// session lands somewhere concrete.
func (s *Service) RecordOutcome(ctx context.Context, outcome VerificationOutcome) (FundIdentity, error) {
	now := requestcontext.Now(ctx)
	id := domain.NewIdentityID(outcome.UID, outcome.Fund.Code)

	fi, err := s.identities.FindByID(ctx, id.String())
	switch {
	case err == nil:
		// Re-verification updates the existing record, never duplicates.
	case errors.Is(err, sentinel.ErrNotFound):
		fi = FundIdentity{
			ID:        id,
			OwnerUID:  outcome.UID,
			FundCode:  outcome.Fund.Code,
			FundName:  outcome.Fund.Name,
			CreatedAt: now,
		}
	default:
		return FundIdentity{}, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	fi.Method = outcome.Method
	if outcome.Passed {
		fi.VerificationStatus = domain.VerificationPassed
		fi.EligibilityStatus = domain.Eligible
		fi.LastUsedAt = &now
	} else {
		fi.VerificationStatus = domain.VerificationFailed
		fi.EligibilityStatus = domain.NotEligible
	}

	if err := s.identities.Upsert(ctx, fi); err != nil {
		return FundIdentity{}, dErrors.Wrap(err, dErrors.CodeInternal, "identity write failed")
	}

	p, err := s.profiles.FindByUID(ctx, outcome.UID.String())
	if err != nil {
		return FundIdentity{}, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}

	if outcome.Passed || p.ActiveIdentityID == nil {
		if err := s.applyActive(ctx, p, fi); err != nil {
			return FundIdentity{}, err
		}
	}

	if s.metrics != nil {
		s.metrics.VerificationTerminal.WithLabelValues(string(fi.VerificationStatus)).Inc()
	}
	s.auditor.Record(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		UserID:   outcome.UID,
		FundCode: outcome.Fund.Code,
		Action:   "class_verification_terminal",
		Decision: string(fi.VerificationStatus),
	})

	return fi, nil
}

// Switch makes the given identity active for its owner and touches its
// LastUsedAt. The identity must belong to the caller.
func (s *Service) Switch(ctx context.Context, uid domain.UserID, identityID domain.IdentityID) (FundIdentity, error) {
	fi, err := s.identities.FindByID(ctx, identityID.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return FundIdentity{}, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return FundIdentity{}, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}
	if fi.OwnerUID != uid {
		return FundIdentity{}, dErrors.New(dErrors.CodeForbidden, "identity belongs to another user")
	}

	now := requestcontext.Now(ctx)
	fi.LastUsedAt = &now
	if err := s.identities.Upsert(ctx, fi); err != nil {
		return FundIdentity{}, dErrors.Wrap(err, dErrors.CodeInternal, "identity write failed")
	}

	p, err := s.profiles.FindByUID(ctx, uid.String())
	if err != nil {
		return FundIdentity{}, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	if err := s.applyActive(ctx, p, fi); err != nil {
		return FundIdentity{}, err
	}

	if s.metrics != nil {
		s.metrics.IdentitySwitches.Inc()
	}
	s.auditor.Record(ctx, audit.Event{
		Category: audit.CategoryOperations,
		UserID:   uid,
		FundCode: fi.FundCode,
		Action:   "identity_switched",
	})

	if s.logger != nil {
		s.logger.InfoContext(ctx, "active identity switched",
			"user_id", uid,
			"fund_code", fi.FundCode,
		)
	}
	return fi, nil
}

// Remove deletes an identity. Removing the active identity is forbidden:
// switch first, then remove.
func (s *Service) Remove(ctx context.Context, uid domain.UserID, identityID domain.IdentityID) error {
	fi, err := s.identities.FindByID(ctx, identityID.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}
	if fi.OwnerUID != uid {
		return dErrors.New(dErrors.CodeForbidden, "identity belongs to another user")
	}

	p, err := s.profiles.FindByUID(ctx, uid.String())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	if p.ActiveIdentityID != nil && *p.ActiveIdentityID == identityID {
		return dErrors.New(dErrors.CodeConflict, "cannot remove the active identity")
	}

	if err := s.identities.Delete(ctx, identityID.String()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity delete failed")
	}
	return nil
}

// applyActive rewrites the profile's active pointer and its derived fund
// projection from the given identity, as one whole-object save.
func (s *Service) applyActive(ctx context.Context, p *profile.UserProfile, fi FundIdentity) error {
	updated := p.Clone()
	id := fi.ID
	updated.ActiveIdentityID = &id
	updated.FundCode = fi.FundCode
	updated.FundName = fi.FundName
	updated.VerificationStatus = fi.VerificationStatus
	updated.EligibilityStatus = fi.EligibilityStatus
	updated.UpdatedAt = requestcontext.Now(ctx)
	if err := s.profiles.Save(ctx, updated); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile write failed")
	}
	return nil
}
