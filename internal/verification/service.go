package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"relief/internal/fund"
	"relief/internal/identity"
	"relief/internal/platform/metrics"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
)

// Service drives a single identity from unverified to passed or failed. One
// verification session exists per (user, fund); the attempt counter is shared
// across methods and reaching the cap is itself a terminal transition.
type Service struct {
	catalog    *fund.Catalog
	identities *identity.Service
	roster     RosterStore
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu       sync.Mutex
	sessions map[sessionKey]*attemptState
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(catalog *fund.Catalog, identities *identity.Service, roster RosterStore, opts ...Option) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("fund catalog is required")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity service is required")
	}
	svc := &Service{
		catalog:    catalog,
		identities: identities,
		roster:     roster,
		sessions:   make(map[sessionKey]*attemptState),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// VerifyDomain checks the user's email domain against the fund's allow-list.
// Single attempt, immediate pass/fail; a failure still consumes one shared
// attempt.
func (s *Service) VerifyDomain(ctx context.Context, uid domain.UserID, code domain.FundCode, email string) (Result, error) {
	f, err := s.catalog.Lookup(ctx, code)
	if err != nil {
		return Result{}, err
	}
	if f.Method != fund.MethodDomain {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "fund does not use domain verification")
	}

	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	emailDomain := strings.ToLower(email[at+1:])

	passed := false
	for _, allowed := range f.AllowedEmailDomains {
		if strings.EqualFold(allowed, emailDomain) {
			passed = true
			break
		}
	}
	return s.conclude(ctx, uid, f, fund.MethodDomain, passed, "email domain not recognized for this fund")
}

// VerifyRoster matches the submitted identifier and challenge fields against
// the fund's roster. Failures are retryable up to the shared cap.
func (s *Service) VerifyRoster(ctx context.Context, uid domain.UserID, code domain.FundCode, answer RosterAnswer) (Result, error) {
	f, err := s.catalog.Lookup(ctx, code)
	if err != nil {
		return Result{}, err
	}
	if f.Method != fund.MethodRoster {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "fund does not use roster verification")
	}
	if s.roster == nil {
		return Result{}, dErrors.New(dErrors.CodeInternal, "roster store not configured")
	}
	if answer.MemberID == "" || answer.MemberYear == "" || answer.MemberDigit == "" {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "all roster fields are required")
	}

	passed := false
	member, err := s.roster.FindMember(ctx, code.String(), answer.MemberID)
	switch {
	case err == nil:
		passed = member.matches(answer)
	case errors.Is(err, sentinel.ErrNotFound):
		// Unknown member id is an ordinary failed attempt, not an error.
	default:
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "roster lookup failed")
	}
	return s.conclude(ctx, uid, f, fund.MethodRoster, passed, "roster details did not match")
}

// VerifySSO records the outcome of the external linking action. No retry
// semantics of its own beyond the shared attempt counter.
func (s *Service) VerifySSO(ctx context.Context, uid domain.UserID, code domain.FundCode, result SSOResult) (Result, error) {
	f, err := s.catalog.Lookup(ctx, code)
	if err != nil {
		return Result{}, err
	}
	if f.Method != fund.MethodSSO {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "fund does not use SSO verification")
	}

	passed := result.Linked && result.Subject != "" &&
		strings.EqualFold(result.Provider, f.SSOProvider)
	return s.conclude(ctx, uid, f, fund.MethodSSO, passed, "account linking was not completed")
}

// Attempts reports the attempts consumed in the current session for the fund.
func (s *Service) Attempts(uid domain.UserID, code domain.FundCode) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[sessionKey{uid: uid, fund: code}]; ok {
		return st.attempts
	}
	return 0
}

// conclude applies the shared attempt accounting and, on any terminal
// transition, writes the identity through the identity service.
func (s *Service) conclude(ctx context.Context, uid domain.UserID, f fund.Fund, method fund.VerificationMethod, passed bool, failReason string) (Result, error) {
	key := sessionKey{uid: uid, fund: f.Code}

	s.mu.Lock()
	st, ok := s.sessions[key]
	if !ok {
		st = &attemptState{}
		s.sessions[key] = st
	}
	if st.terminalFired {
		attempts := st.attempts
		s.mu.Unlock()
		// The cap transition already ran; do not re-trigger it.
		return Result{Terminal: true, Attempts: attempts},
			dErrors.New(dErrors.CodeConflict, "verification attempts exhausted")
	}
	if !passed && st.attempts < MaxAttempts {
		st.attempts++
	}
	attempts := st.attempts
	capReached := !passed && attempts >= MaxAttempts
	if capReached {
		st.terminalFired = true
	}
	s.mu.Unlock()

	if s.metrics != nil {
		outcome := "fail"
		if passed {
			outcome = "pass"
		}
		s.metrics.VerificationAttempts.WithLabelValues(string(method), outcome).Inc()
	}

	switch {
	case passed:
		fi, err := s.identities.RecordOutcome(ctx, identity.VerificationOutcome{
			UID: uid, Fund: f, Method: method, Passed: true,
		})
		if err != nil {
			return Result{}, err
		}
		s.resetSession(key)
		if s.logger != nil {
			s.logger.InfoContext(ctx, "class verification passed",
				"user_id", uid, "fund_code", f.Code, "method", method)
		}
		return Result{Passed: true, Terminal: true, Attempts: attempts, Identity: fi}, nil

	case capReached:
		fi, err := s.identities.RecordOutcome(ctx, identity.VerificationOutcome{
			UID: uid, Fund: f, Method: method, Passed: false,
		})
		if err != nil {
			// The session must not be marked terminal until the failed
			// identity is actually on record, or a transient write error
			// leaves the user locked out with no identity to trap on.
			s.mu.Lock()
			st.terminalFired = false
			s.mu.Unlock()
			return Result{}, err
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "class verification failed terminally",
				"user_id", uid, "fund_code", f.Code, "attempts", attempts)
		}
		return Result{Terminal: true, Attempts: attempts, Identity: fi, Reason: failReason}, nil

	default:
		return Result{
			Attempts:  attempts,
			Remaining: MaxAttempts - attempts,
			Reason:    failReason,
		}, nil
	}
}

// resetSession clears attempt accounting after a success so a later
// re-verification of the same fund starts a fresh session.
func (s *Service) resetSession(key sessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}
