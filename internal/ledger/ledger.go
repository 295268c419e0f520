// Package ledger derives the rolling 12-month and lifetime grant balances
// for one (user, fund) pair. Balances are not re-summed from history: each
// application stores the remainder computed by the decision service at
// submission time; the ledger reads the most recent one, defaulting to the
// fund's configured maxima when no prior application exists.
//
// The ledger is advisory on this side of the decision service. Authoritative
// decrement happens where the final balances are computed and persisted
// atomically with the application; the ledger's job is to block obviously
// futile submissions before the decision round trip.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"relief/internal/application"
	"relief/internal/fund"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
)

// Balances are the remaining grant headrooms, in minor currency units.
type Balances struct {
	TwelveMonthRemaining int64
	LifetimeRemaining    int64
}

// Ledger reads balances off application history.
type Ledger struct {
	applications application.Store
}

func New(applications application.Store) (*Ledger, error) {
	if applications == nil {
		return nil, fmt.Errorf("application store is required")
	}
	return &Ledger{applications: applications}, nil
}

// Balances returns the remaining balances for (uid, fund): the remainder
// stored on the most recently submitted application, or the fund's maxima
// when the user has never applied to this fund.
func (l *Ledger) Balances(ctx context.Context, uid domain.UserID, f fund.Fund) (Balances, error) {
	latest, err := l.applications.LatestForOwnerAndFund(ctx, uid.String(), f.Code.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Balances{
				TwelveMonthRemaining: f.Limits.TwelveMonthMax,
				LifetimeRemaining:    f.Limits.LifetimeMax,
			}, nil
		}
		return Balances{}, dErrors.Wrap(err, dErrors.CodeInternal, "balance lookup failed")
	}
	return Balances{
		TwelveMonthRemaining: latest.TwelveMonthRemaining,
		LifetimeRemaining:    latest.LifetimeRemaining,
	}, nil
}

// CanApply reports whether a new submission is worth starting: the identity
// must be simultaneously verified and eligible and both balances strictly
// positive.
func CanApply(verification domain.VerificationStatus, eligibility domain.EligibilityStatus, b Balances) bool {
	if verification != domain.VerificationPassed || eligibility != domain.Eligible {
		return false
	}
	return b.TwelveMonthRemaining > 0 && b.LifetimeRemaining > 0
}
