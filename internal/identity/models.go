package identity

import (
	"time"

	"relief/internal/fund"
	"relief/pkg/domain"
)

// FundIdentity is a user's membership record for one specific fund, carrying
// its own verification and eligibility lifecycle. At most one exists per
// (user, fund); the id is deterministic so creation is idempotent.
//
// Invariant: EligibilityStatus == Eligible implies
// VerificationStatus == passed. The reverse need not hold mid-flight.
type FundIdentity struct {
	ID       domain.IdentityID
	OwnerUID domain.UserID
	FundCode domain.FundCode
	FundName string
	Method   fund.VerificationMethod

	VerificationStatus domain.VerificationStatus
	EligibilityStatus  domain.EligibilityStatus

	CreatedAt time.Time
	// LastUsedAt is nil until the identity is first activated.
	LastUsedAt *time.Time
}

// IsEligible reports whether the identity is simultaneously verified and
// eligible, the condition for reaching grant functionality.
func (fi FundIdentity) IsEligible() bool {
	return fi.VerificationStatus == domain.VerificationPassed &&
		fi.EligibilityStatus == domain.Eligible
}

// Clone returns a deep copy.
func (fi FundIdentity) Clone() FundIdentity {
	cp := fi
	if fi.LastUsedAt != nil {
		t := *fi.LastUsedAt
		cp.LastUsedAt = &t
	}
	return cp
}

// HasEligible reports whether any identity in the slice is eligible.
func HasEligible(identities []FundIdentity) bool {
	for _, fi := range identities {
		if fi.IsEligible() {
			return true
		}
	}
	return false
}
