package domain

// VerificationStatus tracks class verification for one fund identity.
// pending → passed is terminal success; pending → failed is terminal for the
// identity, not for the user, who may verify against another fund.
type VerificationStatus string

const (
	VerificationPending VerificationStatus = "pending"
	VerificationPassed  VerificationStatus = "passed"
	VerificationFailed  VerificationStatus = "failed"
)

func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationPassed || s == VerificationFailed
}

// EligibilityStatus records whether a verified identity may draw grants.
// Eligible implies the identity's verification has passed.
type EligibilityStatus string

const (
	Eligible    EligibilityStatus = "Eligible"
	NotEligible EligibilityStatus = "Not Eligible"
)
