package profile

import (
	"time"

	"relief/pkg/domain"
)

// UserProfile is the single per-user document. The fund-scoped fields
// (FundCode, FundName, VerificationStatus, EligibilityStatus) are a derived
// projection of the active identity, recomputed by session hydration; the
// stored copies are display-only and never trusted for routing decisions.
// Role likewise is overwritten from the authorization claim on every load.
type UserProfile struct {
	UID       domain.UserID
	Email     string
	FirstName string
	LastName  string
	Phone     string

	Street  string
	City    string
	State   string
	Zip     string
	Country string

	Employer string
	JobTitle string

	ActiveIdentityID *domain.IdentityID

	FundCode           domain.FundCode
	FundName           string
	VerificationStatus domain.VerificationStatus
	EligibilityStatus  domain.EligibilityStatus

	Role domain.Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can overlay derived fields without
// mutating the stored document.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.ActiveIdentityID != nil {
		id := *p.ActiveIdentityID
		cp.ActiveIdentityID = &id
	}
	return &cp
}
