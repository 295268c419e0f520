package fund

import "relief/pkg/domain"

// VerificationMethod selects how a fund proves class membership.
type VerificationMethod string

const (
	// MethodDomain compares the applicant's email domain against an
	// allow-list. Single attempt, immediate pass/fail.
	MethodDomain VerificationMethod = "domain"
	// MethodRoster matches an identifier plus two numeric fields against a
	// fund-scoped roster. Failures are retryable.
	MethodRoster VerificationMethod = "roster"
	// MethodSSO is a single external linking action treated as pass/fail.
	MethodSSO VerificationMethod = "sso"
)

func (m VerificationMethod) IsValid() bool {
	switch m {
	case MethodDomain, MethodRoster, MethodSSO:
		return true
	}
	return false
}

// GrantLimits are the fund's configured caps, in minor currency units.
type GrantLimits struct {
	SingleRequestMax int64
	TwelveMonthMax   int64
	LifetimeMax      int64
}

// Fund is read-only reference data describing a sponsoring program.
type Fund struct {
	Code               domain.FundCode
	Name               string
	Method             VerificationMethod
	Limits             GrantLimits
	EligibleEventTypes []string
	Locales            []string

	// AllowedEmailDomains applies to MethodDomain funds.
	AllowedEmailDomains []string
	// SSOProvider names the external provider for MethodSSO funds.
	SSOProvider string
}

// AllowsEventType reports whether the event type is in the fund's taxonomy.
func (f Fund) AllowsEventType(eventType string) bool {
	for _, t := range f.EligibleEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}
