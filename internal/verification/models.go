package verification

import (
	"relief/internal/identity"
	"relief/pkg/domain"
)

// MaxAttempts is the shared attempt cap for one verification session (one
// fund code), counted across all methods.
const MaxAttempts = 3

// RosterAnswer is the applicant-supplied roster challenge: a member
// identifier plus two numeric fields compared against the fund's roster.
type RosterAnswer struct {
	MemberID    string
	MemberYear  string
	MemberDigit string
}

// SSOResult is the outcome of the single-click external linking action, as
// reported by the provider callback.
type SSOResult struct {
	Provider string
	Linked   bool
	Subject  string
}

// Result reports one verification attempt. When Terminal is true the
// identity carries the final state; the caller owns any post-success
// redirect, this package never navigates.
type Result struct {
	Passed    bool
	Terminal  bool
	Attempts  int
	Remaining int
	Identity  identity.FundIdentity
	// Reason is set on non-terminal failures for inline display.
	Reason string
}

type sessionKey struct {
	uid  domain.UserID
	fund domain.FundCode
}

// attemptState tracks one verification session. terminalFired guards the cap
// transition so repeated calls after exhaustion never re-trigger it.
type attemptState struct {
	attempts      int
	terminalFired bool
}
