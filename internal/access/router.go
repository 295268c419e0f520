package access

import (
	"relief/pkg/domain"
)

// State is the snapshot of identity facts the router decides over. It is
// recomputed by session hydration; the router never reads stores itself.
type State struct {
	Role                domain.Role
	VerificationStatus  domain.VerificationStatus
	EligibilityStatus   domain.EligibilityStatus
	HasEligibleIdentity bool
}

// IsTrapped reports the lockout condition: failed verification with no other
// eligible identity and no admin privilege.
func (s State) IsTrapped() bool {
	return s.VerificationStatus == domain.VerificationFailed &&
		!s.HasEligibleIdentity &&
		!s.Role.IsAdmin()
}

// isFullyEligible is the condition for leaving the partial allowlist.
func (s State) isFullyEligible() bool {
	return s.VerificationStatus == domain.VerificationPassed &&
		s.EligibilityStatus == domain.Eligible
}

// Decision tags how a navigation request was resolved.
type Decision string

const (
	// Granted: the requested page is reachable as asked.
	Granted Decision = "granted"
	// Rewritten: the request was forced to a different page (lockout trap).
	Rewritten Decision = "rewritten"
	// Suppressed: the request was dropped; the user stays where they are.
	Suppressed Decision = "suppressed"
)

// Outcome is the result of one navigation request.
type Outcome struct {
	Decision Decision
	Page     Page
}

// Navigate resolves a navigation request. Pure function of (state, current,
// target); no I/O, re-evaluated on every call because identity state changes
// asynchronously underneath the UI.
//
// Precedence, each rule short-circuiting:
//  1. Authentication-flow pages are always permitted.
//  2. Admin role bypasses all further checks.
//  3. Lockout trap: only relief-queue and verification are reachable; any
//     other target is rewritten to relief-queue.
//  4. Partial-eligibility allowlist: targets off the allowlist are
//     suppressed and the user stays put, unlike the trap's rewrite.
//  5. Otherwise the request is granted.
func Navigate(state State, current, target Page) Outcome {
	if IsAuthPage(target) {
		return Outcome{Decision: Granted, Page: target}
	}
	if state.Role.IsAdmin() {
		return Outcome{Decision: Granted, Page: target}
	}
	if state.IsTrapped() {
		if trapPages[target] {
			return Outcome{Decision: Granted, Page: target}
		}
		return Outcome{Decision: Rewritten, Page: PageReliefQueue}
	}
	if !state.isFullyEligible() {
		if partialAllowlist[target] {
			return Outcome{Decision: Granted, Page: target}
		}
		return Outcome{Decision: Suppressed, Page: current}
	}
	return Outcome{Decision: Granted, Page: target}
}
