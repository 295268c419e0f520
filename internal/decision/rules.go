package decision

// EvaluatePreliminary applies the fund's configured rules to produce the
// local decision. This is pure domain logic - no I/O, no side effects.
//
// Rule priority (fail-fast):
//  1. Single-request cap - cheapest check, hard deny
//  2. Event taxonomy - the fund must cover the event type
//  3. Ledger balances - both must be strictly positive
func EvaluatePreliminary(input Input) Preliminary {
	if input.Event.RequestedAmount <= 0 {
		return Preliminary{Outcome: OutcomeDenied, Reasons: []string{ReasonOverSingleRequestCap}}
	}
	if input.Event.RequestedAmount > input.Fund.Limits.SingleRequestMax {
		return Preliminary{Outcome: OutcomeDenied, Reasons: []string{ReasonOverSingleRequestCap}}
	}
	if !input.Fund.AllowsEventType(input.Event.EventType) {
		return Preliminary{Outcome: OutcomeDenied, Reasons: []string{ReasonEventNotCovered}}
	}
	if input.Balances.TwelveMonthRemaining <= 0 {
		return Preliminary{Outcome: OutcomeDenied, Reasons: []string{ReasonTwelveMonthExhausted}}
	}
	if input.Balances.LifetimeRemaining <= 0 {
		return Preliminary{Outcome: OutcomeDenied, Reasons: []string{ReasonLifetimeExhausted}}
	}
	// Requests exceeding the remaining 12-month headroom are not denied
	// locally; the decision service may partially award. Flag for review.
	if input.Event.RequestedAmount > input.Balances.TwelveMonthRemaining {
		return Preliminary{Outcome: OutcomeReview, Reasons: []string{ReasonWithinLimits}}
	}
	return Preliminary{Outcome: OutcomeApproved, Reasons: []string{ReasonWithinLimits}}
}
