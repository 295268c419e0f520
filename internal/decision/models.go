package decision

import (
	"time"

	"relief/internal/application"
	"relief/internal/fund"
	"relief/internal/ledger"
	"relief/internal/profile"
	"relief/pkg/domain"
)

// Outcome enumerates the possible decisions for a relief request.
type Outcome string

const (
	OutcomeApproved Outcome = "Approved"
	OutcomeDenied   Outcome = "Denied"
	OutcomeReview   Outcome = "Needs Review"
)

// Reason constants shared by the local rules and decision mapping.
const (
	ReasonOverSingleRequestCap = "requested amount exceeds single-request maximum"
	ReasonEventNotCovered      = "event type not covered by this fund"
	ReasonTwelveMonthExhausted = "12-month grant balance exhausted"
	ReasonLifetimeExhausted    = "lifetime grant balance exhausted"
	ReasonWithinLimits         = "request within configured limits"
)

// Input groups the signals the preliminary rules consider.
type Input struct {
	Fund     fund.Fund
	Event    application.EventDetails
	Balances ledger.Balances
}

// Preliminary is the locally computed rule-based decision handed to the
// external service as a starting point.
type Preliminary struct {
	Outcome Outcome
	Reasons []string
}

// FinalizeRequest carries the full context for the external decision service.
type FinalizeRequest struct {
	OwnerUID    domain.UserID
	Fund        fund.Fund
	Event       application.EventDetails
	Balances    ledger.Balances
	Preliminary Preliminary
	Applicant   profile.UserProfile
}

// FinalizeResult is the external service's verdict, including the remaining
// balances after this submission which are persisted onto the application.
type FinalizeResult struct {
	Outcome              Outcome
	Reasons              []string
	DecisionedDate       time.Time
	TwelveMonthRemaining int64
	LifetimeRemaining    int64
}

// ToStatus maps a decision outcome onto the persisted application status.
// Anything the service returns beyond Approved/Denied lands as Submitted,
// pending human review.
func (o Outcome) ToStatus() application.Status {
	switch o {
	case OutcomeApproved:
		return application.StatusAwarded
	case OutcomeDenied:
		return application.StatusDeclined
	default:
		return application.StatusSubmitted
	}
}
