package application

import (
	"time"

	"relief/internal/profile"
	"relief/pkg/domain"
)

// Status reflects the decision recorded at submission time.
type Status string

const (
	StatusSubmitted Status = "Submitted"
	StatusAwarded   Status = "Awarded"
	StatusDeclined  Status = "Declined"
)

// EventDetails describes the qualifying event and requested relief.
type EventDetails struct {
	EventType       string
	EventDate       time.Time
	Description     string
	RequestedAmount int64
	ExpenseTypes    []string
	ReceiptURLs     []string
}

// Application is an append-only record of one relief request. The Grant
// Ledger reads past applications but never edits them; the remaining-balance
// fields are the balances *after* this submission, computed by the decision
// service and persisted atomically with the record.
type Application struct {
	ID       domain.ApplicationID
	OwnerUID domain.UserID
	FundCode domain.FundCode

	// ProfileSnapshot freezes the applicant's profile at submission time.
	ProfileSnapshot profile.UserProfile
	Event           EventDetails

	SubmittedDate  time.Time
	Status         Status
	Reasons        []string
	DecisionedDate *time.Time

	TwelveMonthRemaining int64
	LifetimeRemaining    int64

	// SubmittedBy differs from OwnerUID for proxy submissions.
	SubmittedBy domain.UserID
	IsProxy     bool
}
