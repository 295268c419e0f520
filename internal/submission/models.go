package submission

import (
	"relief/internal/application"
	"relief/pkg/domain"
)

// ProfileEdits are the identity fields an applicant may change inline while
// filling the form. Applied silently after a successful submission; failures
// here never fail the submission itself.
type ProfileEdits struct {
	FirstName string
	LastName  string
	Phone     string
	Street    string
	City      string
	State     string
	Zip       string
	Country   string
	Employer  string
	JobTitle  string
}

// Request carries one submission attempt. FundCode is what the form said;
// the proxy path overrides it with the admin's active fund.
type Request struct {
	FundCode     domain.FundCode
	Event        application.EventDetails
	ProfileEdits *ProfileEdits
}

// ProxyRequest is an admin submitting on an applicant's behalf. The applicant
// is addressed by email and must already hold an account.
type ProxyRequest struct {
	ApplicantEmail string
	Event          application.EventDetails
}

// Result reports the persisted application plus the decision facts the UI
// surfaces immediately.
type Result struct {
	Application application.Application
	Reasons     []string
}
