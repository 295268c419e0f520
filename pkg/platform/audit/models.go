package audit

import (
	"time"

	"relief/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// terminal verification transitions, submissions, proxy submissions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// lockout trips, forced sign-outs on integrity errors, denied navigation.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging: identity
	// switches, draft resets, routine hydrations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    domain.UserID
	FundCode  domain.FundCode
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action when different from UserID,
	// e.g. an administrator submitting on an applicant's behalf.
	ActorID string
	// Client metadata, stamped by the recorder from the request context so
	// security events can be tied back to a connection.
	ClientIP  string
	UserAgent string
	Device    string
}
