// Package domain holds the typed identifiers shared across features. Typed
// IDs prevent cross-entity assignment at compile time and give parsing a
// single trust boundary.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "relief/pkg/domain-errors"
)

// UserID is the stable identifier minted by the authentication layer.
type UserID string

func (id UserID) String() string { return string(id) }
func (id UserID) IsZero() bool   { return id == "" }

// ParseUserID validates an externally supplied user identifier.
func ParseUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > 128 || strings.ContainsRune(raw, 0) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	return UserID(raw), nil
}

// FundCode identifies a sponsoring fund in the catalog.
type FundCode string

func (c FundCode) String() string { return string(c) }
func (c FundCode) IsZero() bool   { return c == "" }

// ParseFundCode validates an externally supplied fund code.
func ParseFundCode(raw string) (FundCode, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" || len(raw) > 32 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid fund code")
	}
	for _, r := range raw {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid fund code")
		}
	}
	return FundCode(raw), nil
}

// IdentityID identifies one (user, fund) membership record. The value is
// deterministic so identity creation stays idempotent: re-verifying the same
// fund always lands on the same record.
type IdentityID string

func (id IdentityID) String() string { return string(id) }
func (id IdentityID) IsZero() bool   { return id == "" }

// NewIdentityID derives the identity id for a (user, fund) pair.
func NewIdentityID(uid UserID, code FundCode) IdentityID {
	return IdentityID(uid.String() + "-" + code.String())
}

// ApplicationID identifies a persisted relief application. Assigned by the
// application store on create.
type ApplicationID string

func (id ApplicationID) String() string { return string(id) }
func (id ApplicationID) IsZero() bool   { return id == "" }

// NewApplicationID mints a fresh application identifier.
func NewApplicationID() ApplicationID {
	return ApplicationID(uuid.NewString())
}

// ParseApplicationID validates an externally supplied application id.
func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || parsed == uuid.Nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid application id")
	}
	return ApplicationID(parsed.String()), nil
}
