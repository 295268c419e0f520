package httptransport

import (
	"errors"
	"net/http"

	"github.com/asaskevich/govalidator"

	"relief/internal/profile"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/email"
	"relief/pkg/platform/httputil"
	"relief/pkg/platform/sentinel"
	"relief/pkg/requestcontext"
)

type saveProfileRequest struct {
	Email     string `json:"email" valid:"email,required"`
	FirstName string `json:"first_name" valid:"-"`
	LastName  string `json:"last_name" valid:"-"`
	Phone     string `json:"phone" valid:"-"`
	Street    string `json:"street" valid:"-"`
	City      string `json:"city" valid:"-"`
	State     string `json:"state" valid:"-"`
	Zip       string `json:"zip" valid:"-"`
	Country   string `json:"country" valid:"-"`
	Employer  string `json:"employer" valid:"-"`
	JobTitle  string `json:"job_title" valid:"-"`
}

type profileResponse struct {
	UID                string `json:"uid"`
	Email              string `json:"email"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Phone              string `json:"phone,omitempty"`
	Street             string `json:"street,omitempty"`
	City               string `json:"city,omitempty"`
	State              string `json:"state,omitempty"`
	Zip                string `json:"zip,omitempty"`
	Country            string `json:"country,omitempty"`
	Employer           string `json:"employer,omitempty"`
	JobTitle           string `json:"job_title,omitempty"`
	FundCode           string `json:"fund_code,omitempty"`
	FundName           string `json:"fund_name,omitempty"`
	VerificationStatus string `json:"verification_status,omitempty"`
	EligibilityStatus  string `json:"eligibility_status,omitempty"`
	Role               string `json:"role"`
}

func toProfileResponse(p *profile.UserProfile) profileResponse {
	return profileResponse{
		UID:                p.UID.String(),
		Email:              p.Email,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Phone:              p.Phone,
		Street:             p.Street,
		City:               p.City,
		State:              p.State,
		Zip:                p.Zip,
		Country:            p.Country,
		Employer:           p.Employer,
		JobTitle:           p.JobTitle,
		FundCode:           p.FundCode.String(),
		FundName:           p.FundName,
		VerificationStatus: string(p.VerificationStatus),
		EligibilityStatus:  string(p.EligibilityStatus),
		Role:               string(p.Role),
	}
}

// handleSaveProfile creates or updates the caller's own profile document.
// First save provisions the document the hydration controller waits for.
func (h *Handler) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := requestcontext.UserID(ctx)

	req, ok := httputil.DecodeAndPrepare[saveProfileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "a valid email address is required"))
		return
	}

	now := requestcontext.Now(ctx)
	stored, err := h.svc.Profiles.FindByUID(ctx, uid.String())
	switch {
	case err == nil:
		// Update path; identity projection fields are preserved as stored.
	case errors.Is(err, sentinel.ErrNotFound):
		stored = &profile.UserProfile{UID: uid, CreatedAt: now}
	default:
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed"))
		return
	}

	stored.Email = req.Email
	stored.FirstName = req.FirstName
	stored.LastName = req.LastName
	if stored.FirstName == "" && stored.LastName == "" {
		stored.FirstName, stored.LastName = email.DeriveNameFromEmail(req.Email)
	}
	stored.Phone = req.Phone
	stored.Street = req.Street
	stored.City = req.City
	stored.State = req.State
	stored.Zip = req.Zip
	stored.Country = req.Country
	stored.Employer = req.Employer
	stored.JobTitle = req.JobTitle
	stored.UpdatedAt = now

	if err := h.svc.Profiles.Save(ctx, stored); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "profile write failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(stored))
}
