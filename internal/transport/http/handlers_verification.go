package httptransport

import (
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"relief/internal/verification"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/httputil"
	"relief/pkg/requestcontext"
)

type verificationResponse struct {
	Passed    bool              `json:"passed"`
	Terminal  bool              `json:"terminal"`
	Attempts  int               `json:"attempts"`
	Remaining int               `json:"remaining"`
	Reason    string            `json:"reason,omitempty"`
	Identity  *identityResponse `json:"identity,omitempty"`
}

func toVerificationResponse(res verification.Result) verificationResponse {
	resp := verificationResponse{
		Passed:    res.Passed,
		Terminal:  res.Terminal,
		Attempts:  res.Attempts,
		Remaining: res.Remaining,
		Reason:    res.Reason,
	}
	if !res.Identity.ID.IsZero() {
		ir := toIdentityResponse(res.Identity)
		resp.Identity = &ir
	}
	return resp
}

func fundCodeParam(r *http.Request) (domain.FundCode, error) {
	return domain.ParseFundCode(chi.URLParam(r, "fundCode"))
}

type verifyDomainRequest struct {
	Email string `json:"email" valid:"email,required"`
}

func (h *Handler) handleVerifyDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code, err := fundCodeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[verifyDomainRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "a valid email address is required"))
		return
	}

	res, err := h.svc.Verification.VerifyDomain(ctx, requestcontext.UserID(ctx), code, req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(res))
}

type verifyRosterRequest struct {
	MemberID    string `json:"member_id" valid:"required"`
	MemberYear  string `json:"member_year" valid:"numeric,required"`
	MemberDigit string `json:"member_digit" valid:"numeric,required"`
}

func (h *Handler) handleVerifyRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code, err := fundCodeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[verifyRosterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "all roster fields are required and numeric where expected"))
		return
	}

	res, err := h.svc.Verification.VerifyRoster(ctx, requestcontext.UserID(ctx), code, verification.RosterAnswer{
		MemberID:    req.MemberID,
		MemberYear:  req.MemberYear,
		MemberDigit: req.MemberDigit,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(res))
}

type verifySSORequest struct {
	Provider string `json:"provider" valid:"required"`
	Linked   bool   `json:"linked"`
	Subject  string `json:"subject" valid:"-"`
}

func (h *Handler) handleVerifySSO(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code, err := fundCodeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[verifySSORequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "provider is required"))
		return
	}

	res, err := h.svc.Verification.VerifySSO(ctx, requestcontext.UserID(ctx), code, verification.SSOResult{
		Provider: req.Provider,
		Linked:   req.Linked,
		Subject:  req.Subject,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(res))
}
