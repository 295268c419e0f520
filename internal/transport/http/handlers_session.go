package httptransport

import (
	"net/http"

	"relief/internal/access"
	"relief/internal/draft"
	"relief/internal/identity"
	"relief/internal/session"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/httputil"
	"relief/pkg/requestcontext"
)

type identityResponse struct {
	ID                 string `json:"id"`
	FundCode           string `json:"fund_code"`
	FundName           string `json:"fund_name"`
	Method             string `json:"method"`
	VerificationStatus string `json:"verification_status"`
	EligibilityStatus  string `json:"eligibility_status"`
	LastUsedAt         string `json:"last_used_at,omitempty"`
}

func toIdentityResponse(fi identity.FundIdentity) identityResponse {
	resp := identityResponse{
		ID:                 fi.ID.String(),
		FundCode:           fi.FundCode.String(),
		FundName:           fi.FundName,
		Method:             string(fi.Method),
		VerificationStatus: string(fi.VerificationStatus),
		EligibilityStatus:  string(fi.EligibilityStatus),
	}
	if fi.LastUsedAt != nil {
		resp.LastUsedAt = fi.LastUsedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

type sessionResponse struct {
	Provisioning        bool               `json:"provisioning"`
	Role                string             `json:"role"`
	Profile             any                `json:"profile,omitempty"`
	Identities          []identityResponse `json:"identities"`
	ActiveIdentityID    string             `json:"active_identity_id,omitempty"`
	HasEligibleIdentity bool               `json:"has_eligible_identity"`
	Trapped             bool               `json:"trapped"`
	Draft               *draft.Draft       `json:"draft,omitempty"`
	ForcedPage          string             `json:"forced_page,omitempty"`
}

func (h *Handler) authSnapshot(r *http.Request) session.AuthSnapshot {
	ctx := r.Context()
	return session.AuthSnapshot{
		SignedIn:         true,
		UID:              requestcontext.UserID(ctx),
		Admin:            requestcontext.Role(ctx).IsAdmin(),
		AccountCreatedAt: requestcontext.AccountCreatedAt(ctx),
	}
}

// handleSession returns the hydrated session view plus any forced landing
// page. The current page travels as a query parameter so the redirect rules
// can decide whether to leave navigation alone.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	current := access.Page(r.URL.Query().Get("current"))

	st, forced, err := h.svc.Hydrator.Snapshot(r.Context(), h.authSnapshot(r), current)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := sessionResponse{
		Provisioning:        st.Provisioning,
		Role:                string(st.Role),
		Identities:          make([]identityResponse, 0, len(st.Identities)),
		HasEligibleIdentity: st.HasEligibleIdentity,
		Trapped:             st.Trapped,
		Draft:               st.Draft,
		ForcedPage:          string(forced),
	}
	if st.Profile != nil {
		resp.Profile = toProfileResponse(st.Profile)
	}
	if st.Active != nil {
		resp.ActiveIdentityID = st.Active.ID.String()
	}
	for _, fi := range st.Identities {
		resp.Identities = append(resp.Identities, toIdentityResponse(fi))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type navigateRequest struct {
	Current string `json:"current"`
	Target  string `json:"target"`
}

type navigateResponse struct {
	Decision string `json:"decision"`
	Page     string `json:"page"`
}

// handleNavigate resolves one navigation request against fresh state. State
// is recomputed per call; the router result is never cached.
func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[navigateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if req.Target == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "target page is required"))
		return
	}

	st, _, err := h.svc.Hydrator.Snapshot(ctx, h.authSnapshot(r), access.Page(req.Current))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	state := access.State{Role: domain.RoleUser}
	if st != nil {
		state = st.AccessState()
	}
	outcome := access.Navigate(state, access.Page(req.Current), access.Page(req.Target))
	httputil.WriteJSON(w, http.StatusOK, navigateResponse{
		Decision: string(outcome.Decision),
		Page:     string(outcome.Page),
	})
}
