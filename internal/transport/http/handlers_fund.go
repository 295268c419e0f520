package httptransport

import (
	"net/http"

	"relief/internal/fund"
	"relief/pkg/platform/httputil"
)

type fundResponse struct {
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Method             string   `json:"method"`
	SingleRequestMax   int64    `json:"single_request_max"`
	TwelveMonthMax     int64    `json:"twelve_month_max"`
	LifetimeMax        int64    `json:"lifetime_max"`
	EligibleEventTypes []string `json:"eligible_event_types"`
	SSOProvider        string   `json:"sso_provider,omitempty"`
}

func toFundResponse(f fund.Fund) fundResponse {
	return fundResponse{
		Code:               f.Code.String(),
		Name:               f.Name,
		Method:             string(f.Method),
		SingleRequestMax:   f.Limits.SingleRequestMax,
		TwelveMonthMax:     f.Limits.TwelveMonthMax,
		LifetimeMax:        f.Limits.LifetimeMax,
		EligibleEventTypes: f.EligibleEventTypes,
		SSOProvider:        f.SSOProvider,
	}
}

func (h *Handler) handleListFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.svc.Catalog.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := make([]fundResponse, 0, len(funds))
	for _, f := range funds {
		resp = append(resp, toFundResponse(f))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"funds": resp})
}
