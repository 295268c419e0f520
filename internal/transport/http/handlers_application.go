package httptransport

import (
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"

	"relief/internal/application"
	"relief/internal/submission"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/httputil"
	"relief/pkg/requestcontext"
)

type eventRequest struct {
	EventType       string   `json:"event_type" valid:"required"`
	EventDate       string   `json:"event_date" valid:"rfc3339,required"`
	Description     string   `json:"description" valid:"-"`
	RequestedAmount int64    `json:"requested_amount" valid:"-"`
	ExpenseTypes    []string `json:"expense_types" valid:"-"`
	ReceiptURLs     []string `json:"receipt_urls" valid:"-"`
}

func (req eventRequest) toDetails() (application.EventDetails, error) {
	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return application.EventDetails{}, dErrors.New(dErrors.CodeInvalidInput, "event date must be RFC 3339")
	}
	if req.RequestedAmount <= 0 {
		return application.EventDetails{}, dErrors.New(dErrors.CodeInvalidInput, "requested amount must be positive")
	}
	return application.EventDetails{
		EventType:       req.EventType,
		EventDate:       eventDate,
		Description:     req.Description,
		RequestedAmount: req.RequestedAmount,
		ExpenseTypes:    req.ExpenseTypes,
		ReceiptURLs:     req.ReceiptURLs,
	}, nil
}

type profileEditsRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Employer  string `json:"employer"`
	JobTitle  string `json:"job_title"`
}

func (req *profileEditsRequest) toEdits() *submission.ProfileEdits {
	if req == nil {
		return nil
	}
	return &submission.ProfileEdits{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
		Country:   req.Country,
		Employer:  req.Employer,
		JobTitle:  req.JobTitle,
	}
}

type submitRequest struct {
	FundCode     string               `json:"fund_code" valid:"required"`
	Event        eventRequest         `json:"event"`
	ProfileEdits *profileEditsRequest `json:"profile_edits,omitempty"`
}

type submitProxyRequest struct {
	ApplicantEmail string       `json:"applicant_email" valid:"email,required"`
	Event          eventRequest `json:"event"`
}

type applicationResponse struct {
	ID                   string   `json:"id"`
	FundCode             string   `json:"fund_code"`
	Status               string   `json:"status"`
	Reasons              []string `json:"reasons,omitempty"`
	SubmittedDate        string   `json:"submitted_date"`
	DecisionedDate       string   `json:"decisioned_date,omitempty"`
	RequestedAmount      int64    `json:"requested_amount"`
	TwelveMonthRemaining int64    `json:"twelve_month_remaining"`
	LifetimeRemaining    int64    `json:"lifetime_remaining"`
	IsProxy              bool     `json:"is_proxy"`
}

func toApplicationResponse(app application.Application) applicationResponse {
	resp := applicationResponse{
		ID:                   app.ID.String(),
		FundCode:             app.FundCode.String(),
		Status:               string(app.Status),
		Reasons:              app.Reasons,
		SubmittedDate:        app.SubmittedDate.UTC().Format(time.RFC3339),
		RequestedAmount:      app.Event.RequestedAmount,
		TwelveMonthRemaining: app.TwelveMonthRemaining,
		LifetimeRemaining:    app.LifetimeRemaining,
		IsProxy:              app.IsProxy,
	}
	if app.DecisionedDate != nil {
		resp.DecisionedDate = app.DecisionedDate.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.svc.Applications.ListForOwner(ctx, requestcontext.UserID(ctx).String())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "application list failed"))
		return
	}
	resp := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toApplicationResponse(app))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": resp})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "fund code and event details are required"))
		return
	}
	code, err := domain.ParseFundCode(req.FundCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	event, err := req.Event.toDetails()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.svc.Submissions.Submit(ctx, submission.Request{
		FundCode:     code,
		Event:        event,
		ProfileEdits: req.ProfileEdits.toEdits(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(res.Application))
}

func (h *Handler) handleSubmitProxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[submitProxyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "a valid applicant email is required"))
		return
	}
	event, err := req.Event.toDetails()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.svc.Submissions.SubmitProxy(ctx, submission.ProxyRequest{
		ApplicantEmail: req.ApplicantEmail,
		Event:          event,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(res.Application))
}

// handleListProxyApplications lists applications the calling admin submitted
// on behalf of applicants.
func (h *Handler) handleListProxyApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.svc.Applications.ListForProxySubmitter(ctx, requestcontext.UserID(ctx).String())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "application list failed"))
		return
	}
	resp := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toApplicationResponse(app))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": resp})
}
