package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "relief/pkg/domain-errors"
)

// Finalizer is the contract with the external AI-assisted decision service.
// Treated as opaque and potentially slow; callers must be prepared for
// failure and must not have written anything before calling it.
type Finalizer interface {
	Finalize(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error)
}

// HTTPFinalizer calls the decision service over HTTP.
type HTTPFinalizer struct {
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
}

func NewHTTPFinalizer(baseURL string, timeout time.Duration) *HTTPFinalizer {
	return &HTTPFinalizer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("relief/decision"),
	}
}

type finalizeWire struct {
	UserID             string   `json:"user_id"`
	FundCode           string   `json:"fund_code"`
	EventType          string   `json:"event_type"`
	RequestedAmount    int64    `json:"requested_amount"`
	SingleRequestMax   int64    `json:"single_request_max"`
	TwelveMonthBalance int64    `json:"twelve_month_balance"`
	LifetimeBalance    int64    `json:"lifetime_balance"`
	Preliminary        string   `json:"preliminary"`
	PreliminaryReasons []string `json:"preliminary_reasons"`
	ApplicantEmail     string   `json:"applicant_email"`
	ApplicantState     string   `json:"applicant_state"`
}

type finalizeWireResult struct {
	Decision             string   `json:"decision"`
	Reasons              []string `json:"reasons"`
	DecisionedDate       string   `json:"decisioned_date"`
	TwelveMonthRemaining int64    `json:"twelve_month_remaining"`
	LifetimeRemaining    int64    `json:"lifetime_remaining"`
}

func (f *HTTPFinalizer) Finalize(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	ctx, span := f.tracer.Start(ctx, "decision.finalize",
		trace.WithAttributes(
			attribute.String("fund.code", req.Fund.Code.String()),
			attribute.String("decision.preliminary", string(req.Preliminary.Outcome)),
		))
	defer span.End()

	body, err := json.Marshal(finalizeWire{
		UserID:             req.OwnerUID.String(),
		FundCode:           req.Fund.Code.String(),
		EventType:          req.Event.EventType,
		RequestedAmount:    req.Event.RequestedAmount,
		SingleRequestMax:   req.Fund.Limits.SingleRequestMax,
		TwelveMonthBalance: req.Balances.TwelveMonthRemaining,
		LifetimeBalance:    req.Balances.LifetimeRemaining,
		Preliminary:        string(req.Preliminary.Outcome),
		PreliminaryReasons: req.Preliminary.Reasons,
		ApplicantEmail:     req.Applicant.Email,
		ApplicantState:     req.Applicant.State,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal finalize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/decisions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build finalize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, "decision service unreachable")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decision service unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, fmt.Sprintf("decision service status %d", resp.StatusCode))
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("decision service returned status %d", resp.StatusCode))
	}

	var wire finalizeWireResult
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decision service response unreadable")
	}

	decisioned := time.Now()
	if t, err := time.Parse(time.RFC3339, wire.DecisionedDate); err == nil {
		decisioned = t
	}
	span.SetAttributes(attribute.String("decision.final", wire.Decision))

	return &FinalizeResult{
		Outcome:              Outcome(wire.Decision),
		Reasons:              wire.Reasons,
		DecisionedDate:       decisioned,
		TwelveMonthRemaining: wire.TwelveMonthRemaining,
		LifetimeRemaining:    wire.LifetimeRemaining,
	}, nil
}
