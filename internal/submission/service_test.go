package submission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief/internal/application"
	"relief/internal/decision"
	"relief/internal/draft"
	"relief/internal/fund"
	"relief/internal/identity"
	"relief/internal/ledger"
	"relief/internal/profile"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
	"relief/pkg/testutil"
)

var submitTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// fakeFinalizer plays the external decision service.
type fakeFinalizer struct {
	result   decision.FinalizeResult
	err      error
	calls    int
	lastReq  decision.FinalizeRequest
	onCalled func()
}

func (f *fakeFinalizer) Finalize(_ context.Context, req decision.FinalizeRequest) (*decision.FinalizeResult, error) {
	f.calls++
	f.lastReq = req
	if f.onCalled != nil {
		f.onCalled()
	}
	if f.err != nil {
		return nil, f.err
	}
	res := f.result
	return &res, nil
}

type submitFixture struct {
	svc          *Service
	profiles     profile.Store
	identities   identity.Store
	applications *application.InMemoryStore
	drafts       *draft.Cache
	kv           *draft.InMemoryKV
	finalizer    *fakeFinalizer
}

func newSubmitFixture(t *testing.T) *submitFixture {
	t.Helper()

	profiles := profile.NewInMemoryStore()
	identities := identity.NewInMemoryStore()
	applications := application.NewInMemoryStore()
	catalog := fund.NewCatalog(fund.NewInMemoryStore(fund.SeedDemoFunds()...))
	kv := draft.NewInMemoryKV()
	drafts, err := draft.NewCache(kv)
	require.NoError(t, err)
	l, err := ledger.New(applications)
	require.NoError(t, err)

	finalizer := &fakeFinalizer{
		result: decision.FinalizeResult{
			Outcome:              decision.OutcomeApproved,
			Reasons:              []string{decision.ReasonWithinLimits},
			DecisionedDate:       submitTime,
			TwelveMonthRemaining: 375_000,
			LifetimeRemaining:    1_375_000,
		},
	}

	svc, err := New(catalog, profiles, identities, applications, l, finalizer,
		WithDraftCache(drafts))
	require.NoError(t, err)

	return &submitFixture{
		svc:          svc,
		profiles:     profiles,
		identities:   identities,
		applications: applications,
		drafts:       drafts,
		kv:           kv,
		finalizer:    finalizer,
	}
}

// seedEligible creates a profile with an active, verified, eligible ACME
// identity so the self-service path can run.
func (f *submitFixture) seedEligible(t *testing.T, uid domain.UserID, email string) {
	t.Helper()
	ctx := context.Background()

	id := domain.NewIdentityID(uid, "ACME")
	last := submitTime.Add(-time.Hour)
	require.NoError(t, f.identities.Upsert(ctx, identity.FundIdentity{
		ID:                 id,
		OwnerUID:           uid,
		FundCode:           "ACME",
		FundName:           "ACME Employee Relief Fund",
		VerificationStatus: domain.VerificationPassed,
		EligibilityStatus:  domain.Eligible,
		CreatedAt:          last,
		LastUsedAt:         &last,
	}))
	require.NoError(t, f.profiles.Save(ctx, &profile.UserProfile{
		UID:                uid,
		Email:              email,
		FirstName:          "Pat",
		LastName:           "Jones",
		ActiveIdentityID:   &id,
		FundCode:           "ACME",
		FundName:           "ACME Employee Relief Fund",
		VerificationStatus: domain.VerificationPassed,
		EligibilityStatus:  domain.Eligible,
		CreatedAt:          submitTime.Add(-24 * time.Hour),
	}))
}

func (f *submitFixture) seedDraft(t *testing.T, uid domain.UserID, code domain.FundCode) {
	t.Helper()
	_, err := f.drafts.Merge(context.Background(), uid, code, draft.Patch{
		Event: map[string]any{"eventType": "flood"},
	})
	require.NoError(t, err)
}

func validEvent() application.EventDetails {
	return application.EventDetails{
		EventType:       "flood",
		EventDate:       submitTime.AddDate(0, 0, -10),
		Description:     "basement flooded after the storm",
		RequestedAmount: 125_000,
		ExpenseTypes:    []string{"repairs"},
	}
}

func TestSubmit(t *testing.T) {
	uid := domain.UserID("user-1")

	t.Run("happy path persists, clears the draft, reports reasons", func(t *testing.T) {
		f := newSubmitFixture(t)
		f.seedEligible(t, uid, "pat@acme.com")
		f.seedDraft(t, uid, "ACME")
		ctx := testutil.AuthedContext(uid, domain.RoleUser, submitTime)

		res, err := f.svc.Submit(ctx, Request{FundCode: "ACME", Event: validEvent()})
		require.NoError(t, err)

		app := res.Application
		assert.NotEmpty(t, app.ID)
		assert.Equal(t, uid, app.OwnerUID)
		assert.Equal(t, uid, app.SubmittedBy)
		assert.False(t, app.IsProxy)
		assert.Equal(t, application.StatusAwarded, app.Status)
		assert.Equal(t, submitTime, app.SubmittedDate)
		require.NotNil(t, app.DecisionedDate)
		assert.Equal(t, int64(375_000), app.TwelveMonthRemaining)
		assert.Equal(t, int64(1_375_000), app.LifetimeRemaining)
		assert.Equal(t, "Pat", app.ProfileSnapshot.FirstName)
		assert.Equal(t, []string{decision.ReasonWithinLimits}, res.Reasons)

		stored, err := f.applications.LatestForOwnerAndFund(ctx, uid.String(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, app.ID, stored.ID)

		d, err := f.drafts.Load(ctx, uid, "ACME")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("finalizer failure aborts before any write and keeps the draft", func(t *testing.T) {
		f := newSubmitFixture(t)
		f.seedEligible(t, uid, "pat@acme.com")
		f.seedDraft(t, uid, "ACME")
		f.finalizer.err = dErrors.New(dErrors.CodeUnavailable, "decision service unavailable")
		ctx := testutil.AuthedContext(uid, domain.RoleUser, submitTime)

		_, err := f.svc.Submit(ctx, Request{FundCode: "ACME", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		_, err = f.applications.LatestForOwnerAndFund(ctx, uid.String(), "ACME")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		d, err := f.drafts.Load(ctx, uid, "ACME")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "flood", d.Event["eventType"])
	})

	t.Run("identity switch mid-flight aborts with a conflict", func(t *testing.T) {
		f := newSubmitFixture(t)
		f.seedEligible(t, uid, "pat@acme.com")
		f.seedDraft(t, uid, "ACME")
		ctx := testutil.AuthedContext(uid, domain.RoleUser, submitTime)

		// While the decision service is thinking, the caller activates a
		// different identity.
		f.finalizer.onCalled = func() {
			p, err := f.profiles.FindByUID(context.Background(), uid.String())
			require.NoError(t, err)
			other := domain.NewIdentityID(uid, "BETA")
			updated := p.Clone()
			updated.ActiveIdentityID = &other
			require.NoError(t, f.profiles.Save(context.Background(), updated))
		}

		_, err := f.svc.Submit(ctx, Request{FundCode: "ACME", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = f.applications.LatestForOwnerAndFund(ctx, uid.String(), "ACME")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		d, err := f.drafts.Load(ctx, uid, "ACME")
		require.NoError(t, err)
		assert.NotNil(t, d)
	})

	t.Run("no identity for the fund is forbidden", func(t *testing.T) {
		f := newSubmitFixture(t)
		require.NoError(t, f.profiles.Save(context.Background(), &profile.UserProfile{
			UID: uid, Email: "pat@acme.com", CreatedAt: submitTime,
		}))
		ctx := testutil.AuthedContext(uid, domain.RoleUser, submitTime)

		_, err := f.svc.Submit(ctx, Request{FundCode: "ACME", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.Equal(t, 0, f.finalizer.calls)
	})

	t.Run("exhausted balance is forbidden before the decision round trip", func(t *testing.T) {
		f := newSubmitFixture(t)
		f.seedEligible(t, uid, "pat@acme.com")
		ctx := testutil.AuthedContext(uid, domain.RoleUser, submitTime)

		_, err := f.applications.Create(ctx, application.Application{
			OwnerUID:             uid,
			FundCode:             "ACME",
			SubmittedDate:        submitTime.Add(-time.Hour),
			Status:               application.StatusAwarded,
			TwelveMonthRemaining: 0,
			LifetimeRemaining:    900_000,
			SubmittedBy:          uid,
		})
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, Request{FundCode: "ACME", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.Equal(t, 0, f.finalizer.calls)
	})

	t.Run("inline profile edits reach the snapshot and the stored profile", func(t *testing.T) {
		f := newSubmitFixture(t)
		f.seedEligible(t, uid, "pat@acme.com")
		ctx := testutil.AuthedContext(uid, domain.RoleUser, submitTime)

		res, err := f.svc.Submit(ctx, Request{
			FundCode: "ACME",
			Event:    validEvent(),
			ProfileEdits: &ProfileEdits{
				Phone: "555-0100",
				City:  "Tulsa",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "555-0100", res.Application.ProfileSnapshot.Phone)
		assert.Equal(t, "Tulsa", res.Application.ProfileSnapshot.City)
		// Untouched fields survive.
		assert.Equal(t, "Pat", res.Application.ProfileSnapshot.FirstName)

		stored, err := f.profiles.FindByUID(ctx, uid.String())
		require.NoError(t, err)
		assert.Equal(t, "555-0100", stored.Phone)
	})

	t.Run("review outcome is persisted as submitted without a decision date", func(t *testing.T) {
		f := newSubmitFixture(t)
		f.seedEligible(t, uid, "pat@acme.com")
		f.finalizer.result = decision.FinalizeResult{
			Outcome:              decision.OutcomeReview,
			Reasons:              []string{"manual review required", "manual review required"},
			TwelveMonthRemaining: 500_000,
			LifetimeRemaining:    1_500_000,
		}
		ctx := testutil.AuthedContext(uid, domain.RoleUser, submitTime)

		res, err := f.svc.Submit(ctx, Request{FundCode: "ACME", Event: validEvent()})
		require.NoError(t, err)
		assert.Equal(t, application.StatusSubmitted, res.Application.Status)
		assert.Nil(t, res.Application.DecisionedDate)
		// Duplicate reasons collapse.
		assert.Equal(t, []string{"manual review required"}, res.Application.Reasons)
	})

	t.Run("unauthenticated context is rejected", func(t *testing.T) {
		f := newSubmitFixture(t)
		_, err := f.svc.Submit(context.Background(), Request{FundCode: "ACME", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestSubmitProxy(t *testing.T) {
	adminUID := domain.UserID("admin-1")
	applicantUID := domain.UserID("user-1")

	seedAdmin := func(t *testing.T, f *submitFixture, code domain.FundCode) {
		t.Helper()
		id := domain.NewIdentityID(adminUID, code)
		require.NoError(t, f.profiles.Save(context.Background(), &profile.UserProfile{
			UID:              adminUID,
			Email:            "admin@relief.example",
			ActiveIdentityID: &id,
			FundCode:         code,
			Role:             domain.RoleAdmin,
			CreatedAt:        submitTime.Add(-24 * time.Hour),
		}))
	}

	seedApplicant := func(t *testing.T, f *submitFixture) {
		t.Helper()
		require.NoError(t, f.profiles.Save(context.Background(), &profile.UserProfile{
			UID:       applicantUID,
			Email:     "pat@acme.com",
			FirstName: "Pat",
			CreatedAt: submitTime.Add(-24 * time.Hour),
		}))
	}

	t.Run("submits against the applicant's ledger under the admin's fund", func(t *testing.T) {
		f := newSubmitFixture(t)
		seedAdmin(t, f, "ACME")
		seedApplicant(t, f)
		ctx := testutil.AuthedContext(adminUID, domain.RoleAdmin, submitTime)

		res, err := f.svc.SubmitProxy(ctx, ProxyRequest{
			ApplicantEmail: "pat@acme.com",
			Event:          validEvent(),
		})
		require.NoError(t, err)

		app := res.Application
		assert.Equal(t, applicantUID, app.OwnerUID)
		assert.Equal(t, adminUID, app.SubmittedBy)
		assert.True(t, app.IsProxy)
		assert.Equal(t, domain.FundCode("ACME"), app.FundCode)
		assert.Equal(t, "Pat", app.ProfileSnapshot.FirstName)
		assert.Equal(t, applicantUID, f.finalizer.lastReq.OwnerUID)

		// The record lands in the applicant's history, so their next
		// balance read sees it.
		stored, err := f.applications.LatestForOwnerAndFund(ctx, applicantUID.String(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, app.ID, stored.ID)
	})

	t.Run("admin's active fund wins even when the applicant never verified it", func(t *testing.T) {
		f := newSubmitFixture(t)
		seedAdmin(t, f, "BETA")
		seedApplicant(t, f)
		ctx := testutil.AuthedContext(adminUID, domain.RoleAdmin, submitTime)

		res, err := f.svc.SubmitProxy(ctx, ProxyRequest{
			ApplicantEmail: "pat@acme.com",
			Event: application.EventDetails{
				EventType:       "earthquake",
				EventDate:       submitTime.AddDate(0, 0, -3),
				Description:     "structural damage",
				RequestedAmount: 100_000,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.FundCode("BETA"), res.Application.FundCode)
	})

	t.Run("requires the admin role", func(t *testing.T) {
		f := newSubmitFixture(t)
		seedAdmin(t, f, "ACME")
		seedApplicant(t, f)
		ctx := testutil.AuthedContext(adminUID, domain.RoleUser, submitTime)

		_, err := f.svc.SubmitProxy(ctx, ProxyRequest{ApplicantEmail: "pat@acme.com", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("requires the admin to have an active fund", func(t *testing.T) {
		f := newSubmitFixture(t)
		require.NoError(t, f.profiles.Save(context.Background(), &profile.UserProfile{
			UID: adminUID, Email: "admin@relief.example", CreatedAt: submitTime,
		}))
		seedApplicant(t, f)
		ctx := testutil.AuthedContext(adminUID, domain.RoleAdmin, submitTime)

		_, err := f.svc.SubmitProxy(ctx, ProxyRequest{ApplicantEmail: "pat@acme.com", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("admin fund switch mid-flight aborts with a conflict", func(t *testing.T) {
		f := newSubmitFixture(t)
		seedAdmin(t, f, "ACME")
		seedApplicant(t, f)
		ctx := testutil.AuthedContext(adminUID, domain.RoleAdmin, submitTime)

		// The admin activates another fund while the decision service is
		// thinking; the submission was decided for ACME and must not land.
		f.finalizer.onCalled = func() {
			p, err := f.profiles.FindByUID(context.Background(), adminUID.String())
			require.NoError(t, err)
			other := domain.NewIdentityID(adminUID, "BETA")
			updated := p.Clone()
			updated.ActiveIdentityID = &other
			updated.FundCode = "BETA"
			require.NoError(t, f.profiles.Save(context.Background(), updated))
		}

		_, err := f.svc.SubmitProxy(ctx, ProxyRequest{ApplicantEmail: "pat@acme.com", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = f.applications.LatestForOwnerAndFund(ctx, applicantUID.String(), "ACME")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("unknown applicant email is not found and provisions nothing", func(t *testing.T) {
		f := newSubmitFixture(t)
		seedAdmin(t, f, "ACME")
		ctx := testutil.AuthedContext(adminUID, domain.RoleAdmin, submitTime)

		_, err := f.svc.SubmitProxy(ctx, ProxyRequest{ApplicantEmail: "ghost@acme.com", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.Equal(t, 0, f.finalizer.calls)

		_, err = f.profiles.FindByEmail(ctx, "ghost@acme.com")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("exhausted applicant balance is forbidden", func(t *testing.T) {
		f := newSubmitFixture(t)
		seedAdmin(t, f, "ACME")
		seedApplicant(t, f)
		ctx := testutil.AuthedContext(adminUID, domain.RoleAdmin, submitTime)

		_, err := f.applications.Create(ctx, application.Application{
			OwnerUID:             applicantUID,
			FundCode:             "ACME",
			SubmittedDate:        submitTime.Add(-time.Hour),
			Status:               application.StatusAwarded,
			TwelveMonthRemaining: 0,
			LifetimeRemaining:    500_000,
			SubmittedBy:          applicantUID,
		})
		require.NoError(t, err)

		_, err = f.svc.SubmitProxy(ctx, ProxyRequest{ApplicantEmail: "pat@acme.com", Event: validEvent()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.Equal(t, 0, f.finalizer.calls)
	})
}
