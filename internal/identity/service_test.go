package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief/internal/fund"
	"relief/internal/profile"
	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/requestcontext"
)

var (
	acme = fund.Fund{Code: "ACME", Name: "ACME Employee Relief Fund", Method: fund.MethodDomain}
	beta = fund.Fund{Code: "BETA", Name: "Beta Industries Disaster Fund", Method: fund.MethodSSO}
)

func newTestService(t *testing.T) (*Service, Store, profile.Store) {
	t.Helper()
	identities := NewInMemoryStore()
	profiles := profile.NewInMemoryStore()
	svc, err := New(identities, profiles)
	require.NoError(t, err)
	return svc, identities, profiles
}

func seedProfile(t *testing.T, profiles profile.Store, uid domain.UserID) {
	t.Helper()
	err := profiles.Save(context.Background(), &profile.UserProfile{
		UID:       uid,
		Email:     uid.String() + "@example.com",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func fixedCtx(t *testing.T) context.Context {
	t.Helper()
	return requestcontext.WithTime(context.Background(),
		time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
}

func TestRecordOutcome(t *testing.T) {
	uid := domain.UserID("user-1")

	t.Run("pass creates an eligible identity and activates it", func(t *testing.T) {
		svc, _, profiles := newTestService(t)
		seedProfile(t, profiles, uid)

		fi, err := svc.RecordOutcome(fixedCtx(t), VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: true,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.NewIdentityID(uid, acme.Code), fi.ID)
		assert.Equal(t, domain.VerificationPassed, fi.VerificationStatus)
		assert.Equal(t, domain.Eligible, fi.EligibilityStatus)
		require.NotNil(t, fi.LastUsedAt)

		p, err := profiles.FindByUID(context.Background(), uid.String())
		require.NoError(t, err)
		require.NotNil(t, p.ActiveIdentityID)
		assert.Equal(t, fi.ID, *p.ActiveIdentityID)
		assert.Equal(t, acme.Code, p.FundCode)
		assert.Equal(t, acme.Name, p.FundName)
		assert.Equal(t, domain.VerificationPassed, p.VerificationStatus)
		assert.Equal(t, domain.Eligible, p.EligibilityStatus)
	})

	t.Run("failure marks the identity failed and not eligible", func(t *testing.T) {
		svc, _, profiles := newTestService(t)
		seedProfile(t, profiles, uid)

		fi, err := svc.RecordOutcome(fixedCtx(t), VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: false,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationFailed, fi.VerificationStatus)
		assert.Equal(t, domain.NotEligible, fi.EligibilityStatus)
		assert.Nil(t, fi.LastUsedAt)
	})

	t.Run("re-verifying the same fund updates in place", func(t *testing.T) {
		svc, identities, profiles := newTestService(t)
		seedProfile(t, profiles, uid)
		ctx := fixedCtx(t)

		_, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: false,
		})
		require.NoError(t, err)
		updated, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: true,
		})
		require.NoError(t, err)

		all, err := identities.ListForUser(context.Background(), uid.String())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, updated.ID, all[0].ID)
		assert.Equal(t, domain.VerificationPassed, all[0].VerificationStatus)
	})

	t.Run("eligible always implies passed", func(t *testing.T) {
		svc, identities, profiles := newTestService(t)
		seedProfile(t, profiles, uid)
		ctx := fixedCtx(t)

		for _, passed := range []bool{true, false, true} {
			_, err := svc.RecordOutcome(ctx, VerificationOutcome{
				UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: passed,
			})
			require.NoError(t, err)

			all, err := identities.ListForUser(context.Background(), uid.String())
			require.NoError(t, err)
			for _, fi := range all {
				if fi.EligibilityStatus == domain.Eligible {
					assert.Equal(t, domain.VerificationPassed, fi.VerificationStatus)
				}
			}
		}
	})

	t.Run("failure does not steal the active slot from a passing identity", func(t *testing.T) {
		svc, _, profiles := newTestService(t)
		seedProfile(t, profiles, uid)
		ctx := fixedCtx(t)

		passed, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: true,
		})
		require.NoError(t, err)
		_, err = svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: beta, Method: fund.MethodSSO, Passed: false,
		})
		require.NoError(t, err)

		p, err := profiles.FindByUID(context.Background(), uid.String())
		require.NoError(t, err)
		require.NotNil(t, p.ActiveIdentityID)
		assert.Equal(t, passed.ID, *p.ActiveIdentityID)
	})
}

func TestSwitch(t *testing.T) {
	uid := domain.UserID("user-1")

	t.Run("updates the profile projection to match exactly", func(t *testing.T) {
		svc, _, profiles := newTestService(t)
		seedProfile(t, profiles, uid)
		ctx := fixedCtx(t)

		_, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: false,
		})
		require.NoError(t, err)
		betaID, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: beta, Method: fund.MethodSSO, Passed: true,
		})
		require.NoError(t, err)

		acmeID := domain.NewIdentityID(uid, acme.Code)
		_, err = svc.Switch(ctx, uid, acmeID)
		require.NoError(t, err)

		p, err := profiles.FindByUID(context.Background(), uid.String())
		require.NoError(t, err)
		assert.Equal(t, acmeID, *p.ActiveIdentityID)
		assert.Equal(t, acme.Code, p.FundCode)
		assert.Equal(t, domain.VerificationFailed, p.VerificationStatus)
		assert.Equal(t, domain.NotEligible, p.EligibilityStatus)

		_, err = svc.Switch(ctx, uid, betaID.ID)
		require.NoError(t, err)
		p, err = profiles.FindByUID(context.Background(), uid.String())
		require.NoError(t, err)
		assert.Equal(t, beta.Code, p.FundCode)
		assert.Equal(t, beta.Name, p.FundName)
		assert.Equal(t, domain.VerificationPassed, p.VerificationStatus)
		assert.Equal(t, domain.Eligible, p.EligibilityStatus)
	})

	t.Run("rejects identities owned by someone else", func(t *testing.T) {
		svc, _, profiles := newTestService(t)
		seedProfile(t, profiles, uid)
		seedProfile(t, profiles, "user-2")
		ctx := fixedCtx(t)

		theirs, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: "user-2", Fund: acme, Method: fund.MethodDomain, Passed: true,
		})
		require.NoError(t, err)

		_, err = svc.Switch(ctx, uid, theirs.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown identity is not found", func(t *testing.T) {
		svc, _, profiles := newTestService(t)
		seedProfile(t, profiles, uid)

		_, err := svc.Switch(fixedCtx(t), uid, "user-1-NOPE")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRemove(t *testing.T) {
	uid := domain.UserID("user-1")

	t.Run("removing the active identity is a conflict", func(t *testing.T) {
		svc, _, profiles := newTestService(t)
		seedProfile(t, profiles, uid)

		fi, err := svc.RecordOutcome(fixedCtx(t), VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: true,
		})
		require.NoError(t, err)

		err = svc.Remove(fixedCtx(t), uid, fi.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("inactive identities can be removed", func(t *testing.T) {
		svc, identities, profiles := newTestService(t)
		seedProfile(t, profiles, uid)
		ctx := fixedCtx(t)

		_, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: acme, Method: fund.MethodDomain, Passed: true,
		})
		require.NoError(t, err)
		stale, err := svc.RecordOutcome(ctx, VerificationOutcome{
			UID: uid, Fund: beta, Method: fund.MethodSSO, Passed: true,
		})
		require.NoError(t, err)
		// The BETA pass activated BETA; switch back so it becomes removable.
		_, err = svc.Switch(ctx, uid, domain.NewIdentityID(uid, acme.Code))
		require.NoError(t, err)

		require.NoError(t, svc.Remove(ctx, uid, stale.ID))
		all, err := identities.ListForUser(context.Background(), uid.String())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, acme.Code, all[0].FundCode)
	})
}
