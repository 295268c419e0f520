package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief/internal/application"
	"relief/internal/fund"
	"relief/pkg/domain"
)

func testFund() fund.Fund {
	return fund.Fund{
		Code: "ACME",
		Name: "ACME Employee Relief Fund",
		Limits: fund.GrantLimits{
			SingleRequestMax: 250_000,
			TwelveMonthMax:   500_000,
			LifetimeMax:      1_500_000,
		},
	}
}

func TestBalances(t *testing.T) {
	ctx := context.Background()
	store := application.NewInMemoryStore()
	l, err := New(store)
	require.NoError(t, err)

	uid := domain.UserID("user-1")
	f := testFund()

	t.Run("no history defaults to the fund maxima", func(t *testing.T) {
		b, err := l.Balances(ctx, uid, f)
		require.NoError(t, err)
		assert.Equal(t, int64(500_000), b.TwelveMonthRemaining)
		assert.Equal(t, int64(1_500_000), b.LifetimeRemaining)
	})

	t.Run("balances come off the latest application only", func(t *testing.T) {
		older := application.Application{
			OwnerUID: uid, FundCode: f.Code,
			SubmittedDate:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			TwelveMonthRemaining: 400_000,
			LifetimeRemaining:    1_400_000,
		}
		newer := application.Application{
			OwnerUID: uid, FundCode: f.Code,
			SubmittedDate:        time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
			TwelveMonthRemaining: 150_000,
			LifetimeRemaining:    1_150_000,
		}
		_, err := store.Create(ctx, older)
		require.NoError(t, err)
		_, err = store.Create(ctx, newer)
		require.NoError(t, err)

		b, err := l.Balances(ctx, uid, f)
		require.NoError(t, err)
		assert.Equal(t, int64(150_000), b.TwelveMonthRemaining)
		assert.Equal(t, int64(1_150_000), b.LifetimeRemaining)
	})

	t.Run("another user's history is invisible", func(t *testing.T) {
		b, err := l.Balances(ctx, domain.UserID("user-2"), f)
		require.NoError(t, err)
		assert.Equal(t, int64(500_000), b.TwelveMonthRemaining)
	})
}

func TestCanApply(t *testing.T) {
	healthy := Balances{TwelveMonthRemaining: 100_000, LifetimeRemaining: 900_000}

	t.Run("verified and eligible with headroom", func(t *testing.T) {
		assert.True(t, CanApply(domain.VerificationPassed, domain.Eligible, healthy))
	})
	t.Run("exhausted twelve month balance blocks even when eligible", func(t *testing.T) {
		b := Balances{TwelveMonthRemaining: 0, LifetimeRemaining: 900_000}
		assert.False(t, CanApply(domain.VerificationPassed, domain.Eligible, b))
	})
	t.Run("exhausted lifetime balance blocks", func(t *testing.T) {
		b := Balances{TwelveMonthRemaining: 100_000, LifetimeRemaining: 0}
		assert.False(t, CanApply(domain.VerificationPassed, domain.Eligible, b))
	})
	t.Run("unverified identity blocks regardless of balances", func(t *testing.T) {
		assert.False(t, CanApply(domain.VerificationPending, domain.Eligible, healthy))
		assert.False(t, CanApply(domain.VerificationFailed, domain.NotEligible, healthy))
	})
	t.Run("not eligible blocks despite passed verification", func(t *testing.T) {
		assert.False(t, CanApply(domain.VerificationPassed, domain.NotEligible, healthy))
	})
}
