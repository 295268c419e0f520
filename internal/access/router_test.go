package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"relief/pkg/domain"
)

func TestNavigate(t *testing.T) {
	eligible := State{
		Role:                domain.RoleUser,
		VerificationStatus:  domain.VerificationPassed,
		EligibilityStatus:   domain.Eligible,
		HasEligibleIdentity: true,
	}
	pendingState := State{
		Role:               domain.RoleUser,
		VerificationStatus: domain.VerificationPending,
		EligibilityStatus:  domain.NotEligible,
	}
	trapped := State{
		Role:               domain.RoleUser,
		VerificationStatus: domain.VerificationFailed,
		EligibilityStatus:  domain.NotEligible,
	}
	trappedWithEscape := State{
		Role:                domain.RoleUser,
		VerificationStatus:  domain.VerificationFailed,
		EligibilityStatus:   domain.NotEligible,
		HasEligibleIdentity: true,
	}
	adminFailed := State{
		Role:               domain.RoleAdmin,
		VerificationStatus: domain.VerificationFailed,
		EligibilityStatus:  domain.NotEligible,
	}

	tests := []struct {
		name     string
		state    State
		current  Page
		target   Page
		decision Decision
		page     Page
	}{
		{"auth pages always reachable", trapped, PageReliefQueue, PageSignIn, Granted, PageSignIn},
		{"register reachable while pending", pendingState, PageHome, PageRegister, Granted, PageRegister},
		{"admin bypasses the trap", adminFailed, PageHome, PageAdmin, Granted, PageAdmin},
		{"admin bypasses the allowlist", adminFailed, PageHome, PageApply, Granted, PageApply},
		{"trapped user may stay on relief queue", trapped, PageReliefQueue, PageReliefQueue, Granted, PageReliefQueue},
		{"trapped user may retry verification", trapped, PageReliefQueue, PageVerification, Granted, PageVerification},
		{"trapped support request rewritten to relief queue", trapped, PageHome, PageSupport, Rewritten, PageReliefQueue},
		{"trapped apply rewritten to relief queue", trapped, PageVerification, PageApply, Rewritten, PageReliefQueue},
		{"eligible second identity lifts the trap", trappedWithEscape, PageHome, PageProfile, Granted, PageProfile},
		{"pending user granted allowlisted target", pendingState, PageHome, PageProfile, Granted, PageProfile},
		{"pending user granted eligibility info", pendingState, PageVerification, PageEligibilityInfo, Granted, PageEligibilityInfo},
		{"pending apply suppressed keeping current page", pendingState, PageProfile, PageApply, Suppressed, PageProfile},
		{"pending history suppressed keeping current page", pendingState, PageHome, PageHistory, Suppressed, PageHome},
		{"fully eligible user granted apply", eligible, PageHome, PageApply, Granted, PageApply},
		{"fully eligible user granted history", eligible, PageApply, PageHistory, Granted, PageHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Navigate(tt.state, tt.current, tt.target)
			assert.Equal(t, tt.decision, outcome.Decision)
			assert.Equal(t, tt.page, outcome.Page)
		})
	}
}

func TestIsTrapped(t *testing.T) {
	t.Run("failed with no eligible identity", func(t *testing.T) {
		s := State{Role: domain.RoleUser, VerificationStatus: domain.VerificationFailed}
		assert.True(t, s.IsTrapped())
	})
	t.Run("another eligible identity escapes the trap", func(t *testing.T) {
		s := State{Role: domain.RoleUser, VerificationStatus: domain.VerificationFailed, HasEligibleIdentity: true}
		assert.False(t, s.IsTrapped())
	})
	t.Run("admin never trapped", func(t *testing.T) {
		s := State{Role: domain.RoleAdmin, VerificationStatus: domain.VerificationFailed}
		assert.False(t, s.IsTrapped())
	})
	t.Run("pending is not trapped", func(t *testing.T) {
		s := State{Role: domain.RoleUser, VerificationStatus: domain.VerificationPending}
		assert.False(t, s.IsTrapped())
	})
}
