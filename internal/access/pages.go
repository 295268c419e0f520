package access

// Page enumerates every navigable screen. All UI navigation funnels through
// Router.Navigate with one of these targets.
type Page string

const (
	PageSignIn        Page = "signIn"
	PageRegister      Page = "register"
	PagePasswordReset Page = "passwordReset"

	PageHome            Page = "home"
	PageVerification    Page = "verification"
	PageReliefQueue     Page = "reliefQueue"
	PageProfile         Page = "profile"
	PageEligibilityInfo Page = "eligibilityInfo"

	PageApply   Page = "apply"
	PageHistory Page = "history"
	PageSupport Page = "support"
	PageAdmin   Page = "admin"
)

// authPages are always reachable regardless of identity state.
var authPages = map[Page]bool{
	PageSignIn:        true,
	PageRegister:      true,
	PagePasswordReset: true,
}

// trapPages are the only escape hatches for a user locked out by a failed
// verification with no other eligible identity.
var trapPages = map[Page]bool{
	PageReliefQueue:  true,
	PageVerification: true,
}

// partialAllowlist is reachable while the user is not simultaneously
// verified and eligible.
var partialAllowlist = map[Page]bool{
	PageHome:            true,
	PageVerification:    true,
	PageReliefQueue:     true,
	PageProfile:         true,
	PageEligibilityInfo: true,
}

// IsAuthPage reports whether the page belongs to the authentication flow.
func IsAuthPage(p Page) bool { return authPages[p] }

// IsGatePage reports whether the page is part of the auth/verification/relief
// surface that a fully eligible user should be bounced off of, onto home.
func IsGatePage(p Page) bool {
	return authPages[p] || p == PageVerification || p == PageReliefQueue
}
