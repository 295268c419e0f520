package fund

// SeedDemoFunds returns a small catalog covering all three verification
// methods, used by the dev wiring and the end-to-end tests.
func SeedDemoFunds() []Fund {
	return []Fund{
		{
			Code:   "ACME",
			Name:   "ACME Employee Relief Fund",
			Method: MethodDomain,
			Limits: GrantLimits{
				SingleRequestMax: 250_000,
				TwelveMonthMax:   500_000,
				LifetimeMax:      1_500_000,
			},
			EligibleEventTypes:  []string{"hurricane", "flood", "wildfire", "house_fire", "tornado"},
			Locales:             []string{"en-US", "es-US"},
			AllowedEmailDomains: []string{"acme.com", "acme.org"},
		},
		{
			Code:   "BETA",
			Name:   "Beta Industries Disaster Fund",
			Method: MethodSSO,
			Limits: GrantLimits{
				SingleRequestMax: 150_000,
				TwelveMonthMax:   300_000,
				LifetimeMax:      900_000,
			},
			EligibleEventTypes: []string{"hurricane", "flood", "earthquake", "winter_storm"},
			Locales:            []string{"en-US"},
			SSOProvider:        "beta-okta",
		},
		{
			Code:   "UNION",
			Name:   "United Union Member Relief",
			Method: MethodRoster,
			Limits: GrantLimits{
				SingleRequestMax: 200_000,
				TwelveMonthMax:   400_000,
				LifetimeMax:      1_200_000,
			},
			EligibleEventTypes: []string{"hurricane", "flood", "wildfire", "medical_hardship"},
			Locales:            []string{"en-US", "fr-CA"},
		},
	}
}
