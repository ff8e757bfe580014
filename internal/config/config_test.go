package config

import "testing"

func TestRiskConfigValidate(t *testing.T) {
	valid := RiskConfig{
		InactivityWeight:        0.4,
		CompletionWeight:        0.4,
		SatisfactionWeight:      0.2,
		InactivityThresholdDays: 30,
		MediumCutPoint:          0.33,
		HighCutPoint:            0.66,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RiskConfig)
	}{
		{"negative weight", func(r *RiskConfig) { r.CompletionWeight = -0.1 }},
		{"all weights zero", func(r *RiskConfig) {
			r.InactivityWeight, r.CompletionWeight, r.SatisfactionWeight = 0, 0, 0
		}},
		{"high below medium", func(r *RiskConfig) { r.HighCutPoint = 0.2 }},
		{"high at one", func(r *RiskConfig) { r.HighCutPoint = 1 }},
		{"medium at zero", func(r *RiskConfig) { r.MediumCutPoint = 0 }},
		{"zero threshold days", func(r *RiskConfig) { r.InactivityThresholdDays = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy := valid
			tc.mutate(&policy)
			if err := policy.Validate(); err == nil {
				t.Fatalf("expected %s to be rejected", tc.name)
			}
		})
	}
}
