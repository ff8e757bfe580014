package service

import (
	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/model"
	"testing"
	"time"
)

func testPolicy() config.RiskConfig {
	return config.RiskConfig{
		InactivityWeight:        0.4,
		CompletionWeight:        0.4,
		SatisfactionWeight:      0.2,
		InactivityThresholdDays: 30,
		MediumCutPoint:          0.33,
		HighCutPoint:            0.66,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestClassifyHighRisk(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastLogin := now.AddDate(0, 0, -40)

	signals := RiskSignals{
		LastLoginAt:    &lastLogin,
		CompletionRate: floatPtr(0.1),
	}

	score, level := Classify(signals, testPolicy(), now)
	// inactivity saturates at 1.0, incompletion 0.9, no ratings scores 1.0:
	// 0.4*1 + 0.4*0.9 + 0.2*1 = 0.96
	if score < 0.95 || score > 0.97 {
		t.Fatalf("expected score about 0.96, got %v", score)
	}
	if level != model.RiskHigh {
		t.Fatalf("expected high risk, got %s", level)
	}
}

func TestClassifyLowRisk(t *testing.T) {
	now := time.Now()
	lastLogin := now.AddDate(0, 0, -1)

	signals := RiskSignals{
		LastLoginAt:        &lastLogin,
		CompletionRate:     floatPtr(1.0),
		AverageRatingGiven: floatPtr(5.0),
	}

	score, level := Classify(signals, testPolicy(), now)
	if level != model.RiskLow {
		t.Fatalf("expected low risk, got %s with score %v", level, score)
	}
}

func TestClassifyNeverLoggedIn(t *testing.T) {
	signals := RiskSignals{
		CompletionRate:     floatPtr(1.0),
		AverageRatingGiven: floatPtr(5.0),
	}

	score, _ := Classify(signals, testPolicy(), time.Now())
	// Only the inactivity term contributes: 0.4*1 / 1.0
	if score < 0.39 || score > 0.41 {
		t.Fatalf("expected score about 0.4, got %v", score)
	}
}

func TestClassifyTieLandsInHigherBand(t *testing.T) {
	// A single unit weight makes the score equal the inactivity term, which
	// can be pinned exactly to each cut point.
	policy := config.RiskConfig{
		InactivityWeight:        1,
		InactivityThresholdDays: 100,
		MediumCutPoint:          0.33,
		HighCutPoint:            0.66,
	}

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		daysAgo int
		want    model.RiskLevel
	}{
		{33, model.RiskMedium},
		{66, model.RiskHigh},
		{32, model.RiskLow},
	} {
		lastLogin := now.AddDate(0, 0, -tc.daysAgo)
		signals := RiskSignals{
			LastLoginAt:        &lastLogin,
			CompletionRate:     floatPtr(1.0),
			AverageRatingGiven: floatPtr(5.0),
		}
		_, level := Classify(signals, policy, now)
		if level != tc.want {
			t.Fatalf("days=%d: expected %s, got %s", tc.daysAgo, tc.want, level)
		}
	}
}

func TestClassifyWeightsRenormalized(t *testing.T) {
	// Doubling every weight must not change the score.
	base := testPolicy()
	doubled := base
	doubled.InactivityWeight *= 2
	doubled.CompletionWeight *= 2
	doubled.SatisfactionWeight *= 2

	now := time.Now()
	lastLogin := now.AddDate(0, 0, -15)
	signals := RiskSignals{
		LastLoginAt:        &lastLogin,
		CompletionRate:     floatPtr(0.5),
		AverageRatingGiven: floatPtr(3.0),
	}

	scoreA, _ := Classify(signals, base, now)
	scoreB, _ := Classify(signals, doubled, now)
	if scoreA != scoreB {
		t.Fatalf("renormalization broken: %v vs %v", scoreA, scoreB)
	}
}

func TestFilterAtRisk(t *testing.T) {
	assessments := []model.RiskAssessment{
		{UserID: 1, Score: 0.9, RiskLevel: model.RiskHigh},
		{UserID: 2, Score: 0.5, RiskLevel: model.RiskMedium},
		{UserID: 3, Score: 0.1, RiskLevel: model.RiskLow},
	}

	filtered := FilterAtRisk(assessments)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 at-risk users, got %d", len(filtered))
	}
	for _, a := range filtered {
		if a.RiskLevel == model.RiskLow {
			t.Fatalf("low risk user %d leaked through the filter", a.UserID)
		}
	}
}

func TestUpdatePolicyRejectsInvalid(t *testing.T) {
	svc := NewRiskService(nil, nil, nil, testPolicy())

	bad := testPolicy()
	bad.HighCutPoint = 0.1 // below medium
	svc.UpdatePolicy(bad)

	if got := svc.currentPolicy(); got.HighCutPoint != 0.66 {
		t.Fatalf("invalid policy was accepted: %+v", got)
	}

	good := testPolicy()
	good.HighCutPoint = 0.8
	svc.UpdatePolicy(good)
	if got := svc.currentPolicy(); got.HighCutPoint != 0.8 {
		t.Fatalf("valid policy was rejected: %+v", got)
	}
}
