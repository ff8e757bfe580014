package service

import (
	"context"
	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/pkg/logger"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RiskService flags students for administrator follow-up. The policy is a
// weighted composite of inactivity, incomplete coursework and poor ratings
// given; weights and band cut points come from configuration and can be
// hot-reloaded.
type RiskService struct {
	UserRepo       *repository.UserRepository
	EnrollmentRepo *repository.EnrollmentRepository
	FeedbackRepo   *repository.FeedbackRepository

	mu     sync.RWMutex
	policy config.RiskConfig
}

func NewRiskService(
	userRepo *repository.UserRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	feedbackRepo *repository.FeedbackRepository,
	policy config.RiskConfig,
) *RiskService {
	return &RiskService{
		UserRepo:       userRepo,
		EnrollmentRepo: enrollmentRepo,
		FeedbackRepo:   feedbackRepo,
		policy:         policy,
	}
}

// UpdatePolicy swaps in a new classification policy. Invalid policies are
// rejected so a bad config reload cannot break classification.
func (s *RiskService) UpdatePolicy(policy config.RiskConfig) {
	if err := policy.Validate(); err != nil {
		logger.Log.Error("Rejected risk policy update", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.policy = policy
	s.mu.Unlock()
	logger.Log.Info("Risk policy updated",
		zap.Float64("inactivityWeight", policy.InactivityWeight),
		zap.Float64("completionWeight", policy.CompletionWeight),
		zap.Float64("satisfactionWeight", policy.SatisfactionWeight))
}

func (s *RiskService) currentPolicy() config.RiskConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// RiskSignals are the per-user inputs to classification.
type RiskSignals struct {
	LastLoginAt        *time.Time
	CompletionRate     *float64 // nil only when the user has no enrollments
	AverageRatingGiven *float64 // nil when the user never rated anything
}

// Classify scores one user's signals against a policy. Deterministic: the
// same signals, policy and reference time always produce the same result.
// A tie at a cut point lands in the higher band, favoring a false positive
// over a missed at-risk user.
func Classify(signals RiskSignals, policy config.RiskConfig, now time.Time) (float64, model.RiskLevel) {
	inactivity := 1.0
	if signals.LastLoginAt != nil {
		days := now.Sub(*signals.LastLoginAt).Hours() / 24
		inactivity = days / float64(policy.InactivityThresholdDays)
		if inactivity < 0 {
			inactivity = 0
		}
		if inactivity > 1 {
			inactivity = 1
		}
	}

	// Missing signals score as their worst value. Users without enrollments
	// never reach this function, so CompletionRate nil here means "enrolled
	// but nothing finished yet" cannot occur; guard anyway.
	incompletion := 1.0
	if signals.CompletionRate != nil {
		incompletion = 1 - *signals.CompletionRate
		if incompletion < 0 {
			incompletion = 0
		}
		if incompletion > 1 {
			incompletion = 1
		}
	}

	dissatisfaction := 1.0
	if signals.AverageRatingGiven != nil {
		normalized := (*signals.AverageRatingGiven - 1) / 4
		if normalized < 0 {
			normalized = 0
		}
		if normalized > 1 {
			normalized = 1
		}
		dissatisfaction = 1 - normalized
	}

	weightSum := policy.InactivityWeight + policy.CompletionWeight + policy.SatisfactionWeight
	score := (policy.InactivityWeight*inactivity +
		policy.CompletionWeight*incompletion +
		policy.SatisfactionWeight*dissatisfaction) / weightSum

	switch {
	case score >= policy.HighCutPoint:
		return score, model.RiskHigh
	case score >= policy.MediumCutPoint:
		return score, model.RiskMedium
	default:
		return score, model.RiskLow
	}
}

// AtRiskUsers classifies every active student with at least one enrollment,
// sorted by score descending. Students without enrollments are excluded
// rather than defaulted into a band.
func (s *RiskService) AtRiskUsers(ctx context.Context, now time.Time) ([]model.RiskAssessment, error) {
	policy := s.currentPolicy()

	users, err := s.UserRepo.ListStudents()
	if err != nil {
		return nil, err
	}
	enrollments, err := s.EnrollmentRepo.ListAll()
	if err != nil {
		return nil, err
	}
	feedback, err := s.FeedbackRepo.ListAll()
	if err != nil {
		return nil, err
	}

	type tally struct {
		total     int
		completed int
	}
	enrollmentByUser := make(map[uint]*tally)
	for _, e := range enrollments {
		t := enrollmentByUser[e.UserID]
		if t == nil {
			t = &tally{}
			enrollmentByUser[e.UserID] = t
		}
		t.total++
		if e.Status == model.EnrollmentCompleted {
			t.completed++
		}
	}

	ratingSum := make(map[uint]int)
	ratingCount := make(map[uint]int)
	for _, f := range feedback {
		ratingSum[f.UserID] += f.Rating
		ratingCount[f.UserID]++
	}

	assessments := make([]model.RiskAssessment, 0, len(users))
	for _, user := range users {
		t := enrollmentByUser[user.ID]
		if t == nil {
			continue
		}

		completionRate := float64(t.completed) / float64(t.total)
		signals := RiskSignals{
			LastLoginAt:    user.LastLoginAt,
			CompletionRate: &completionRate,
		}
		if n := ratingCount[user.ID]; n > 0 {
			avg := float64(ratingSum[user.ID]) / float64(n)
			signals.AverageRatingGiven = &avg
		}

		score, level := Classify(signals, policy, now)

		assessment := model.RiskAssessment{
			UserID:             user.ID,
			Name:               user.Name,
			Email:              user.Email,
			Score:              score,
			RiskLevel:          level,
			CompletionRate:     signals.CompletionRate,
			AverageRatingGiven: signals.AverageRatingGiven,
		}
		if user.LastLoginAt != nil {
			days := int(now.Sub(*user.LastLoginAt).Hours() / 24)
			assessment.DaysSinceLogin = &days
		}
		assessments = append(assessments, assessment)
	}

	sort.Slice(assessments, func(i, j int) bool {
		if assessments[i].Score != assessments[j].Score {
			return assessments[i].Score > assessments[j].Score
		}
		return assessments[i].UserID < assessments[j].UserID
	})

	return assessments, nil
}

// FilterAtRisk keeps only medium and high band assessments.
func FilterAtRisk(assessments []model.RiskAssessment) []model.RiskAssessment {
	filtered := make([]model.RiskAssessment, 0, len(assessments))
	for _, a := range assessments {
		if a.RiskLevel != model.RiskLow {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
