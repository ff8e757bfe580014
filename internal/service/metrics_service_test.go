package service

import (
	"edu_admin_backend/internal/model"
	"testing"
	"time"
)

func enrollment(userID, courseID uint, status model.EnrollmentStatus) model.Enrollment {
	return model.Enrollment{UserID: userID, CourseID: courseID, Status: status}
}

func TestAggregateEmptyInputs(t *testing.T) {
	now := time.Now()
	snapshot := Aggregate(model.ScopeGlobal, 0, nil, nil, nil, now)

	if snapshot.TotalCourses != 0 || snapshot.TotalStudents != 0 || snapshot.ActiveEnrollments != 0 {
		t.Fatalf("expected zero counts, got %+v", snapshot)
	}
	if snapshot.CompletionRate != nil {
		t.Fatalf("completion rate should be nil with no enrollments, got %v", *snapshot.CompletionRate)
	}
	if snapshot.AverageSatisfaction != nil {
		t.Fatalf("satisfaction should be nil with no feedback, got %v", *snapshot.AverageSatisfaction)
	}
	if snapshot.AverageTimeSpent != nil {
		t.Fatalf("time spent should be nil with no progress, got %v", *snapshot.AverageTimeSpent)
	}
	if !snapshot.ComputedAt.Equal(now) {
		t.Fatalf("expected computedAt %v, got %v", now, snapshot.ComputedAt)
	}
}

func TestAggregateCompletionRate(t *testing.T) {
	enrollments := []model.Enrollment{
		enrollment(1, 1, model.EnrollmentCompleted),
		enrollment(2, 1, model.EnrollmentCompleted),
		enrollment(3, 1, model.EnrollmentCompleted),
		enrollment(4, 1, model.EnrollmentActive),
		enrollment(5, 1, model.EnrollmentDropped),
	}

	snapshot := Aggregate("1", 1, enrollments, nil, nil, time.Now())

	if snapshot.CompletionRate == nil {
		t.Fatal("expected a completion rate")
	}
	if got := *snapshot.CompletionRate; got != 0.6 {
		t.Fatalf("expected completion rate 0.6, got %v", got)
	}
	if snapshot.ActiveEnrollments != 1 {
		t.Fatalf("expected 1 active enrollment, got %d", snapshot.ActiveEnrollments)
	}
	// Dropped users do not count as students.
	if snapshot.TotalStudents != 4 {
		t.Fatalf("expected 4 students, got %d", snapshot.TotalStudents)
	}
}

func TestAggregateDistinctStudents(t *testing.T) {
	enrollments := []model.Enrollment{
		enrollment(1, 1, model.EnrollmentActive),
		enrollment(1, 2, model.EnrollmentActive),
		enrollment(1, 3, model.EnrollmentCompleted),
		enrollment(2, 1, model.EnrollmentActive),
	}

	snapshot := Aggregate(model.ScopeGlobal, 3, enrollments, nil, nil, time.Now())
	if snapshot.TotalStudents != 2 {
		t.Fatalf("expected 2 distinct students, got %d", snapshot.TotalStudents)
	}
}

func TestAggregateSatisfaction(t *testing.T) {
	feedback := []model.Feedback{
		{UserID: 1, TargetType: model.FeedbackCourse, TargetID: 1, Rating: 5},
		{UserID: 2, TargetType: model.FeedbackCourse, TargetID: 1, Rating: 3},
		{UserID: 3, TargetType: model.FeedbackModule, TargetID: 7, Rating: 4},
	}

	snapshot := Aggregate("1", 1, nil, nil, feedback, time.Now())
	if snapshot.AverageSatisfaction == nil {
		t.Fatal("expected an average satisfaction")
	}
	if got := *snapshot.AverageSatisfaction; got != 4.0 {
		t.Fatalf("expected satisfaction 4.0, got %v", got)
	}
}

func TestAggregateTimeSpentPerUser(t *testing.T) {
	progress := []model.ModuleProgress{
		{UserID: 1, ModuleID: 1, TimeSpentSeconds: 600},
		{UserID: 1, ModuleID: 2, TimeSpentSeconds: 400},
		{UserID: 2, ModuleID: 1, TimeSpentSeconds: 2000},
	}

	snapshot := Aggregate("1", 1, nil, progress, nil, time.Now())
	if snapshot.AverageTimeSpent == nil {
		t.Fatal("expected an average time spent")
	}
	// User 1 contributes 1000 total, user 2 contributes 2000; mean 1500.
	if got := *snapshot.AverageTimeSpent; got != 1500 {
		t.Fatalf("expected average time spent 1500, got %v", got)
	}
}

func TestScopeRoundTrip(t *testing.T) {
	scope := ScopeForCourse(42)
	courseID, global, err := ParseScope(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if global || courseID != 42 {
		t.Fatalf("expected course 42, got (%d, global=%v)", courseID, global)
	}

	_, global, err = ParseScope(model.ScopeGlobal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !global {
		t.Fatal("expected global scope")
	}

	if _, _, err := ParseScope("not-a-scope"); err == nil {
		t.Fatal("expected an error for a malformed scope")
	}
}
