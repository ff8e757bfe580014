package service

import (
	"bytes"
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

type fakeReportStore struct {
	mu       sync.Mutex
	reports  map[string]*model.Report
	terminal chan string
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{
		reports:  make(map[string]*model.Report),
		terminal: make(chan string, 8),
	}
}

func (f *fakeReportStore) Create(report *model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *report
	f.reports[report.ID] = &copied
	return nil
}

func (f *fakeReportStore) FindByID(id string) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *report
	return &copied, nil
}

func (f *fakeReportStore) Transition(id string, from, to model.ReportStatus, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok || report.Status != from {
		return false, nil
	}
	report.Status = to
	if key, ok := updates["object_key"].(string); ok {
		report.ObjectKey = key
	}
	if cause, ok := updates["failure_cause"].(string); ok {
		report.FailureCause = cause
	}
	if to == model.ReportReady || to == model.ReportFailed {
		f.terminal <- id
	}
	return true, nil
}

func (f *fakeReportStore) ListExpired(now time.Time) ([]model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired []model.Report
	for _, report := range f.reports {
		if report.Expired(now) {
			expired = append(expired, *report)
		}
	}
	return expired, nil
}

func (f *fakeReportStore) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reports, id)
	return nil
}

func (f *fakeReportStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func (f *fakeReportStore) waitTerminal(t *testing.T) {
	t.Helper()
	select {
	case <-f.terminal:
	case <-time.After(5 * time.Second):
		t.Fatal("report never reached a terminal state")
	}
}

type fakeReportData struct {
	enrollments []model.Enrollment
	feedback    []model.Feedback
	courses     []model.Course
	err         error
}

func (f *fakeReportData) EnrollmentsInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Enrollment, error) {
	return f.enrollments, f.err
}

func (f *fakeReportData) FeedbackInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Feedback, error) {
	return f.feedback, f.err
}

func (f *fakeReportData) Courses() ([]model.Course, error) {
	return f.courses, f.err
}

type fakeChecker struct{ known map[uint]bool }

func (f *fakeChecker) ExistAll(ids []uint) (bool, error) {
	for _, id := range ids {
		if !f.known[id] {
			return false, nil
		}
	}
	return true, nil
}

type memoryArtifacts struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryArtifacts() *memoryArtifacts {
	return &memoryArtifacts{objects: make(map[string][]byte)}
}

func (m *memoryArtifacts) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	payload, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = payload
	return nil
}

func (m *memoryArtifacts) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (m *memoryArtifacts) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func newTestReportService(store *fakeReportStore, data ReportDataSource) *ReportService {
	checker := &fakeChecker{known: map[uint]bool{1: true, 2: true}}
	return NewReportService(store, data, checker, checker, newMemoryArtifacts(), 24*time.Hour)
}

func validRequest() ReportRequest {
	return ReportRequest{
		Type:   model.ReportEnrollmentSummary,
		Start:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Format: model.ReportFormatJSON,
	}
}

func TestGenerateRejectsInvalidDateRange(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestReportService(store, &fakeReportData{})

	req := validRequest()
	req.Start, req.End = req.End, req.Start

	if _, err := svc.Generate(context.Background(), req); !errors.Is(err, util.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if store.count() != 0 {
		t.Fatal("a rejected request must not create a report record")
	}
}

func TestGenerateRejectsUnknownTypeAndFormat(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestReportService(store, &fakeReportData{})

	req := validRequest()
	req.Type = "quarterly_revenue"
	if _, err := svc.Generate(context.Background(), req); !errors.Is(err, util.ErrInvalidReportRequest) {
		t.Fatalf("expected ErrInvalidReportRequest for unknown type, got %v", err)
	}

	req = validRequest()
	req.Format = "xml"
	if _, err := svc.Generate(context.Background(), req); !errors.Is(err, util.ErrInvalidReportRequest) {
		t.Fatalf("expected ErrInvalidReportRequest for unsupported format, got %v", err)
	}

	if store.count() != 0 {
		t.Fatal("rejected requests must not create report records")
	}
}

func TestGenerateRejectsUnknownFilterIDs(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestReportService(store, &fakeReportData{})

	req := validRequest()
	req.CourseIDs = []uint{99}

	if _, err := svc.Generate(context.Background(), req); !errors.Is(err, util.ErrUnknownFilterID) {
		t.Fatalf("expected ErrUnknownFilterID, got %v", err)
	}

	req = validRequest()
	req.UserIDs = []uint{1, 98}
	if _, err := svc.Generate(context.Background(), req); !errors.Is(err, util.ErrUnknownFilterID) {
		t.Fatalf("expected ErrUnknownFilterID for user filter, got %v", err)
	}

	if store.count() != 0 {
		t.Fatal("rejected requests must not create report records")
	}
}

func TestGenerateLifecycleToReady(t *testing.T) {
	store := newFakeReportStore()
	data := &fakeReportData{
		enrollments: []model.Enrollment{
			{UserID: 1, CourseID: 1, Status: model.EnrollmentCompleted, EnrolledAt: time.Now()},
		},
	}
	svc := newTestReportService(store, data)

	id, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	store.waitTerminal(t)

	report, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if report.Status != model.ReportReady {
		t.Fatalf("expected ready, got %s (%s)", report.Status, report.FailureCause)
	}
	if report.ObjectKey == "" {
		t.Fatal("ready report has no artifact key")
	}

	payload, contentType, err := svc.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("expected application/json, got %s", contentType)
	}
	if !strings.Contains(string(payload), "\"userId\": \"1\"") {
		t.Fatalf("payload missing enrollment row: %s", payload)
	}
}

func TestGenerateFailureRecordsCause(t *testing.T) {
	store := newFakeReportStore()
	data := &fakeReportData{err: errors.New("enrollment scan timed out")}
	svc := newTestReportService(store, data)

	id, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	store.waitTerminal(t)

	_, _, err = svc.Download(context.Background(), id)
	if !errors.Is(err, util.ErrReportFailed) {
		t.Fatalf("expected ErrReportFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "enrollment scan timed out") {
		t.Fatalf("failure cause not surfaced: %v", err)
	}
}

func TestDownloadUnknownAndPending(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestReportService(store, &fakeReportData{})

	if _, _, err := svc.Download(context.Background(), "missing"); !errors.Is(err, util.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	pending := &model.Report{
		UUIDBase:  model.UUIDBase{ID: "pending-report"},
		Type:      model.ReportEnrollmentSummary,
		Format:    model.ReportFormatJSON,
		Status:    model.ReportPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	store.Create(pending)

	if _, _, err := svc.Download(context.Background(), pending.ID); !errors.Is(err, util.ErrReportNotReady) {
		t.Fatalf("expected ErrReportNotReady, got %v", err)
	}
}

func TestExpiredReportIsGone(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestReportService(store, &fakeReportData{})

	expired := &model.Report{
		UUIDBase:  model.UUIDBase{ID: "old-report"},
		Type:      model.ReportEnrollmentSummary,
		Format:    model.ReportFormatJSON,
		Status:    model.ReportReady,
		ObjectKey: "reports/old-report.json",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	store.Create(expired)

	if _, err := svc.Get(context.Background(), expired.ID); !errors.Is(err, util.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound for expired report, got %v", err)
	}

	svc.SweepExpired(context.Background())
	if store.count() != 0 {
		t.Fatal("sweep left the expired report behind")
	}
}

func TestCSVRendering(t *testing.T) {
	header := []string{"userId", "rating"}
	rows := [][]string{{"1", "5"}, {"2", "3"}}

	payload, contentType, err := render(model.ReportFormatCSV, header, rows)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if contentType != "text/csv" {
		t.Fatalf("expected text/csv, got %s", contentType)
	}

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "userId,rating" {
		t.Fatalf("bad header line: %q", lines[0])
	}
	if lines[2] != "2,3" {
		t.Fatalf("bad data line: %q", lines[2])
	}
}
