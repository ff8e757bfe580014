package service

import (
	"bytes"
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/pkg/logger"
	"edu_admin_backend/pkg/monitoring"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportRequest is the submission body for a report job.
type ReportRequest struct {
	Type      model.ReportType   `json:"type" binding:"required"`
	Start     time.Time          `json:"start" binding:"required"`
	End       time.Time          `json:"end" binding:"required"`
	CourseIDs []uint             `json:"courseIds"`
	UserIDs   []uint             `json:"userIds"`
	Format    model.ReportFormat `json:"format"`
}

// ReportStore is the persistence surface the generator needs, satisfied by
// repository.ReportRepository.
type ReportStore interface {
	Create(report *model.Report) error
	FindByID(id string) (*model.Report, error)
	Transition(id string, from, to model.ReportStatus, updates map[string]interface{}) (bool, error)
	ListExpired(now time.Time) ([]model.Report, error)
	Delete(id string) error
}

// ReportDataSource supplies the raw rows a report is built from.
type ReportDataSource interface {
	EnrollmentsInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Enrollment, error)
	FeedbackInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Feedback, error)
	Courses() ([]model.Course, error)
}

// EntityChecker verifies that filter id lists reference existing rows.
type EntityChecker interface {
	ExistAll(ids []uint) (bool, error)
}

// ArtifactStore persists rendered report payloads, satisfied by
// StorageService.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ReportService validates report requests synchronously, then generates the
// artifact in a background task. Submitters get an id immediately and poll
// or download later.
type ReportService struct {
	Store     ReportStore
	Data      ReportDataSource
	Courses   EntityChecker
	Users     EntityChecker
	Artifacts ArtifactStore
	Retention time.Duration
}

func NewReportService(
	store ReportStore,
	data ReportDataSource,
	courses EntityChecker,
	users EntityChecker,
	artifacts ArtifactStore,
	retention time.Duration,
) *ReportService {
	return &ReportService{
		Store:     store,
		Data:      data,
		Courses:   courses,
		Users:     users,
		Artifacts: artifacts,
		Retention: retention,
	}
}

func validReportType(t model.ReportType) bool {
	switch t {
	case model.ReportEnrollmentSummary, model.ReportCoursePerformance,
		model.ReportUserActivity, model.ReportFeedbackSummary:
		return true
	}
	return false
}

// Generate validates the request and, if it is acceptable, persists a
// pending report and schedules generation. Validation failures create no
// record at all.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (string, error) {
	if !validReportType(req.Type) {
		return "", fmt.Errorf("%w: unknown report type %q", util.ErrInvalidReportRequest, req.Type)
	}
	if req.Format == "" {
		req.Format = model.ReportFormatJSON
	}
	if req.Format != model.ReportFormatJSON && req.Format != model.ReportFormatCSV {
		return "", fmt.Errorf("%w: format %q", util.ErrInvalidReportRequest, req.Format)
	}
	if req.Start.After(req.End) {
		return "", util.ErrInvalidDateRange
	}

	ok, err := s.Courses.ExistAll(req.CourseIDs)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: course filter", util.ErrUnknownFilterID)
	}
	ok, err = s.Users.ExistAll(req.UserIDs)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: user filter", util.ErrUnknownFilterID)
	}

	report := &model.Report{
		UUIDBase:    model.UUIDBase{ID: uuid.New().String()},
		Type:        req.Type,
		PeriodStart: req.Start,
		PeriodEnd:   req.End,
		CourseIDs:   encodeIDs(req.CourseIDs),
		UserIDs:     encodeIDs(req.UserIDs),
		Format:      req.Format,
		Status:      model.ReportPending,
		ExpiresAt:   time.Now().Add(s.Retention),
	}
	if err := s.Store.Create(report); err != nil {
		return "", err
	}

	go s.generate(report.ID, req)

	return report.ID, nil
}

// generate runs the pending → generating → {ready | failed} state machine.
// Every transition is conditional, so a terminal state is never left and a
// stale task cannot resurrect a swept report.
func (s *ReportService) generate(id string, req ReportRequest) {
	ok, err := s.Store.Transition(id, model.ReportPending, model.ReportGenerating, nil)
	if err != nil || !ok {
		if err != nil {
			logger.Log.Error("Report could not start generating",
				zap.String("reportId", id), zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	header, rows, err := s.build(req)
	if err != nil {
		s.fail(id, req.Type, err.Error())
		return
	}

	payload, contentType, err := render(req.Format, header, rows)
	if err != nil {
		s.fail(id, req.Type, err.Error())
		return
	}

	// A report nobody can collect anymore is cancelled work; do not write
	// the artifact.
	report, err := s.Store.FindByID(id)
	if err != nil {
		return
	}
	if report.Expired(time.Now()) {
		s.fail(id, req.Type, "report expired before generation finished")
		return
	}

	key := fmt.Sprintf("reports/%s.%s", id, req.Format)
	if err := s.Artifacts.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), contentType); err != nil {
		s.fail(id, req.Type, fmt.Sprintf("storing artifact: %v", err))
		return
	}

	ok, err = s.Store.Transition(id, model.ReportGenerating, model.ReportReady, map[string]interface{}{
		"object_key": key,
	})
	if err != nil || !ok {
		// Swept or raced; the artifact is orphaned, remove it.
		s.Artifacts.Delete(ctx, key)
		return
	}
	monitoring.ReportCounter.WithLabelValues(string(req.Type), "ready").Inc()
}

// fail records the cause on the report. The submitter already has the id;
// the failure surfaces on download.
func (s *ReportService) fail(id string, reportType model.ReportType, cause string) {
	_, err := s.Store.Transition(id, model.ReportGenerating, model.ReportFailed, map[string]interface{}{
		"failure_cause": cause,
	})
	if err != nil {
		logger.Log.Error("Failed to record report failure",
			zap.String("reportId", id), zap.Error(err))
		return
	}
	monitoring.ReportCounter.WithLabelValues(string(reportType), "failed").Inc()
	logger.Log.Warn("Report generation failed",
		zap.String("reportId", id), zap.String("cause", cause))
}

// Get returns the report record for status polling.
func (s *ReportService) Get(ctx context.Context, id string) (*model.Report, error) {
	report, err := s.Store.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrReportNotFound
		}
		return nil, err
	}
	if report.Expired(time.Now()) {
		return nil, util.ErrReportNotFound
	}
	return report, nil
}

// Download returns the artifact of a ready report. Unknown and expired ids
// are indistinguishable (both gone); a job still in flight is NotReady; a
// failed job returns its cause.
func (s *ReportService) Download(ctx context.Context, id string) ([]byte, string, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	switch report.Status {
	case model.ReportPending, model.ReportGenerating:
		return nil, "", util.ErrReportNotReady
	case model.ReportFailed:
		return nil, "", fmt.Errorf("%w: %s", util.ErrReportFailed, report.FailureCause)
	}

	reader, err := s.Artifacts.Download(ctx, report.ObjectKey)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", err
	}
	return payload, contentTypeFor(report.Format), nil
}

// SweepExpired evicts reports past retention along with their artifacts.
// Wired to a cron schedule at startup.
func (s *ReportService) SweepExpired(ctx context.Context) {
	expired, err := s.Store.ListExpired(time.Now())
	if err != nil {
		logger.Log.Error("Report sweep failed", zap.Error(err))
		return
	}

	for _, report := range expired {
		if report.ObjectKey != "" {
			if err := s.Artifacts.Delete(ctx, report.ObjectKey); err != nil {
				logger.Log.Warn("Failed to delete report artifact",
					zap.String("reportId", report.ID), zap.Error(err))
			}
		}
		if err := s.Store.Delete(report.ID); err != nil {
			logger.Log.Error("Failed to delete expired report",
				zap.String("reportId", report.ID), zap.Error(err))
		}
	}

	if len(expired) > 0 {
		logger.Log.Info("Swept expired reports", zap.Int("count", len(expired)))
	}
}

// build assembles the tabular content for a report type.
func (s *ReportService) build(req ReportRequest) ([]string, [][]string, error) {
	switch req.Type {
	case model.ReportEnrollmentSummary:
		enrollments, err := s.Data.EnrollmentsInRange(req.Start, req.End, req.CourseIDs, req.UserIDs)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"enrollmentId", "userId", "courseId", "enrolledAt", "status", "progressPercentage"}
		rows := make([][]string, 0, len(enrollments))
		for _, e := range enrollments {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(e.ID), 10),
				strconv.FormatUint(uint64(e.UserID), 10),
				strconv.FormatUint(uint64(e.CourseID), 10),
				e.EnrolledAt.Format(time.RFC3339),
				string(e.Status),
				strconv.FormatFloat(e.ProgressPercentage, 'f', 1, 64),
			})
		}
		return header, rows, nil

	case model.ReportCoursePerformance:
		enrollments, err := s.Data.EnrollmentsInRange(req.Start, req.End, req.CourseIDs, req.UserIDs)
		if err != nil {
			return nil, nil, err
		}
		courses, err := s.Data.Courses()
		if err != nil {
			return nil, nil, err
		}
		titles := make(map[uint]string, len(courses))
		for _, c := range courses {
			titles[c.ID] = c.Title
		}

		type perf struct {
			total     int
			completed int
			dropped   int
		}
		byCourse := make(map[uint]*perf)
		order := make([]uint, 0)
		for _, e := range enrollments {
			p := byCourse[e.CourseID]
			if p == nil {
				p = &perf{}
				byCourse[e.CourseID] = p
				order = append(order, e.CourseID)
			}
			p.total++
			switch e.Status {
			case model.EnrollmentCompleted:
				p.completed++
			case model.EnrollmentDropped:
				p.dropped++
			}
		}

		header := []string{"courseId", "title", "enrollments", "completed", "dropped", "completionRate"}
		rows := make([][]string, 0, len(order))
		for _, courseID := range order {
			p := byCourse[courseID]
			// No enrollments would mean no row at all, so total > 0 here.
			rate := float64(p.completed) / float64(p.total)
			rows = append(rows, []string{
				strconv.FormatUint(uint64(courseID), 10),
				titles[courseID],
				strconv.Itoa(p.total),
				strconv.Itoa(p.completed),
				strconv.Itoa(p.dropped),
				strconv.FormatFloat(rate, 'f', 3, 64),
			})
		}
		return header, rows, nil

	case model.ReportUserActivity:
		enrollments, err := s.Data.EnrollmentsInRange(req.Start, req.End, req.CourseIDs, req.UserIDs)
		if err != nil {
			return nil, nil, err
		}

		type activity struct {
			total     int
			completed int
			progress  float64
		}
		byUser := make(map[uint]*activity)
		order := make([]uint, 0)
		for _, e := range enrollments {
			a := byUser[e.UserID]
			if a == nil {
				a = &activity{}
				byUser[e.UserID] = a
				order = append(order, e.UserID)
			}
			a.total++
			a.progress += e.ProgressPercentage
			if e.Status == model.EnrollmentCompleted {
				a.completed++
			}
		}

		header := []string{"userId", "enrollments", "completed", "averageProgress"}
		rows := make([][]string, 0, len(order))
		for _, userID := range order {
			a := byUser[userID]
			rows = append(rows, []string{
				strconv.FormatUint(uint64(userID), 10),
				strconv.Itoa(a.total),
				strconv.Itoa(a.completed),
				strconv.FormatFloat(a.progress/float64(a.total), 'f', 1, 64),
			})
		}
		return header, rows, nil

	case model.ReportFeedbackSummary:
		feedback, err := s.Data.FeedbackInRange(req.Start, req.End, req.CourseIDs, req.UserIDs)
		if err != nil {
			return nil, nil, err
		}

		header := []string{"feedbackId", "userId", "targetType", "targetId", "rating", "createdAt"}
		rows := make([][]string, 0, len(feedback))
		for _, f := range feedback {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(f.ID), 10),
				strconv.FormatUint(uint64(f.UserID), 10),
				string(f.TargetType),
				strconv.FormatUint(uint64(f.TargetID), 10),
				strconv.Itoa(f.Rating),
				f.CreatedAt.Format(time.RFC3339),
			})
		}
		return header, rows, nil
	}

	return nil, nil, fmt.Errorf("unknown report type %q", req.Type)
}

func render(format model.ReportFormat, header []string, rows [][]string) ([]byte, string, error) {
	switch format {
	case model.ReportFormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(header); err != nil {
			return nil, "", err
		}
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return nil, "", err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), contentTypeFor(format), nil

	default:
		records := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			record := make(map[string]string, len(header))
			for i, col := range header {
				record[col] = row[i]
			}
			records = append(records, record)
		}
		payload, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return payload, contentTypeFor(format), nil
	}
}

func contentTypeFor(format model.ReportFormat) string {
	if format == model.ReportFormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// RepositoryReportData backs ReportDataSource with the gorm repositories.
type RepositoryReportData struct {
	Enrollments *repository.EnrollmentRepository
	Feedback    *repository.FeedbackRepository
	CourseRepo  *repository.CourseRepository
}

func (d *RepositoryReportData) EnrollmentsInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Enrollment, error) {
	return d.Enrollments.ListInRange(start, end, courseIDs, userIDs)
}

func (d *RepositoryReportData) FeedbackInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Feedback, error) {
	return d.Feedback.ListInRange(start, end, courseIDs, userIDs)
}

func (d *RepositoryReportData) Courses() ([]model.Course, error) {
	return d.CourseRepo.ListAll()
}

func encodeIDs(ids []uint) string {
	if len(ids) == 0 {
		return ""
	}
	raw, _ := json.Marshal(ids)
	return string(raw)
}
