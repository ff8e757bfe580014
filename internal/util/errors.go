package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAlreadyEnrolled    = errors.New("user is already enrolled in this course")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrInvalidRating      = errors.New("rating must be an integer between 1 and 5")
	ErrEmailTaken         = errors.New("email is already registered")

	// Report taxonomy. NotFound and NotReady are distinct on purpose: an
	// unknown or expired id is gone, a pending one is worth polling again.
	ErrInvalidDateRange     = errors.New("report date range start must not be after end")
	ErrUnknownFilterID      = errors.New("report filter references an unknown entity")
	ErrInvalidReportRequest = errors.New("report request has an unsupported type or format")
	ErrReportNotFound       = errors.New("report not found or expired")
	ErrReportNotReady       = errors.New("report is not ready yet")
	ErrReportFailed         = errors.New("report generation failed")
)
