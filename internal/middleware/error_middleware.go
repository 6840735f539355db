package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/app/registrar"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/logger"
)

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	var (
		status int
		detail *dto.ErrorDetail
	)
	switch {
	case errors.Is(err, apperrors.ErrStudentNotFound):
		status, detail = http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Student not found")
	case errors.Is(err, apperrors.ErrCourseNotFound):
		status, detail = http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Course not found")
	case errors.Is(err, apperrors.ErrEnrollmentNotFound):
		status, detail = http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Enrollment not found")
	case apperrors.IsNotFound(err):
		status, detail = http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrDuplicateEnrollment):
		status, detail = http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeDuplicateEnrollment, "Student is already enrolled in this course")
	case errors.Is(err, apperrors.ErrDepartmentAlreadyExists):
		status, detail = http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Department already exists")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		status, detail = http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrTokenExpired):
		status, detail = http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		status, detail = http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		status, detail = http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed")
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		status, detail = http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "Storage unavailable")
	default:
		status, detail = http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}

	var customErr *apperrors.CustomError
	if errors.As(err, &customErr) {
		if customErr.Message != "" && status < http.StatusInternalServerError {
			detail.Message = customErr.Message
		}
		if customErr.Details != nil {
			detail = detail.WithDetails(customErr.Details)
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	c.JSON(status, dto.NewErrorAPIResponse(detail, nil))
}

// OutcomeStatus maps a registration outcome to its HTTP status
func OutcomeStatus(o registrar.Outcome) int {
	switch {
	case o.Status == registrar.StatusAdmitted:
		return http.StatusCreated
	case o.Status == registrar.StatusDenied:
		return http.StatusConflict
	case o.Reason == registrar.ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// HandleOutcome writes a single registration outcome. Denials and failures
// keep the outcome as data next to the error detail.
func HandleOutcome(c *gin.Context, o registrar.Outcome) {
	status := OutcomeStatus(o)
	if status == http.StatusCreated {
		c.JSON(status, dto.NewSuccessResponse(o))
		return
	}

	var detail *dto.ErrorDetail
	switch o.Reason {
	case registrar.ReasonCapExceeded:
		detail = dto.NewErrorDetail(dto.ErrorCodeCapExceeded, o.String()).
			WithField("courseCode").
			WithSeverity(dto.ErrorSeverityWarning)
	case registrar.ReasonDuplicateEnrollment:
		detail = dto.NewErrorDetail(dto.ErrorCodeDuplicateEnrollment, o.String()).
			WithField("courseCode").
			WithSeverity(dto.ErrorSeverityWarning)
	case registrar.ReasonNotFound:
		field := "courseCode"
		if o.Missing == registrar.EntityStudent {
			field = "studentId"
		}
		detail = dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, o.String()).WithField(field)
	default:
		logger.Error().Err(o.Err).Int64("student_id", o.StudentID).Int64("course_code", o.CourseCode).Msg("registration failed")
		detail = dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "Storage unavailable").
			WithSeverity(dto.ErrorSeverityCritical)
	}
	c.JSON(status, dto.NewErrorAPIResponse(detail, o))
}
