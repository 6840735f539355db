package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Authentication errors
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrInvalidFormat    = errors.New("invalid token format")
	ErrPermissionDenied = errors.New("permission denied")
)

// Reference entity errors
var (
	ErrStudentNotFound         = errors.New("student not found")
	ErrCourseNotFound          = errors.New("course not found")
	ErrDepartmentNotFound      = errors.New("department not found")
	ErrProfessorNotFound       = errors.New("professor not found")
	ErrDepartmentAlreadyExists = errors.New("department with this name already exists")
)

// Enrollment errors
var (
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrDuplicateEnrollment = errors.New("student is already enrolled in this course")
	// ErrStorageUnavailable marks infrastructure failures: a transaction that
	// could not be started, executed or committed.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// IsNotFound reports whether err is any of the not-found kinds.
func IsNotFound(err error) bool {
	return Is(err, ErrResourceNotFound,
		ErrStudentNotFound,
		ErrCourseNotFound,
		ErrDepartmentNotFound,
		ErrProfessorNotFound,
		ErrEnrollmentNotFound,
	)
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
