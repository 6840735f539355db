package registrar

import "fmt"

// Status is the terminal state of a registration request.
type Status string

const (
	StatusAdmitted Status = "ADMITTED"
	StatusDenied   Status = "DENIED"
	StatusFailed   Status = "FAILED"
)

// Reason qualifies a denied or failed outcome.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonCapExceeded         Reason = "CAP_EXCEEDED"
	ReasonDuplicateEnrollment Reason = "DUPLICATE_ENROLLMENT"
	ReasonNotFound            Reason = "NOT_FOUND"
	ReasonStorageUnavailable  Reason = "STORAGE_UNAVAILABLE"
)

// Entity names the missing row of a NotFound outcome.
type Entity string

const (
	EntityCourse  Entity = "course"
	EntityStudent Entity = "student"
)

// Request is one (student, course) registration.
type Request struct {
	StudentID  int64 `json:"studentId"`
	CourseCode int64 `json:"courseCode"`
}

// Outcome is the structured answer to one Request. Denials are final business
// answers; failures carry the underlying error in Err.
type Outcome struct {
	Request
	Status Status `json:"status"`
	Reason Reason `json:"reason,omitempty"`

	// Admitted
	EnrollmentNo int64 `json:"enrollmentNo,omitempty"`

	// Denied(CapExceeded)
	AttemptedTotal int `json:"attemptedTotal,omitempty"`
	Cap            int `json:"cap,omitempty"`

	// Failed(NotFound)
	Missing Entity `json:"missing,omitempty"`

	Err error `json:"-"`
}

// Admitted reports whether the enrollment row was committed.
func (o Outcome) Admitted() bool {
	return o.Status == StatusAdmitted
}

// String renders the outcome for logs and user-facing messages.
func (o Outcome) String() string {
	switch {
	case o.Status == StatusAdmitted:
		return fmt.Sprintf("student %d admitted to course %d (enrollment %d)", o.StudentID, o.CourseCode, o.EnrollmentNo)
	case o.Reason == ReasonCapExceeded:
		return fmt.Sprintf("student %d denied course %d: %d units would exceed the cap of %d", o.StudentID, o.CourseCode, o.AttemptedTotal, o.Cap)
	case o.Reason == ReasonDuplicateEnrollment:
		return fmt.Sprintf("student %d is already enrolled in course %d", o.StudentID, o.CourseCode)
	case o.Reason == ReasonNotFound:
		return fmt.Sprintf("%s not found for registration of student %d in course %d", o.Missing, o.StudentID, o.CourseCode)
	default:
		return fmt.Sprintf("registration of student %d in course %d failed: %v", o.StudentID, o.CourseCode, o.Err)
	}
}

func admitted(req Request, enrollmentNo int64) Outcome {
	return Outcome{Request: req, Status: StatusAdmitted, EnrollmentNo: enrollmentNo}
}

func capExceeded(req Request, d Decision) Outcome {
	return Outcome{Request: req, Status: StatusDenied, Reason: ReasonCapExceeded, AttemptedTotal: d.AttemptedTotal, Cap: d.Cap}
}

func duplicate(req Request) Outcome {
	return Outcome{Request: req, Status: StatusDenied, Reason: ReasonDuplicateEnrollment}
}

func notFound(req Request, entity Entity, err error) Outcome {
	return Outcome{Request: req, Status: StatusFailed, Reason: ReasonNotFound, Missing: entity, Err: err}
}

func storageUnavailable(req Request, err error) Outcome {
	return Outcome{Request: req, Status: StatusFailed, Reason: ReasonStorageUnavailable, Err: err}
}
