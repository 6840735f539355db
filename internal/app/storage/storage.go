// Package storage declares the narrow persistence contracts consumed by the
// enrollment registrar and the seed loader. PostgreSQL and SQLite backends
// implement them.
package storage

import (
	"context"

	"github.com/yigit/enrollment/internal/app/models"
)

// EnrollmentTx is the set of reads and writes a single registration performs.
// All calls share one transaction that already holds the student's write lock.
type EnrollmentTx interface {
	// CourseUnits returns the unit count of a course or apperrors.ErrCourseNotFound.
	CourseUnits(ctx context.Context, courseCode int64) (int, error)
	// CommittedUnitSum returns the units of the student's committed enrollments,
	// zero when there are none, or apperrors.ErrStudentNotFound.
	CommittedUnitSum(ctx context.Context, studentID int64) (int, error)
	// InsertEnrollment writes the enrollment row and returns its number.
	// A UNIQUE(student_id, course_code) violation yields apperrors.ErrDuplicateEnrollment,
	// a foreign key violation yields the matching not-found error.
	InsertEnrollment(ctx context.Context, studentID, courseCode int64) (int64, error)
}

// EnrollmentStore owns the enrollments table.
type EnrollmentStore interface {
	// WithStudentTx runs fn inside one transaction serialized against every other
	// WithStudentTx call for the same student. fn returning an error rolls back.
	WithStudentTx(ctx context.Context, studentID int64, fn func(ctx context.Context, tx EnrollmentTx) error) error
	// StudentEnrollments lists the student's committed enrollments with course units.
	StudentEnrollments(ctx context.Context, studentID int64) ([]models.Enrollment, error)
	// DeleteEnrollment removes one enrollment by number or returns apperrors.ErrEnrollmentNotFound.
	DeleteEnrollment(ctx context.Context, enrollmentNo int64) error
}

// Catalog creates and reads the reference entities enrollments point at.
type Catalog interface {
	CreateDepartment(ctx context.Context, department *models.Department) error
	CreateProfessor(ctx context.Context, professor *models.Professor) error
	CreateStudent(ctx context.Context, student *models.Student) error
	CreateCourse(ctx context.Context, course *models.Course) error
	GetStudent(ctx context.Context, studentID int64) (*models.Student, error)
	GetCourse(ctx context.Context, courseCode int64) (*models.Course, error)
	FindDepartmentByName(ctx context.Context, name string) (*models.Department, error)
}

// CatalogStore is a Catalog that can also group writes into one transaction.
type CatalogStore interface {
	Catalog
	// WithCatalogTx runs fn against a Catalog bound to one transaction. fn
	// returning an error rolls back every write it made.
	WithCatalogTx(ctx context.Context, fn func(ctx context.Context, catalog Catalog) error) error
}
