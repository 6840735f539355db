package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/db"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/dberrors"
)

// Constraint names declared in migrations/postgres/001_init.sql
const (
	constraintEnrollmentUnique    = "enrollments_student_course_unique"
	constraintEnrollmentStudentFK = "enrollments_student_fk"
	constraintEnrollmentCourseFK  = "enrollments_course_fk"
)

// EnrollmentRepository handles database operations for enrollments
type EnrollmentRepository struct {
	db        *pgxpool.Pool
	txTimeout time.Duration
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *pgxpool.Pool, txTimeout time.Duration) *EnrollmentRepository {
	return &EnrollmentRepository{
		db:        db,
		txTimeout: txTimeout,
	}
}

// WithStudentTx runs fn in a READ COMMITTED transaction holding the
// transaction-scoped advisory lock keyed by studentID. Statements issued after
// the lock is granted see every enrollment committed by the previous holder.
func (r *EnrollmentRepository) WithStudentTx(ctx context.Context, studentID int64, fn func(ctx context.Context, tx storage.EnrollmentTx) error) error {
	return db.WithTransaction(ctx, r.db, r.txTimeout, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, studentID); err != nil {
			return fmt.Errorf("error locking student %d: %w", studentID, err)
		}
		return fn(ctx, &enrollmentTx{tx: tx})
	})
}

// StudentEnrollments lists a student's enrollments from one read-only snapshot
func (r *EnrollmentRepository) StudentEnrollments(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment

	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.db, opts, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM students WHERE student_id = $1)`, studentID).Scan(&exists); err != nil {
			return fmt.Errorf("error checking student existence: %w", err)
		}
		if !exists {
			return apperrors.ErrStudentNotFound
		}

		rows, err := tx.Query(ctx, `
			SELECT e.enrollment_no, e.student_id, e.course_code, c.units
			FROM enrollments e
			JOIN courses c ON c.course_code = e.course_code
			WHERE e.student_id = $1
			ORDER BY e.enrollment_no
		`, studentID)
		if err != nil {
			return fmt.Errorf("error listing enrollments: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var enrollment models.Enrollment
			if err := rows.Scan(
				&enrollment.Number,
				&enrollment.StudentID,
				&enrollment.CourseCode,
				&enrollment.Units,
			); err != nil {
				return err
			}
			enrollments = append(enrollments, enrollment)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return enrollments, nil
}

// DeleteEnrollment deletes an enrollment by its number
func (r *EnrollmentRepository) DeleteEnrollment(ctx context.Context, enrollmentNo int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE enrollment_no = $1`, enrollmentNo)
	if err != nil {
		return fmt.Errorf("error deleting enrollment: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}

	return nil
}

// enrollmentTx implements storage.EnrollmentTx on a pgx transaction
type enrollmentTx struct {
	tx pgx.Tx
}

// CourseUnits reads the course row FOR SHARE so its units cannot change or the
// row disappear before the registration commits.
func (t *enrollmentTx) CourseUnits(ctx context.Context, courseCode int64) (int, error) {
	var units int
	err := t.tx.QueryRow(ctx, `SELECT units FROM courses WHERE course_code = $1 FOR SHARE`, courseCode).Scan(&units)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrCourseNotFound
		}
		return 0, fmt.Errorf("error retrieving course units: %w", err)
	}
	return units, nil
}

// CommittedUnitSum sums the units of the student's enrollments; students
// without enrollments get zero and unknown students no row.
func (t *enrollmentTx) CommittedUnitSum(ctx context.Context, studentID int64) (int, error) {
	var total int64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE((
			SELECT SUM(c.units)
			FROM enrollments e
			JOIN courses c ON c.course_code = e.course_code
			WHERE e.student_id = s.student_id
		), 0)
		FROM students s
		WHERE s.student_id = $1
	`, studentID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrStudentNotFound
		}
		return 0, fmt.Errorf("error summing committed units: %w", err)
	}
	return int(total), nil
}

// InsertEnrollment inserts the enrollment row and returns its number
func (t *enrollmentTx) InsertEnrollment(ctx context.Context, studentID, courseCode int64) (int64, error) {
	var enrollmentNo int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO enrollments (student_id, course_code)
		VALUES ($1, $2)
		RETURNING enrollment_no
	`, studentID, courseCode).Scan(&enrollmentNo)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, constraintEnrollmentUnique):
			return 0, apperrors.ErrDuplicateEnrollment
		case dberrors.IsForeignKeyConstraintError(err, constraintEnrollmentStudentFK):
			return 0, apperrors.ErrStudentNotFound
		case dberrors.IsForeignKeyConstraintError(err, constraintEnrollmentCourseFK):
			return 0, apperrors.ErrCourseNotFound
		}
		return 0, fmt.Errorf("error inserting enrollment: %w", err)
	}
	return enrollmentNo, nil
}

var _ storage.EnrollmentStore = (*EnrollmentRepository)(nil)
