// Package sqlite provides the SQLite-backed enrollment and catalog storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yigit/enrollment/internal/app/migrations"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/db"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/dberrors"
)

// Store persists enrollment state in SQLite.
type Store struct {
	catalog
	db *db.SQLiteDB
}

// Open opens a SQLite store at path and applies the embedded migrations.
func Open(ctx context.Context, path string, txTimeout time.Duration) (*Store, error) {
	sqliteDB, err := db.NewSQLiteDB(ctx, path, txTimeout)
	if err != nil {
		return nil, err
	}
	if err := migrations.ApplySQLite(ctx, sqliteDB.DB, migrations.FS, migrations.SQLiteRoot); err != nil {
		_ = sqliteDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{catalog: catalog{q: sqliteDB.DB}, db: sqliteDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// WithStudentTx runs fn in an IMMEDIATE transaction. SQLite admits one writer
// per database, which also serializes every registration of studentID.
func (s *Store) WithStudentTx(ctx context.Context, studentID int64, fn func(ctx context.Context, tx storage.EnrollmentTx) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &enrollmentTx{tx: tx})
	})
}

// StudentEnrollments lists a student's enrollments joined with course units.
func (s *Store) StudentEnrollments(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	var exists bool
	if err := s.db.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE student_id = ?)`, studentID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check student: %w", err)
	}
	if !exists {
		return nil, apperrors.ErrStudentNotFound
	}

	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT e.enrollment_no, e.student_id, e.course_code, c.units
		  FROM enrollments e
		  JOIN courses c ON c.course_code = e.course_code
		 WHERE e.student_id = ?
		 ORDER BY e.enrollment_no`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []models.Enrollment
	for rows.Next() {
		var enrollment models.Enrollment
		if err := rows.Scan(&enrollment.Number, &enrollment.StudentID, &enrollment.CourseCode, &enrollment.Units); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return enrollments, nil
}

// DeleteEnrollment removes one enrollment by number.
func (s *Store) DeleteEnrollment(ctx context.Context, enrollmentNo int64) error {
	res, err := s.db.DB.ExecContext(ctx, `DELETE FROM enrollments WHERE enrollment_no = ?`, enrollmentNo)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enrollment rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}

type enrollmentTx struct {
	tx *sql.Tx
}

func (t *enrollmentTx) CourseUnits(ctx context.Context, courseCode int64) (int, error) {
	var units int
	err := t.tx.QueryRowContext(ctx, `SELECT units FROM courses WHERE course_code = ?`, courseCode).Scan(&units)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.ErrCourseNotFound
		}
		return 0, fmt.Errorf("get course units: %w", err)
	}
	return units, nil
}

func (t *enrollmentTx) CommittedUnitSum(ctx context.Context, studentID int64) (int, error) {
	var total int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE((
		         SELECT SUM(c.units)
		           FROM enrollments e
		           JOIN courses c ON c.course_code = e.course_code
		          WHERE e.student_id = s.student_id
		       ), 0)
		  FROM students s
		 WHERE s.student_id = ?`, studentID).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.ErrStudentNotFound
		}
		return 0, fmt.Errorf("sum committed units: %w", err)
	}
	return total, nil
}

func (t *enrollmentTx) InsertEnrollment(ctx context.Context, studentID, courseCode int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO enrollments (student_id, course_code) VALUES (?, ?)`,
		studentID, courseCode,
	)
	if err != nil {
		switch {
		case dberrors.IsSQLiteUniqueViolation(err, "enrollments.student_id"):
			return 0, apperrors.ErrDuplicateEnrollment
		case dberrors.IsSQLiteForeignKeyViolation(err):
			// the course row was read under this same write lock, so the
			// missing parent is the student
			return 0, apperrors.ErrStudentNotFound
		}
		return 0, fmt.Errorf("insert enrollment: %w", err)
	}
	enrollmentNo, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert enrollment id: %w", err)
	}
	return enrollmentNo, nil
}

var _ storage.EnrollmentStore = (*Store)(nil)
