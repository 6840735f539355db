package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/dberrors"
	"github.com/yigit/enrollment/internal/pkg/helpers"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// catalog holds the reference entity queries. Store embeds one bound to the
// database handle and WithCatalogTx hands out one bound to a transaction.
type catalog struct {
	q sqlQuerier
}

// WithCatalogTx runs fn in one IMMEDIATE transaction.
func (s *Store) WithCatalogTx(ctx context.Context, fn func(ctx context.Context, catalog storage.Catalog) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &catalog{q: tx})
	})
}

// CreateDepartment inserts one department.
func (s *catalog) CreateDepartment(ctx context.Context, department *models.Department) error {
	name := strings.TrimSpace(department.Name)
	if name == "" {
		return fmt.Errorf("department name is required")
	}
	res, err := s.q.ExecContext(ctx, `INSERT INTO departments (name) VALUES (?)`, name)
	if err != nil {
		if dberrors.IsSQLiteUniqueViolation(err, "departments.name") {
			return apperrors.ErrDepartmentAlreadyExists
		}
		return fmt.Errorf("create department: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create department id: %w", err)
	}
	department.ID = id
	department.Name = name
	return nil
}

// FindDepartmentByName returns the department with the given name.
func (s *catalog) FindDepartmentByName(ctx context.Context, name string) (*models.Department, error) {
	var department models.Department
	err := s.q.QueryRowContext(ctx, `SELECT dept_id, name FROM departments WHERE name = ?`, strings.TrimSpace(name)).
		Scan(&department.ID, &department.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &department, nil
}

// CreateProfessor inserts one professor.
func (s *catalog) CreateProfessor(ctx context.Context, professor *models.Professor) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO professors (name, dept_id) VALUES (?, ?)`,
		professor.Name, professor.DepartmentID,
	)
	if err != nil {
		if dberrors.IsSQLiteForeignKeyViolation(err) {
			return apperrors.ErrDepartmentNotFound
		}
		return fmt.Errorf("create professor: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create professor id: %w", err)
	}
	professor.ID = id
	return nil
}

// CreateStudent inserts one student.
func (s *catalog) CreateStudent(ctx context.Context, student *models.Student) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO students (name, age, dept_id) VALUES (?, ?, ?)`,
		student.Name, student.Age, helpers.GetNullInt64(student.DepartmentID),
	)
	if err != nil {
		if dberrors.IsSQLiteForeignKeyViolation(err) {
			return apperrors.ErrDepartmentNotFound
		}
		return fmt.Errorf("create student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create student id: %w", err)
	}
	student.ID = id
	return nil
}

// GetStudent returns one student by ID.
func (s *catalog) GetStudent(ctx context.Context, studentID int64) (*models.Student, error) {
	var (
		student models.Student
		deptID  sql.NullInt64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT student_id, name, age, dept_id FROM students WHERE student_id = ?`, studentID,
	).Scan(&student.ID, &student.Name, &student.Age, &deptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	student.DepartmentID = helpers.Int64Ptr(deptID)
	return &student, nil
}

// CreateCourse inserts one course. Zero units fall back to the schema default.
func (s *catalog) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.Units == 0 {
		course.Units = models.DefaultCourseUnits
	}
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO courses (name, prof_id, dept_id, units, schedule) VALUES (?, ?, ?, ?, ?)`,
		course.Name,
		helpers.GetNullInt64(course.ProfessorID),
		helpers.GetNullInt64(course.DepartmentID),
		course.Units,
		helpers.GetNullString(course.Schedule),
	)
	if err != nil {
		if dberrors.IsSQLiteForeignKeyViolation(err) {
			return fmt.Errorf("create course: %w", apperrors.ErrResourceNotFound)
		}
		return fmt.Errorf("create course: %w", err)
	}
	code, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create course id: %w", err)
	}
	course.Code = code
	return nil
}

// GetCourse returns one course by code.
func (s *catalog) GetCourse(ctx context.Context, courseCode int64) (*models.Course, error) {
	var (
		course   models.Course
		profID   sql.NullInt64
		deptID   sql.NullInt64
		schedule sql.NullString
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT course_code, name, prof_id, dept_id, units, schedule FROM courses WHERE course_code = ?`, courseCode,
	).Scan(&course.Code, &course.Name, &profID, &deptID, &course.Units, &schedule)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	course.ProfessorID = helpers.Int64Ptr(profID)
	course.DepartmentID = helpers.Int64Ptr(deptID)
	course.Schedule = helpers.StringPtr(schedule)
	return &course, nil
}

var (
	_ storage.CatalogStore = (*Store)(nil)
	_ storage.Catalog      = (*catalog)(nil)
)
