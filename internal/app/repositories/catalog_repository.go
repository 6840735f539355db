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

// CatalogRepository handles the reference entities: departments, professors,
// students and courses. It only offers what seeding and lookups need.
type CatalogRepository struct {
	db        rowQuerier
	pool      *pgxpool.Pool
	txTimeout time.Duration
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(pool *pgxpool.Pool, txTimeout time.Duration) *CatalogRepository {
	return &CatalogRepository{
		db:        pool,
		pool:      pool,
		txTimeout: txTimeout,
	}
}

// WithCatalogTx runs fn against a catalog bound to one transaction
func (r *CatalogRepository) WithCatalogTx(ctx context.Context, fn func(ctx context.Context, catalog storage.Catalog) error) error {
	if r.pool == nil {
		return fmt.Errorf("catalog repository is already bound to a transaction")
	}
	return db.WithTransaction(ctx, r.pool, r.txTimeout, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &CatalogRepository{db: tx})
	})
}

// CreateDepartment creates a new department
func (r *CatalogRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO departments (name)
		VALUES ($1)
		RETURNING dept_id
	`, department.Name).Scan(&department.ID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "departments_name_unique") {
			return apperrors.ErrDepartmentAlreadyExists
		}
		return fmt.Errorf("error creating department: %w", err)
	}
	return nil
}

// FindDepartmentByName retrieves a department by its unique name
func (r *CatalogRepository) FindDepartmentByName(ctx context.Context, name string) (*models.Department, error) {
	var department models.Department
	err := r.db.QueryRow(ctx, `SELECT dept_id, name FROM departments WHERE name = $1`, name).
		Scan(&department.ID, &department.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("error retrieving department: %w", err)
	}
	return &department, nil
}

// CreateProfessor creates a new professor
func (r *CatalogRepository) CreateProfessor(ctx context.Context, professor *models.Professor) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO professors (name, dept_id)
		VALUES ($1, $2)
		RETURNING prof_id
	`, professor.Name, professor.DepartmentID).Scan(&professor.ID)
	if err != nil {
		if dberrors.IsForeignKeyConstraintError(err, "professors_department_fk") {
			return apperrors.ErrDepartmentNotFound
		}
		return fmt.Errorf("error creating professor: %w", err)
	}
	return nil
}

// CreateStudent creates a new student
func (r *CatalogRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO students (name, age, dept_id)
		VALUES ($1, $2, $3)
		RETURNING student_id
	`, student.Name, student.Age, student.DepartmentID).Scan(&student.ID)
	if err != nil {
		if dberrors.IsForeignKeyConstraintError(err, "students_department_fk") {
			return apperrors.ErrDepartmentNotFound
		}
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student by ID
func (r *CatalogRepository) GetStudent(ctx context.Context, studentID int64) (*models.Student, error) {
	var student models.Student
	err := r.db.QueryRow(ctx, `
		SELECT student_id, name, age, dept_id
		FROM students
		WHERE student_id = $1
	`, studentID).Scan(
		&student.ID,
		&student.Name,
		&student.Age,
		&student.DepartmentID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return &student, nil
}

// CreateCourse creates a new course. Zero units fall back to the schema default.
func (r *CatalogRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.Units == 0 {
		course.Units = models.DefaultCourseUnits
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO courses (name, prof_id, dept_id, units, schedule)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING course_code
	`, course.Name, course.ProfessorID, course.DepartmentID, course.Units, course.Schedule).Scan(&course.Code)
	if err != nil {
		switch {
		case dberrors.IsForeignKeyConstraintError(err, "courses_professor_fk"):
			return apperrors.ErrProfessorNotFound
		case dberrors.IsForeignKeyConstraintError(err, "courses_department_fk"):
			return apperrors.ErrDepartmentNotFound
		}
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// GetCourse retrieves a course by code
func (r *CatalogRepository) GetCourse(ctx context.Context, courseCode int64) (*models.Course, error) {
	var course models.Course
	err := r.db.QueryRow(ctx, `
		SELECT course_code, name, prof_id, dept_id, units, schedule
		FROM courses
		WHERE course_code = $1
	`, courseCode).Scan(
		&course.Code,
		&course.Name,
		&course.ProfessorID,
		&course.DepartmentID,
		&course.Units,
		&course.Schedule,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return &course, nil
}

var _ storage.CatalogStore = (*CatalogRepository)(nil)
