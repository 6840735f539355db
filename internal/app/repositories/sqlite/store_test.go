package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "enrollment.sqlite"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedStudentAndCourse(t *testing.T, store *Store, units int) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	student := &models.Student{Name: "Ada", Age: 20}
	require.NoError(t, store.CreateStudent(ctx, student))
	course := &models.Course{Name: "Compilers", Units: units}
	require.NoError(t, store.CreateCourse(ctx, course))
	return student.ID, course.Code
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ", time.Second)
	require.Error(t, err)

	_, err = Open(context.Background(), ":memory:", time.Second)
	require.Error(t, err)
}

func TestEnrollmentTxRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	studentID, courseCode := seedStudentAndCourse(t, store, 4)

	var enrollmentNo int64
	err := store.WithStudentTx(ctx, studentID, func(ctx context.Context, tx storage.EnrollmentTx) error {
		units, err := tx.CourseUnits(ctx, courseCode)
		if err != nil {
			return err
		}
		assert.Equal(t, 4, units)

		sum, err := tx.CommittedUnitSum(ctx, studentID)
		if err != nil {
			return err
		}
		assert.Zero(t, sum)

		enrollmentNo, err = tx.InsertEnrollment(ctx, studentID, courseCode)
		return err
	})
	require.NoError(t, err)
	assert.Positive(t, enrollmentNo)

	enrollments, err := store.StudentEnrollments(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, models.Enrollment{Number: enrollmentNo, StudentID: studentID, CourseCode: courseCode, Units: 4}, enrollments[0])

	err = store.WithStudentTx(ctx, studentID, func(ctx context.Context, tx storage.EnrollmentTx) error {
		sum, err := tx.CommittedUnitSum(ctx, studentID)
		require.NoError(t, err)
		assert.Equal(t, 4, sum)
		return nil
	})
	require.NoError(t, err)
}

func TestInsertEnrollmentDuplicate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	studentID, courseCode := seedStudentAndCourse(t, store, 3)

	insert := func() error {
		return store.WithStudentTx(ctx, studentID, func(ctx context.Context, tx storage.EnrollmentTx) error {
			_, err := tx.InsertEnrollment(ctx, studentID, courseCode)
			return err
		})
	}
	require.NoError(t, insert())
	err := insert()
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEnrollment)

	enrollments, err := store.StudentEnrollments(ctx, studentID)
	require.NoError(t, err)
	assert.Len(t, enrollments, 1)
}

func TestMissingRows(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	studentID, courseCode := seedStudentAndCourse(t, store, 3)

	err := store.WithStudentTx(ctx, studentID, func(ctx context.Context, tx storage.EnrollmentTx) error {
		_, err := tx.CourseUnits(ctx, courseCode+100)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	err = store.WithStudentTx(ctx, studentID+100, func(ctx context.Context, tx storage.EnrollmentTx) error {
		_, err := tx.CommittedUnitSum(ctx, studentID+100)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	err = store.WithStudentTx(ctx, studentID+100, func(ctx context.Context, tx storage.EnrollmentTx) error {
		_, err := tx.InsertEnrollment(ctx, studentID+100, courseCode)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = store.StudentEnrollments(ctx, studentID+100)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestRollbackLeavesNoRow(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	studentID, courseCode := seedStudentAndCourse(t, store, 3)

	boom := errors.New("abandoned")
	err := store.WithStudentTx(ctx, studentID, func(ctx context.Context, tx storage.EnrollmentTx) error {
		if _, err := tx.InsertEnrollment(ctx, studentID, courseCode); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	enrollments, err := store.StudentEnrollments(ctx, studentID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)
}

func TestDeleteEnrollment(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	studentID, courseCode := seedStudentAndCourse(t, store, 3)

	var enrollmentNo int64
	require.NoError(t, store.WithStudentTx(ctx, studentID, func(ctx context.Context, tx storage.EnrollmentTx) error {
		var err error
		enrollmentNo, err = tx.InsertEnrollment(ctx, studentID, courseCode)
		return err
	}))

	require.NoError(t, store.DeleteEnrollment(ctx, enrollmentNo))
	assert.ErrorIs(t, store.DeleteEnrollment(ctx, enrollmentNo), apperrors.ErrEnrollmentNotFound)
}

func TestCatalogRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	dept := &models.Department{Name: "  Computer Science "}
	require.NoError(t, store.CreateDepartment(ctx, dept))
	assert.Equal(t, "Computer Science", dept.Name)
	assert.ErrorIs(t, store.CreateDepartment(ctx, &models.Department{Name: "Computer Science"}), apperrors.ErrDepartmentAlreadyExists)

	found, err := store.FindDepartmentByName(ctx, "Computer Science")
	require.NoError(t, err)
	assert.Equal(t, dept.ID, found.ID)
	_, err = store.FindDepartmentByName(ctx, "History")
	assert.ErrorIs(t, err, apperrors.ErrDepartmentNotFound)

	prof := &models.Professor{Name: "Grace", DepartmentID: dept.ID}
	require.NoError(t, store.CreateProfessor(ctx, prof))
	assert.ErrorIs(t, store.CreateProfessor(ctx, &models.Professor{Name: "Nobody", DepartmentID: dept.ID + 50}), apperrors.ErrDepartmentNotFound)

	student := &models.Student{Name: "Ada", Age: 21, DepartmentID: &dept.ID}
	require.NoError(t, store.CreateStudent(ctx, student))
	gotStudent, err := store.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student, gotStudent)

	schedule := "Mon 10:00"
	course := &models.Course{Name: "Databases", ProfessorID: &prof.ID, DepartmentID: &dept.ID, Schedule: &schedule}
	require.NoError(t, store.CreateCourse(ctx, course))
	assert.Equal(t, models.DefaultCourseUnits, course.Units)
	gotCourse, err := store.GetCourse(ctx, course.Code)
	require.NoError(t, err)
	assert.Equal(t, course, gotCourse)

	_, err = store.GetCourse(ctx, course.Code+1)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
	_, err = store.GetStudent(ctx, student.ID+1)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}
