package registrar

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/enrollment/internal/app/models"
	sqlitestore "github.com/yigit/enrollment/internal/app/repositories/sqlite"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

type fixture struct {
	store     *sqlitestore.Store
	registrar *Registrar
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlitestore.Open(context.Background(), filepath.Join(t.TempDir(), "registrar.sqlite"), 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	r, err := New(store, DefaultPolicy(), zerolog.Nop())
	require.NoError(t, err)
	return &fixture{store: store, registrar: r}
}

func (f *fixture) student(t *testing.T) int64 {
	t.Helper()
	s := &models.Student{Name: "Student", Age: 20}
	require.NoError(t, f.store.CreateStudent(context.Background(), s))
	return s.ID
}

func (f *fixture) course(t *testing.T, units int) int64 {
	t.Helper()
	c := &models.Course{Name: "Course", Units: units}
	require.NoError(t, f.store.CreateCourse(context.Background(), c))
	return c.Code
}

func TestRegisterScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t)
	c101 := f.course(t, 3)
	c200 := f.course(t, 16)
	c300 := f.course(t, 15)

	first := f.registrar.Register(ctx, student, c101)
	require.Equal(t, StatusAdmitted, first.Status)
	assert.Positive(t, first.EnrollmentNo)

	again := f.registrar.Register(ctx, student, c101)
	assert.Equal(t, StatusDenied, again.Status)
	assert.Equal(t, ReasonDuplicateEnrollment, again.Reason)

	big := f.registrar.Register(ctx, student, c200)
	assert.Equal(t, StatusDenied, big.Status)
	assert.Equal(t, ReasonCapExceeded, big.Reason)
	assert.Equal(t, 19, big.AttemptedTotal)
	assert.Equal(t, 18, big.Cap)

	fits := f.registrar.Register(ctx, student, c300)
	require.Equal(t, StatusAdmitted, fits.Status)

	load, err := f.registrar.StudentLoad(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 18, load.Units)
	assert.Zero(t, load.Remaining)
	assert.Len(t, load.Enrollments, 2)
}

func TestRegisterDeniedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t)
	full := f.course(t, 18)
	extra := f.course(t, 1)

	require.True(t, f.registrar.Register(ctx, student, full).Admitted())

	for i := 0; i < 3; i++ {
		o := f.registrar.Register(ctx, student, extra)
		assert.Equal(t, ReasonCapExceeded, o.Reason)
		assert.Equal(t, 19, o.AttemptedTotal)
	}

	load, err := f.registrar.StudentLoad(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 18, load.Units)
	assert.Len(t, load.Enrollments, 1)
}

func TestRegisterNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t)
	course := f.course(t, 3)

	missingCourse := f.registrar.Register(ctx, student, course+99)
	assert.Equal(t, StatusFailed, missingCourse.Status)
	assert.Equal(t, ReasonNotFound, missingCourse.Reason)
	assert.Equal(t, EntityCourse, missingCourse.Missing)
	assert.ErrorIs(t, missingCourse.Err, apperrors.ErrCourseNotFound)

	missingStudent := f.registrar.Register(ctx, student+99, course)
	assert.Equal(t, ReasonNotFound, missingStudent.Reason)
	assert.Equal(t, EntityStudent, missingStudent.Missing)

	_, err := f.registrar.StudentLoad(ctx, student+99)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestRegisterManyAccumulatesSequentially(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t)
	six := f.course(t, 6)
	sixAgain := f.course(t, 6)
	five := f.course(t, 5)
	two := f.course(t, 2)

	outcomes := f.registrar.RegisterMany(ctx, []Request{
		{StudentID: student, CourseCode: six},
		{StudentID: student, CourseCode: sixAgain},
		{StudentID: student, CourseCode: six},
		{StudentID: student, CourseCode: five},
		{StudentID: student, CourseCode: two},
		{StudentID: student, CourseCode: two + 1000},
	})

	require.Len(t, outcomes, 6)
	assert.Equal(t, StatusAdmitted, outcomes[0].Status)
	assert.Equal(t, StatusAdmitted, outcomes[1].Status)
	assert.Equal(t, ReasonDuplicateEnrollment, outcomes[2].Reason)
	assert.Equal(t, StatusAdmitted, outcomes[3].Status)
	assert.Equal(t, ReasonCapExceeded, outcomes[4].Reason)
	assert.Equal(t, 19, outcomes[4].AttemptedTotal)
	assert.Equal(t, ReasonNotFound, outcomes[5].Reason)
	for i, o := range outcomes {
		assert.Equal(t, student, o.StudentID, "outcome %d", i)
	}
	assert.Equal(t, two, outcomes[4].CourseCode)

	assert.Empty(t, f.registrar.RegisterMany(ctx, nil))
}

func TestRegisterConcurrentLastSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t)
	base := f.course(t, 15)
	require.True(t, f.registrar.Register(ctx, student, base).Admitted())

	const contenders = 8
	courses := make([]int64, contenders)
	for i := range courses {
		courses[i] = f.course(t, 3)
	}

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, code := range courses {
		g.Go(func() error {
			o := f.registrar.Register(gctx, student, code)
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	admittedCount := 0
	for _, o := range outcomes {
		switch o.Status {
		case StatusAdmitted:
			admittedCount++
		case StatusDenied:
			assert.Equal(t, ReasonCapExceeded, o.Reason)
			assert.Equal(t, 21, o.AttemptedTotal)
		default:
			t.Fatalf("unexpected outcome: %s", o)
		}
	}
	assert.Equal(t, 1, admittedCount)

	load, err := f.registrar.StudentLoad(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 18, load.Units)
}

func TestRegisterConcurrentSameCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t)
	course := f.course(t, 3)

	results := make([]Outcome, 6)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			results[i] = f.registrar.Register(ctx, student, course)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	admittedCount, duplicates := 0, 0
	for _, o := range results {
		if o.Admitted() {
			admittedCount++
		} else if o.Reason == ReasonDuplicateEnrollment {
			duplicates++
		}
	}
	assert.Equal(t, 1, admittedCount)
	assert.Equal(t, len(results)-1, duplicates)
}

func TestRegisterCancelledLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	student := f.student(t)
	course := f.course(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := f.registrar.Register(ctx, student, course)
	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, ReasonStorageUnavailable, o.Reason)
	assert.ErrorIs(t, o.Err, context.Canceled)

	load, err := f.registrar.StudentLoad(context.Background(), student)
	require.NoError(t, err)
	assert.Empty(t, load.Enrollments)
}

func TestRegisterDeadlineWhileStudentBusy(t *testing.T) {
	store := &failingStore{}
	r, err := New(store, DefaultPolicy(), zerolog.Nop())
	require.NoError(t, err)

	release, err := r.locks.lock(context.Background(), 1)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	o := r.Register(ctx, 1, 2)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, ReasonStorageUnavailable, o.Reason)
	assert.ErrorIs(t, o.Err, context.DeadlineExceeded)
	assert.ErrorIs(t, o.Err, apperrors.ErrStorageUnavailable)
	assert.False(t, store.inserted)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t)
	course := f.course(t, 18)

	o := f.registrar.Register(ctx, student, course)
	require.True(t, o.Admitted())

	require.NoError(t, f.registrar.Withdraw(ctx, o.EnrollmentNo))
	assert.ErrorIs(t, f.registrar.Withdraw(ctx, o.EnrollmentNo), apperrors.ErrEnrollmentNotFound)

	again := f.registrar.Register(ctx, student, course)
	assert.True(t, again.Admitted())
}

// failingStore fails at a chosen step of the registration transaction.
type failingStore struct {
	failOn   string
	err      error
	inserted bool
}

func (s *failingStore) WithStudentTx(ctx context.Context, _ int64, fn func(ctx context.Context, tx storage.EnrollmentTx) error) error {
	if s.failOn == "begin" {
		return s.err
	}
	return fn(ctx, &failingTx{store: s})
}

func (s *failingStore) StudentEnrollments(context.Context, int64) ([]models.Enrollment, error) {
	return nil, nil
}

func (s *failingStore) DeleteEnrollment(context.Context, int64) error {
	return s.err
}

type failingTx struct {
	store *failingStore
}

func (t *failingTx) CourseUnits(context.Context, int64) (int, error) {
	if t.store.failOn == "units" {
		return 0, t.store.err
	}
	return 3, nil
}

func (t *failingTx) CommittedUnitSum(context.Context, int64) (int, error) {
	if t.store.failOn == "sum" {
		return 0, t.store.err
	}
	return 0, nil
}

func (t *failingTx) InsertEnrollment(context.Context, int64, int64) (int64, error) {
	if t.store.failOn == "insert" {
		return 0, t.store.err
	}
	t.store.inserted = true
	return 1, nil
}

func TestRegisterStorageUnavailable(t *testing.T) {
	connErr := errors.New("connection refused")

	for _, step := range []string{"begin", "units", "sum", "insert"} {
		t.Run(step, func(t *testing.T) {
			store := &failingStore{failOn: step, err: connErr}
			r, err := New(store, DefaultPolicy(), zerolog.Nop())
			require.NoError(t, err)

			o := r.Register(context.Background(), 1, 2)
			assert.Equal(t, StatusFailed, o.Status)
			assert.Equal(t, ReasonStorageUnavailable, o.Reason)
			assert.ErrorIs(t, o.Err, connErr)
			assert.ErrorIs(t, o.Err, apperrors.ErrStorageUnavailable)
			assert.False(t, store.inserted)
		})
	}
}

func TestStudentLoadEmpty(t *testing.T) {
	r, err := New(&failingStore{}, DefaultPolicy(), zerolog.Nop())
	require.NoError(t, err)

	load, err := r.StudentLoad(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, load.Enrollments)
	assert.Equal(t, 18, load.Remaining)
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, DefaultPolicy(), zerolog.Nop())
	assert.Error(t, err)
	_, err = New(&failingStore{}, Policy{}, zerolog.Nop())
	assert.Error(t, err)
}
