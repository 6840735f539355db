// Package registrar admits students into courses under the unit cap.
package registrar

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

// Load is a student's committed enrollment summary.
type Load struct {
	StudentID   int64               `json:"studentId"`
	Units       int                 `json:"units"`
	Cap         int                 `json:"cap"`
	Remaining   int                 `json:"remaining"`
	Enrollments []models.Enrollment `json:"enrollments"`
}

// Registrar runs each registration as one read-decide-write transaction,
// serialized per student.
type Registrar struct {
	store  storage.EnrollmentStore
	policy Policy
	locks  *studentLocks
	logger zerolog.Logger
}

// New creates a registrar over store.
func New(store storage.EnrollmentStore, policy Policy, logger zerolog.Logger) (*Registrar, error) {
	if store == nil {
		return nil, fmt.Errorf("enrollment store is required")
	}
	if policy.Cap <= 0 {
		return nil, fmt.Errorf("unit cap must be positive, got %d", policy.Cap)
	}
	return &Registrar{
		store:  store,
		policy: policy,
		locks:  newStudentLocks(),
		logger: logger.With().Str("component", "registrar").Logger(),
	}, nil
}

// Policy returns the capacity policy in force.
func (r *Registrar) Policy() Policy {
	return r.policy
}

// Register attempts to enroll studentID in courseCode.
func (r *Registrar) Register(ctx context.Context, studentID, courseCode int64) Outcome {
	req := Request{StudentID: studentID, CourseCode: courseCode}
	outcome := r.register(ctx, req)
	r.logOutcome(outcome)
	return outcome
}

// RegisterMany processes requests in order, each committed before the next
// starts. A denial or failure does not stop the batch.
func (r *Registrar) RegisterMany(ctx context.Context, requests []Request) []Outcome {
	outcomes := make([]Outcome, 0, len(requests))
	for _, req := range requests {
		outcomes = append(outcomes, r.Register(ctx, req.StudentID, req.CourseCode))
	}

	admittedCount := 0
	for _, o := range outcomes {
		if o.Admitted() {
			admittedCount++
		}
	}
	r.logger.Debug().
		Int("requests", len(requests)).
		Int("admitted", admittedCount).
		Msg("batch registration finished")
	return outcomes
}

func (r *Registrar) register(ctx context.Context, req Request) Outcome {
	if err := ctx.Err(); err != nil {
		return classify(req, err)
	}

	release, err := r.locks.lock(ctx, req.StudentID)
	if err != nil {
		return classify(req, err)
	}
	defer release()

	var outcome Outcome
	err = r.store.WithStudentTx(ctx, req.StudentID, func(ctx context.Context, tx storage.EnrollmentTx) error {
		units, err := tx.CourseUnits(ctx, req.CourseCode)
		if err != nil {
			return err
		}
		current, err := tx.CommittedUnitSum(ctx, req.StudentID)
		if err != nil {
			return err
		}

		decision := r.policy.Evaluate(current, units)
		if !decision.Admit {
			outcome = capExceeded(req, decision)
			return nil
		}

		enrollmentNo, err := tx.InsertEnrollment(ctx, req.StudentID, req.CourseCode)
		if err != nil {
			return err
		}
		outcome = admitted(req, enrollmentNo)
		return nil
	})
	if err != nil {
		return classify(req, err)
	}
	return outcome
}

// classify turns a store error into the matching outcome.
func classify(req Request, err error) Outcome {
	switch {
	case errors.Is(err, apperrors.ErrDuplicateEnrollment):
		return duplicate(req)
	case errors.Is(err, apperrors.ErrCourseNotFound):
		return notFound(req, EntityCourse, err)
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return notFound(req, EntityStudent, err)
	default:
		return storageUnavailable(req, fmt.Errorf("%w: %w", apperrors.ErrStorageUnavailable, err))
	}
}

func (r *Registrar) logOutcome(o Outcome) {
	var event *zerolog.Event
	if o.Status == StatusFailed {
		event = r.logger.Warn().Err(o.Err)
	} else {
		event = r.logger.Debug()
	}
	event.
		Int64("student_id", o.StudentID).
		Int64("course_code", o.CourseCode).
		Str("status", string(o.Status)).
		Str("reason", string(o.Reason))
	if o.Admitted() {
		event.Int64("enrollment_no", o.EnrollmentNo)
	}
	if o.Reason == ReasonCapExceeded {
		event.Int("attempted_total", o.AttemptedTotal).Int("cap", o.Cap)
	}
	event.Msg("registration processed")
}

// StudentLoad reports the committed units of studentID against the cap.
func (r *Registrar) StudentLoad(ctx context.Context, studentID int64) (*Load, error) {
	enrollments, err := r.store.StudentEnrollments(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}

	total := 0
	for _, e := range enrollments {
		total += e.Units
	}
	remaining := r.policy.Cap - total
	if remaining < 0 {
		remaining = 0
	}
	return &Load{
		StudentID:   studentID,
		Units:       total,
		Cap:         r.policy.Cap,
		Remaining:   remaining,
		Enrollments: enrollments,
	}, nil
}

// Withdraw removes one enrollment by number.
func (r *Registrar) Withdraw(ctx context.Context, enrollmentNo int64) error {
	if err := r.store.DeleteEnrollment(ctx, enrollmentNo); err != nil {
		return err
	}
	r.logger.Info().Int64("enrollment_no", enrollmentNo).Msg("enrollment withdrawn")
	return nil
}
