package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

type demoCourse struct {
	name     string
	dept     string
	units    int
	schedule string
}

var (
	demoDepartments = []string{"CS", "Math", "Physics"}

	demoProfessors = map[string]string{
		"CS":      "Grace Hopper",
		"Math":    "Emmy Noether",
		"Physics": "Lise Meitner",
	}

	demoStudents = []models.Student{
		{Name: "Ada Lovelace", Age: 20},
		{Name: "Alan Turing", Age: 22},
		{Name: "Katherine Johnson", Age: 19},
	}

	demoCourses = []demoCourse{
		{name: "Intro to Programming", dept: "CS", units: 3, schedule: "Mon/Wed 09:00"},
		{name: "Data Structures", dept: "CS", units: 4, schedule: "Tue/Thu 10:30"},
		{name: "Linear Algebra", dept: "Math", units: 3, schedule: "Mon/Wed 13:00"},
		{name: "Real Analysis", dept: "Math", units: 5, schedule: "Fri 09:00"},
		{name: "Classical Mechanics", dept: "Physics", units: 4, schedule: "Tue/Thu 14:00"},
		{name: "Research Thesis", dept: "Physics", units: 15, schedule: "By arrangement"},
	}
)

// CreateDefaultData loads demo departments, professors, students and courses
// in one transaction. It does nothing when the first demo department already
// exists; a run that fails part way leaves no rows behind.
func CreateDefaultData(ctx context.Context, store storage.CatalogStore, lgr zerolog.Logger) error {
	_, err := store.FindDepartmentByName(ctx, demoDepartments[0])
	switch {
	case err == nil:
		lgr.Info().Msg("Default data already present, skipping seed")
		return nil
	case !errors.Is(err, apperrors.ErrDepartmentNotFound):
		return fmt.Errorf("check default data: %w", err)
	}

	lgr.Info().Msg("Creating default data (departments, professors, students, courses)...")

	if err := store.WithCatalogTx(ctx, func(ctx context.Context, catalog storage.Catalog) error {
		return createDefaultData(ctx, catalog)
	}); err != nil {
		lgr.Error().Err(err).Msg("Default data rolled back")
		return err
	}

	lgr.Info().
		Int("departments", len(demoDepartments)).
		Int("students", len(demoStudents)).
		Int("courses", len(demoCourses)).
		Msg("Default data created")
	return nil
}

func createDefaultData(ctx context.Context, catalog storage.Catalog) error {
	deptIDs := make(map[string]int64, len(demoDepartments))
	profIDs := make(map[string]int64, len(demoProfessors))
	for _, name := range demoDepartments {
		dept := &models.Department{Name: name}
		if err := catalog.CreateDepartment(ctx, dept); err != nil {
			return fmt.Errorf("create department %s: %w", name, err)
		}
		deptIDs[name] = dept.ID

		prof := &models.Professor{Name: demoProfessors[name], DepartmentID: dept.ID}
		if err := catalog.CreateProfessor(ctx, prof); err != nil {
			return fmt.Errorf("create professor %s: %w", prof.Name, err)
		}
		profIDs[name] = prof.ID
	}

	for i, s := range demoStudents {
		deptID := deptIDs[demoDepartments[i%len(demoDepartments)]]
		student := &models.Student{Name: s.Name, Age: s.Age, DepartmentID: &deptID}
		if err := catalog.CreateStudent(ctx, student); err != nil {
			return fmt.Errorf("create student %s: %w", s.Name, err)
		}
	}

	for _, c := range demoCourses {
		deptID, profID := deptIDs[c.dept], profIDs[c.dept]
		schedule := c.schedule
		course := &models.Course{
			Name:         c.name,
			ProfessorID:  &profID,
			DepartmentID: &deptID,
			Units:        c.units,
			Schedule:     &schedule,
		}
		if err := catalog.CreateCourse(ctx, course); err != nil {
			return fmt.Errorf("create course %s: %w", c.name, err)
		}
	}
	return nil
}
