package models

// DefaultCourseUnits is the unit count a course gets when none is given.
const DefaultCourseUnits = 3

// Course represents a course offered by a department.
type Course struct {
	Code         int64   `json:"code" db:"course_code"`
	Name         string  `json:"name" db:"name"`
	ProfessorID  *int64  `json:"professorId,omitempty" db:"prof_id"`  // Nullable
	DepartmentID *int64  `json:"departmentId,omitempty" db:"dept_id"` // Nullable
	Units        int     `json:"units" db:"units"`
	Schedule     *string `json:"schedule,omitempty" db:"schedule"` // Nullable
}
