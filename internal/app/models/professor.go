package models

// Professor represents a professor belonging to a department
type Professor struct {
	ID           int64  `json:"id" db:"prof_id"`
	Name         string `json:"name" db:"name"`
	DepartmentID int64  `json:"departmentId" db:"dept_id"`
}
