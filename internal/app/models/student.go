package models

// Student defines the student model based on the 'students' table
type Student struct {
	ID           int64  `json:"id" db:"student_id" example:"1"`
	Name         string `json:"name" db:"name" example:"Ada Lovelace"`
	Age          int    `json:"age" db:"age" example:"20"`
	DepartmentID *int64 `json:"departmentId,omitempty" db:"dept_id"` // Nullable
}
