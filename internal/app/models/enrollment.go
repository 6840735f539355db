package models

// Enrollment links a student to a course. The (StudentID, CourseCode) pair is unique.
type Enrollment struct {
	Number     int64 `json:"enrollmentNo" db:"enrollment_no"`
	StudentID  int64 `json:"studentId" db:"student_id"`
	CourseCode int64 `json:"courseCode" db:"course_code"`
	// Units is joined from courses when listing a student's enrollments
	Units int `json:"units"`
}
