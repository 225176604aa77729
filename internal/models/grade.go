package models

import "time"

// Grade is a professor-entered result for an allotted course.
type Grade struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	SemesterID  string    `db:"semester_id" json:"semester_id"`
	Grade       string    `db:"grade" json:"grade"`
	GradePoints float64   `db:"grade_points" json:"grade_points"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	CourseName  string    `db:"course_name" json:"course_name"`
}

// GradeCard aggregates a student's grades for a semester.
type GradeCard struct {
	StudentID  string  `json:"student_id"`
	SemesterID string  `json:"semester_id"`
	Grades     []Grade `json:"grades"`
	CGPA       float64 `json:"cgpa"`
}
