package common

import "fmt"

// StudentRecord is the unit held by the index and the backing store.
// Only EnrollmentNo takes part in ordering; everything else is payload.
type StudentRecord struct {
	StudentID    int64  `json:"student_id"`
	UserID       int64  `json:"user_id"`
	EnrollmentNo string `json:"enrollment_no"`
	RollNo       int    `json:"roll_no"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	DeptID       int64  `json:"dept_id"`
	DivisionID   int64  `json:"division_id"`
	SemesterID   int64  `json:"semester_id"`
	MentorID     int64  `json:"mentor_id,omitempty"`
}

// Validate is the default validity predicate: a record needs a non-empty
// enrollment number and a roll number.
func (r StudentRecord) Validate() bool {
	return r.EnrollmentNo != "" && r.RollNo > 0
}

// String 方便调试打印
func (r StudentRecord) String() string {
	return fmt.Sprintf("Student{Enrollment: %s, Roll: %d, Name: %q, Division: %d}", r.EnrollmentNo, r.RollNo, r.Name, r.DivisionID)
}
