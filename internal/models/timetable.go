package models

import "github.com/noah-isme/sma-timetable-api/pkg/wallclock"

// Assignment binds a subject and teacher to one class instance, date and period.
// Rows live in the "timetable" table; the teacher is stored in admin_id.
type Assignment struct {
	ID              string          `db:"id" json:"id"`
	ClassInstanceID string          `db:"class_instance_id" json:"class_instance_id"`
	ClassDate       wallclock.Date  `db:"class_date" json:"class_date"`
	PeriodNumber    int             `db:"period_number" json:"period_number"`
	SubjectID       string          `db:"subject_id" json:"subject_id"`
	TeacherID       string          `db:"admin_id" json:"teacher_id"`
	SchoolCode      string          `db:"school_code" json:"school_code"`
	StartTime       wallclock.Clock `db:"start_time" json:"start_time"`
	EndTime         wallclock.Clock `db:"end_time" json:"end_time"`
	CreatedBy       string          `db:"created_by" json:"created_by"`
}

// DateCount is the number of assignments on a single date.
type DateCount struct {
	ClassDate wallclock.Date `db:"class_date"`
	Total     int            `db:"total"`
}
