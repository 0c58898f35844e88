package models

import "github.com/noah-isme/sma-timetable-api/pkg/wallclock"

// Period is a numbered timeslot of a class instance, reused across dates.
type Period struct {
	ID              string          `db:"id" json:"id"`
	ClassInstanceID string          `db:"class_instance_id" json:"class_instance_id"`
	PeriodNumber    int             `db:"period_number" json:"period_number"`
	StartTime       wallclock.Clock `db:"start_time" json:"start_time"`
	EndTime         wallclock.Clock `db:"end_time" json:"end_time"`
}
