package dto

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

// AddPeriodRequest appends a period to a class instance catalog.
type AddPeriodRequest struct {
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
}

// AssignRequest places a subject and teacher into one period of one date.
type AssignRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// CopyDayRequest overwrites the timetable of TargetDate with that of SourceDate.
type CopyDayRequest struct {
	SourceDate string `json:"source_date" validate:"required"`
	TargetDate string `json:"target_date" validate:"required"`
}

// CopyDayResult reports how many assignments were written to the target date.
type CopyDayResult struct {
	SourceDate wallclock.Date `json:"source_date"`
	TargetDate wallclock.Date `json:"target_date"`
	Copied     int            `json:"copied"`
	Replaced   int64          `json:"replaced"`
}

// DaySlot is one period row of the day grid. Assignment is nil for an empty period.
type DaySlot struct {
	Period      models.Period      `json:"period"`
	Assignment  *models.Assignment `json:"assignment"`
	SubjectName string             `json:"subject_name"`
	TeacherName string             `json:"teacher_name"`
}

// DayView is the printable grid of one class instance on one date.
type DayView struct {
	ClassInstanceID string         `json:"class_instance_id"`
	ClassLabel      string         `json:"class_label,omitempty"`
	Date            wallclock.Date `json:"date"`
	Slots           []DaySlot      `json:"slots"`
}

// MonthView maps each date that has assignments to its assignment count.
type MonthView struct {
	ClassInstanceID string         `json:"class_instance_id"`
	Month           string         `json:"month"`
	Days            map[string]int `json:"days"`
}

// ExportFile is a rendered day view ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
