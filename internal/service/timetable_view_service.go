package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

type viewPeriodReader interface {
	ListByClassInstance(ctx context.Context, classInstanceID string) ([]models.Period, error)
}

type viewTimetableReader interface {
	ListByDate(ctx context.Context, classInstanceID string, date wallclock.Date) ([]models.Assignment, error)
	CountByDateRange(ctx context.Context, classInstanceID string, from, to wallclock.Date) ([]models.DateCount, error)
}

type referenceReader interface {
	FindClassInstance(ctx context.Context, id string) (*models.ClassInstance, error)
	ListSubjects(ctx context.Context, ids []string) ([]models.Subject, error)
	ListTeachers(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type documentRenderer interface {
	ContentType() string
	Extension() string
	Render(doc export.Document) ([]byte, error)
}

// Export formats for ExportDay.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var dayExportHeaders = []string{"Period", "Start", "End", "Subject", "Teacher"}

// TimetableViewConfig tunes projections.
type TimetableViewConfig struct {
	MonthCacheTTL time.Duration
	ExportTitle   string
}

// TimetableViewService builds the day grid and month calendar read models.
type TimetableViewService struct {
	periods   viewPeriodReader
	timetable viewTimetableReader
	refs      referenceReader
	cache     *CacheService
	renderers map[string]documentRenderer
	config    TimetableViewConfig
	logger    *zap.Logger
}

// NewTimetableViewService constructs a TimetableViewService. cache may be nil.
func NewTimetableViewService(periods viewPeriodReader, timetable viewTimetableReader, refs referenceReader, cache *CacheService, config TimetableViewConfig, logger *zap.Logger) *TimetableViewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ExportTitle == "" {
		config.ExportTitle = "Class Timetable"
	}
	return &TimetableViewService{
		periods:   periods,
		timetable: timetable,
		refs:      refs,
		cache:     cache,
		renderers: map[string]documentRenderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		config: config,
		logger: logger,
	}
}

// ProjectDay returns one slot per period of the class instance, each holding the
// assignment of that period on date when there is one.
func (s *TimetableViewService) ProjectDay(ctx context.Context, classInstanceID string, date wallclock.Date) (*dto.DayView, error) {
	classInstanceID = strings.TrimSpace(classInstanceID)
	if classInstanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class instance id is required")
	}
	if date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}

	periods, err := s.periods.ListByClassInstance(ctx, classInstanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list periods")
	}
	entries, err := s.timetable.ListByDate(ctx, classInstanceID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load timetable")
	}

	view := &dto.DayView{ClassInstanceID: classInstanceID, Date: date, Slots: make([]dto.DaySlot, 0, len(periods))}
	instance, err := s.refs.FindClassInstance(ctx, classInstanceID)
	switch {
	case err == nil:
		view.ClassLabel = instance.Label()
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load class instance")
	}

	byPeriod := make(map[int]models.Assignment, len(entries))
	subjectIDs := make([]string, 0, len(entries))
	teacherIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		byPeriod[entry.PeriodNumber] = entry
		subjectIDs = appendUnique(subjectIDs, entry.SubjectID)
		teacherIDs = appendUnique(teacherIDs, entry.TeacherID)
	}

	subjectNames, teacherNames, err := s.lookupNames(ctx, subjectIDs, teacherIDs)
	if err != nil {
		return nil, err
	}

	for _, period := range periods {
		slot := dto.DaySlot{Period: period}
		if entry, ok := byPeriod[period.PeriodNumber]; ok {
			assigned := entry
			slot.Assignment = &assigned
			slot.SubjectName = subjectNames[entry.SubjectID]
			slot.TeacherName = teacherNames[entry.TeacherID]
		}
		view.Slots = append(view.Slots, slot)
	}
	return view, nil
}

// ProjectMonth returns the assignment count of each date of month that has any.
// The second return value reports whether the result came from cache.
func (s *TimetableViewService) ProjectMonth(ctx context.Context, classInstanceID, month string) (*dto.MonthView, bool, error) {
	classInstanceID = strings.TrimSpace(classInstanceID)
	if classInstanceID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "class instance id is required")
	}
	parsed, err := wallclock.ParseMonth(month)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month must be YYYY-MM")
	}

	key := MonthCacheKey(classInstanceID, parsed)
	var cached dto.MonthView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	from, to := parsed.Bounds()
	counts, err := s.timetable.CountByDateRange(ctx, classInstanceID, from, to)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count timetable entries")
	}

	view := buildMonthView(classInstanceID, parsed, counts)
	s.cache.Set(ctx, key, view, s.config.MonthCacheTTL)
	return view, false, nil
}

// ExportDay renders the day projection as CSV or PDF.
func (s *TimetableViewService) ExportDay(ctx context.Context, classInstanceID string, date wallclock.Date, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	view, err := s.ProjectDay(ctx, classInstanceID, date)
	if err != nil {
		return nil, err
	}

	label := view.ClassLabel
	if label == "" {
		label = view.ClassInstanceID
	}
	rows := make([]map[string]string, 0, len(view.Slots))
	for _, slot := range view.Slots {
		rows = append(rows, map[string]string{
			"Period":  strconv.Itoa(slot.Period.PeriodNumber),
			"Start":   slot.Period.StartTime.String(),
			"End":     slot.Period.EndTime.String(),
			"Subject": slot.SubjectName,
			"Teacher": slot.TeacherName,
		})
	}
	doc := export.Document{
		Title:    s.config.ExportTitle,
		Subtitle: fmt.Sprintf("%s, %s", label, view.Date.String()),
		Data:     export.Dataset{Headers: dayExportHeaders, Rows: rows},
	}

	body, err := renderer.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("timetable-%s-%s.%s", label, view.Date.String(), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *TimetableViewService) lookupNames(ctx context.Context, subjectIDs, teacherIDs []string) (map[string]string, map[string]string, error) {
	subjects, err := s.refs.ListSubjects(ctx, subjectIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load subjects")
	}
	teachers, err := s.refs.ListTeachers(ctx, teacherIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load teachers")
	}

	subjectNames := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		subjectNames[subject.ID] = subject.Name
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, teacher := range teachers {
		teacherNames[teacher.ID] = teacher.FullName
	}
	return subjectNames, teacherNames, nil
}

func buildMonthView(classInstanceID string, month wallclock.Month, counts []models.DateCount) *dto.MonthView {
	view := &dto.MonthView{ClassInstanceID: classInstanceID, Month: month.String(), Days: make(map[string]int, len(counts))}
	for _, count := range counts {
		if count.Total > 0 {
			view.Days[count.ClassDate.String()] = count.Total
		}
	}
	return view
}

func appendUnique(values []string, value string) []string {
	if value == "" {
		return values
	}
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
