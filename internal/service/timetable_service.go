package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

type periodLookup interface {
	FindByNumber(ctx context.Context, classInstanceID string, periodNumber int) (*models.Period, error)
}

type classLookup interface {
	FindClassInstance(ctx context.Context, id string) (*models.ClassInstance, error)
}

type timetableRepository interface {
	ListByDate(ctx context.Context, classInstanceID string, date wallclock.Date) ([]models.Assignment, error)
	Replace(ctx context.Context, entry *models.Assignment) error
	ReplaceDay(ctx context.Context, classInstanceID string, date wallclock.Date, entries []models.Assignment) (int64, error)
}

// TimetableService reads and writes period assignments.
type TimetableService struct {
	repo      timetableRepository
	periods   periodLookup
	classes   classLookup
	cache     *CacheService
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	refresher jobEnqueuer
}

// NewTimetableService constructs a TimetableService. cache may be nil.
func NewTimetableService(repo timetableRepository, periods periodLookup, classes classLookup, cache *CacheService, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, periods: periods, classes: classes, cache: cache, validator: validate, metrics: metrics, logger: logger}
}

// GetAssignments returns the assignments of a class instance on one date ordered by period.
func (s *TimetableService) GetAssignments(ctx context.Context, classInstanceID string, date wallclock.Date) ([]models.Assignment, error) {
	classInstanceID = strings.TrimSpace(classInstanceID)
	if classInstanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class instance id is required")
	}
	if date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	start := time.Now()
	entries, err := s.repo.ListByDate(ctx, classInstanceID, date)
	s.metrics.ObserveDBQuery("timetable_list_by_date", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load timetable")
	}
	return entries, nil
}

// Assign places a subject and teacher into one period of one date, replacing whatever
// occupied that slot. The period's times are copied onto the assignment.
func (s *TimetableService) Assign(ctx context.Context, classInstanceID string, date wallclock.Date, periodNumber int, req dto.AssignRequest, identity models.Identity) (*models.Assignment, error) {
	classInstanceID = strings.TrimSpace(classInstanceID)
	if classInstanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class instance id is required")
	}
	if date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	if periodNumber <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period number must be positive")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.validateIdentity(identity); err != nil {
		return nil, err
	}
	if err := s.authorizeClass(ctx, classInstanceID, identity); err != nil {
		return nil, err
	}

	period, err := s.periods.FindByNumber(ctx, classInstanceID, periodNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("period %d not found for class instance", periodNumber))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load period")
	}

	entry := &models.Assignment{
		ClassInstanceID: classInstanceID,
		ClassDate:       date,
		PeriodNumber:    period.PeriodNumber,
		SubjectID:       strings.TrimSpace(req.SubjectID),
		TeacherID:       strings.TrimSpace(req.TeacherID),
		SchoolCode:      identity.SchoolCode,
		StartTime:       period.StartTime,
		EndTime:         period.EndTime,
		CreatedBy:       identity.CreatedBy,
	}

	start := time.Now()
	err = s.repo.Replace(ctx, entry)
	s.metrics.ObserveDBQuery("timetable_replace", time.Since(start))
	s.metrics.RecordTimetableWrite("assign", err)
	if err != nil {
		return nil, writeFailure(err, "failed to assign period")
	}

	s.cache.Invalidate(ctx, MonthCachePattern(classInstanceID))
	s.scheduleMonthRefresh(classInstanceID, date)
	s.logger.Info("timetable assigned",
		zap.String("class_instance_id", classInstanceID),
		zap.String("class_date", date.String()),
		zap.Int("period_number", entry.PeriodNumber),
		zap.String("subject_id", entry.SubjectID),
		zap.String("teacher_id", entry.TeacherID),
		zap.String("created_by", identity.CreatedBy),
	)
	return entry, nil
}

// CopyDay overwrites the timetable of the target date with the source date's
// assignments. The target is left untouched when the source is empty.
func (s *TimetableService) CopyDay(ctx context.Context, classInstanceID string, req dto.CopyDayRequest, identity models.Identity) (*dto.CopyDayResult, error) {
	classInstanceID = strings.TrimSpace(classInstanceID)
	if classInstanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class instance id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid copy payload")
	}
	sourceDate, err := wallclock.ParseDate(req.SourceDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "source_date must be YYYY-MM-DD")
	}
	targetDate, err := wallclock.ParseDate(req.TargetDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "target_date must be YYYY-MM-DD")
	}
	if sourceDate.Equal(targetDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and target dates must differ")
	}
	if err := s.validateIdentity(identity); err != nil {
		return nil, err
	}
	if err := s.authorizeClass(ctx, classInstanceID, identity); err != nil {
		return nil, err
	}

	source, err := s.repo.ListByDate(ctx, classInstanceID, sourceDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load source timetable")
	}
	if len(source) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable found for that date")
	}

	entries := make([]models.Assignment, len(source))
	for i, row := range source {
		entries[i] = models.Assignment{
			ClassInstanceID: classInstanceID,
			ClassDate:       targetDate,
			PeriodNumber:    row.PeriodNumber,
			SubjectID:       row.SubjectID,
			TeacherID:       row.TeacherID,
			SchoolCode:      identity.SchoolCode,
			StartTime:       row.StartTime,
			EndTime:         row.EndTime,
			CreatedBy:       identity.CreatedBy,
		}
	}

	start := time.Now()
	removed, err := s.repo.ReplaceDay(ctx, classInstanceID, targetDate, entries)
	s.metrics.ObserveDBQuery("timetable_replace_day", time.Since(start))
	s.metrics.RecordTimetableWrite("copy_day", err)
	if err != nil {
		return nil, writeFailure(err, "failed to copy timetable day")
	}

	s.cache.Invalidate(ctx, MonthCachePattern(classInstanceID))
	s.scheduleMonthRefresh(classInstanceID, targetDate)
	s.logger.Info("timetable day copied",
		zap.String("class_instance_id", classInstanceID),
		zap.String("source_date", sourceDate.String()),
		zap.String("target_date", targetDate.String()),
		zap.Int("copied", len(entries)),
		zap.Int64("replaced", removed),
		zap.String("created_by", identity.CreatedBy),
	)
	return &dto.CopyDayResult{SourceDate: sourceDate, TargetDate: targetDate, Copied: len(entries), Replaced: removed}, nil
}

func (s *TimetableService) validateIdentity(identity models.Identity) error {
	if err := s.validator.Struct(identity); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "school code and issuer are required")
	}
	return nil
}

// authorizeClass rejects writes against a class instance owned by another school.
func (s *TimetableService) authorizeClass(ctx context.Context, classInstanceID string, identity models.Identity) error {
	instance, err := s.classes.FindClassInstance(ctx, classInstanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class instance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load class instance")
	}
	if instance.SchoolCode != identity.SchoolCode {
		return appErrors.Clone(appErrors.ErrForbidden, "class instance belongs to another school")
	}
	return nil
}

// writeFailure reports a lost unique-slot race as a conflict and anything else as a
// store failure.
func writeFailure(err error, message string) error {
	if errors.Is(err, appErrors.ErrDuplicate) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "slot was written concurrently, retry")
	}
	return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, message)
}

// MonthCacheKey is the Redis key of a cached month projection.
func MonthCacheKey(classInstanceID string, month wallclock.Month) string {
	return fmt.Sprintf("timetable:month:%s:%s", classInstanceID, month.String())
}

// MonthCachePattern matches every cached month projection of a class instance.
func MonthCachePattern(classInstanceID string) string {
	return fmt.Sprintf("timetable:month:%s:*", classInstanceID)
}
