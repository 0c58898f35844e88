package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

type periodRepository interface {
	ListByClassInstance(ctx context.Context, classInstanceID string) ([]models.Period, error)
	CreateNext(ctx context.Context, period *models.Period) error
}

// PeriodService manages the period catalog of class instances.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewPeriodService constructs a PeriodService.
func NewPeriodService(repo periodRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// ListPeriods returns the periods of a class instance ordered by number.
func (s *PeriodService) ListPeriods(ctx context.Context, classInstanceID string) ([]models.Period, error) {
	classInstanceID = strings.TrimSpace(classInstanceID)
	if classInstanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class instance id is required")
	}
	start := time.Now()
	periods, err := s.repo.ListByClassInstance(ctx, classInstanceID)
	s.metrics.ObserveDBQuery("periods_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list periods")
	}
	return periods, nil
}

// AddPeriod appends a period whose end time is derived from the start time and duration.
func (s *PeriodService) AddPeriod(ctx context.Context, classInstanceID string, req dto.AddPeriodRequest) (*models.Period, error) {
	classInstanceID = strings.TrimSpace(classInstanceID)
	if classInstanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class instance id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}

	startTime, err := wallclock.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_time must be HH:mm or HH:mm:ss")
	}
	endTime, err := wallclock.DeriveEndTime(startTime, req.DurationMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period duration")
	}

	period := &models.Period{
		ClassInstanceID: classInstanceID,
		StartTime:       startTime,
		EndTime:         endTime,
	}
	begin := time.Now()
	err = s.repo.CreateNext(ctx, period)
	s.metrics.ObserveDBQuery("periods_create_next", time.Since(begin))
	s.metrics.RecordTimetableWrite("add_period", err)
	if err != nil {
		return nil, writeFailure(err, "failed to add period")
	}

	s.logger.Info("period added",
		zap.String("class_instance_id", classInstanceID),
		zap.Int("period_number", period.PeriodNumber),
		zap.String("start_time", period.StartTime.String()),
		zap.String("end_time", period.EndTime.String()),
	)
	return period, nil
}
