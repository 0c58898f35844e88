package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

// MonthRefreshQueue name used in logs.
const MonthRefreshQueue = "timetable-month-refresh"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (bool, error)
}

// MonthRefresh identifies a month projection to rebuild.
type MonthRefresh struct {
	ClassInstanceID string
	Month           wallclock.Month
}

// RefreshMonth recomputes a month projection and stores it in cache.
func (s *TimetableViewService) RefreshMonth(ctx context.Context, classInstanceID string, month wallclock.Month) error {
	if !s.cache.Enabled() {
		return nil
	}
	from, to := month.Bounds()
	counts, err := s.timetable.CountByDateRange(ctx, classInstanceID, from, to)
	if err != nil {
		return fmt.Errorf("refresh month %s of %s: %w", month.String(), classInstanceID, err)
	}
	s.cache.Set(ctx, MonthCacheKey(classInstanceID, month), buildMonthView(classInstanceID, month, counts), s.config.MonthCacheTTL)
	return nil
}

// MonthRefreshHandler adapts RefreshMonth to the job queue.
func (s *TimetableViewService) MonthRefreshHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		refresh, ok := job.Payload.(MonthRefresh)
		if !ok {
			s.logger.Error("unexpected month refresh payload", zap.String("key", job.Key))
			return nil
		}
		return s.RefreshMonth(ctx, refresh.ClassInstanceID, refresh.Month)
	}
}

// WithMonthRefresh makes writes schedule a rebuild of the affected month
// projection after invalidating it.
func (s *TimetableService) WithMonthRefresh(queue jobEnqueuer) *TimetableService {
	s.refresher = queue
	return s
}

func (s *TimetableService) scheduleMonthRefresh(classInstanceID string, date wallclock.Date) {
	if s.refresher == nil {
		return
	}
	month := date.MonthOf()
	key := MonthCacheKey(classInstanceID, month)
	if _, err := s.refresher.Enqueue(jobs.Job{Key: key, Payload: MonthRefresh{ClassInstanceID: classInstanceID, Month: month}}); err != nil {
		s.logger.Warn("month refresh not scheduled", zap.String("key", key), zap.Error(err))
	}
}
