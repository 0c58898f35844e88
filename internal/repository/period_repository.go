package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// PeriodRepository persists the period catalog of each class instance.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository creates a new period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListByClassInstance returns the periods of a class instance ordered by number.
func (r *PeriodRepository) ListByClassInstance(ctx context.Context, classInstanceID string) ([]models.Period, error) {
	const query = `SELECT id, class_instance_id, period_number, start_time, end_time FROM periods WHERE class_instance_id = $1 ORDER BY period_number ASC`
	periods := make([]models.Period, 0)
	if err := r.db.SelectContext(ctx, &periods, query, classInstanceID); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByNumber loads one period. It returns sql.ErrNoRows when absent.
func (r *PeriodRepository) FindByNumber(ctx context.Context, classInstanceID string, periodNumber int) (*models.Period, error) {
	const query = `SELECT id, class_instance_id, period_number, start_time, end_time FROM periods WHERE class_instance_id = $1 AND period_number = $2 LIMIT 1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, classInstanceID, periodNumber); err != nil {
		return nil, err
	}
	return &period, nil
}

// CreateNext appends a period numbered one past the highest existing number (1 for an
// empty catalog). Numbering is serialised per class instance by an advisory lock.
func (r *PeriodRepository) CreateNext(ctx context.Context, period *models.Period) (err error) {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create period: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('periods:' || $1))`, period.ClassInstanceID); err != nil {
		return fmt.Errorf("lock period catalog: %w", err)
	}

	const nextNumberQuery = `SELECT COALESCE(MAX(period_number), 0) + 1 FROM periods WHERE class_instance_id = $1`
	if err = tx.GetContext(ctx, &period.PeriodNumber, nextNumberQuery, period.ClassInstanceID); err != nil {
		return fmt.Errorf("compute next period number: %w", err)
	}

	const insertQuery = `INSERT INTO periods (id, class_instance_id, period_number, start_time, end_time) VALUES (:id, :class_instance_id, :period_number, :start_time, :end_time)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertQuery, period); err != nil {
		return writeError("insert period", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create period: %w", err)
	}
	return nil
}
