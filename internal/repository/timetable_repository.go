package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

const timetableColumns = `id, class_instance_id, class_date, period_number, subject_id, admin_id, school_code, start_time, end_time, created_by`

const insertTimetableQuery = `INSERT INTO timetable (` + timetableColumns + `)
VALUES (:id, :class_instance_id, :class_date, :period_number, :subject_id, :admin_id, :school_code, :start_time, :end_time, :created_by)`

// TimetableRepository persists period assignments in the timetable table.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByDate returns the assignments of one class instance on one date ordered by period.
func (r *TimetableRepository) ListByDate(ctx context.Context, classInstanceID string, date wallclock.Date) ([]models.Assignment, error) {
	const query = `SELECT ` + timetableColumns + ` FROM timetable WHERE class_instance_id = $1 AND class_date = $2 ORDER BY period_number ASC`
	entries := make([]models.Assignment, 0)
	if err := r.db.SelectContext(ctx, &entries, query, classInstanceID, date); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// CountByDateRange returns per-date assignment counts inside [from, to]. Dates
// without assignments are not returned.
func (r *TimetableRepository) CountByDateRange(ctx context.Context, classInstanceID string, from, to wallclock.Date) ([]models.DateCount, error) {
	const query = `SELECT class_date, COUNT(*) AS total FROM timetable WHERE class_instance_id = $1 AND class_date BETWEEN $2 AND $3 GROUP BY class_date ORDER BY class_date ASC`
	counts := make([]models.DateCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query, classInstanceID, from, to); err != nil {
		return nil, fmt.Errorf("count timetable entries: %w", err)
	}
	return counts, nil
}

// Replace removes whatever occupies the entry's (class instance, date, period) slot and
// inserts the entry, in one transaction.
func (r *TimetableRepository) Replace(ctx context.Context, entry *models.Assignment) (err error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace timetable entry: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockTimetableDay(ctx, tx, entry.ClassInstanceID, entry.ClassDate); err != nil {
		return err
	}

	const deleteQuery = `DELETE FROM timetable WHERE class_instance_id = $1 AND class_date = $2 AND period_number = $3`
	if _, err = tx.ExecContext(ctx, deleteQuery, entry.ClassInstanceID, entry.ClassDate, entry.PeriodNumber); err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}

	if _, err = sqlx.NamedExecContext(ctx, tx, insertTimetableQuery, entry); err != nil {
		return writeError("insert timetable entry", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace timetable entry: %w", err)
	}
	return nil
}

// ReplaceDay deletes every assignment of the class instance on date and inserts
// entries in their place, in one transaction. It returns the number of rows removed.
func (r *TimetableRepository) ReplaceDay(ctx context.Context, classInstanceID string, date wallclock.Date, entries []models.Assignment) (removed int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace timetable day: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockTimetableDay(ctx, tx, classInstanceID, date); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM timetable WHERE class_instance_id = $1 AND class_date = $2`, classInstanceID, date)
	if err != nil {
		return 0, fmt.Errorf("delete timetable day: %w", err)
	}
	if removed, err = result.RowsAffected(); err != nil {
		return 0, fmt.Errorf("timetable day rows affected: %w", err)
	}

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, insertTimetableQuery, entry); err != nil {
			return 0, writeError(fmt.Sprintf("insert timetable entry for period %d", entry.PeriodNumber), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace timetable day: %w", err)
	}
	return removed, nil
}

func lockTimetableDay(ctx context.Context, tx *sqlx.Tx, classInstanceID string, date wallclock.Date) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext('timetable:' || $1 || ':' || $2))`
	if _, err := tx.ExecContext(ctx, query, classInstanceID, date.String()); err != nil {
		return fmt.Errorf("lock timetable day: %w", err)
	}
	return nil
}
