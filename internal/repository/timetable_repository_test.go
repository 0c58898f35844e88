package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

var timetableRowColumns = []string{"id", "class_instance_id", "class_date", "period_number", "subject_id", "admin_id", "school_code", "start_time", "end_time", "created_by"}

func sampleEntry(period int) models.Assignment {
	return models.Assignment{
		ClassInstanceID: "ci-1",
		ClassDate:       wallclock.MustParseDate("2025-01-06"),
		PeriodNumber:    period,
		SubjectID:       "sub-1",
		TeacherID:       "teacher-1",
		SchoolCode:      "SCH01",
		StartTime:       wallclock.MustParseClock("08:00"),
		EndTime:         wallclock.MustParseClock("08:45"),
		CreatedBy:       "admin-1",
	}
}

func TestTimetableRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows(timetableRowColumns).
		AddRow("tt-1", "ci-1", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), 1, "sub-1", "teacher-1", "SCH01", "08:00:00", "08:45:00", "admin-1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable WHERE class_instance_id = $1 AND class_date = $2 ORDER BY period_number ASC")).
		WithArgs("ci-1", "2025-01-06").
		WillReturnRows(rows)

	entries, err := repo.ListByDate(context.Background(), "ci-1", wallclock.MustParseDate("2025-01-06"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "teacher-1", entries[0].TeacherID)
	assert.Equal(t, "2025-01-06", entries[0].ClassDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCountByDateRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"class_date", "total"}).
		AddRow(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), 2).
		AddRow(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_date, COUNT(*) AS total FROM timetable WHERE class_instance_id = $1 AND class_date BETWEEN $2 AND $3 GROUP BY class_date")).
		WithArgs("ci-1", "2025-01-01", "2025-01-31").
		WillReturnRows(rows)

	counts, err := repo.CountByDateRange(context.Background(), "ci-1", wallclock.MustParseDate("2025-01-01"), wallclock.MustParseDate("2025-01-31"))
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "2025-01-20", counts[1].ClassDate.String())
	assert.Equal(t, 1, counts[1].Total)
}

func TestTimetableRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext('timetable:' || $1 || ':' || $2))")).
		WithArgs("ci-1", "2025-01-06").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable WHERE class_instance_id = $1 AND class_date = $2 AND period_number = $3")).
		WithArgs("ci-1", "2025-01-06", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable")).
		WithArgs(sqlmock.AnyArg(), "ci-1", "2025-01-06", 2, "sub-1", "teacher-1", "SCH01", "08:00:00", "08:45:00", "admin-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := sampleEntry(2)
	require.NoError(t, repo.Replace(context.Background(), &entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable")).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	entry := sampleEntry(1)
	err := repo.Replace(context.Background(), &entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert timetable entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WithArgs("ci-1", "2025-01-06").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable WHERE class_instance_id = $1 AND class_date = $2")).
		WithArgs("ci-1", "2025-01-06").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable")).
		WithArgs(sqlmock.AnyArg(), "ci-1", "2025-01-06", 1, "sub-1", "teacher-1", "SCH01", "08:00:00", "08:45:00", "admin-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable")).
		WithArgs(sqlmock.AnyArg(), "ci-1", "2025-01-06", 2, "sub-1", "teacher-1", "SCH01", "08:00:00", "08:45:00", "admin-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	removed, err := repo.ReplaceDay(context.Background(), "ci-1", wallclock.MustParseDate("2025-01-06"), []models.Assignment{sampleEntry(1), sampleEntry(2)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceDayDeleteFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable")).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	_, err := repo.ReplaceDay(context.Background(), "ci-1", wallclock.MustParseDate("2025-01-06"), []models.Assignment{sampleEntry(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete timetable day")
	assert.NoError(t, mock.ExpectationsWereMet())
}

const timetableDayLock = "SELECT pg_advisory_xact_lock(hashtext('timetable:' || $1 || ':' || $2))"

func TestTimetableWritersShareDayLockBeforeDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(timetableDayLock)).
		WithArgs("ci-1", "2025-01-06").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(timetableDayLock)).
		WithArgs("ci-1", "2025-01-06").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := sampleEntry(3)
	require.NoError(t, repo.Replace(ctx, &entry))
	_, err := repo.ReplaceDay(ctx, "ci-1", wallclock.MustParseDate("2025-01-06"), []models.Assignment{sampleEntry(3)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "timetable_class_date_period_key"})
	mock.ExpectRollback()

	entry := sampleEntry(1)
	err := repo.Replace(context.Background(), &entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrDuplicate)
	assert.Contains(t, err.Error(), "insert timetable entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}
