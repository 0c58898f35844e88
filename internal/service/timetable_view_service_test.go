package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

func newViewFixture(t *testing.T) (*TimetableViewService, *TimetableService, *memoryStore, *memoryCache) {
	t.Helper()
	store := newMemoryStore()
	seedPeriods(t, store, "ci-1", 3)
	store.classes["ci-1"] = models.ClassInstance{ID: "ci-1", Grade: "10", Section: "A", SchoolCode: "SCH01"}
	store.subjects["math"] = models.Subject{ID: "math", Name: "Mathematics"}
	store.teachers["t-1"] = models.Teacher{ID: "t-1", FullName: "Siti Rahma", Role: models.RoleTeacher}

	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, NewMetricsService(), 0, nil, true)
	writes := NewTimetableService(store, store, store, cache, nil, nil, nil)
	views := NewTimetableViewService(store, store, store, cache, TimetableViewConfig{}, nil)
	return views, writes, store, cacheRepo
}

func TestProjectDayFillsEveryPeriod(t *testing.T) {
	views, writes, _, _ := newViewFixture(t)
	ctx := context.Background()
	date := wallclock.MustParseDate("2025-01-06")

	_, err := writes.Assign(ctx, "ci-1", date, 2, dto.AssignRequest{SubjectID: "math", TeacherID: "t-1"}, testIdentity)
	require.NoError(t, err)
	_, err = writes.Assign(ctx, "ci-1", date, 3, dto.AssignRequest{SubjectID: "unknown", TeacherID: "t-9"}, testIdentity)
	require.NoError(t, err)

	view, err := views.ProjectDay(ctx, "ci-1", date)
	require.NoError(t, err)
	assert.Equal(t, "10-A", view.ClassLabel)
	require.Len(t, view.Slots, 3)

	assert.Nil(t, view.Slots[0].Assignment)
	assert.Empty(t, view.Slots[0].SubjectName)

	require.NotNil(t, view.Slots[1].Assignment)
	assert.Equal(t, "Mathematics", view.Slots[1].SubjectName)
	assert.Equal(t, "Siti Rahma", view.Slots[1].TeacherName)

	require.NotNil(t, view.Slots[2].Assignment)
	assert.Empty(t, view.Slots[2].SubjectName)
	assert.Empty(t, view.Slots[2].TeacherName)
}

func TestProjectDayWithoutClassInstance(t *testing.T) {
	views, _, _, _ := newViewFixture(t)

	view, err := views.ProjectDay(context.Background(), "ci-unknown", wallclock.MustParseDate("2025-01-06"))
	require.NoError(t, err)
	assert.Empty(t, view.ClassLabel)
	assert.Empty(t, view.Slots)
}

func TestProjectDayStoreFailure(t *testing.T) {
	views, _, store, _ := newViewFixture(t)
	store.listErr = errors.New("timeout")

	_, err := views.ProjectDay(context.Background(), "ci-1", wallclock.MustParseDate("2025-01-06"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStore))
}

func TestProjectMonthOmitsEmptyDates(t *testing.T) {
	views, writes, _, _ := newViewFixture(t)
	ctx := context.Background()

	assign := func(date string, period int) {
		_, err := writes.Assign(ctx, "ci-1", wallclock.MustParseDate(date), period, dto.AssignRequest{SubjectID: "math", TeacherID: "t-1"}, testIdentity)
		require.NoError(t, err)
	}
	assign("2025-01-05", 1)
	assign("2025-01-05", 2)
	assign("2025-01-20", 1)
	assign("2025-02-01", 1)

	view, hit, err := views.ProjectMonth(ctx, "ci-1", "2025-01")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, map[string]int{"2025-01-05": 2, "2025-01-20": 1}, view.Days)
	assert.Zero(t, view.Days["2025-01-06"])
}

func TestProjectMonthCachesUntilWrite(t *testing.T) {
	views, writes, _, cacheRepo := newViewFixture(t)
	ctx := context.Background()

	_, err := writes.Assign(ctx, "ci-1", wallclock.MustParseDate("2025-01-05"), 1, dto.AssignRequest{SubjectID: "math", TeacherID: "t-1"}, testIdentity)
	require.NoError(t, err)

	first, hit, err := views.ProjectMonth(ctx, "ci-1", "2025-01")
	require.NoError(t, err)
	assert.False(t, hit)

	cached, hit, err := views.ProjectMonth(ctx, "ci-1", "2025-01")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Days, cached.Days)

	_, err = writes.Assign(ctx, "ci-1", wallclock.MustParseDate("2025-01-06"), 1, dto.AssignRequest{SubjectID: "math", TeacherID: "t-1"}, testIdentity)
	require.NoError(t, err)
	assert.False(t, cacheRepo.has(MonthCacheKey("ci-1", wallclock.Month{Year: 2025, Month: 1})))

	fresh, hit, err := views.ProjectMonth(ctx, "ci-1", "2025-01")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, map[string]int{"2025-01-05": 1, "2025-01-06": 1}, fresh.Days)
}

func TestProjectMonthDegradesOnCacheFailure(t *testing.T) {
	views, _, _, cacheRepo := newViewFixture(t)
	cacheRepo.failGet = errors.New("redis down")

	view, hit, err := views.ProjectMonth(context.Background(), "ci-1", "2025-01")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, view.Days)
}

func TestProjectMonthRejectsBadMonth(t *testing.T) {
	views, _, _, _ := newViewFixture(t)

	_, _, err := views.ProjectMonth(context.Background(), "ci-1", "2025-13")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestExportDay(t *testing.T) {
	views, writes, _, _ := newViewFixture(t)
	ctx := context.Background()
	date := wallclock.MustParseDate("2025-01-06")
	_, err := writes.Assign(ctx, "ci-1", date, 1, dto.AssignRequest{SubjectID: "math", TeacherID: "t-1"}, testIdentity)
	require.NoError(t, err)

	csvFile, err := views.ExportDay(ctx, "ci-1", date, "csv")
	require.NoError(t, err)
	assert.Equal(t, "timetable-10-A-2025-01-06.csv", csvFile.Filename)
	assert.Equal(t, "text/csv", csvFile.ContentType)
	lines := strings.Split(strings.TrimSpace(string(csvFile.Body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Period,Start,End,Subject,Teacher", lines[0])
	assert.Equal(t, "1,07:00:00,07:45:00,Mathematics,Siti Rahma", lines[1])
	assert.Equal(t, "2,07:45:00,08:30:00,,", lines[2])

	pdfFile, err := views.ExportDay(ctx, "ci-1", date, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfFile.ContentType)
	assert.True(t, bytes.HasPrefix(pdfFile.Body, []byte("%PDF")))

	_, err = views.ExportDay(ctx, "ci-1", date, "xlsx")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
