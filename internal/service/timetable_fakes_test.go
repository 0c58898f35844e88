package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/wallclock"
)

// memoryStore backs the period and timetable interfaces with maps.
type memoryStore struct {
	mu         sync.Mutex
	periods    map[string][]models.Period
	timetable  []models.Assignment
	classes    map[string]models.ClassInstance
	subjects   map[string]models.Subject
	teachers   map[string]models.Teacher
	replaceErr error
	listErr    error
	writes     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		periods:  map[string][]models.Period{},
		classes:  map[string]models.ClassInstance{},
		subjects: map[string]models.Subject{},
		teachers: map[string]models.Teacher{},
	}
}

func (m *memoryStore) ListByClassInstance(ctx context.Context, classInstanceID string) ([]models.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := append([]models.Period{}, m.periods[classInstanceID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodNumber < out[j].PeriodNumber })
	return out, nil
}

func (m *memoryStore) CreateNext(ctx context.Context, period *models.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 1
	for _, existing := range m.periods[period.ClassInstanceID] {
		if existing.PeriodNumber >= next {
			next = existing.PeriodNumber + 1
		}
	}
	period.ID = uuid.NewString()
	period.PeriodNumber = next
	m.periods[period.ClassInstanceID] = append(m.periods[period.ClassInstanceID], *period)
	return nil
}

func (m *memoryStore) FindByNumber(ctx context.Context, classInstanceID string, periodNumber int) (*models.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, period := range m.periods[classInstanceID] {
		if period.PeriodNumber == periodNumber {
			p := period
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) ListByDate(ctx context.Context, classInstanceID string, date wallclock.Date) ([]models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Assignment, 0)
	for _, entry := range m.timetable {
		if entry.ClassInstanceID == classInstanceID && entry.ClassDate.Equal(date) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodNumber < out[j].PeriodNumber })
	return out, nil
}

func (m *memoryStore) CountByDateRange(ctx context.Context, classInstanceID string, from, to wallclock.Date) ([]models.DateCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[wallclock.Date]int{}
	for _, entry := range m.timetable {
		t := entry.ClassDate.Time()
		if entry.ClassInstanceID == classInstanceID && !t.Before(from.Time()) && !t.After(to.Time()) {
			totals[entry.ClassDate]++
		}
	}
	out := make([]models.DateCount, 0, len(totals))
	for date, total := range totals {
		out = append(out, models.DateCount{ClassDate: date, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassDate.Time().Before(out[j].ClassDate.Time()) })
	return out, nil
}

func (m *memoryStore) Replace(ctx context.Context, entry *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.writes++
	kept := m.timetable[:0]
	for _, existing := range m.timetable {
		if !sameSlot(existing, *entry) {
			kept = append(kept, existing)
		}
	}
	entry.ID = uuid.NewString()
	m.timetable = append(kept, *entry)
	return nil
}

func (m *memoryStore) ReplaceDay(ctx context.Context, classInstanceID string, date wallclock.Date, entries []models.Assignment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return 0, m.replaceErr
	}
	m.writes++
	var removed int64
	kept := m.timetable[:0]
	for _, existing := range m.timetable {
		if existing.ClassInstanceID == classInstanceID && existing.ClassDate.Equal(date) {
			removed++
			continue
		}
		kept = append(kept, existing)
	}
	m.timetable = kept
	for _, entry := range entries {
		entry.ID = uuid.NewString()
		m.timetable = append(m.timetable, entry)
	}
	return removed, nil
}

func (m *memoryStore) FindClassInstance(ctx context.Context, id string) (*models.ClassInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	instance, ok := m.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &instance, nil
}

func (m *memoryStore) ListSubjects(ctx context.Context, ids []string) ([]models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Subject, 0, len(ids))
	for _, id := range ids {
		if subject, ok := m.subjects[id]; ok {
			out = append(out, subject)
		}
	}
	return out, nil
}

func (m *memoryStore) ListTeachers(ctx context.Context, ids []string) ([]models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Teacher, 0, len(ids))
	for _, id := range ids {
		if teacher, ok := m.teachers[id]; ok {
			out = append(out, teacher)
		}
	}
	return out, nil
}

func sameSlot(a, b models.Assignment) bool {
	return a.ClassInstanceID == b.ClassInstanceID && a.ClassDate.Equal(b.ClassDate) && a.PeriodNumber == b.PeriodNumber
}

func (m *memoryStore) rowsFor(classInstanceID string, date wallclock.Date) []models.Assignment {
	rows, _ := m.ListByDate(context.Background(), classInstanceID, date)
	return rows
}

// memoryCache is a CacheRepository storing JSON like Redis does, matching patterns with path.Match.
type memoryCache struct {
	mu       sync.Mutex
	values   map[string][]byte
	deleted  []string
	getCalls int
	failGet  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.failGet != nil {
		return c.failGet
	}
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	for key := range c.values {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.values, key)
		}
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}
