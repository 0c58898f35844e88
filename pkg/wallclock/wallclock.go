// Package wallclock holds the wire representations used by the timetable tables:
// zone-less times of day ("HH:mm:ss") and calendar dates ("YYYY-MM-DD").
package wallclock

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ClockLayout is the stored time-of-day format.
	ClockLayout = "15:04:05"
	// DateLayout is the stored calendar date format.
	DateLayout = "2006-01-02"
	// MonthLayout identifies a calendar month.
	MonthLayout = "2006-01"

	shortClockLayout = "15:04"
	secondsPerDay    = 24 * 60 * 60
)

var (
	ErrInvalidClock    = errors.New("invalid time of day")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrCrossesMidnight = errors.New("end time crosses midnight")
)

// SuggestedDurations lists the period lengths offered by the admin console.
// Any positive duration is accepted by DeriveEndTime.
var SuggestedDurations = []int{30, 35, 40, 45, 50, 60}

// Clock is a time of day with second precision, counted from midnight.
type Clock int

// NewClock builds a Clock from its components.
func NewClock(hour, minute, second int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d:%02d", ErrInvalidClock, hour, minute, second)
	}
	return Clock(hour*3600 + minute*60 + second), nil
}

// ParseClock accepts "HH:mm:ss" or "HH:mm". Fractional seconds are dropped.
func ParseClock(raw string) (Clock, error) {
	value := strings.TrimSpace(raw)
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		value = value[:idx]
	}
	layout := ClockLayout
	if strings.Count(value, ":") == 1 {
		layout = shortClockLayout
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return NewClock(t.Hour(), t.Minute(), t.Second())
}

// MustParseClock is ParseClock for constants; it panics on bad input.
func MustParseClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 3600 }
func (c Clock) Minute() int { return int(c) % 3600 / 60 }
func (c Clock) Second() int { return int(c) % 60 }

// String renders the clock in ClockLayout.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

// Valid reports whether c lies inside a single day.
func (c Clock) Valid() bool {
	return c >= 0 && c < secondsPerDay
}

// DeriveEndTime returns start + durationMinutes.
func DeriveEndTime(start Clock, durationMinutes int) (Clock, error) {
	if durationMinutes <= 0 {
		return 0, ErrInvalidDuration
	}
	if !start.Valid() {
		return 0, ErrInvalidClock
	}
	// Compare in minutes first so huge durations cannot overflow back into the day.
	if durationMinutes > (secondsPerDay-1-int(start))/60 {
		return 0, ErrCrossesMidnight
	}
	return start + Clock(durationMinutes*60), nil
}

// MarshalJSON implements json.Marshaler.
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidClock, string(data))
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan implements sql.Scanner for postgres "time" columns.
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return c.scanText(v)
	case []byte:
		return c.scanText(string(v))
	case time.Time:
		parsed, err := NewClock(v.Hour(), v.Minute(), v.Second())
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidClock, src)
	}
}

func (c *Clock) scanText(raw string) error {
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer.
func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a DateLayout string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return DateOf(t), nil
}

// MustParseDate panics on bad input.
func MustParseDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the date in DateLayout.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Equal compares two dates.
func (d Date) Equal(other Date) bool {
	return d == other
}

// MonthOf returns the month containing d.
func (d Date) MonthOf() Month {
	return Month{Year: d.Year, Month: d.Month}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for postgres "date" columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidDate, src)
	}
}

func (d *Date) scanText(raw string) error {
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a MonthLayout string.
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(raw))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, raw)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the month in MonthLayout.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Bounds returns the first and last day of the month.
func (m Month) Bounds() (Date, Date) {
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return DateOf(first), DateOf(last)
}
