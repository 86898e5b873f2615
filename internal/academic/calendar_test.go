package academic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestFirstMonday(t *testing.T) {
	tests := map[int]time.Time{
		2023: time.Date(2023, time.September, 4, 0, 0, 0, 0, time.UTC),
		2024: time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC),
		2025: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		2026: time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC),
	}
	for year, want := range tests {
		assert.Equal(t, want, FirstMonday(year), "year %d", year)
		assert.Equal(t, time.Monday, FirstMonday(year).Weekday())
	}
}

func TestWeekNumberAndType(t *testing.T) {
	tests := []struct {
		day    time.Time
		number int
		parity Parity
	}{
		{date(2025, time.September, 1), 1, Odd},
		{date(2025, time.September, 7), 1, Odd},
		{date(2025, time.September, 8), 2, Even},
		{date(2025, time.December, 31), 18, Even},
		{date(2026, time.January, 12), 20, Even},
		// август ещё относится к прошлому учебному году
		{date(2026, time.August, 31), 53, Odd},
		// до первого понедельника нового года
		{date(2026, time.September, 1), 0, Even},
		{date(2026, time.September, 7), 1, Odd},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.number, WeekNumber(tt.day), tt.day.Format("2006-01-02"))
		assert.Equal(t, tt.parity, WeekType(tt.day), tt.day.Format("2006-01-02"))
	}
}

func TestWeekTypeIsStable(t *testing.T) {
	d := date(2025, time.October, 15)
	first := WeekType(d)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, WeekType(d))
	}
}

func TestMonday(t *testing.T) {
	want := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	for d := 12; d <= 18; d++ {
		assert.Equal(t, want, Monday(date(2026, time.October, d)))
	}

	msk := time.FixedZone("MSK", 3*60*60)
	late := time.Date(2026, time.October, 18, 23, 30, 0, 0, msk)
	assert.Equal(t, want, Monday(late))
}

func TestCalendarWeekIDWithFixedAnchor(t *testing.T) {
	cal := NewCalendar(100, 2025)

	assert.Equal(t, 100, cal.WeekID(date(2025, time.September, 3)))
	assert.Equal(t, 101, cal.WeekID(date(2025, time.September, 10)))
	assert.Equal(t, 99, cal.WeekID(date(2025, time.August, 27)))
	assert.Equal(t, 152, cal.WeekID(date(2026, time.August, 31)))
}

func TestCalendarWeekIDFollowsCurrentYear(t *testing.T) {
	cal := NewCalendar(100, 0)
	cal.Now = func() time.Time { return date(2026, time.October, 18) }

	assert.Equal(t, 100, cal.WeekID(date(2026, time.September, 9)))
	assert.Equal(t, 105, cal.WeekID(date(2026, time.October, 18)))
}
