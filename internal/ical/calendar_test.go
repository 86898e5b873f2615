package ical

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/links"
	"github.com/Ultrahd-dev/timetable-engine/internal/schedule"
)

var msk = time.FixedZone("MSK", 3*60*60)

func testWeek() *schedule.WeekSchedule {
	week := schedule.EmptyWeek(academic.Odd)
	week.Days[0].Lessons = []schedule.Lesson{{
		ID:            "9001",
		Time:          "08:50",
		TimeEnd:       "10:25",
		Subject:       "Математический анализ",
		Type:          schedule.Lecture,
		Room:          "ауд. 101",
		Instructor:    "Иванов И.И.",
		Date:          "2025-09-01",
		Notes:         []string{"Онлайн"},
		ResourceLinks: []links.ResourceLink{{Label: "Курс", URL: "https://lms.example/c/1"}},
	}, {
		ID:         "0-10:35-Физика",
		Time:       "10:35",
		Subject:    "Физика",
		Type:       schedule.Lab,
		Room:       schedule.Placeholder,
		Instructor: schedule.Placeholder,
		Date:       "2025-09-01",
	}, {
		ID:      "broken",
		Time:    "обед",
		Subject: "Без времени",
		Date:    "2025-09-01",
	}}
	week.Days[2].SpecialDay = &schedule.SpecialDay{Type: schedule.Holiday, Name: "Праздничный день"}
	return &week
}

func serialize(t *testing.T, week *schedule.WeekSchedule) string {
	t.Helper()
	now = func() time.Time { return time.Date(2025, time.August, 30, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	monday := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, WeekCalendar(week, monday, "241", msk)))
	// строки длиннее 75 байт переносятся, для проверок склеиваем обратно
	return strings.ReplaceAll(buf.String(), "\r\n ", "")
}

func TestWeekCalendar(t *testing.T) {
	out := serialize(t, testWeek())

	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"), "lesson without time is skipped")
	assert.Contains(t, out, "SUMMARY:Математический анализ (Лекция)")
	assert.Contains(t, out, "LOCATION:ауд. 101")
	assert.Contains(t, out, "DTSTART:20250901T055000Z")
	assert.Contains(t, out, "DTEND:20250901T072500Z")
	assert.Contains(t, out, "Преподаватель: Иванов И.И.")
	assert.Contains(t, out, "Курс: https://lms.example/c/1")

	// без времени окончания пара длится DefaultLessonDuration
	assert.Contains(t, out, "SUMMARY:Физика (Лабораторная работа)")
	assert.Contains(t, out, "DTSTART:20250901T073500Z")
	assert.Contains(t, out, "DTEND:20250901T091000Z")

	assert.Contains(t, out, "SUMMARY:Праздничный день")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250903")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250904")

	assert.Contains(t, out, "X-WR-TIMEZONE:MSK")
	assert.NotContains(t, out, "TIMEZONE-ID")
}

func TestWeekCalendarStableUIDs(t *testing.T) {
	first := serialize(t, testWeek())
	second := serialize(t, testWeek())
	assert.Equal(t, first, second)

	assert.Equal(t, eventID("9001", "2025-09-01"), eventID("9001", "2025-09-01"))
	assert.NotEqual(t, eventID("9001", "2025-09-01"), eventID("9001", "2025-09-08"))
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "Экзамен", TypeLabel(schedule.Exam))
	assert.Equal(t, "unknown", TypeLabel(schedule.LessonType("unknown")))
}
