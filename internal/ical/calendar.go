// Package ical выгружает недельное расписание в формате iCalendar
package ical

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/Ultrahd-dev/timetable-engine/internal/schedule"
)

// DefaultLessonDuration длительность пары, если время окончания не разобрано
const DefaultLessonDuration = 95 * time.Minute

const productName = "timetable-engine"

var typeLabels = map[schedule.LessonType]string{
	schedule.Lecture:         "Лекция",
	schedule.Practice:        "Практика",
	schedule.Lab:             "Лабораторная работа",
	schedule.Coursework:      "Курсовая работа",
	schedule.CourseProject:   "Курсовой проект",
	schedule.CreditWithGrade: "Зачёт с оценкой",
	schedule.Credit:          "Зачёт",
	schedule.Exam:            "Экзамен",
	schedule.SelfStudy:       "Самостоятельная работа",
	schedule.Consultation:    "Консультация",
}

// now время отметки DTSTAMP
var now = time.Now

// TypeLabel русское название вида занятия
func TypeLabel(t schedule.LessonType) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}

// WeekCalendar строит календарь недели: событие на каждое занятие
// и событие на весь день для праздников, каникул и практики.
// monday - понедельник недели, время занятий трактуется в часовом поясе tz.
func WeekCalendar(week *schedule.WeekSchedule, monday time.Time, title string, tz *time.Location) *ics.Calendar {
	stamp := now()

	cal := ics.NewCalendarFor(productName)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRTimezone(tz.String())
	cal.SetDescription(title)
	cal.SetLastModified(stamp)

	for _, day := range week.Days {
		if day.SpecialDay != nil && len(day.Lessons) == 0 {
			cal.AddVEvent(specialDayEvent(day, monday, tz, stamp))
		}
		for _, lesson := range day.Lessons {
			if event := lessonEvent(lesson, tz, stamp); event != nil {
				cal.AddVEvent(event)
			}
		}
	}
	return cal
}

// Serialize пишет календарь в w
func Serialize(w io.Writer, cal *ics.Calendar) error {
	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to serialize calendar: %w", err)
	}
	return nil
}

func lessonEvent(lesson schedule.Lesson, tz *time.Location, stamp time.Time) *ics.VEvent {
	start, err := time.ParseInLocation("2006-01-02 15:04", lesson.Date+" "+lesson.Time, tz)
	if err != nil {
		return nil
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", lesson.Date+" "+lesson.TimeEnd, tz)
	if err != nil || !end.After(start) {
		end = start.Add(DefaultLessonDuration)
	}

	event := ics.NewEvent(eventID(lesson.ID, lesson.Date))
	event.SetDtStampTime(stamp)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(fmt.Sprintf("%s (%s)", lesson.Subject, TypeLabel(lesson.Type)))
	if lesson.Room != schedule.Placeholder {
		event.SetLocation(lesson.Room)
	}
	if description := lessonDescription(lesson); description != "" {
		event.SetDescription(description)
	}
	event.SetTimeTransparency(ics.TransparencyOpaque)
	event.SetStatus(ics.ObjectStatusConfirmed)
	return event
}

func lessonDescription(lesson schedule.Lesson) string {
	var lines []string
	if lesson.Instructor != schedule.Placeholder {
		lines = append(lines, "Преподаватель: "+lesson.Instructor)
	}
	if len(lesson.JointGroups) > 0 {
		lines = append(lines, "Совместно с группами: "+strings.Join(lesson.JointGroups, ", "))
	}
	lines = append(lines, lesson.Notes...)
	for _, l := range lesson.ResourceLinks {
		lines = append(lines, l.Label+": "+l.URL)
	}
	return strings.Join(lines, "\n")
}

func specialDayEvent(day schedule.DaySchedule, monday time.Time, tz *time.Location, stamp time.Time) *ics.VEvent {
	date := time.Date(monday.Year(), monday.Month(), monday.Day()+day.DayIndex, 0, 0, 0, 0, tz)

	event := ics.NewEvent(eventID(string(day.SpecialDay.Type), date.Format("2006-01-02")))
	event.SetDtStampTime(stamp)
	event.SetAllDayStartAt(date)
	// DTEND для событий на весь день не входит в событие
	event.SetAllDayEndAt(date.AddDate(0, 0, 1))
	event.SetSummary(day.SpecialDay.Name)
	event.SetTimeTransparency(ics.TransparencyTransparent)
	event.SetStatus(ics.ObjectStatusConfirmed)
	return event
}

// eventID стабильный UID: одно и то же занятие дает тот же UID при повторной выгрузке
func eventID(id, date string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(productName+"/"+id+"/"+date)).String() + "@" + productName
}
