// Package schedule описывает недельное расписание группы и разбирает его
// из HTML-страницы сайта расписания
package schedule

import (
	"time"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/links"
)

// LessonType вид занятия
type LessonType string

const (
	Lecture         LessonType = "lecture"
	Practice        LessonType = "practice"
	Lab             LessonType = "lab"
	Coursework      LessonType = "coursework"
	CourseProject   LessonType = "courseProject"
	CreditWithGrade LessonType = "creditWithGrade"
	Credit          LessonType = "credit"
	Exam            LessonType = "exam"
	SelfStudy       LessonType = "selfStudy"
	Consultation    LessonType = "consultation"
)

// SpecialDayType вид дня без занятий
type SpecialDayType string

const (
	Holiday     SpecialDayType = "holiday"
	Vacation    SpecialDayType = "vacation"
	PracticeDay SpecialDayType = "practice"
)

// Placeholder подставляется вместо пустой аудитории или преподавателя
const Placeholder = "—"

// DaysInWeek число дней в неделе расписания
const DaysInWeek = 7

// DayNames названия дней недели, начиная с понедельника
var DayNames = [DaysInWeek]string{
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
	"Воскресенье",
}

// Lesson одно занятие в расписании.
// ID либо берется со страницы, либо собирается как "{день}-{время}-{предмет}"
// и уникален только в пределах одной разобранной страницы.
// Срезы ссылок равны nil, если на странице не было ссылок.
type Lesson struct {
	ID              string               `json:"id"`
	Time            string               `json:"time"`
	TimeEnd         string               `json:"timeEnd"`
	Subject         string               `json:"subject"`
	Type            LessonType           `json:"type"`
	Room            string               `json:"room"`
	RoomLinks       []links.ResourceLink `json:"roomLinks,omitempty"`
	Instructor      string               `json:"instructor"`
	InstructorLinks []links.ResourceLink `json:"instructorLinks,omitempty"`
	Date            string               `json:"date"`
	JointGroups     []string             `json:"jointGroups,omitempty"`
	JointGroupLinks []links.ResourceLink `json:"jointGroupLinks,omitempty"`
	GroupLinks      []links.ResourceLink `json:"groupLinks,omitempty"`
	ResourceLinks   []links.ResourceLink `json:"resourceLinks,omitempty"`
	Notes           []string             `json:"notes,omitempty"`

	// CourseLinksURL адрес списка электронных ресурсов из модального окна
	CourseLinksURL string `json:"-"`
}

// SpecialDay отметка о празднике, каникулах или практике
type SpecialDay struct {
	Type SpecialDayType `json:"type"`
	Name string         `json:"name"`
}

// DaySchedule расписание на один день
type DaySchedule struct {
	DayName    string      `json:"dayName"`
	DayIndex   int         `json:"dayIndex"`
	Lessons    []Lesson    `json:"lessons"`
	SpecialDay *SpecialDay `json:"specialDay,omitempty"`
}

// WeekSchedule расписание на неделю. Days всегда содержит семь дней,
// индекс совпадает с DayIndex (0 - понедельник).
type WeekSchedule struct {
	WeekType academic.Parity         `json:"weekType"`
	Days     [DaysInWeek]DaySchedule `json:"days"`
}

// EmptyWeek создает неделю из семи пустых дней
func EmptyWeek(weekType academic.Parity) WeekSchedule {
	week := WeekSchedule{WeekType: weekType}
	for i := range week.Days {
		week.Days[i] = DaySchedule{
			DayName:  DayNames[i],
			DayIndex: i,
			Lessons:  []Lesson{},
		}
	}
	return week
}

// EachLesson вызывает fn для каждого занятия недели
func (w *WeekSchedule) EachLesson(fn func(day int, lesson *Lesson)) {
	for d := range w.Days {
		for i := range w.Days[d].Lessons {
			fn(d, &w.Days[d].Lessons[i])
		}
	}
}

// LessonCount общее число занятий за неделю
func (w *WeekSchedule) LessonCount() int {
	n := 0
	for _, day := range w.Days {
		n += len(day.Lessons)
	}
	return n
}

// DayDate дата дня недели по понедельнику
func DayDate(monday time.Time, dayIndex int) string {
	return monday.AddDate(0, 0, dayIndex).Format("2006-01-02")
}
