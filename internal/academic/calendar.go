// Package academic считает учебные недели: номер, чётность и week_id сайта расписания.
//
// Учебный год начинается 1 сентября и длится до конца августа. Первая неделя
// начинается с первого понедельника, приходящегося на 1 сентября или позже.
package academic

import "time"

// Parity чётность учебной недели
type Parity string

const (
	Even Parity = "even"
	Odd  Parity = "odd"
)

// Значения по умолчанию для привязки week_id. Подобраны вручную по живому
// сайту и ломаются при перенумерации недель на стороне сайта.
const (
	DefaultBaseWeekID = 573

	// DefaultBaseYear намеренно фиксирует учебный год привязки вместо
	// отсчета от первого понедельника текущего учебного года (BaseYear = 0).
	// Пару DefaultBaseWeekID/DefaultBaseYear нужно сверять с сайтом каждый сентябрь.
	DefaultBaseYear = 2025
)

// Calendar переводит даты в week_id сайта расписания.
// week_id растёт линейно: BaseWeekID соответствует первому понедельнику
// учебного года BaseYear. Если BaseYear равен нулю, берётся текущий учебный год.
type Calendar struct {
	BaseWeekID int
	BaseYear   int
	Now        func() time.Time
}

// NewCalendar создает календарь с заданной привязкой week_id
func NewCalendar(baseWeekID, baseYear int) *Calendar {
	return &Calendar{
		BaseWeekID: baseWeekID,
		BaseYear:   baseYear,
		Now:        time.Now,
	}
}

// WeekID возвращает week_id недели, в которую попадает t.
func (c *Calendar) WeekID(t time.Time) int {
	anchor := c.BaseYear
	if anchor == 0 {
		anchor = AcademicYear(c.now())
	}
	weeks := floorDiv(daysBetween(FirstMonday(anchor), Monday(t)), 7)
	return c.BaseWeekID + weeks
}

// WeekType чётность недели по дате
func (c *Calendar) WeekType(t time.Time) Parity {
	return WeekType(t)
}

func (c *Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// AcademicYear возвращает год, в котором начался учебный год, содержащий t.
func AcademicYear(t time.Time) int {
	if t.Month() >= time.September {
		return t.Year()
	}
	return t.Year() - 1
}

// FirstMonday первый понедельник учебного года (1 сентября или позже).
func FirstMonday(year int) time.Time {
	sep1 := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	offset := (8 - int(sep1.Weekday())) % 7
	return sep1.AddDate(0, 0, offset)
}

// WeekNumber номер учебной недели, начиная с 1.
// Дни до первого понедельника дают 0.
func WeekNumber(t time.Time) int {
	first := FirstMonday(AcademicYear(t))
	return floorDiv(daysBetween(first, t), 7) + 1
}

// WeekType чётность недели: нечётный номер соответствует нечётной неделе.
func WeekType(t time.Time) Parity {
	if WeekNumber(t)%2 != 0 {
		return Odd
	}
	return Even
}

// Monday понедельник недели, в которую попадает t (полночь, UTC).
func Monday(t time.Time) time.Time {
	d := civil(t)
	back := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -back)
}

// civil отбрасывает время и часовой пояс, оставляя календарную дату.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
