package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLessonType(t *testing.T) {
	tests := []struct {
		kind string
		want LessonType
	}{
		{"Лекция", Lecture},
		{"ЛЕКЦИЯ", Lecture},
		{"Практическое занятие", Practice},
		{"Семинар", Practice},
		{"Лабораторная работа", Lab},
		{"Курсовая работа", Coursework},
		{"Проект", CourseProject},
		{"Зачёт с оценкой", CreditWithGrade},
		{"Зачет", Credit},
		{"Экзамен", Exam},
		{"Самостоятельная работа", SelfStudy},
		{"СРС", SelfStudy},
		{"Консультация", Consultation},
		{"", Lecture},
		{"Что-то новое", Lecture},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLessonType(tt.kind), tt.kind)
	}
}

func TestClassifySpecialDay(t *testing.T) {
	tests := []struct {
		text string
		want SpecialDayType
		ok   bool
	}{
		{"Выходной день", Holiday, true},
		{"Праздничный день", Holiday, true},
		{"Каникулы", Vacation, true},
		{"Учебная практика", PracticeDay, true},
		{"Уточняется", "", false},
	}

	for _, tt := range tests {
		got, ok := ClassifySpecialDay(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
