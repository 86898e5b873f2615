package schedule

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeywordRule срабатывает, если текст содержит все подстроки хотя бы одной группы из Match.
type KeywordRule[T ~string] struct {
	Type  T
	Match [][]string
}

// LessonTypeKeywords таблица определения вида занятия по подписи.
// Правила проверяются по порядку, первое совпавшее побеждает.
var LessonTypeKeywords = []KeywordRule[LessonType]{
	{Type: Lecture, Match: [][]string{{"лекц"}}},
	{Type: Practice, Match: [][]string{{"практ"}, {"сем"}}},
	{Type: Lab, Match: [][]string{{"лаб"}}},
	{Type: Coursework, Match: [][]string{{"курсов"}}},
	{Type: CourseProject, Match: [][]string{{"проект"}}},
	{Type: CreditWithGrade, Match: [][]string{{"зач", "оцен"}}},
	{Type: Credit, Match: [][]string{{"зач"}}},
	{Type: Exam, Match: [][]string{{"экзам"}}},
	{Type: SelfStudy, Match: [][]string{{"самост"}, {"срс"}}},
	{Type: Consultation, Match: [][]string{{"конс"}}},
}

// SpecialDayKeywords таблица определения вида дня без занятий
var SpecialDayKeywords = []KeywordRule[SpecialDayType]{
	{Type: Holiday, Match: [][]string{{"праздничн"}, {"выходн"}}},
	{Type: Vacation, Match: [][]string{{"каникул"}}},
	{Type: PracticeDay, Match: [][]string{{"практик"}}},
}

// ClassifyLessonType определяет вид занятия, по умолчанию лекция
func ClassifyLessonType(kind string) LessonType {
	if t, ok := classify(LessonTypeKeywords, kind); ok {
		return t
	}
	return Lecture
}

// ClassifySpecialDay определяет вид дня без занятий по тексту блока
func ClassifySpecialDay(text string) (SpecialDayType, bool) {
	return classify(SpecialDayKeywords, text)
}

func classify[T ~string](rules []KeywordRule[T], text string) (T, bool) {
	// Caser хранит состояние, поэтому создается на каждый вызов
	lower := cases.Lower(language.Russian).String(text)
	for _, rule := range rules {
		for _, group := range rule.Match {
			if containsAll(lower, group) {
				return rule.Type, true
			}
		}
	}
	var zero T
	return zero, false
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return len(parts) > 0
}
