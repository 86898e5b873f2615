package schedule

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/htmltext"
	"github.com/Ultrahd-dev/timetable-engine/internal/links"
)

var (
	clockRegex    = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	timeSpanRegex = regexp.MustCompile(`(\d{1,2}:\d{2})\D+(\d{1,2}:\d{2})`)
	dayClassRegex = regexp.MustCompile(`(?:^|\s)day_(\d+)(?:\s|$)`)
	numericRegex  = regexp.MustCompile(`^\d+$`)
)

// Селекторы элементов страницы группы
const (
	lessonTableSelector = `table[class*="table-lessons"]`
	timeCellSelector    = "th.time"
	trainingSelector    = "div.training"
	disciplineSelector  = ".discipline"
	kindSelector        = ".kind"
	roomSelector        = ".auditorium, .room"
	instructorSelector  = ".teacher, .lecturer"
	hiddenIDSelector    = `span.hidden, span.lesson-id, span[style*="display:none"], span[style*="display: none"]`
	noteSelector        = ".note"
)

// Атрибуты заметки в порядке приоритета
var noteAttributes = []string{"data-original-title", "title", "data-content"}

// Parser разбирает страницы группы. Относительные ссылки
// приводятся к абсолютным относительно base.
type Parser struct {
	base *url.URL
}

// NewParser создает парсер страниц расписания
func NewParser(base *url.URL) *Parser {
	return &Parser{base: base}
}

// ParsePage читает страницу группы и возвращает расписание недели,
// начинающейся с monday. Ошибка возможна только при чтении HTML.
func (p *Parser) ParsePage(r io.Reader, monday time.Time) (WeekSchedule, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return WeekSchedule{}, fmt.Errorf("failed to parse timetable html: %w", err)
	}
	return p.ParseWeek(doc, monday, p.ParseModals(doc)), nil
}

// ParseWeek находит таблицу занятий и собирает из нее неделю.
// Битая или отсутствующая разметка не считается ошибкой: затронутые
// строки, ячейки и занятия просто пропускаются.
func (p *Parser) ParseWeek(doc *goquery.Document, monday time.Time, modals map[string]LessonModal) WeekSchedule {
	table := findLessonTable(doc)
	if table == nil {
		return EmptyWeek(academic.WeekType(monday))
	}

	week := EmptyWeek(tableWeekType(table, monday))

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		start, end, ok := rowTime(row)
		if !ok {
			return
		}

		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			dayIndex, ok := cellDayIndex(cell)
			if !ok {
				return
			}
			day := &week.Days[dayIndex]

			cell.Find(trainingSelector).Each(func(_ int, block *goquery.Selection) {
				discipline := block.Find(disciplineSelector).First()
				if discipline.Length() == 0 {
					markSpecialDay(day, block)
					return
				}

				lesson, ok := p.parseLesson(block, discipline, dayIndex, start, end)
				if !ok {
					return
				}
				lesson.Date = DayDate(monday, dayIndex)
				applyModal(&lesson, modals)
				day.Lessons = append(day.Lessons, lesson)
			})
		})
	})

	return week
}

// findLessonTable сначала ищет таблицу для узких экранов, затем любую таблицу занятий
func findLessonTable(doc *goquery.Document) *goquery.Selection {
	tables := doc.Find(lessonTableSelector)
	if tables.Length() == 0 {
		return nil
	}

	var preferred *goquery.Selection
	tables.EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if hasViewportClass(t.AttrOr("class", "")) {
			preferred = t
			return false
		}
		return true
	})
	if preferred != nil {
		return preferred
	}
	return tables.First()
}

// hasViewportClass таблица показывается на узких и средних экранах
// (visible-sm, visible-md-block, d-md-table). Классы, которые скрывают
// таблицу (hidden-sm, d-md-none), не считаются.
func hasViewportClass(class string) bool {
	for _, token := range strings.Fields(strings.ToLower(class)) {
		if strings.HasPrefix(token, "hidden-") || strings.HasSuffix(token, "-none") {
			continue
		}
		if strings.Contains(token, "-sm") || strings.Contains(token, "-md") {
			return true
		}
	}
	return false
}

// tableWeekType берет чётность из классов таблицы, иначе считает по дате
func tableWeekType(table *goquery.Selection, monday time.Time) academic.Parity {
	class := strings.ToLower(table.AttrOr("class", ""))
	switch {
	case strings.Contains(class, "even"):
		return academic.Even
	case strings.Contains(class, "odd"):
		return academic.Odd
	}
	return academic.WeekType(monday)
}

func rowTime(row *goquery.Selection) (string, string, bool) {
	cell := row.Find(timeCellSelector).First()
	if cell.Length() == 0 {
		return "", "", false
	}

	spans := cell.Find("span")
	start := htmltext.Collapse(spans.Eq(0).Text())
	end := htmltext.Collapse(spans.Eq(1).Text())
	if clockRegex.MatchString(start) {
		if !clockRegex.MatchString(end) {
			end = ""
		}
		return start, end, true
	}

	// Иногда время записано одной строкой без span
	if m := timeSpanRegex.FindStringSubmatch(htmltext.Collapse(cell.Text())); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

func cellDayIndex(cell *goquery.Selection) (int, bool) {
	m := dayClassRegex.FindStringSubmatch(cell.AttrOr("class", ""))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > DaysInWeek {
		return 0, false
	}
	return n - 1, true
}

// markSpecialDay помечает день праздником, каникулами или практикой.
// Первая найденная отметка не перезаписывается.
func markSpecialDay(day *DaySchedule, block *goquery.Selection) {
	if day.SpecialDay != nil {
		return
	}
	inner, _ := block.Html()
	text := htmltext.Decode(inner)
	if text == "" {
		return
	}
	if kind, ok := ClassifySpecialDay(text); ok {
		day.SpecialDay = &SpecialDay{Type: kind, Name: text}
	}
}

func (p *Parser) parseLesson(block, discipline *goquery.Selection, dayIndex int, start, end string) (Lesson, bool) {
	// В title обычно лежит полное название, в тексте - сокращённое
	subject := htmltext.Collapse(discipline.Find("abbr[title]").First().AttrOr("title", ""))
	if subject == "" {
		subject = htmltext.Collapse(discipline.Text())
	}
	if subject == "" {
		return Lesson{}, false
	}

	room, roomLinks := p.labeledSpan(block.Find(roomSelector).First())
	instructor, instructorLinks := p.labeledSpan(block.Find(instructorSelector).First())

	return Lesson{
		ID:              lessonID(block, dayIndex, start, subject),
		Time:            start,
		TimeEnd:         end,
		Subject:         subject,
		Type:            ClassifyLessonType(htmltext.Collapse(block.Find(kindSelector).First().Text())),
		Room:            room,
		RoomLinks:       roomLinks,
		Instructor:      instructor,
		InstructorLinks: instructorLinks,
		Notes:           lessonNotes(block),
	}, true
}

// labeledSpan возвращает текст элемента и его ссылки. Подписи ссылок
// предпочтительнее очищенного текста.
func (p *Parser) labeledSpan(sel *goquery.Selection) (string, []links.ResourceLink) {
	if sel.Length() == 0 {
		return Placeholder, nil
	}

	found := links.FromSelection(sel, p.base)
	if len(found) > 0 {
		return strings.Join(links.Labels(found), ", "), found
	}

	inner, _ := sel.Html()
	if text := htmltext.Decode(inner); text != "" {
		return text, nil
	}
	return Placeholder, nil
}

func lessonID(block *goquery.Selection, dayIndex int, start, subject string) string {
	if id := strings.TrimSpace(block.AttrOr("data-lesson-id", "")); id != "" {
		return id
	}
	if id := strings.TrimSpace(block.Find("[data-lesson-id]").First().AttrOr("data-lesson-id", "")); id != "" {
		return id
	}

	var hidden string
	block.Find(hiddenIDSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if numericRegex.MatchString(text) {
			hidden = text
			return false
		}
		return true
	})
	if hidden != "" {
		return hidden
	}

	return fmt.Sprintf("%d-%s-%s", dayIndex, start, subject)
}

func lessonNotes(block *goquery.Selection) []string {
	var notes []string
	seen := make(map[string]bool)

	block.Find(noteSelector).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range noteAttributes {
			text := htmltext.Decode(s.AttrOr(attr, ""))
			if text == "" {
				continue
			}
			if !seen[text] {
				seen[text] = true
				notes = append(notes, text)
			}
			return
		}
	})

	return notes
}

func applyModal(lesson *Lesson, modals map[string]LessonModal) {
	m, ok := modals[lesson.ID]
	if !ok {
		return
	}
	lesson.CourseLinksURL = m.CourseLinksURL
	lesson.GroupLinks = m.GroupLinks
	lesson.JointGroupLinks = m.JointGroupLinks
	lesson.JointGroups = links.Labels(m.JointGroupLinks)
}
