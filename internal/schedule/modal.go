package schedule

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ultrahd-dev/timetable-engine/internal/htmltext"
	"github.com/Ultrahd-dev/timetable-engine/internal/links"
)

const modalIDPrefix = "js-lesson-info-"

// LessonModal сведения из модального окна занятия
type LessonModal struct {
	CourseLinksURL  string
	GroupLinks      []links.ResourceLink
	JointGroupLinks []links.ResourceLink
}

// ParseModals собирает блоки js-lesson-info-{id}. При повторе id
// побеждает первый блок.
func (p *Parser) ParseModals(doc *goquery.Document) map[string]LessonModal {
	modals := make(map[string]LessonModal)

	doc.Find(`div[id^="` + modalIDPrefix + `"]`).Each(func(_ int, div *goquery.Selection) {
		id := strings.TrimPrefix(div.AttrOr("id", ""), modalIDPrefix)
		if id == "" {
			return
		}
		if _, seen := modals[id]; seen {
			return
		}

		modals[id] = LessonModal{
			CourseLinksURL:  p.courseLinksURL(div),
			GroupLinks:      p.labeledParagraph(div, isGroupsLabel),
			JointGroupLinks: p.labeledParagraph(div, isJointGroupsLabel),
		}
	})

	return modals
}

func (p *Parser) courseLinksURL(div *goquery.Selection) string {
	raw, ok := div.Attr("data-course-links-url")
	if !ok {
		raw = div.Find("[data-course-links-url]").First().AttrOr("data-course-links-url", "")
	}
	abs, ok := links.Resolve(p.base, raw)
	if !ok {
		return ""
	}
	return abs
}

// labeledParagraph ищет абзац с жирной подписью и возвращает ссылки,
// идущие после подписи до конца абзаца
func (p *Parser) labeledParagraph(div *goquery.Selection, match func(string) bool) []links.ResourceLink {
	var found []links.ResourceLink

	div.Find("p").EachWithBreak(func(_ int, para *goquery.Selection) bool {
		label := para.Find("b, strong").First()
		if label.Length() == 0 || !match(normalizeLabel(label.Text())) {
			return true
		}

		inner, err := para.Html()
		if err != nil {
			return false
		}
		found = links.Extract(afterLabel(inner), p.base)
		return false
	})

	return found
}

// afterLabel отрезает HTML абзаца по закрывающему тегу подписи
func afterLabel(inner string) string {
	for _, closing := range []string{"</b>", "</strong>"} {
		if i := strings.Index(inner, closing); i >= 0 {
			return inner[i+len(closing):]
		}
	}
	return inner
}

func normalizeLabel(s string) string {
	return strings.TrimRight(htmltext.Collapse(s), ": ")
}

func isGroupsLabel(label string) bool {
	return label == "Группы" || label == "Группа"
}

func isJointGroupsLabel(label string) bool {
	return strings.HasPrefix(label, "Совместно с группами")
}
