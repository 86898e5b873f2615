package directory

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ultrahd-dev/timetable-engine/internal/htmltext"
	"github.com/Ultrahd-dev/timetable-engine/internal/links"
)

const facultiesHeading = "Список факультетов"

var (
	facultyPathRe = regexp.MustCompile(`^/faculties/([^/]+)/?$`)
	groupPathRe   = regexp.MustCompile(`/groups/([^/]+)/?$`)
	courseRe      = regexp.MustCompile(`(\d+)\s*курс`)
)

// ParseFaculties возвращает факультеты, перечисленные после заголовка
// "Список факультетов"
func ParseFaculties(doc *goquery.Document, base *url.URL) []FacultyOption {
	faculties := []FacultyOption{}
	seen := make(map[string]bool)

	eachAnchor(facultySection(doc), func(a *goquery.Selection) {
		slug, ok := pathSlug(a, base, facultyPathRe)
		if !ok || seen[slug] {
			return
		}
		name := htmltext.Collapse(a.Text())
		if name == "" {
			return
		}
		seen[slug] = true
		faculties = append(faculties, FacultyOption{Slug: slug, Name: name})
	})
	return faculties
}

// facultySection элементы после заголовка списка. Заголовок может лежать
// во вложенном контейнере, поэтому поиск поднимается по родителям.
func facultySection(doc *goquery.Document) *goquery.Selection {
	heading := doc.Find("h1").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return strings.Contains(htmltext.Collapse(h.Text()), facultiesHeading)
	}).First()
	if heading.Length() == 0 {
		return doc.Selection
	}

	for scope := heading; scope.Length() > 0 && !scope.Is("body"); scope = scope.Parent() {
		following := scope.NextAll()
		if following.Filter("a[href]").Length()+following.Find("a[href]").Length() > 0 {
			return following
		}
	}
	return doc.Selection
}

// eachAnchor обходит ссылки выборки в порядке документа
func eachAnchor(sel *goquery.Selection, fn func(a *goquery.Selection)) {
	sel.Each(func(_ int, s *goquery.Selection) {
		if s.Is("a[href]") {
			fn(s)
			return
		}
		s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			fn(a)
		})
	})
}

// ParseCourses возвращает курсы по заголовкам "N курс" и ссылки на группы
// до следующего заголовка
func ParseCourses(doc *goquery.Document, base *url.URL) []CourseOption {
	courses := []CourseOption{}

	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		name := htmltext.Collapse(h.Text())
		m := courseRe.FindStringSubmatch(name)
		if m == nil {
			return
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}

		groups := []GroupOption{}
		seen := make(map[string]bool)
		eachAnchor(h.NextUntil("h2"), func(a *goquery.Selection) {
			slug, ok := pathSlug(a, base, groupPathRe)
			if !ok || seen[slug] {
				return
			}
			groupName := htmltext.Collapse(a.Text())
			if groupName == "" {
				return
			}
			seen[slug] = true
			groups = append(groups, GroupOption{Slug: slug, Name: groupName})
		})

		if len(groups) == 0 {
			return
		}
		courses = append(courses, CourseOption{Number: number, Name: name, Groups: groups})
	})
	return courses
}

// DiscoverStylesheet ищет на странице подключенную таблицу стилей,
// предпочитая стили с того же хоста. Пустая строка - не найдено.
func DiscoverStylesheet(doc *goquery.Document, base *url.URL) string {
	var first, sameHost string
	doc.Find(`link[rel~="stylesheet"][href]`).EachWithBreak(func(_ int, l *goquery.Selection) bool {
		href, _ := l.Attr("href")
		abs, ok := links.Resolve(base, href)
		if !ok {
			return true
		}
		if first == "" {
			first = abs
		}
		if u, err := url.Parse(abs); err == nil && base != nil && u.Host == base.Host {
			sameHost = abs
			return false
		}
		return true
	})
	if sameHost != "" {
		return sameHost
	}
	return first
}

func pathSlug(a *goquery.Selection, base *url.URL, re *regexp.Regexp) (string, bool) {
	href, _ := a.Attr("href")
	abs, ok := links.Resolve(base, href)
	if !ok {
		return "", false
	}
	u, err := url.Parse(abs)
	if err != nil {
		return "", false
	}
	if base != nil && u.Host != base.Host {
		return "", false
	}
	m := re.FindStringSubmatch(path.Clean(u.Path))
	if m == nil {
		return "", false
	}
	slug, err := url.PathUnescape(m[1])
	if err != nil {
		return "", false
	}
	return slug, true
}
