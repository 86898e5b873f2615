// Package links извлекает ссылки (подпись, адрес) из фрагментов HTML
package links

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ultrahd-dev/timetable-engine/internal/htmltext"
)

// ResourceLink ссылка на аудиторию, преподавателя, группу или электронный ресурс.
// URL всегда абсолютный.
type ResourceLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Resolve приводит href к абсолютному адресу относительно base.
// Якоря, javascript: и пустые ссылки отбрасываются.
func Resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", false
	}
	return u.String(), true
}

// Extract разбирает фрагмент HTML и возвращает его ссылки без повторов.
// Если ссылок нет, возвращается nil.
func Extract(fragment string, base *url.URL) []ResourceLink {
	if !strings.Contains(strings.ToLower(fragment), "<a") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	return FromSelection(doc.Selection, base)
}

// FromSelection собирает ссылки из выборки goquery (включая сами элементы выборки).
func FromSelection(sel *goquery.Selection, base *url.URL) []ResourceLink {
	var out []ResourceLink
	seen := make(map[string]bool)

	sel.Filter("a[href]").AddSelection(sel.Find("a[href]")).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs, ok := Resolve(base, href)
		if !ok {
			return
		}

		label := htmltext.Collapse(a.Text())
		if label == "" {
			label = htmltext.Collapse(a.AttrOr("title", ""))
		}
		if label == "" {
			return
		}

		out = appendUnique(out, seen, ResourceLink{Label: label, URL: abs})
	})

	return out
}

// Dedupe убирает повторяющиеся пары (подпись, адрес), сохраняя порядок.
func Dedupe(in []ResourceLink) []ResourceLink {
	var out []ResourceLink
	seen := make(map[string]bool, len(in))
	for _, l := range in {
		out = appendUnique(out, seen, l)
	}
	return out
}

// Labels возвращает подписи ссылок.
func Labels(in []ResourceLink) []string {
	if len(in) == 0 {
		return nil
	}
	labels := make([]string, 0, len(in))
	for _, l := range in {
		labels = append(labels, l.Label)
	}
	return labels
}

func appendUnique(out []ResourceLink, seen map[string]bool, l ResourceLink) []ResourceLink {
	key := l.Label + "\x00" + l.URL
	if seen[key] {
		return out
	}
	seen[key] = true
	return append(out, l)
}
