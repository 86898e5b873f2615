// Package htmltext превращает фрагменты HTML в обычный текст
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Теги, после которых в тексте должен остаться пробел
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"td": true, "th": true, "tr": true, "table": true, "h1": true, "h2": true,
	"h3": true, "h4": true,
}

// Decode убирает теги, раскодирует HTML-сущности и схлопывает пробелы.
// Для уже очищенного текста Decode(Decode(s)) == Decode(s).
func Decode(fragment string) string {
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return Collapse(fragment)
	}

	var b strings.Builder
	skip := ""
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return Collapse(b.String())
		case html.TextToken:
			if skip == "" {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tt == html.StartTagToken && (tag == "script" || tag == "style") {
				skip = tag
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == skip {
				skip = ""
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		}
	}
}

// Collapse заменяет неразрывные пробелы обычными, схлопывает пробельные
// последовательности и приводит строку к NFC.
func Collapse(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}
