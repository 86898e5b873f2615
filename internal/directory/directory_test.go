package directory

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const facultiesPage = `<html><head>
<link rel="stylesheet" href="https://cdn.other.example/vendor.css">
<link rel="stylesheet" href="/assets/application-9f8e7d.css">
</head><body>
<nav><a href="/faculties/ignored">Меню</a></nav>
<div class="container">
  <h1>Список факультетов</h1>
</div>
<ul>
  <li><a href="/faculties/fit">Факультет&nbsp;информационных   технологий</a></li>
  <li><a href="/faculties/fe/">Факультет экономики</a></li>
  <li><a href="/faculties/fit">Дубль</a></li>
  <li><a href="/faculties/fe/groups/e-11">Не факультет</a></li>
  <li><a href="https://elsewhere.example/faculties/x">Чужой сайт</a></li>
  <li><a href="/faculties/empty"> </a></li>
</ul>
</body></html>`

func TestParseFaculties(t *testing.T) {
	base := mustURL(t, "https://timetable.example.edu")
	got := ParseFaculties(mustDoc(t, facultiesPage), base)

	assert.Equal(t, []FacultyOption{
		{Slug: "fit", Name: "Факультет информационных технологий"},
		{Slug: "fe", Name: "Факультет экономики"},
	}, got)
}

func TestParseFacultiesWithoutHeading(t *testing.T) {
	base := mustURL(t, "https://timetable.example.edu")
	got := ParseFaculties(mustDoc(t, `<p><a href="/faculties/law">Юридический</a></p>`), base)
	assert.Equal(t, []FacultyOption{{Slug: "law", Name: "Юридический"}}, got)

	assert.Empty(t, ParseFaculties(mustDoc(t, `<p>пусто</p>`), base))
}

const facultyPage = `<html><body>
<h1>Факультет информационных технологий</h1>
<h2>1 курс</h2>
<div class="groups">
  <a href="/faculties/fit/groups/ivt-11">ИВТ-11</a>
  <a href="/faculties/fit/groups/ivt-12">ИВТ-12</a>
</div>
<a href="/faculties/fit/groups/ivt-11">ИВТ-11</a>
<h2>2 курс</h2>
<div><a href="/faculties/fit/groups/ivt-21">ИВТ-21</a></div>
<h2>Магистратура, 1 курс</h2>
<p>Нет групп</p>
<h2>Контакты</h2>
<a href="/faculties/fit/groups/ghost">Призрак</a>
</body></html>`

func TestParseCourses(t *testing.T) {
	base := mustURL(t, "https://timetable.example.edu")
	got := ParseCourses(mustDoc(t, facultyPage), base)

	assert.Equal(t, []CourseOption{
		{Number: 1, Name: "1 курс", Groups: []GroupOption{
			{Slug: "ivt-11", Name: "ИВТ-11"},
			{Slug: "ivt-12", Name: "ИВТ-12"},
		}},
		{Number: 2, Name: "2 курс", Groups: []GroupOption{
			{Slug: "ivt-21", Name: "ИВТ-21"},
		}},
	}, got)
}

func TestDiscoverStylesheet(t *testing.T) {
	base := mustURL(t, "https://timetable.example.edu/faculties")
	assert.Equal(t, "https://timetable.example.edu/assets/application-9f8e7d.css",
		DiscoverStylesheet(mustDoc(t, facultiesPage), base))

	other := `<link rel="stylesheet" href="https://cdn.other.example/vendor.css">`
	assert.Equal(t, "https://cdn.other.example/vendor.css", DiscoverStylesheet(mustDoc(t, other), base))

	assert.Empty(t, DiscoverStylesheet(mustDoc(t, `<p></p>`), base))
}

const logosCSS = `
.logo-fit-bw { background: url(/assets/logo_fit_bw-0a1b2c3d.png); }
.logo-fit { background: url("/assets/logo_fit-1a2b3c4d.png"); }
.logo-fit-2 { background: url('/assets/faculties_logo/logo_fit-5e6f7a8b.svg'); }
.logo-fe { background-image: url(/assets/faculties_logo/logo_fe_bw-99aa88bb.png); }
.logo-law-school { background: url(/assets/logo_law_school-abcdef12.png); }
.icon { background: url(/assets/icon-123456.png); }
`

func TestParseLogos(t *testing.T) {
	base := mustURL(t, "https://timetable.example.edu/assets/application.css")
	got := ParseLogos(logosCSS, base)

	assert.Equal(t, map[string]string{
		"fit":        "https://timetable.example.edu/assets/faculties_logo/logo_fit-5e6f7a8b.svg",
		"fe":         "https://timetable.example.edu/assets/faculties_logo/logo_fe_bw-99aa88bb.png",
		"law_school": "https://timetable.example.edu/assets/logo_law_school-abcdef12.png",
	}, got)
}

const photosPage = `<html><body>
<div class="card"><img src="/upload/faculties/fit-3c4d5e6f.jpg" alt=""></div>
<div class="card" style="background-image: url(https://cdn.university.example/faculties/fe-0011aa22.webp)"></div>
<div class="card"><img src="/upload/faculties/fit-ffffff00.jpg"></div>
<div class="card"><img src="/upload/news/fit-12345678.jpg"></div>
<div class="card"><img src="/upload/faculties/law-school-abc12345.png"></div>
</body></html>`

func TestParsePhotos(t *testing.T) {
	base := mustURL(t, "https://www.university.example/about/faculties")
	got := ParsePhotos(photosPage, base)

	assert.Equal(t, map[string]string{
		"fit":        "https://www.university.example/upload/faculties/fit-3c4d5e6f.jpg",
		"fe":         "https://cdn.university.example/faculties/fe-0011aa22.webp",
		"law-school": "https://www.university.example/upload/faculties/law-school-abc12345.png",
	}, got)
}

func TestMergeImages(t *testing.T) {
	faculties := []FacultyOption{{Slug: "fit", Name: "ФИТ"}, {Slug: "fe", Name: "ФЭ"}, {Slug: "law", Name: "ЮФ"}}
	logos := map[string]string{"fit": "https://x/logo_fit.png", "fe": "https://x/logo_fe.png"}
	photos := map[string]string{"fit": "https://x/fit.jpg"}

	got := MergeImages(faculties, logos, photos)

	require.Len(t, got, 3)
	require.NotNil(t, got[0].ImageURL)
	assert.Equal(t, "https://x/fit.jpg", *got[0].ImageURL)
	require.NotNil(t, got[1].ImageURL)
	assert.Equal(t, "https://x/logo_fe.png", *got[1].ImageURL)
	assert.Nil(t, got[2].ImageURL)
	assert.Nil(t, faculties[0].ImageURL, "input must not be modified")
}
