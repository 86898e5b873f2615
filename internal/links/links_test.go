package links

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBase(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://timetable.example.edu")
	require.NoError(t, err)
	return u
}

func TestExtractDeduplicates(t *testing.T) {
	html := `<a href="/rooms/101">ауд. 101</a>, <a href="/rooms/101">ауд. 101</a>`

	got := Extract(html, mustBase(t))

	require.Len(t, got, 1)
	assert.Equal(t, ResourceLink{Label: "ауд. 101", URL: "https://timetable.example.edu/rooms/101"}, got[0])
}

func TestExtractKeepsDifferentLabelsForSameURL(t *testing.T) {
	html := `<a href="/t/1">Иванов И.И.</a><a href="/t/1">Иванов</a>`

	got := Extract(html, mustBase(t))

	assert.Len(t, got, 2)
}

func TestExtractSkipsUnusableLinks(t *testing.T) {
	html := `<a href="#">ещё</a><a href="javascript:void(0)">модал</a><a href="/x"></a>` +
		`<a href="/y" title="Подсказка"><img src="i.png"></a><a href="https://other.example/z">Внешняя</a>`

	got := Extract(html, mustBase(t))

	assert.Equal(t, []ResourceLink{
		{Label: "Подсказка", URL: "https://timetable.example.edu/y"},
		{Label: "Внешняя", URL: "https://other.example/z"},
	}, got)
}

func TestExtractUppercaseTags(t *testing.T) {
	html := `<A HREF="/rooms/202">ауд. 202</A>`

	got := Extract(html, mustBase(t))

	assert.Equal(t, []ResourceLink{{Label: "ауд. 202", URL: "https://timetable.example.edu/rooms/202"}}, got)
}

func TestExtractWithoutLinksReturnsNil(t *testing.T) {
	assert.Nil(t, Extract("просто текст", mustBase(t)))
	assert.Nil(t, Extract(`<span>нет ссылок</span>`, mustBase(t)))
}

func TestResolve(t *testing.T) {
	base := mustBase(t)

	got, ok := Resolve(base, "faculties/fkn")
	require.True(t, ok)
	assert.Equal(t, "https://timetable.example.edu/faculties/fkn", got)

	_, ok = Resolve(nil, "/relative")
	assert.False(t, ok)

	got, ok = Resolve(nil, "https://a.example/b")
	require.True(t, ok)
	assert.Equal(t, "https://a.example/b", got)
}

func TestLabels(t *testing.T) {
	assert.Nil(t, Labels(nil))
	assert.Equal(t, []string{"241", "242"}, Labels([]ResourceLink{{Label: "241"}, {Label: "242"}}))
}
