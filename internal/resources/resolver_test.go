package resources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/cache"
	"github.com/Ultrahd-dev/timetable-engine/internal/links"
	"github.com/Ultrahd-dev/timetable-engine/internal/logging"
	"github.com/Ultrahd-dev/timetable-engine/internal/schedule"
)

const linksBody = `[
	{"url": "/files/a.pdf", "anchor": "Лекции &amp; слайды"},
	{"url": "/files/a.pdf", "anchor": "Лекции &amp; слайды"},
	{"url": "https://lms.example/c/1", "anchor": ""},
	{"url": "javascript:void(0)", "anchor": "мусор"}
]`

type upstream struct {
	srv    *httptest.Server
	hits   atomic.Int32
	status atomic.Int32
	agents chan string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{agents: make(chan string, 16)}
	u.status.Store(http.StatusOK)
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		select {
		case u.agents <- r.UserAgent():
		default:
		}
		if code := int(u.status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(linksBody))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newTestResolver(t *testing.T, u *upstream, store cache.Store) *Resolver {
	t.Helper()
	base, err := url.Parse(u.srv.URL)
	require.NoError(t, err)
	return NewResolver(Config{
		Base:        base,
		UserAgent:   "test-agent",
		TTL:         time.Hour,
		MaxParallel: 2,
	}, store, u.srv.Client(), logging.Discard())
}

func TestFetchDecodesAndCaches(t *testing.T) {
	u := newUpstream(t)
	store := cache.NewMemory(0)
	r := newTestResolver(t, u, store)
	linksURL := u.srv.URL + "/links/42"

	want := []links.ResourceLink{
		{Label: "Лекции & слайды", URL: u.srv.URL + "/files/a.pdf"},
		{Label: "https://lms.example/c/1", URL: "https://lms.example/c/1"},
	}

	got := r.Fetch(context.Background(), linksURL)
	assert.Equal(t, want, got)
	assert.Equal(t, "test-agent", <-u.agents)

	got = r.Fetch(context.Background(), linksURL)
	assert.Equal(t, want, got)
	assert.EqualValues(t, 1, u.hits.Load(), "second call must be served from cache")
}

func TestFetchFallsBackToStale(t *testing.T) {
	u := newUpstream(t)
	u.status.Store(http.StatusBadGateway)
	store := cache.NewMemory(0)
	r := newTestResolver(t, u, store)
	linksURL := u.srv.URL + "/links/7"

	stale := []links.ResourceLink{{Label: "Старое", URL: "https://lms.example/old"}}
	require.NoError(t, store.Set(context.Background(), cache.ResourcesKey(linksURL), stale, -time.Minute, cache.Resources))

	got := r.Fetch(context.Background(), linksURL)
	assert.Equal(t, stale, got)
	assert.EqualValues(t, 1, u.hits.Load())
}

func TestFetchFailureWithoutStaleIsEmpty(t *testing.T) {
	u := newUpstream(t)
	u.status.Store(http.StatusInternalServerError)
	r := newTestResolver(t, u, cache.NewMemory(0))

	assert.Empty(t, r.Fetch(context.Background(), u.srv.URL+"/links/1"))
}

func TestHydrateFetchesSharedURLOnce(t *testing.T) {
	u := newUpstream(t)
	r := newTestResolver(t, u, cache.NewMemory(0))
	shared := u.srv.URL + "/links/42"

	week := schedule.EmptyWeek(academic.Even)
	week.Days[0].Lessons = append(week.Days[0].Lessons, schedule.Lesson{ID: "1", CourseLinksURL: shared})
	week.Days[3].Lessons = append(week.Days[3].Lessons, schedule.Lesson{ID: "2", CourseLinksURL: shared})
	week.Days[4].Lessons = append(week.Days[4].Lessons, schedule.Lesson{ID: "3"})

	r.Hydrate(context.Background(), &week)

	assert.EqualValues(t, 1, u.hits.Load())
	first := week.Days[0].Lessons[0].ResourceLinks
	require.Len(t, first, 2)
	assert.Equal(t, first, week.Days[3].Lessons[0].ResourceLinks)
	assert.Nil(t, week.Days[4].Lessons[0].ResourceLinks)
}

func TestHydrateDistinctURLs(t *testing.T) {
	u := newUpstream(t)
	r := newTestResolver(t, u, cache.NewMemory(0))

	week := schedule.EmptyWeek(academic.Odd)
	for i := 0; i < 5; i++ {
		week.Days[i].Lessons = append(week.Days[i].Lessons, schedule.Lesson{
			ID:             "l",
			CourseLinksURL: u.srv.URL + "/links/" + string(rune('a'+i)),
		})
	}

	r.Hydrate(context.Background(), &week)

	assert.EqualValues(t, 5, u.hits.Load())
	for i := 0; i < 5; i++ {
		assert.Len(t, week.Days[i].Lessons[0].ResourceLinks, 2)
	}
}

func TestHydrateWithoutLinksDoesNothing(t *testing.T) {
	u := newUpstream(t)
	r := newTestResolver(t, u, cache.NewMemory(0))

	week := schedule.EmptyWeek(academic.Odd)
	r.Hydrate(context.Background(), &week)
	assert.Zero(t, u.hits.Load())
}
