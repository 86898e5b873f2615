// Package resources подгружает ссылки на электронные ресурсы курса
// и раскладывает их по занятиям недели
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/Ultrahd-dev/timetable-engine/internal/cache"
	"github.com/Ultrahd-dev/timetable-engine/internal/htmltext"
	"github.com/Ultrahd-dev/timetable-engine/internal/links"
	"github.com/Ultrahd-dev/timetable-engine/internal/schedule"
)

// maxBodySize ограничение на ответ эндпоинта ссылок
const maxBodySize = 1 << 20

// Config конфигурация загрузчика
type Config struct {
	Base        *url.URL      // Адрес сайта для относительных ссылок
	UserAgent   string        // User-Agent запросов
	TTL         time.Duration // Время жизни списка ссылок в кэше
	MaxParallel int           // Сколько адресов загружать одновременно
}

// Resolver загружает ссылки по адресу из модального окна занятия.
// Ошибки загрузки наружу не отдаются: возвращается устаревшее значение
// из кэша или пустой список.
type Resolver struct {
	store       cache.Store
	client      *http.Client
	base        *url.URL
	userAgent   string
	ttl         time.Duration
	maxParallel int
	log         *logrus.Entry
}

// NewResolver создает загрузчик ссылок
func NewResolver(cfg Config, store cache.Store, client *http.Client, log *logrus.Entry) *Resolver {
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Resolver{
		store:       store,
		client:      client,
		base:        cfg.Base,
		userAgent:   cfg.UserAgent,
		ttl:         cfg.TTL,
		maxParallel: maxParallel,
		log:         log,
	}
}

// rawLink элемент ответа эндпоинта
type rawLink struct {
	URL    string `json:"url"`
	Anchor string `json:"anchor"`
}

// Fetch возвращает ссылки по адресу rawURL
func (r *Resolver) Fetch(ctx context.Context, rawURL string) []links.ResourceLink {
	key := cache.ResourcesKey(rawURL)
	log := r.log.WithField("url", rawURL)

	// Проверяем свежий кэш
	var cached []links.ResourceLink
	ok, err := r.store.Get(ctx, key, &cached)
	if err != nil {
		log.WithError(err).Warn("resource links cache read failed")
	}
	if ok {
		return cached
	}

	// Загружаем с сайта, при ошибке отдаем устаревшее значение или пустой список
	found, err := r.load(ctx, rawURL)
	if err != nil {
		log.WithError(err).Warn("failed to fetch resource links")

		var stale []links.ResourceLink
		if ok, _ := r.store.GetWithStale(ctx, key, &stale); ok {
			return stale
		}
		return nil
	}

	// Сохраняем в кэш
	if err := r.store.Set(ctx, key, found, r.ttl, cache.Resources); err != nil {
		log.WithError(err).Warn("resource links cache write failed")
	}
	return found
}

// Hydrate заполняет ResourceLinks у занятий недели.
// Каждый адрес загружается один раз, даже если он общий для нескольких занятий.
func (r *Resolver) Hydrate(ctx context.Context, week *schedule.WeekSchedule) {
	// Группируем занятия по адресу списка ресурсов, сохраняя порядок адресов
	var urls []string
	byURL := make(map[string][]*schedule.Lesson)
	week.EachLesson(func(_ int, lesson *schedule.Lesson) {
		if lesson.CourseLinksURL == "" {
			return
		}
		if _, seen := byURL[lesson.CourseLinksURL]; !seen {
			urls = append(urls, lesson.CourseLinksURL)
		}
		byURL[lesson.CourseLinksURL] = append(byURL[lesson.CourseLinksURL], lesson)
	})
	if len(urls) == 0 {
		return
	}

	// Загружаем адреса параллельно, не больше maxParallel одновременно
	results := make([][]links.ResourceLink, len(urls))
	p := pool.New().WithMaxGoroutines(r.maxParallel)
	for i, u := range urls {
		p.Go(func() {
			results[i] = r.Fetch(ctx, u)
		})
	}
	p.Wait()

	// Раскладываем результаты по занятиям, у каждого занятия своя копия
	for i, u := range urls {
		if len(results[i]) == 0 {
			continue
		}
		for _, lesson := range byURL[u] {
			lesson.ResourceLinks = append([]links.ResourceLink(nil), results[i]...)
		}
	}
}

// load загружает и разбирает ответ эндпоинта [{url, anchor}]
func (r *Resolver) load(ctx context.Context, rawURL string) ([]links.ResourceLink, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("неожиданный код ответа: %d", resp.StatusCode)
	}

	// Декодируем JSON, ограничивая размер ответа
	var raw []rawLink
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("ошибка декодирования списка ресурсов: %w", err)
	}

	// Приводим адреса к абсолютным, подпись без подписи заменяем адресом
	found := make([]links.ResourceLink, 0, len(raw))
	for _, item := range raw {
		abs, ok := links.Resolve(r.base, item.URL)
		if !ok {
			continue
		}
		label := htmltext.Decode(item.Anchor)
		if label == "" {
			label = abs
		}
		found = append(found, links.ResourceLink{Label: label, URL: abs})
	}
	return links.Dedupe(found), nil
}
