// Package scraper загружает данные с сайта расписания и кэширует их
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/cache"
	"github.com/Ultrahd-dev/timetable-engine/internal/directory"
	"github.com/Ultrahd-dev/timetable-engine/internal/resources"
	"github.com/Ultrahd-dev/timetable-engine/internal/schedule"
)

var (
	// ErrInvalidArgument пустой или некорректный идентификатор факультета или группы
	ErrInvalidArgument = errors.New("некорректный аргумент")

	// ErrStylesheetNotFound на странице факультетов нет таблицы стилей с логотипами
	ErrStylesheetNotFound = errors.New("не найдена таблица стилей с логотипами")
)

// Service загружает справочники и недельное расписание с сайта
// через кэш
type Service struct {
	httpClient *http.Client        // HTTP клиент для запросов к сайту
	store      cache.Store         // Кэш результатов
	calendar   *academic.Calendar  // Перевод дат в week_id
	parser     *schedule.Parser    // Парсер страницы группы
	resolver   *resources.Resolver // Загрузчик ссылок на электронные ресурсы
	base       *url.URL            // Адрес сайта без завершающего "/"
	cfg        Config
	group      singleflight.Group // Загрузки в процессе, по ключу кэша
	log        *logrus.Entry
}

// Config конфигурация scraper сервиса
type Config struct {
	BaseURL            string                       // Адрес сайта расписания
	PhotosURL          string                       // Страница с фотографиями факультетов, пусто - без фото
	LogosStylesheetURL string                       // CSS с логотипами, пусто - искать на странице факультетов
	UserAgent          string                       // User-Agent запросов
	TTL                map[cache.Type]time.Duration // Время жизни записей по типу
	ResourcesParallel  int                          // Параллельность загрузки ссылок на ресурсы
	RefreshInterval    time.Duration                // Период прогрева справочника
}

// NewService создает новый scraper сервис
func NewService(cfg Config, store cache.Store, calendar *academic.Calendar,
	httpClient *http.Client, log *logrus.Entry) (*Service, error) {
	// Проверяем адрес сайта: все ссылки строятся от него
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("некорректный адрес сайта %q", cfg.BaseURL)
	}

	// Создаем загрузчик ресурсов с тем же кэшем и HTTP клиентом
	resolver := resources.NewResolver(resources.Config{
		Base:        base,
		UserAgent:   cfg.UserAgent,
		TTL:         cfg.TTL[cache.Resources],
		MaxParallel: cfg.ResourcesParallel,
	}, store, httpClient, log.WithField("component", "resources"))

	return &Service{
		httpClient: httpClient,
		store:      store,
		calendar:   calendar,
		parser:     schedule.NewParser(base),
		resolver:   resolver,
		base:       base,
		cfg:        cfg,
		log:        log,
	}, nil
}

// FetchFaculties возвращает список факультетов с картинками
func (s *Service) FetchFaculties(ctx context.Context) ([]directory.FacultyOption, error) {
	return cached(ctx, s, cache.FacultiesKey, cache.Faculties, s.loadFaculties)
}

// FetchFacultyCourses возвращает курсы и группы факультета
func (s *Service) FetchFacultyCourses(ctx context.Context, facultySlug string) ([]directory.CourseOption, error) {
	if err := checkSlug("faculty", facultySlug); err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.CoursesKey(facultySlug), cache.Courses, func(ctx context.Context) ([]directory.CourseOption, error) {
		return s.loadCourses(ctx, facultySlug)
	})
}

// FetchWeekSchedule возвращает расписание группы на неделю, содержащую weekStart.
// Результат может разделяться между одновременными вызовами, менять его нельзя.
func (s *Service) FetchWeekSchedule(ctx context.Context, facultySlug, groupSlug string, weekStart time.Time) (*schedule.WeekSchedule, error) {
	if err := checkSlug("faculty", facultySlug); err != nil {
		return nil, err
	}
	if err := checkSlug("group", groupSlug); err != nil {
		return nil, err
	}

	// Кэш и week_id считаются по понедельнику недели
	monday := academic.Monday(weekStart)
	key := cache.ScheduleKey(facultySlug, groupSlug, monday)
	return cached(ctx, s, key, cache.Schedule, func(ctx context.Context) (*schedule.WeekSchedule, error) {
		return s.loadWeek(ctx, facultySlug, groupSlug, monday)
	})
}

// BuildTimetableURL адрес страницы расписания группы на сайте
func (s *Service) BuildTimetableURL(facultySlug, groupSlug string) string {
	return s.base.JoinPath("faculties", facultySlug, "groups", groupSlug).String()
}

// WeekURL адрес страницы расписания группы на конкретную неделю
func (s *Service) WeekURL(facultySlug, groupSlug string, monday time.Time) string {
	u := s.base.JoinPath("faculties", facultySlug, "groups", groupSlug)
	u.RawQuery = url.Values{"week_id": {strconv.Itoa(s.calendar.WeekID(monday))}}.Encode()
	return u.String()
}

// Refresh перезагружает справочник факультетов и курсов в кэше,
// возвращает число факультетов
func (s *Service) Refresh(ctx context.Context) (int, error) {
	// Перезагружаем список факультетов, минуя свежий кэш
	faculties, err := revalidate(ctx, s, cache.FacultiesKey, cache.Faculties, s.loadFaculties)
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления факультетов: %w", err)
	}

	// Перезагружаем курсы каждого факультета, ошибки по отдельным факультетам только логируем
	var failed int
	for _, f := range faculties {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		slug := f.Slug
		_, err := revalidate(ctx, s, cache.CoursesKey(slug), cache.Courses, func(ctx context.Context) ([]directory.CourseOption, error) {
			return s.loadCourses(ctx, slug)
		})
		if err != nil {
			failed++
			s.log.WithError(err).WithField("faculty", slug).Warn("failed to refresh courses")
		}
	}

	// Удаляем записи, у которых истекло и окно устаревания
	if pruner, ok := s.store.(cache.Pruner); ok {
		removed, err := pruner.Prune(ctx)
		if err != nil {
			s.log.WithError(err).Warn("failed to prune cache")
		} else if removed > 0 {
			s.log.WithField("removed", removed).Debug("pruned cache entries")
		}
	}

	s.log.WithFields(logrus.Fields{
		"faculties": len(faculties),
		"failed":    failed,
	}).Info("directory refreshed")
	return len(faculties), nil
}

// StartPeriodicRefresh запускает периодический прогрев кэша
func (s *Service) StartPeriodicRefresh(ctx context.Context) {
	interval := s.cfg.RefreshInterval
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.Refresh(ctx); err != nil {
					s.log.WithError(err).Error("periodic refresh failed")
				}
			case <-ctx.Done():
				s.log.Info("periodic refresh stopped")
				return
			}
		}
	}()

	s.log.WithField("interval", interval).Info("periodic refresh started")
}

// loadFaculties загружает страницу факультетов и картинки к ним
func (s *Service) loadFaculties(ctx context.Context) ([]directory.FacultyOption, error) {
	// Загружаем страницу со списком факультетов
	doc, err := s.fetchDocument(ctx, s.base.JoinPath("faculties").String())
	if err != nil {
		return nil, err
	}
	faculties := directory.ParseFaculties(doc, s.base)

	// Логотипы и фотографии загружаем параллельно. Картинки необязательны:
	// без них список все равно отдается
	var logos, photos map[string]string
	var g errgroup.Group
	g.Go(func() error {
		var err error
		logos, err = cached(ctx, s, cache.LogosKey, cache.Logos, func(ctx context.Context) (map[string]string, error) {
			return s.loadLogos(ctx, doc)
		})
		return err
	})
	g.Go(func() error {
		if s.cfg.PhotosURL == "" {
			return nil
		}
		var err error
		photos, err = cached(ctx, s, cache.PhotosKey, cache.Photos, s.loadPhotos)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithError(err).Warn("faculty images unavailable")
	}

	// Фотография приоритетнее логотипа
	return directory.MergeImages(faculties, logos, photos), nil
}

// loadLogos загружает CSS с логотипами факультетов
func (s *Service) loadLogos(ctx context.Context, facultiesPage *goquery.Document) (map[string]string, error) {
	// Берем адрес из конфигурации, иначе ищем таблицу стилей на странице
	cssURL := s.cfg.LogosStylesheetURL
	if cssURL == "" {
		cssURL = directory.DiscoverStylesheet(facultiesPage, s.base)
	}
	if cssURL == "" {
		return nil, ErrStylesheetNotFound
	}

	base, err := url.Parse(cssURL)
	if err != nil {
		return nil, fmt.Errorf("некорректный адрес таблицы стилей %q: %w", cssURL, err)
	}
	css, err := s.fetchText(ctx, cssURL)
	if err != nil {
		return nil, err
	}
	return directory.ParseLogos(css, base), nil
}

// loadPhotos загружает страницу с фотографиями факультетов
func (s *Service) loadPhotos(ctx context.Context) (map[string]string, error) {
	base, err := url.Parse(s.cfg.PhotosURL)
	if err != nil {
		return nil, fmt.Errorf("некорректный адрес страницы фотографий %q: %w", s.cfg.PhotosURL, err)
	}
	page, err := s.fetchText(ctx, s.cfg.PhotosURL)
	if err != nil {
		return nil, err
	}
	return directory.ParsePhotos(page, base), nil
}

// loadCourses загружает страницу факультета с курсами и группами
func (s *Service) loadCourses(ctx context.Context, facultySlug string) ([]directory.CourseOption, error) {
	doc, err := s.fetchDocument(ctx, s.base.JoinPath("faculties", facultySlug).String())
	if err != nil {
		return nil, err
	}
	return directory.ParseCourses(doc, s.base), nil
}

// loadWeek загружает страницу группы на неделю и собирает расписание
func (s *Service) loadWeek(ctx context.Context, facultySlug, groupSlug string, monday time.Time) (*schedule.WeekSchedule, error) {
	// Загружаем страницу недели по week_id
	pageURL := s.WeekURL(facultySlug, groupSlug, monday)
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	// Модальные окна и таблица разбираются из одного документа
	modals := s.parser.ParseModals(doc)
	week := s.parser.ParseWeek(doc, monday, modals)
	// Подгружаем ссылки на электронные ресурсы курсов
	s.resolver.Hydrate(ctx, &week)

	s.log.WithFields(logrus.Fields{
		"faculty": facultySlug,
		"group":   groupSlug,
		"week":    monday.Format("2006-01-02"),
		"lessons": week.LessonCount(),
	}).Debug("week schedule fetched")
	return &week, nil
}

func (s *Service) ttl(cacheType cache.Type) time.Duration {
	return s.cfg.TTL[cacheType]
}

// checkSlug проверяет, что slug можно подставить в путь адреса
func checkSlug(kind, slug string) error {
	if strings.TrimSpace(slug) == "" || strings.ContainsAny(slug, "/?#") {
		return fmt.Errorf("%w: %s slug %q", ErrInvalidArgument, kind, slug)
	}
	return nil
}
