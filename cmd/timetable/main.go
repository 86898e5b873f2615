// Package main - консольный клиент для разового получения расписания без сервера
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/cache"
	"github.com/Ultrahd-dev/timetable-engine/internal/config"
	"github.com/Ultrahd-dev/timetable-engine/internal/ical"
	"github.com/Ultrahd-dev/timetable-engine/internal/logging"
	"github.com/Ultrahd-dev/timetable-engine/internal/scraper"
)

func main() {
	parser := argparse.NewParser("timetable", "Получение справочника и расписания с сайта университета")
	configPath := parser.String("c", "config", &argparse.Options{Help: "Путь к файлу конфигурации (необязательно)"})
	timezone := parser.String("t", "timezone", &argparse.Options{Default: "Europe/Moscow", Help: "Часовой пояс университета"})

	facultiesCmd := parser.NewCommand("faculties", "Список факультетов")

	coursesCmd := parser.NewCommand("courses", "Курсы и группы факультета")
	coursesFaculty := coursesCmd.String("f", "faculty", &argparse.Options{Required: true, Help: "Slug факультета"})

	weekCmd := parser.NewCommand("week", "Расписание группы на неделю")
	weekFaculty := weekCmd.String("f", "faculty", &argparse.Options{Required: true, Help: "Slug факультета"})
	weekGroup := weekCmd.String("g", "group", &argparse.Options{Required: true, Help: "Slug группы"})
	weekDate := weekCmd.String("d", "date", &argparse.Options{Help: "Любая дата недели в формате 2006-01-02, по умолчанию сегодня"})
	weekICS := weekCmd.Flag("i", "ics", &argparse.Options{Help: "Вывести неделю в формате iCalendar"})
	weekOutput := weekCmd.String("o", "output", &argparse.Options{Help: "Файл для вывода, по умолчанию stdout"})

	urlCmd := parser.NewCommand("url", "Ссылка на страницу расписания группы")
	urlFaculty := urlCmd.String("f", "faculty", &argparse.Options{Required: true, Help: "Slug факультета"})
	urlGroup := urlCmd.String("g", "group", &argparse.Options{Required: true, Help: "Slug группы"})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal("Ошибка загрузки конфигурации: %v", err)
	}
	tz, err := time.LoadLocation(*timezone)
	if err != nil {
		fatal("Неизвестный часовой пояс: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fatal("Ошибка настройки логирования: %v", err)
	}

	ttl := make(map[cache.Type]time.Duration, len(cache.Types))
	for _, t := range cache.Types {
		ttl[t] = cfg.Cache.TTL.For(t)
	}

	service, err := scraper.NewService(scraper.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		PhotosURL:          cfg.Upstream.PhotosURL,
		LogosStylesheetURL: cfg.Upstream.LogosStylesheetURL,
		UserAgent:          cfg.Upstream.UserAgent,
		TTL:                ttl,
		ResourcesParallel:  cfg.Resources.MaxParallel,
	},
		cache.NewMemory(cfg.Cache.StaleFor),
		academic.NewCalendar(cfg.WeekID.BaseID, cfg.WeekID.BaseYear),
		scraper.NewHTTPClient(cfg.Upstream.Timeout),
		logging.Component(logger, "scraper"),
	)
	if err != nil {
		fatal("Ошибка создания scraper сервиса: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case facultiesCmd.Happened():
		faculties, err := service.FetchFaculties(ctx)
		if err != nil {
			fatal("Ошибка получения факультетов: %v", err)
		}
		printJSON(os.Stdout, faculties)

	case coursesCmd.Happened():
		courses, err := service.FetchFacultyCourses(ctx, *coursesFaculty)
		if err != nil {
			fatal("Ошибка получения курсов: %v", err)
		}
		printJSON(os.Stdout, courses)

	case weekCmd.Happened():
		day := time.Now().In(tz)
		if *weekDate != "" {
			day, err = time.ParseInLocation(time.DateOnly, *weekDate, tz)
			if err != nil {
				fatal("Некорректная дата %q: %v", *weekDate, err)
			}
		}
		monday := academic.Monday(day)

		week, err := service.FetchWeekSchedule(ctx, *weekFaculty, *weekGroup, monday)
		if err != nil {
			fatal("Ошибка получения расписания: %v", err)
		}

		out := io.Writer(os.Stdout)
		if *weekOutput != "" {
			file, err := os.Create(*weekOutput)
			if err != nil {
				fatal("Ошибка создания файла: %v", err)
			}
			defer file.Close()
			out = file
		}

		if *weekICS {
			title := fmt.Sprintf("Расписание %s, неделя %d", *weekGroup, academic.WeekNumber(monday))
			if err := ical.Serialize(out, ical.WeekCalendar(week, monday, title, tz)); err != nil {
				fatal("Ошибка записи календаря: %v", err)
			}
			return
		}
		printJSON(out, week)

	case urlCmd.Happened():
		fmt.Println(service.BuildTimetableURL(*urlFaculty, *urlGroup))
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("Ошибка кодирования JSON: %v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
