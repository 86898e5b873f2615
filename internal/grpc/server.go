// Package grpc реализует gRPC API поверх scraper сервиса
package grpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/auth"
	"github.com/Ultrahd-dev/timetable-engine/internal/directory"
	"github.com/Ultrahd-dev/timetable-engine/internal/ical"
	"github.com/Ultrahd-dev/timetable-engine/internal/schedule"
	"github.com/Ultrahd-dev/timetable-engine/internal/scraper"
)

// Scraper операции, которые API отдает клиентам
type Scraper interface {
	FetchFaculties(ctx context.Context) ([]directory.FacultyOption, error)
	FetchFacultyCourses(ctx context.Context, facultySlug string) ([]directory.CourseOption, error)
	FetchWeekSchedule(ctx context.Context, facultySlug, groupSlug string, weekStart time.Time) (*schedule.WeekSchedule, error)
	BuildTimetableURL(facultySlug, groupSlug string) string
	Refresh(ctx context.Context) (int, error)
}

// MethodRoles роли, которым разрешены административные методы
var MethodRoles = map[string][]string{
	FullMethod("RefreshDirectory"): {auth.RoleAdmin},
}

// Server реализует TimetableService
type Server struct {
	scraper Scraper
	tz      *time.Location
	now     func() time.Time
	log     *logrus.Entry
}

// NewServer создает новый gRPC сервер расписания. tz - часовой пояс
// университета, в нем трактуются даты запросов и время занятий.
func NewServer(scraper Scraper, tz *time.Location, log *logrus.Entry) *Server {
	return &Server{
		scraper: scraper,
		tz:      tz,
		now:     time.Now,
		log:     log,
	}
}

// ListFaculties список факультетов
func (s *Server) ListFaculties(ctx context.Context, _ *ListFacultiesRequest) (*ListFacultiesResponse, error) {
	faculties, err := s.scraper.FetchFaculties(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListFacultiesResponse{Faculties: faculties}, nil
}

// ListCourses курсы и группы факультета
func (s *Server) ListCourses(ctx context.Context, req *ListCoursesRequest) (*ListCoursesResponse, error) {
	courses, err := s.scraper.FetchFacultyCourses(ctx, req.Faculty)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListCoursesResponse{Courses: courses}, nil
}

// GetWeekSchedule расписание группы на неделю
func (s *Server) GetWeekSchedule(ctx context.Context, req *WeekRequest) (*WeekScheduleResponse, error) {
	monday, week, err := s.fetchWeek(ctx, req)
	if err != nil {
		return nil, err
	}
	return &WeekScheduleResponse{
		Monday:       monday.Format(time.DateOnly),
		WeekNumber:   academic.WeekNumber(monday),
		TimetableURL: s.scraper.BuildTimetableURL(req.Faculty, req.Group),
		Week:         week,
	}, nil
}

// GetTimetableURL ссылка на страницу группы на сайте
func (s *Server) GetTimetableURL(_ context.Context, req *TimetableURLRequest) (*TimetableURLResponse, error) {
	if req.Faculty == "" || req.Group == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty and group are required")
	}
	return &TimetableURLResponse{URL: s.scraper.BuildTimetableURL(req.Faculty, req.Group)}, nil
}

// ExportWeekCalendar неделя группы в формате iCalendar
func (s *Server) ExportWeekCalendar(ctx context.Context, req *WeekRequest) (*CalendarResponse, error) {
	monday, week, err := s.fetchWeek(ctx, req)
	if err != nil {
		return nil, err
	}

	cal := ical.WeekCalendar(week, monday, req.Group, s.tz)
	var buf bytes.Buffer
	if err := ical.Serialize(&buf, cal); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &CalendarResponse{
		Filename: fmt.Sprintf("%s-%s.ics", req.Group, monday.Format(time.DateOnly)),
		Content:  buf.String(),
	}, nil
}

// RefreshDirectory принудительно обновляет справочник в кэше
func (s *Server) RefreshDirectory(ctx context.Context, _ *RefreshDirectoryRequest) (*RefreshDirectoryResponse, error) {
	n, err := s.scraper.Refresh(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RefreshDirectoryResponse{Faculties: n}, nil
}

func (s *Server) fetchWeek(ctx context.Context, req *WeekRequest) (time.Time, *schedule.WeekSchedule, error) {
	day := s.now().In(s.tz)
	if req.WeekStart != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, req.WeekStart, s.tz)
		if err != nil {
			return time.Time{}, nil, status.Errorf(codes.InvalidArgument, "weekStart must be YYYY-MM-DD: %q", req.WeekStart)
		}
		day = parsed
	}

	monday := academic.Monday(day)
	week, err := s.scraper.FetchWeekSchedule(ctx, req.Faculty, req.Group, monday)
	if err != nil {
		return time.Time{}, nil, toStatus(err)
	}
	return monday, week, nil
}

// toStatus переводит ошибки scraper сервиса в коды gRPC
func toStatus(err error) error {
	switch {
	case errors.Is(err, scraper.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

// NewGRPCServer собирает grpc.Server с логированием и проверкой токенов
func NewGRPCServer(srv TimetableService, mw *auth.Middleware, log *logrus.Entry) *grpc.Server {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(log),
		mw.UnaryInterceptor,
	))
	RegisterTimetableService(gs, srv)
	return gs
}

// Serve слушает порт и обслуживает запросы до отмены ctx
func Serve(ctx context.Context, gs *grpc.Server, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()

	if err := gs.Serve(lis); err != nil {
		return fmt.Errorf("grpc server stopped: %w", err)
	}
	return nil
}
