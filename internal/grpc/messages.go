package grpc

import (
	"github.com/Ultrahd-dev/timetable-engine/internal/directory"
	"github.com/Ultrahd-dev/timetable-engine/internal/schedule"
)

type ListFacultiesRequest struct{}

type ListFacultiesResponse struct {
	Faculties []directory.FacultyOption `json:"faculties"`
}

type ListCoursesRequest struct {
	Faculty string `json:"faculty"`
}

type ListCoursesResponse struct {
	Courses []directory.CourseOption `json:"courses"`
}

// WeekRequest неделя группы. WeekStart - любая дата недели в формате
// YYYY-MM-DD, пусто - текущая неделя.
type WeekRequest struct {
	Faculty   string `json:"faculty"`
	Group     string `json:"group"`
	WeekStart string `json:"weekStart,omitempty"`
}

type WeekScheduleResponse struct {
	Monday       string                 `json:"monday"`
	WeekNumber   int                    `json:"weekNumber"`
	TimetableURL string                 `json:"timetableUrl"`
	Week         *schedule.WeekSchedule `json:"week"`
}

type TimetableURLRequest struct {
	Faculty string `json:"faculty"`
	Group   string `json:"group"`
}

type TimetableURLResponse struct {
	URL string `json:"url"`
}

type CalendarResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type RefreshDirectoryRequest struct{}

type RefreshDirectoryResponse struct {
	Faculties int `json:"faculties"`
}
