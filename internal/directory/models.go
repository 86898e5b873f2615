// Package directory разбирает списки факультетов, курсов и групп
// и подбирает картинки факультетов
package directory

// FacultyOption факультет. ImageURL равен nil, если картинка не найдена.
type FacultyOption struct {
	Slug     string  `json:"slug"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// GroupOption учебная группа
type GroupOption struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// CourseOption курс факультета со списком групп
type CourseOption struct {
	Number int           `json:"number"`
	Name   string        `json:"name"`
	Groups []GroupOption `json:"groups"`
}
