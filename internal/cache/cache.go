// Package cache хранит результаты разбора с TTL и умеет отдавать устаревшие
// значения, когда сайт расписания недоступен
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Type метка вида закэшированных данных, по ней настраивается TTL
type Type string

const (
	Faculties Type = "FACULTIES"
	Courses   Type = "COURSES"
	Schedule  Type = "SCHEDULE"
	Resources Type = "RESOURCES"
	Logos     Type = "LOGOS"
	Photos    Type = "PHOTOS"
)

// Types все известные метки
var Types = []Type{Faculties, Courses, Schedule, Resources, Logos, Photos}

// Store контракт хранилища.
// Get отдает только свежие значения, GetWithStale - и просроченные, пока
// хранилище их не выбросило. Значения сериализуются в JSON.
type Store interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	GetWithStale(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration, cacheType Type) error
}

// Pruner реализуют хранилища, которым нужна явная очистка старых записей
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// Ключи кэша
const (
	FacultiesKey = "faculties"
	LogosKey     = "logos"
	PhotosKey    = "photos"

	// scheduleKeyVersion меняется при изменении формата недели,
	// старые записи после этого просто не находятся
	scheduleKeyVersion = "v2"
)

// ScheduleKey ключ недели группы; monday - понедельник недели
func ScheduleKey(faculty, group string, monday time.Time) string {
	return fmt.Sprintf("schedule:%s:%s:%s:%s", scheduleKeyVersion, faculty, group, monday.Format("2006-01-02"))
}

// CoursesKey ключ списка курсов факультета
func CoursesKey(faculty string) string {
	return "courses:" + faculty
}

// ResourcesKey ключ ссылок на электронные ресурсы
func ResourcesKey(url string) string {
	return "resources:" + url
}

// entry конверт значения вместе с логическим сроком годности
type entry struct {
	Type      Type            `json:"type"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

func newEntry(value any, ttl time.Duration, cacheType Type, now time.Time) (entry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return entry{}, fmt.Errorf("failed to encode cache value: %w", err)
	}
	return entry{Type: cacheType, Value: raw, ExpiresAt: now.Add(ttl)}, nil
}

func (e entry) fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// retained false, если запись старше срока годности плюс окно устаревания.
// Нулевое окно означает хранение без ограничения.
func (e entry) retained(now time.Time, staleFor time.Duration) bool {
	return staleFor <= 0 || now.Before(e.ExpiresAt.Add(staleFor))
}

func (e entry) decode(dst any) error {
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return fmt.Errorf("failed to decode cache value: %w", err)
	}
	return nil
}
