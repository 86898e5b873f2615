package scraper

import (
	"context"

	"github.com/Ultrahd-dev/timetable-engine/internal/cache"
)

// cached отдает свежее значение из кэша или загружает его через fetch.
// Одновременные загрузки одного ключа объединяются; общая загрузка
// не отменяется, если первый вызывающий ушел.
func cached[T any](ctx context.Context, s *Service, key string, cacheType cache.Type, fetch func(context.Context) (T, error)) (T, error) {
	var fresh T
	ok, err := s.store.Get(ctx, key, &fresh)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if ok {
		return fresh, nil
	}

	return shared(ctx, s, key, func(ctx context.Context) (T, error) {
		return load(ctx, s, key, cacheType, fetch)
	})
}

// revalidate загружает значение, минуя свежий кэш
func revalidate[T any](ctx context.Context, s *Service, key string, cacheType cache.Type, fetch func(context.Context) (T, error)) (T, error) {
	return shared(ctx, s, key, func(ctx context.Context) (T, error) {
		return load(ctx, s, key, cacheType, fetch)
	})
}

func shared[T any](ctx context.Context, s *Service, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// load загружает значение и пишет его в кэш. При ошибке загрузки
// возвращается устаревшее значение, если оно есть.
func load[T any](ctx context.Context, s *Service, key string, cacheType cache.Type, fetch func(context.Context) (T, error)) (T, error) {
	log := s.log.WithField("key", key)

	value, err := fetch(ctx)
	if err == nil {
		if err := s.store.Set(ctx, key, value, s.ttl(cacheType), cacheType); err != nil {
			log.WithError(err).Warn("cache write failed")
		}
		return value, nil
	}

	var stale T
	ok, cacheErr := s.store.GetWithStale(ctx, key, &stale)
	if cacheErr != nil {
		log.WithError(cacheErr).Warn("stale cache read failed")
	}
	if ok {
		log.WithError(err).Warn("upstream fetch failed, serving stale value")
		return stale, nil
	}

	var zero T
	return zero, err
}
