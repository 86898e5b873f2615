package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entriesTable = "cache_entries"

// Postgres хранилище в таблице cache_entries (см. migrations)
type Postgres struct {
	pool     *pgxpool.Pool
	builder  sq.StatementBuilderType
	staleFor time.Duration
	now      func() time.Time
}

// NewPostgres создает хранилище поверх пула соединений
func NewPostgres(pool *pgxpool.Pool, staleFor time.Duration) *Postgres {
	return &Postgres{
		pool:     pool,
		builder:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		staleFor: staleFor,
		now:      time.Now,
	}
}

func (p *Postgres) Get(ctx context.Context, key string, dst any) (bool, error) {
	return p.load(ctx, key, dst, true)
}

func (p *Postgres) GetWithStale(ctx context.Context, key string, dst any) (bool, error) {
	return p.load(ctx, key, dst, false)
}

func (p *Postgres) Set(ctx context.Context, key string, value any, ttl time.Duration, cacheType Type) error {
	e, err := newEntry(value, ttl, cacheType, p.now())
	if err != nil {
		return err
	}

	query, args, err := p.upsertQuery(key, e)
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Prune удаляет записи, вышедшие за окно устаревания
func (p *Postgres) Prune(ctx context.Context) (int64, error) {
	if p.staleFor <= 0 {
		return 0, nil
	}
	query, args, err := p.pruneQuery()
	if err != nil {
		return 0, fmt.Errorf("failed to build prune query: %w", err)
	}
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) load(ctx context.Context, key string, dst any, freshOnly bool) (bool, error) {
	query, args, err := p.selectQuery(key, freshOnly)
	if err != nil {
		return false, fmt.Errorf("failed to build select query: %w", err)
	}

	var raw []byte
	err = p.pool.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load cache entry %s: %w", key, err)
	}

	if err := (entry{Value: raw}).decode(dst); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Postgres) selectQuery(key string, freshOnly bool) (string, []any, error) {
	q := p.builder.Select("value").From(entriesTable).Where(sq.Eq{"key": key})
	switch {
	case freshOnly:
		q = q.Where(sq.Gt{"expires_at": p.now()})
	case p.staleFor > 0:
		q = q.Where(sq.Gt{"expires_at": p.now().Add(-p.staleFor)})
	}
	return q.ToSql()
}

func (p *Postgres) upsertQuery(key string, e entry) (string, []any, error) {
	return p.builder.Insert(entriesTable).
		Columns("key", "cache_type", "value", "expires_at", "updated_at").
		Values(key, string(e.Type), json.RawMessage(e.Value), e.ExpiresAt, p.now()).
		Suffix("ON CONFLICT (key) DO UPDATE SET " +
			"cache_type = EXCLUDED.cache_type, value = EXCLUDED.value, " +
			"expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at").
		ToSql()
}

func (p *Postgres) pruneQuery() (string, []any, error) {
	return p.builder.Delete(entriesTable).
		Where(sq.Lt{"expires_at": p.now().Add(-p.staleFor)}).
		ToSql()
}
