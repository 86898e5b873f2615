// Package config предоставляет функции для работы с конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/cache"
)

// EnvPrefix префикс переменных окружения, переопределяющих файл
const EnvPrefix = "TIMETABLE"

// Бэкенды кэша
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config основная структура конфигурации приложения
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	WeekID    WeekIDConfig    `yaml:"week_id"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Resources ResourcesConfig `yaml:"resources"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig конфигурация сервера
type ServerConfig struct {
	Port int `yaml:"port"`
}

// UpstreamConfig сайт расписания и вспомогательные страницы
type UpstreamConfig struct {
	BaseURL            string        `yaml:"base_url"`
	PhotosURL          string        `yaml:"photos_url"`
	LogosStylesheetURL string        `yaml:"logos_stylesheet_url"` // пусто - ищется на странице факультетов
	UserAgent          string        `yaml:"user_agent"`
	Timeout            time.Duration `yaml:"timeout"`
}

// WeekIDConfig опорная точка нумерации недель на сайте.
// BaseID подбирается вручную по живому сайту и требует периодической сверки.
type WeekIDConfig struct {
	BaseID   int `yaml:"base_id"`
	BaseYear int `yaml:"base_year"` // 0 - текущий учебный год
}

// CacheConfig конфигурация кэша
type CacheConfig struct {
	Backend  string        `yaml:"backend"`
	StaleFor time.Duration `yaml:"stale_for"`
	TTL      TTLConfig     `yaml:"ttl"`
}

// TTLConfig время жизни по типам данных
type TTLConfig struct {
	Faculties time.Duration `yaml:"faculties"`
	Courses   time.Duration `yaml:"courses"`
	Schedule  time.Duration `yaml:"schedule"`
	Resources time.Duration `yaml:"resources"`
	Logos     time.Duration `yaml:"logos"`
	Photos    time.Duration `yaml:"photos"`
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// JWTConfig конфигурация сервисных токенов
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	Expiration time.Duration `yaml:"expiration"`
}

// ResourcesConfig загрузка ссылок на электронные ресурсы
type ResourcesConfig struct {
	MaxParallel int `yaml:"max_parallel"`
}

// RefreshConfig периодический прогрев кэша
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig конфигурация логирования
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig загружает конфигурацию из YAML файла и переменных окружения.
// Пустое имя файла - только значения по умолчанию и окружение.
func LoadConfig(filename string) (*Config, error) {
	cfg := &Config{}

	if filename != "" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file %s: %w", filename, err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", filename, err)
		}
	}

	applyEnv(cfg)
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults устанавливает значения по умолчанию, если они не заданы
func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 50051
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 30 * time.Second
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = "timetable-engine/1.0"
	}
	// Без явного base_id привязка фиксируется к DefaultBaseYear.
	// Отсчет от текущего учебного года: задать base_id и base_year: 0.
	if c.WeekID.BaseID == 0 {
		c.WeekID.BaseID = academic.DefaultBaseWeekID
		if c.WeekID.BaseYear == 0 {
			c.WeekID.BaseYear = academic.DefaultBaseYear
		}
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendMemory
	}
	if c.Cache.StaleFor == 0 {
		c.Cache.StaleFor = 7 * 24 * time.Hour
	}

	ttl := &c.Cache.TTL
	setDuration(&ttl.Faculties, 24*time.Hour)
	setDuration(&ttl.Courses, 12*time.Hour)
	setDuration(&ttl.Schedule, 30*time.Minute)
	setDuration(&ttl.Resources, 6*time.Hour)
	setDuration(&ttl.Logos, 7*24*time.Hour)
	setDuration(&ttl.Photos, 7*24*time.Hour)

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "timetable:"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "timetable-engine"
	}
	if c.JWT.Expiration == 0 {
		c.JWT.Expiration = 365 * 24 * time.Hour
	}
	if c.Resources.MaxParallel == 0 {
		c.Resources.MaxParallel = 4
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("upstream.base_url must be an absolute URL: %q", c.Upstream.BaseURL)
	}

	switch c.Cache.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Resources.MaxParallel < 0 {
		return errors.New("resources.max_parallel must not be negative")
	}
	return nil
}

// For возвращает TTL для типа данных
func (t TTLConfig) For(cacheType cache.Type) time.Duration {
	switch cacheType {
	case cache.Faculties:
		return t.Faculties
	case cache.Courses:
		return t.Courses
	case cache.Schedule:
		return t.Schedule
	case cache.Resources:
		return t.Resources
	case cache.Logos:
		return t.Logos
	case cache.Photos:
		return t.Photos
	}
	return 0
}

// GetDSN строка подключения к PostgreSQL
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// applyEnv переопределяет значения из переменных TIMETABLE_*,
// например TIMETABLE_CACHE_BACKEND или TIMETABLE_UPSTREAM_BASE_URL
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}

	num("server.port", &cfg.Server.Port)

	str("upstream.base_url", &cfg.Upstream.BaseURL)
	str("upstream.photos_url", &cfg.Upstream.PhotosURL)
	str("upstream.logos_stylesheet_url", &cfg.Upstream.LogosStylesheetURL)
	str("upstream.user_agent", &cfg.Upstream.UserAgent)
	dur("upstream.timeout", &cfg.Upstream.Timeout)

	num("week_id.base_id", &cfg.WeekID.BaseID)
	num("week_id.base_year", &cfg.WeekID.BaseYear)

	str("cache.backend", &cfg.Cache.Backend)
	dur("cache.stale_for", &cfg.Cache.StaleFor)
	dur("cache.ttl.faculties", &cfg.Cache.TTL.Faculties)
	dur("cache.ttl.courses", &cfg.Cache.TTL.Courses)
	dur("cache.ttl.schedule", &cfg.Cache.TTL.Schedule)
	dur("cache.ttl.resources", &cfg.Cache.TTL.Resources)
	dur("cache.ttl.logos", &cfg.Cache.TTL.Logos)
	dur("cache.ttl.photos", &cfg.Cache.TTL.Photos)

	str("redis.addr", &cfg.Redis.Addr)
	str("redis.password", &cfg.Redis.Password)
	num("redis.db", &cfg.Redis.DB)
	str("redis.prefix", &cfg.Redis.Prefix)

	str("database.host", &cfg.Database.Host)
	num("database.port", &cfg.Database.Port)
	str("database.user", &cfg.Database.User)
	str("database.password", &cfg.Database.Password)
	str("database.dbname", &cfg.Database.DBName)
	str("database.sslmode", &cfg.Database.SSLMode)

	str("jwt.secret", &cfg.JWT.Secret)
	str("jwt.issuer", &cfg.JWT.Issuer)
	dur("jwt.expiration", &cfg.JWT.Expiration)

	num("resources.max_parallel", &cfg.Resources.MaxParallel)

	if v.IsSet("refresh.enabled") {
		cfg.Refresh.Enabled = v.GetBool("refresh.enabled")
	}
	dur("refresh.interval", &cfg.Refresh.Interval)

	str("log.level", &cfg.Log.Level)
	str("log.format", &cfg.Log.Format)
}
