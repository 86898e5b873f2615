// Package main запускает gRPC API расписания и периодический прогрев кэша
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Ultrahd-dev/timetable-engine/internal/academic"
	"github.com/Ultrahd-dev/timetable-engine/internal/auth"
	"github.com/Ultrahd-dev/timetable-engine/internal/cache"
	"github.com/Ultrahd-dev/timetable-engine/internal/config"
	"github.com/Ultrahd-dev/timetable-engine/internal/grpc"
	"github.com/Ultrahd-dev/timetable-engine/internal/jwt"
	"github.com/Ultrahd-dev/timetable-engine/internal/logging"
	"github.com/Ultrahd-dev/timetable-engine/internal/scraper"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "путь к файлу конфигурации")
	timezone := flag.String("tz", "Europe/Moscow", "часовой пояс университета")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка настройки логирования: %v\n", err)
		os.Exit(1)
	}
	log := logging.Component(logger, "api")

	tz, err := time.LoadLocation(*timezone)
	if err != nil {
		log.WithError(err).Fatal("Неизвестный часовой пояс")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Ошибка подключения к хранилищу кэша")
	}
	defer closeStore()
	log.WithField("backend", cfg.Cache.Backend).Info("Хранилище кэша готово")

	ttl := make(map[cache.Type]time.Duration, len(cache.Types))
	for _, t := range cache.Types {
		ttl[t] = cfg.Cache.TTL.For(t)
	}

	scraperService, err := scraper.NewService(scraper.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		PhotosURL:          cfg.Upstream.PhotosURL,
		LogosStylesheetURL: cfg.Upstream.LogosStylesheetURL,
		UserAgent:          cfg.Upstream.UserAgent,
		TTL:                ttl,
		ResourcesParallel:  cfg.Resources.MaxParallel,
		RefreshInterval:    cfg.Refresh.Interval,
	},
		store,
		academic.NewCalendar(cfg.WeekID.BaseID, cfg.WeekID.BaseYear),
		scraper.NewHTTPClient(cfg.Upstream.Timeout),
		logging.Component(logger, "scraper"),
	)
	if err != nil {
		log.WithError(err).Fatal("Ошибка создания scraper сервиса")
	}

	if cfg.Refresh.Enabled {
		// Немедленный прогрев справочника при старте, дальше по таймеру
		go func() {
			if _, err := scraperService.Refresh(ctx); err != nil {
				log.WithError(err).Warn("Ошибка начального прогрева кэша")
			}
		}()
		scraperService.StartPeriodicRefresh(ctx)
	}

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	server := grpc.NewServer(scraperService, tz, logging.Component(logger, "grpc"))
	grpcServer := grpc.NewGRPCServer(server, auth.NewMiddleware(jwtManager, grpc.MethodRoles), logging.Component(logger, "grpc"))

	log.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"upstream": cfg.Upstream.BaseURL,
	}).Info("gRPC API запущен")

	if err := grpc.Serve(ctx, grpcServer, cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("Ошибка gRPC сервера")
	}
	log.Info("Сервер остановлен")
}

// openStore открывает хранилище кэша по настройке cache.backend
func openStore(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return cache.NewRedis(client, cfg.Redis.Prefix, cfg.Cache.StaleFor), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		return cache.NewPostgres(pool, cfg.Cache.StaleFor), pool.Close, nil

	default:
		return cache.NewMemory(cfg.Cache.StaleFor), func() {}, nil
	}
}
