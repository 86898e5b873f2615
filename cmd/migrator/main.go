// cmd/migrator/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/Ultrahd-dev/timetable-engine/internal/auth"
	"github.com/Ultrahd-dev/timetable-engine/internal/config"
	"github.com/Ultrahd-dev/timetable-engine/internal/jwt"
	"github.com/Ultrahd-dev/timetable-engine/migrations"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "путь к файлу конфигурации")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return
	}

	command := args[0]

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	switch command {
	case "up", "down", "status":
		if err := migrate(cfg, command); err != nil {
			log.Fatal(err)
		}
	case "issue-token":
		// Выпуск токена для клиента API (бот, дашборд, админ)
		if len(args) < 3 {
			log.Fatalf("Необходимо указать имя клиента и роль")
		}
		client, role := args[1], args[2]
		if !auth.ValidRole(role) {
			log.Fatalf("Неизвестная роль %q, допустимые: %v", role, auth.Roles)
		}

		manager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
		token, err := manager.GenerateToken(client, role)
		if err != nil {
			log.Fatalf("Ошибка генерации токена: %v", err)
		}
		fmt.Println(token)
	default:
		fmt.Printf("Неизвестная команда: %s\n", command)
		flag.Usage()
	}
}

// migrate применяет встроенные миграции таблицы кэша
func migrate(cfg *config.Config, command string) error {
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	defer db.Close()

	// База может подниматься вместе с мигратором, поэтому ждем ее с повторами
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			log.Printf("База данных недоступна: %v", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка проверки подключения к БД: %w", err)
	}

	log.Println("Успешное подключение к базе данных")

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("ошибка настройки goose: %w", err)
	}

	switch command {
	case "up":
		if err := goose.Up(db, "."); err != nil {
			return fmt.Errorf("ошибка применения миграций: %w", err)
		}
		fmt.Println("Миграции успешно применены")
	case "down":
		if err := goose.Down(db, "."); err != nil {
			return fmt.Errorf("ошибка отката миграций: %w", err)
		}
		fmt.Println("Миграции успешно откачены")
	case "status":
		if err := goose.Status(db, "."); err != nil {
			return fmt.Errorf("ошибка получения статуса миграций: %w", err)
		}
	}
	return nil
}

func usage() {
	fmt.Println("Использование: migrator [-config FILE] [команда]")
	fmt.Println("Доступные команды:")
	fmt.Println("  up                        - Применить все непримененные миграции")
	fmt.Println("  down                      - Откатить последнюю миграцию")
	fmt.Println("  status                    - Показать статус миграций")
	fmt.Println("  issue-token CLIENT ROLE   - Выпустить JWT для клиента API")
	fmt.Println("")
	fmt.Println("Примеры:")
	fmt.Println("  migrator up")
	fmt.Println("  migrator status")
	fmt.Println("  migrator issue-token telegram-bot bot")
}
