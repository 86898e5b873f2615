// Package migrations содержит SQL-миграции goose для таблицы кэша
package migrations

import "embed"

// FS встроенные файлы миграций
//
//go:embed *.sql
var FS embed.FS
