// Package postgrestest поднимает пул к тестовой базе для интеграционных тестов.
// Без TEST_DATABASE_URL тесты пропускаются.
package postgrestest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ufcards.ru/cards-bot/internal/db/postgres"
)

// Pool возвращает пул с накатанными миграциями и пустыми таблицами.
// Пул закрывается автоматически по окончании теста.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан, интеграционный тест пропущен")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Open(ctx, dsn, 10, 1)
	if err != nil {
		t.Fatalf("подключение к тестовой базе: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("миграции: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"TRUNCATE promo_redemptions, promo_codes, owned_cards, users RESTART IDENTITY CASCADE",
	); err != nil {
		t.Fatalf("очистка таблиц: %v", err)
	}
	return pool
}
