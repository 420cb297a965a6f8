package postgres

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Migration: одна версия схемы. Версии применяются по возрастанию, каждая в своей транзакции.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrationsLockKey: ключ pg_advisory_xact_lock, чтобы два процесса
// не накатывали миграции одновременно.
const migrationsLockKey = 7_310_042

// Migrations: схема хранилища. Уже выпущенные версии не редактируются, только новые в конец.
var Migrations = []Migration{
	{1, "users", migration001Users},
	{2, "owned_cards", migration002OwnedCards},
	{3, "promo_codes", migration003Promo},
	{4, "leaderboard_indexes", migration004Leaderboard},
	{5, "nickname_key", migration005NicknameKey},
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id               BIGSERIAL PRIMARY KEY,
    tg_id            BIGINT UNIQUE,
    vk_id            BIGINT UNIQUE,
    display_name     TEXT NOT NULL DEFAULT '',
    nickname         TEXT,
    balance          BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    record_balance   BIGINT NOT NULL DEFAULT 0,
    last_draw_at     TIMESTAMPTZ,
    last_activity_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_record_ge_balance CHECK (record_balance >= balance),
    CONSTRAINT users_one_identity CHECK (tg_id IS NOT NULL OR vk_id IS NOT NULL)
);
CREATE UNIQUE INDEX IF NOT EXISTS users_nickname_lower_key ON users (LOWER(nickname));
`

var migration002OwnedCards = `
CREATE TABLE IF NOT EXISTS owned_cards (
    user_id     BIGINT NOT NULL REFERENCES users(id),
    card_id     INT NOT NULL,
    acquired_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, card_id)
);
`

var migration003Promo = `
CREATE TABLE IF NOT EXISTS promo_codes (
    id                  BIGSERIAL PRIMARY KEY,
    code                TEXT NOT NULL,
    reward              BIGINT NOT NULL CHECK (reward > 0),
    max_activations     INT NOT NULL CHECK (max_activations > 0),
    current_activations INT NOT NULL DEFAULT 0,
    created_by          BIGINT NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_active           BOOLEAN NOT NULL DEFAULT TRUE,
    CONSTRAINT promo_codes_current_le_max CHECK (current_activations <= max_activations)
);
CREATE UNIQUE INDEX IF NOT EXISTS promo_codes_code_upper_key ON promo_codes (UPPER(code));

CREATE TABLE IF NOT EXISTS promo_redemptions (
    user_id     BIGINT NOT NULL REFERENCES users(id),
    code_id     BIGINT NOT NULL REFERENCES promo_codes(id),
    redeemed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, code_id)
);
`

var migration004Leaderboard = `
CREATE INDEX IF NOT EXISTS users_balance_named_idx
    ON users (balance DESC, id) WHERE nickname IS NOT NULL;
CREATE INDEX IF NOT EXISTS users_record_named_idx
    ON users (record_balance DESC, id) WHERE nickname IS NOT NULL;
`

// nickname_key заполняет приложение (strings.ToLower), LOWER() в базе зависит от LC_CTYPE.
var migration005NicknameKey = `
ALTER TABLE users ADD COLUMN IF NOT EXISTS nickname_key TEXT;
UPDATE users SET nickname_key = LOWER(nickname) WHERE nickname IS NOT NULL AND nickname_key IS NULL;
DROP INDEX IF EXISTS users_nickname_lower_key;
CREATE UNIQUE INDEX IF NOT EXISTS users_nickname_key_key ON users (nickname_key);
`

// Migrate применяет все ещё не применённые миграции.
func Migrate(ctx context.Context, db DB) error {
	return ApplyMigrations(ctx, db, Migrations)
}

// ApplyMigrations создаёт schema_migrations и по очереди накатывает migrations.
func ApplyMigrations(ctx context.Context, db DB, migrations []Migration) error {
	if _, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range migrations {
		applied, err := execMigration(ctx, db, m)
		if err != nil {
			return err
		}
		if applied {
			log.WithFields(log.Fields{"version": m.Version, "name": m.Name}).Info("Миграция применена")
		}
	}
	return nil
}

// execMigration выполняет одну миграцию в транзакции.
// Если запрос упадёт, транзакция откатится автоматически.
func execMigration(ctx context.Context, db DB, m Migration) (bool, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationsLockKey); err != nil {
		return false, fmt.Errorf("ошибка блокировки миграций: %w", err)
	}

	// Проверяем, не была ли эта миграция уже применена
	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.Version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return false, fmt.Errorf("ошибка выполнения миграции %d (%s): %w", m.Version, m.Name, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", m.Version,
	); err != nil {
		return false, fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ошибка фиксации миграции %d: %w", m.Version, err)
	}
	return true, nil
}
