// repository.go работает с таблицей users.
package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/common"
	"ufcards.ru/cards-bot/internal/db/postgres"
)

const userColumns = `id, tg_id, vk_id, display_name, nickname, balance, record_balance,
	last_draw_at, last_activity_at, created_at`

// Repository предоставляет методы для работы с пользователями.
type Repository struct {
	db postgres.DB
}

// NewRepository создаёт новый репозиторий пользователей.
func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

func identityColumn(p Platform) (string, error) {
	switch p {
	case PlatformTelegram:
		return "tg_id", nil
	case PlatformVK:
		return "vk_id", nil
	default:
		return "", fmt.Errorf("неизвестная платформа %q", p)
	}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.TgID, &u.VkID, &u.DisplayName, &u.Nickname,
		&u.Balance, &u.RecordBalance, &u.LastDrawAt, &u.LastActivityAt, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ResolveOrCreate возвращает пользователя по внешнему id, создавая его при первом обращении.
// Создание идёт как «вставить, если нет»: гонка двух вставок заканчивается одной строкой,
// второй вызов просто читает её.
func (r *Repository) ResolveOrCreate(ctx context.Context, ident Identity, displayName string) (*User, error) {
	col, err := identityColumn(ident.Platform)
	if err != nil {
		return nil, err
	}

	tag, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO users (%[1]s, display_name)
		VALUES ($1, $2)
		ON CONFLICT (%[1]s) DO NOTHING
	`, col), ident.ExternalID, displayName)
	if err != nil {
		return nil, common.Storage("resolve_or_create", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, col), ident.ExternalID))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("resolve_or_create", err)
	}

	if tag.RowsAffected() == 1 {
		log.WithFields(log.Fields{
			"user_id":  u.ID,
			"platform": ident.Platform,
		}).Info("Новый пользователь")
	}
	return u, nil
}

// GetByID возвращает пользователя по внутреннему id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns), id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("get_user", err)
	}
	return u, nil
}

// GetNickname возвращает ник или nil.
func (r *Repository) GetNickname(ctx context.Context, id int64) (*string, error) {
	var nick *string
	err := r.db.QueryRow(ctx, `SELECT nickname FROM users WHERE id = $1`, id).Scan(&nick)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("get_nickname", err)
	}
	return nick, nil
}

// SetNickname ставит ник, если его не занял кто-то другой (без учёта регистра).
// Свой же ник в другом регистре разрешён.
// Возвращает true, если до этого ника не было.
//
// Проверка внутри транзакции закрывает гонку с другим игроком лишь частично,
// окончательно спор решает уникальный индекс users_nickname_key_key.
func (r *Repository) SetNickname(ctx context.Context, id int64, nickname string) (bool, error) {
	var first bool
	err := postgres.InTx(ctx, r.db, func(q postgres.Querier) error {
		var current *string
		err := q.QueryRow(ctx, `SELECT nickname FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if postgres.IsNoRows(err) {
				return common.ErrUserNotFound
			}
			return common.Storage("set_nickname", err)
		}
		first = current == nil

		key := NicknameKey(nickname)
		var taken bool
		err = q.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM users WHERE nickname_key = $1 AND id <> $2)
		`, key, id).Scan(&taken)
		if err != nil {
			return common.Storage("set_nickname", err)
		}
		if taken {
			return common.ErrNicknameTaken
		}

		if _, err := q.Exec(ctx, `UPDATE users SET nickname = $2, nickname_key = $3 WHERE id = $1`, id, nickname, key); err != nil {
			if postgres.IsUniqueViolation(err, "users_nickname_key_key") {
				return common.ErrNicknameTaken
			}
			return common.Storage("set_nickname", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

// TouchActivity обновляет время последней активности.
func (r *Repository) TouchActivity(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_activity_at = NOW() WHERE id = $1`, id)
	return common.Storage("touch_activity", err)
}

// Stats возвращает данные профиля одним запросом.
func (r *Repository) Stats(ctx context.Context, id int64) (*Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `
		SELECT u.nickname, u.balance, u.record_balance, u.last_draw_at,
		       (SELECT COUNT(*) FROM owned_cards oc WHERE oc.user_id = u.id)
		FROM users u
		WHERE u.id = $1
	`, id).Scan(&s.Nickname, &s.Balance, &s.RecordBalance, &s.LastDrawAt, &s.OwnedCount)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("stats", err)
	}
	return &s, nil
}

// Count: общее число пользователей (для метрик).
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, common.Storage("count_users", err)
	}
	return n, nil
}
