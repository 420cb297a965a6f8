// repository.go работает с таблицей owned_cards и временем розыгрыша в users.
package cards

import (
	"context"
	"time"

	"ufcards.ru/cards-bot/internal/common"
	"ufcards.ru/cards-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с карточками пользователей.
type Repository struct {
	db postgres.DB
}

// NewRepository создаёт репозиторий карточек.
func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

// LockLastDraw читает время последнего розыгрыша и блокирует строку пользователя
// до конца транзакции q. Второй розыгрыш того же пользователя ждёт здесь.
func (r *Repository) LockLastDraw(ctx context.Context, q postgres.Querier, userID int64) (*time.Time, error) {
	var last *time.Time
	err := q.QueryRow(ctx, `SELECT last_draw_at FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&last)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("lock_last_draw", err)
	}
	return last, nil
}

// LastDraw: то же без блокировки, для отображения.
func (r *Repository) LastDraw(ctx context.Context, userID int64) (*time.Time, error) {
	var last *time.Time
	err := r.db.QueryRow(ctx, `SELECT last_draw_at FROM users WHERE id = $1`, userID).Scan(&last)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("last_draw", err)
	}
	return last, nil
}

// RecordCardDraw записывает время розыгрыша и добавляет карточку в коллекцию.
// Время обновляется всегда, и для новой карточки, и для повторки.
// Возвращает true, если карточки у пользователя раньше не было.
func (r *Repository) RecordCardDraw(ctx context.Context, q postgres.Querier, userID int64, cardID int, now time.Time) (bool, error) {
	tag, err := q.Exec(ctx, `UPDATE users SET last_draw_at = $2 WHERE id = $1`, userID, now)
	if err != nil {
		return false, common.Storage("record_card_draw", err)
	}
	if tag.RowsAffected() == 0 {
		return false, common.ErrUserNotFound
	}

	tag, err = q.Exec(ctx, `
		INSERT INTO owned_cards (user_id, card_id, acquired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, card_id) DO NOTHING
	`, userID, cardID, now)
	if err != nil {
		return false, common.Storage("record_card_draw", err)
	}
	return tag.RowsAffected() == 1, nil
}

// OwnedCardIDs возвращает id карточек пользователя в порядке получения.
func (r *Repository) OwnedCardIDs(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT card_id FROM owned_cards
		WHERE user_id = $1
		ORDER BY acquired_at, card_id
	`, userID)
	if err != nil {
		return nil, common.Storage("owned_cards", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, common.Storage("owned_cards", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Storage("owned_cards", err)
	}
	return ids, nil
}
