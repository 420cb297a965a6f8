// repository.go выполняет операции с балансом в таблице users.
// Начисление делается одним UPDATE, чтение и запись не разделены, потерянных обновлений нет.
package economy

import (
	"context"
	"fmt"

	"ufcards.ru/cards-bot/internal/common"
	"ufcards.ru/cards-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с балансами.
type Repository struct {
	db postgres.DB
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

// AddCoins начисляет delta и обновляет рекорд: record = max(record, balance).
// q может быть пулом или транзакцией вызывающего: начисление за карточку и за промокод
// коммитится вместе с остальными изменениями.
func (r *Repository) AddCoins(ctx context.Context, q postgres.Querier, userID, delta int64) (Balance, error) {
	if q == nil {
		q = r.db
	}
	var b Balance
	err := q.QueryRow(ctx, `
		UPDATE users
		SET balance = balance + $2,
		    record_balance = GREATEST(record_balance, balance + $2)
		WHERE id = $1
		RETURNING balance, record_balance
	`, userID, delta).Scan(&b.Balance, &b.RecordBalance)
	if err != nil {
		if postgres.IsNoRows(err) {
			return Balance{}, common.ErrUserNotFound
		}
		return Balance{}, common.Storage("add_coins", err)
	}
	return b, nil
}

// TopBalances возвращает игроков с ником по убыванию баланса.
// При равных балансах выше тот, кто раньше зарегистрировался (меньший id).
func (r *Repository) TopBalances(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, nickname, balance
		FROM users
		WHERE nickname IS NOT NULL
		ORDER BY balance DESC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, common.Storage("top_balances", err)
	}
	defer rows.Close()

	var top []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Nickname, &e.Balance); err != nil {
			return nil, common.Storage("top_balances", fmt.Errorf("scan: %w", err))
		}
		top = append(top, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Storage("top_balances", err)
	}
	return top, nil
}

// RecordHolder возвращает игрока с наибольшим рекордом или nil, если игроков с ником нет.
func (r *Repository) RecordHolder(ctx context.Context) (*RecordHolder, error) {
	var h RecordHolder
	err := r.db.QueryRow(ctx, `
		SELECT id, nickname, record_balance
		FROM users
		WHERE nickname IS NOT NULL
		ORDER BY record_balance DESC, id ASC
		LIMIT 1
	`).Scan(&h.UserID, &h.Nickname, &h.RecordBalance)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, common.Storage("record_holder", err)
	}
	return &h, nil
}
