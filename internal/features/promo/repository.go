// repository.go работает с таблицами promo_codes и promo_redemptions.
package promo

import (
	"context"

	"ufcards.ru/cards-bot/internal/common"
	"ufcards.ru/cards-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с промокодами.
type Repository struct {
	db postgres.DB
}

// NewRepository создаёт репозиторий промокодов.
func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

// Create сохраняет промокод. Дубликат (без учёта регистра), ErrDuplicateCode.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (*Code, error) {
	c := Code{
		Code:           req.Code,
		Reward:         req.Reward,
		MaxActivations: req.MaxActivations,
		CreatedBy:      req.CreatedBy,
		IsActive:       true,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO promo_codes (code, reward, max_activations, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, req.Code, req.Reward, req.MaxActivations, req.CreatedBy).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "promo_codes_code_upper_key") {
			return nil, common.ErrDuplicateCode
		}
		return nil, common.Storage("create_code", err)
	}
	return &c, nil
}

// FindActiveForUpdate находит активный код и блокирует его строку до конца транзакции.
// Все активации одного кода выстраиваются в очередь на этой блокировке.
// Нет такого кода, nil без ошибки.
func (r *Repository) FindActiveForUpdate(ctx context.Context, q postgres.Querier, code string) (*Code, error) {
	var c Code
	err := q.QueryRow(ctx, `
		SELECT id, code, reward, max_activations, current_activations, created_by, created_at, is_active
		FROM promo_codes
		WHERE UPPER(code) = $1 AND is_active
		FOR UPDATE
	`, code).Scan(
		&c.ID, &c.Code, &c.Reward, &c.MaxActivations, &c.CurrentActivations,
		&c.CreatedBy, &c.CreatedAt, &c.IsActive,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, common.Storage("find_code", err)
	}
	return &c, nil
}

// HasRedeemed сообщает, активировал ли пользователь код.
func (r *Repository) HasRedeemed(ctx context.Context, q postgres.Querier, userID, codeID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM promo_redemptions WHERE user_id = $1 AND code_id = $2)
	`, userID, codeID).Scan(&exists)
	if err != nil {
		return false, common.Storage("has_redeemed", err)
	}
	return exists, nil
}

// InsertRedemption записывает активацию. false, запись уже была.
func (r *Repository) InsertRedemption(ctx context.Context, q postgres.Querier, userID, codeID int64) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO promo_redemptions (user_id, code_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, code_id) DO NOTHING
	`, userID, codeID)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return false, common.ErrUserNotFound
		}
		return false, common.Storage("insert_redemption", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementActivations увеличивает счётчик активаций.
func (r *Repository) IncrementActivations(ctx context.Context, q postgres.Querier, codeID int64) error {
	_, err := q.Exec(ctx, `
		UPDATE promo_codes SET current_activations = current_activations + 1 WHERE id = $1
	`, codeID)
	return common.Storage("increment_activations", err)
}

// DeactivateExhausted выключает коды с исчерпанным лимитом. Возвращает число выключенных.
func (r *Repository) DeactivateExhausted(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE promo_codes SET is_active = FALSE
		WHERE is_active AND current_activations >= max_activations
	`)
	if err != nil {
		return 0, common.Storage("deactivate_exhausted", err)
	}
	return tag.RowsAffected(), nil
}
