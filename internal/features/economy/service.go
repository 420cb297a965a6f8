// service.go содержит бизнес-логику экономики.
package economy

import (
	"context"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/db/postgres"
	"ufcards.ru/cards-bot/internal/metrics"
)

// Service управляет экономикой бота.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис экономики.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// AddCoins начисляет монеты. q == nil, отдельный запрос вне транзакции.
func (s *Service) AddCoins(ctx context.Context, q postgres.Querier, userID, delta int64, source string) (Balance, error) {
	b, err := s.repo.AddCoins(ctx, q, userID, delta)
	if err != nil {
		return Balance{}, err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"delta":   delta,
		"source":  source,
		"balance": b.Balance,
	}).Debug("Начисление")
	return b, nil
}

// Granted учитывает начисление в метриках. Вызывается после коммита транзакции.
func (s *Service) Granted(delta int64, source string) {
	metrics.CoinsGranted.WithLabelValues(source).Add(float64(delta))
}

// Top возвращает топ богачей.
func (s *Service) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return s.repo.TopBalances(ctx, limit)
}

// RecordHolder возвращает владельца рекорда или nil.
func (s *Service) RecordHolder(ctx context.Context) (*RecordHolder, error) {
	return s.repo.RecordHolder(ctx)
}
