// service.go содержит протокол активации промокода.
package promo

import (
	"context"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/db/postgres"
	"ufcards.ru/cards-bot/internal/features/economy"
	"ufcards.ru/cards-bot/internal/metrics"
)

const coinSource = "promo"

// CoinLedger: начисление монет внутри транзакции активации.
type CoinLedger interface {
	AddCoins(ctx context.Context, q postgres.Querier, userID, delta int64, source string) (economy.Balance, error)
	Granted(delta int64, source string)
}

// Service управляет промокодами.
type Service struct {
	db     postgres.DB
	repo   *Repository
	ledger CoinLedger
}

// NewService создаёт сервис промокодов.
func NewService(db postgres.DB, repo *Repository, ledger CoinLedger) *Service {
	return &Service{db: db, repo: repo, ledger: ledger}
}

// Create создаёт промокод после проверки параметров.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Code, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"code":        c.Code,
		"reward":      c.Reward,
		"activations": c.MaxActivations,
		"created_by":  c.CreatedBy,
	}).Info("Промокод создан")
	return c, nil
}

// Redeem активирует код для пользователя.
//
// Запись активации, рост счётчика и начисление монет коммитятся вместе.
// Строка кода заблокирована на всё время транзакции, поэтому лимит
// не превышается даже при одновременных активациях.
func (s *Service) Redeem(ctx context.Context, userID int64, raw string) (*RedeemOutcome, error) {
	code := CanonicalCode(raw)
	out := &RedeemOutcome{Status: RedeemInvalid}

	if code != "" {
		err := postgres.InTx(ctx, s.db, func(q postgres.Querier) error {
			c, err := s.repo.FindActiveForUpdate(ctx, q, code)
			if err != nil || c == nil {
				return err
			}

			if c.CurrentActivations >= c.MaxActivations {
				out.Status = RedeemLimitReached
				return nil
			}

			redeemed, err := s.repo.HasRedeemed(ctx, q, userID, c.ID)
			if err != nil {
				return err
			}
			if redeemed {
				out.Status = RedeemAlreadyRedeemed
				return nil
			}

			inserted, err := s.repo.InsertRedemption(ctx, q, userID, c.ID)
			if err != nil {
				return err
			}
			if !inserted {
				out.Status = RedeemAlreadyRedeemed
				return nil
			}
			if err := s.repo.IncrementActivations(ctx, q, c.ID); err != nil {
				return err
			}
			balance, err := s.ledger.AddCoins(ctx, q, userID, c.Reward, coinSource)
			if err != nil {
				return err
			}

			*out = RedeemOutcome{Status: RedeemRedeemed, Amount: c.Reward, Balance: balance.Balance}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	metrics.PromoRedemptions.WithLabelValues(out.Status.String()).Inc()
	if out.Status == RedeemRedeemed {
		s.ledger.Granted(out.Amount, coinSource)
		log.WithFields(log.Fields{"user_id": userID, "code": code, "amount": out.Amount}).Info("Промокод активирован")
	}
	return out, nil
}

// DeactivateExhausted выключает исчерпанные коды (вызывается планировщиком).
func (s *Service) DeactivateExhausted(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateExhausted(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.WithField("count", n).Info("Исчерпанные промокоды выключены")
	}
	return n, nil
}
