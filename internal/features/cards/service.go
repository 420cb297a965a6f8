// service.go содержит логику розыгрыша.
package cards

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/catalog"
	"ufcards.ru/cards-bot/internal/db/postgres"
	"ufcards.ru/cards-bot/internal/features/economy"
	"ufcards.ru/cards-bot/internal/metrics"
)

const coinSource = "card"

// CoinLedger: начисление монет внутри чужой транзакции (economy.Service).
type CoinLedger interface {
	AddCoins(ctx context.Context, q postgres.Querier, userID, delta int64, source string) (economy.Balance, error)
	Granted(delta int64, source string)
}

// Service разыгрывает карточки.
type Service struct {
	db       postgres.DB
	repo     *Repository
	ledger   CoinLedger
	catalog  *catalog.Catalog
	sampler  *catalog.Sampler
	cooldown time.Duration
	now      func() time.Time
}

// NewService создаёт сервис розыгрыша.
func NewService(
	db postgres.DB,
	repo *Repository,
	ledger CoinLedger,
	cat *catalog.Catalog,
	sampler *catalog.Sampler,
	cooldown time.Duration,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		ledger:   ledger,
		catalog:  cat,
		sampler:  sampler,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Draw: одна попытка вытянуть карточку.
//
// Проверка кулдауна, запись карточки, обновление времени и начисление идут
// в одной транзакции под блокировкой строки пользователя, поэтому два
// параллельных /card одного игрока не дадут две карточки.
func (s *Service) Draw(ctx context.Context, userID int64) (*DrawOutcome, error) {
	var out DrawOutcome

	err := postgres.InTx(ctx, s.db, func(q postgres.Querier) error {
		last, err := s.repo.LockLastDraw(ctx, q, userID)
		if err != nil {
			return err
		}

		now := s.now()
		cd := CooldownStatus(last, now, s.cooldown)
		if !cd.Ready {
			out = DrawOutcome{Status: DrawOnCooldown, Cooldown: cd}
			return nil
		}

		card := s.sampler.Pick()
		wasNew, err := s.repo.RecordCardDraw(ctx, q, userID, card.ID, now)
		if err != nil {
			return err
		}

		reward := Reward(card, wasNew)
		balance, err := s.ledger.AddCoins(ctx, q, userID, reward, coinSource)
		if err != nil {
			return err
		}

		out = DrawOutcome{
			Status:   DrawDrawn,
			Cooldown: CooldownStatus(&now, now, s.cooldown),
			Card:     card,
			WasNew:   wasNew,
			Reward:   reward,
			Balance:  balance.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Status == DrawOnCooldown {
		metrics.CooldownRejections.Inc()
		return &out, nil
	}

	kind := "repeat"
	if out.WasNew {
		kind = "new"
	}
	metrics.CardDraws.WithLabelValues(out.Card.Tier, kind).Inc()
	s.ledger.Granted(out.Reward, coinSource)

	log.WithFields(log.Fields{
		"user_id": userID,
		"card_id": out.Card.ID,
		"tier":    out.Card.Tier,
		"new":     out.WasNew,
		"reward":  out.Reward,
	}).Info("Карточка выдана")
	return &out, nil
}

// CooldownStatus: кулдаун пользователя без блокировок, для профиля.
func (s *Service) CooldownStatus(ctx context.Context, userID int64) (Cooldown, error) {
	last, err := s.repo.LastDraw(ctx, userID)
	if err != nil {
		return Cooldown{}, err
	}
	return CooldownStatus(last, s.now(), s.cooldown), nil
}

// Cooldown: настроенная длительность кулдауна.
func (s *Service) Cooldown() time.Duration { return s.cooldown }

// OwnedCards возвращает карточки пользователя в порядке получения.
// Порядок стабилен между вызовами, по нему листается коллекция.
// Карточки, которых уже нет в каталоге, пропускаются.
func (s *Service) OwnedCards(ctx context.Context, userID int64) ([]catalog.Card, error) {
	ids, err := s.repo.OwnedCardIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Card, 0, len(ids))
	for _, id := range ids {
		card, ok := s.catalog.Get(id)
		if !ok {
			log.WithFields(log.Fields{"user_id": userID, "card_id": id}).Warn("Карточки нет в каталоге")
			continue
		}
		out = append(out, card)
	}
	return out, nil
}

// Catalog: каталог, с которым работает сервис.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }
