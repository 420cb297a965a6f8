// Package profile собирает профиль игрока из данных пользователя, кулдауна и каталога.
// Только чтение, ничего не меняет.
package profile

import (
	"context"
	"time"

	"ufcards.ru/cards-bot/internal/common"
	"ufcards.ru/cards-bot/internal/features/cards"
	"ufcards.ru/cards-bot/internal/features/users"
)

// StatsReader: источник данных профиля.
type StatsReader interface {
	Stats(ctx context.Context, id int64) (*users.Stats, error)
}

// View: профиль для отображения.
type View struct {
	Nickname      string // Ник или «игрок #id»
	Balance       int64
	RecordBalance int64
	OwnedCount    int
	TotalCards    int
	Progress      int // Процент открытых карточек, округление вниз
	Cooldown      cards.Cooldown
}

// Service строит профили.
type Service struct {
	stats      StatsReader
	totalCards int
	cooldown   time.Duration
	now        func() time.Time
}

// NewService создаёт сервис. totalCards, размер каталога.
func NewService(stats StatsReader, totalCards int, cooldown time.Duration) *Service {
	return &Service{stats: stats, totalCards: totalCards, cooldown: cooldown, now: time.Now}
}

// View возвращает профиль пользователя.
func (s *Service) View(ctx context.Context, userID int64) (*View, error) {
	st, err := s.stats.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &View{
		Nickname:      users.NickOrFallback(userID, st.Nickname),
		Balance:       st.Balance,
		RecordBalance: st.RecordBalance,
		OwnedCount:    st.OwnedCount,
		TotalCards:    s.totalCards,
		Progress:      common.Percent(st.OwnedCount, s.totalCards),
		Cooldown:      cards.CooldownStatus(st.LastDrawAt, s.now(), s.cooldown),
	}, nil
}
