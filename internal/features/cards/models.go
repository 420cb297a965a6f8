// Package cards отвечает за розыгрыш карточек: кулдаун, взвешенный выбор, награда, коллекция.
// models.go описывает результаты розыгрыша и чистые функции расчёта.
package cards

import (
	"time"

	"ufcards.ru/cards-bot/internal/catalog"
)

// Cooldown: состояние кулдауна.
// Ready == true тогда и только тогда, когда SecondsRemaining == 0.
type Cooldown struct {
	Ready            bool
	SecondsRemaining int64
}

// CooldownStatus считает кулдаун по времени последнего розыгрыша.
// lastDraw == nil, пользователь ещё не тянул карточку.
// Оставшееся время округляется вверх до секунды.
func CooldownStatus(lastDraw *time.Time, now time.Time, cooldown time.Duration) Cooldown {
	if lastDraw == nil {
		return Cooldown{Ready: true}
	}
	remaining := cooldown - now.Sub(*lastDraw)
	if remaining <= 0 {
		return Cooldown{Ready: true}
	}
	secs := int64((remaining + time.Second - 1) / time.Second)
	return Cooldown{SecondsRemaining: secs}
}

// Reward: полная стоимость за новую карточку, половина (вниз) за повторку.
func Reward(card catalog.Card, wasNew bool) int64 {
	if wasNew {
		return card.Value
	}
	return card.Value / 2
}

// DrawStatus: исход розыгрыша.
type DrawStatus int

const (
	DrawOnCooldown DrawStatus = iota // Кулдаун не прошёл, ничего не изменилось
	DrawDrawn                        // Карточка выдана, монеты начислены
)

// DrawOutcome: результат Service.Draw.
type DrawOutcome struct {
	Status   DrawStatus
	Cooldown Cooldown // Для DrawOnCooldown, сколько ждать, для DrawDrawn, полный кулдаун

	Card    catalog.Card
	WasNew  bool
	Reward  int64
	Balance int64
}

// Wrap сдвигает страницу на delta по кругу из n страниц.
func Wrap(page, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return ((page+delta)%n + n) % n
}
