package cards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ufcards.ru/cards-bot/internal/catalog"
)

func TestCooldownStatus(t *testing.T) {
	const cd = 3 * time.Hour
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, Cooldown{Ready: true}, CooldownStatus(nil, now, cd))

	// сразу после розыгрыша, полный кулдаун
	assert.Equal(t, Cooldown{SecondsRemaining: 10800}, CooldownStatus(&now, now, cd))

	last := now.Add(-time.Hour)
	assert.Equal(t, Cooldown{SecondsRemaining: 7200}, CooldownStatus(&last, now, cd))

	// неполная секунда округляется вверх, готовности ещё нет
	last = now.Add(-cd + 300*time.Millisecond)
	assert.Equal(t, Cooldown{SecondsRemaining: 1}, CooldownStatus(&last, now, cd))

	last = now.Add(-cd)
	assert.Equal(t, Cooldown{Ready: true}, CooldownStatus(&last, now, cd))

	last = now.Add(-10 * cd)
	assert.Equal(t, Cooldown{Ready: true}, CooldownStatus(&last, now, cd))
}

func TestReward(t *testing.T) {
	card := catalog.Card{ID: 1, Value: 201}
	assert.EqualValues(t, 201, Reward(card, true))
	assert.EqualValues(t, 100, Reward(card, false))
	assert.EqualValues(t, 0, Reward(catalog.Card{Value: 1}, false))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 1, Wrap(0, 1, 3))
	assert.Equal(t, 0, Wrap(2, 1, 3))
	assert.Equal(t, 2, Wrap(0, -1, 3))
	assert.Equal(t, 0, Wrap(0, -1, 1))
	assert.Equal(t, 0, Wrap(5, 1, 0))
}

func TestHumanCooldown(t *testing.T) {
	assert.Equal(t, "3 часа", HumanCooldown(3*time.Hour))
	assert.Equal(t, "1 час", HumanCooldown(time.Hour))
	assert.Equal(t, "5 часов", HumanCooldown(5*time.Hour))
	assert.Equal(t, "1 час 30 мин 0 сек", HumanCooldown(90*time.Minute))
	assert.Equal(t, "10 мин 0 сек", HumanCooldown(10*time.Minute))
}
