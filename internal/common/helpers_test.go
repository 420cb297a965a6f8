package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCards(t *testing.T) {
	cases := map[int64]string{
		0:   "карточек",
		1:   "карточка",
		2:   "карточки",
		5:   "карточек",
		11:  "карточек",
		12:  "карточек",
		21:  "карточка",
		22:  "карточки",
		111: "карточек",
		-3:  "карточки",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeCards(n), "n=%d", n)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0 секунд", FormatDuration(0))
	assert.Equal(t, "0 секунд", FormatDuration(-5))
	assert.Equal(t, "59 сек", FormatDuration(59))
	assert.Equal(t, "1 мин 1 сек", FormatDuration(61))
	assert.Equal(t, "3 час 0 мин 0 сек", FormatDuration(10800))
	assert.Equal(t, "2 час 59 мин 59 сек", FormatDuration(10799))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(3, 0))
	assert.Equal(t, 12, Percent(3, 25))
	assert.Equal(t, 100, Percent(25, 25))
}

func TestStorageError(t *testing.T) {
	base := errors.New("connection refused")
	err := Storage("add_coins", base)

	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, base)
	assert.Nil(t, Storage("noop", nil))

	// повторная обёртка не плодит вложенность
	wrapped := fmt.Errorf("draw: %w", err)
	assert.Same(t, err, Storage("again", err))
	assert.True(t, IsStorageError(wrapped))
	assert.False(t, IsStorageError(ErrUserNotFound))
}
