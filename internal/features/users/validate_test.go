package users

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ufcards.ru/cards-bot/internal/common"
)

func TestValidateNickname(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"neo", "neo", nil},
		{"  Нео_2000  ", "Нео_2000", nil},
		{"ab", "", common.ErrNicknameTooShort},
		{"абвгдеёжзийклмнопрстуф", "", common.ErrNicknameTooLong},
		{"двадцать_символов_ок", "двадцать_символов_ок", nil},
		{"with space", "", common.ErrNicknameBadChars},
		{"emoji😎", "", common.ErrNicknameBadChars},
		{"dash-name", "", common.ErrNicknameBadChars},
		{"   ", "", common.ErrNicknameTooShort},
	}
	for _, tc := range cases {
		got, err := ValidateNickname(tc.in)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.in)
			continue
		}
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNicknameKey(t *testing.T) {
	assert.Equal(t, NicknameKey("вася"), NicknameKey("Вася"))
	assert.Equal(t, NicknameKey("ВАСЯ_2000"), NicknameKey("вася_2000"))
	assert.Equal(t, "neo", NicknameKey("NeO"))
	assert.NotEqual(t, NicknameKey("вася"), NicknameKey("васе"))
}

func TestNickOrFallback(t *testing.T) {
	nick := "neo"
	empty := ""
	assert.Equal(t, "neo", NickOrFallback(7, &nick))
	assert.Equal(t, "игрок #7", NickOrFallback(7, nil))
	assert.Equal(t, "игрок #7", NickOrFallback(7, &empty))
}
