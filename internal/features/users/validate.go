package users

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"ufcards.ru/cards-bot/internal/common"
)

const (
	NicknameMinLen = 3
	NicknameMaxLen = 20
)

// ValidateNickname проверяет формат ника и возвращает его без пробелов по краям.
// Правило: 3–20 символов, только буквы (любого алфавита), цифры и подчёркивание.
// Пробелы внутри ника запрещены.
func ValidateNickname(raw string) (string, error) {
	nick := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(nick)
	if n < NicknameMinLen {
		return "", common.ErrNicknameTooShort
	}
	if n > NicknameMaxLen {
		return "", common.ErrNicknameTooLong
	}
	for _, r := range nick {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", common.ErrNicknameBadChars
		}
	}
	return nick, nil
}

// NicknameKey возвращает ключ уникальности ника: регистр сворачивается здесь, а не в базе.
func NicknameKey(nick string) string {
	return strings.ToLower(nick)
}
