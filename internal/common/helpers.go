// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование времени и процентов.
package common

import (
	"fmt"
	"html"
)

// Pluralize возвращает правильную форму слова для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
//
// Пример:
//
//	Pluralize(3, "карточка", "карточки", "карточек") → "карточки"
func Pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeCards: склонение слова «карточка».
func PluralizeCards(n int64) string {
	return Pluralize(n, "карточка", "карточки", "карточек")
}

// FormatDuration форматирует оставшиеся секунды кулдауна.
//
// Примеры:
//
//	FormatDuration(0)     → "0 секунд"
//	FormatDuration(59)    → "59 сек"
//	FormatDuration(61)    → "1 мин 1 сек"
//	FormatDuration(10800) → "3 час 0 мин 0 сек"
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0 секунд"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%d час %d мин %d сек", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%d мин %d сек", minutes, secs)
	default:
		return fmt.Sprintf("%d сек", secs)
	}
}

// Percent возвращает part/total в целых процентах (округление вниз).
// При total == 0 возвращает 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return part * 100 / total
}

// EscapeHTML экранирует пользовательский текст для ParseMode=HTML.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
