// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
)

const maxLoggedText = 50

// LogIncoming логирует входящее сообщение или нажатие кнопки.
// Записывает: tg_id, chat_id, username, команду, текст (первые 50 символов).
// Аргументы /login не пишутся.
func LogIncoming(in *reply.Incoming, command string) {
	if in == nil {
		return
	}

	text := in.Text
	if command == "login" {
		text = "/login ***"
	} else if utf8.RuneCountInString(text) > maxLoggedText {
		text = string([]rune(text)[:maxLoggedText]) + "..."
	}

	log.WithFields(log.Fields{
		"tg_id":    in.TgUserID,
		"chat_id":  in.ChatID,
		"username": in.Username,
		"command":  command,
		"callback": in.CallbackID != "",
		"text":     text,
		"time":     time.Now().Format("15:04:05"),
	}).Debug("Входящее сообщение")
}
