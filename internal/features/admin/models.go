// Package admin реализует права администратора: список по Telegram ID или @username
// и, если задан ADMIN_PASSWORD_HASH, вход по паролю с защитой от перебора.
// models.go описывает сессию администратора и лимиты входа.
package admin

import "time"

const (
	// MaxLoginAttempts: после стольких неудачных попыток вход блокируется.
	MaxLoginAttempts = 3
	// AttemptsWindow: на сколько блокируется вход после MaxLoginAttempts неудач.
	AttemptsWindow = time.Hour
	// SessionTTL: сколько живёт сессия после успешного /login.
	SessionTTL = 24 * time.Hour
)

// Виды ключей в хранилище сессий
const (
	sessionKind  = "admin"
	attemptsKind = "login_attempts"
)

// adminSession: активная сессия администратора.
type adminSession struct {
	AuthenticatedAt time.Time `json:"authenticated_at"`
}
