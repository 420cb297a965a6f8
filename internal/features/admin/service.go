// service.go проверяет права и обслуживает вход по паролю.
package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/session"
	"ufcards.ru/cards-bot/internal/common"
)

// Service проверяет права администратора.
type Service struct {
	ids          map[int64]struct{}
	usernames    map[string]struct{}
	passwordHash string
	sessions     session.Store
	now          func() time.Time
}

// NewService создаёт сервис. usernames ожидаются без @ и в нижнем регистре.
// Пустой passwordHash отключает /login: админу достаточно быть в списке.
func NewService(ids []int64, usernames []string, passwordHash string, sessions session.Store) *Service {
	s := &Service{
		ids:          make(map[int64]struct{}, len(ids)),
		usernames:    make(map[string]struct{}, len(usernames)),
		passwordHash: passwordHash,
		sessions:     sessions,
		now:          time.Now,
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	for _, u := range usernames {
		s.usernames[strings.ToLower(strings.TrimPrefix(u, "@"))] = struct{}{}
	}
	return s
}

// IsAdmin: есть ли пользователь в списке администраторов.
func (s *Service) IsAdmin(tgID int64, username string) bool {
	if _, ok := s.ids[tgID]; ok {
		return true
	}
	if username == "" {
		return false
	}
	_, ok := s.usernames[strings.ToLower(username)]
	return ok
}

// PasswordRequired: нужен ли /login перед админ-командами.
func (s *Service) PasswordRequired() bool {
	return s.passwordHash != ""
}

// Authorize проверяет, может ли пользователь выполнять админ-команды прямо сейчас.
func (s *Service) Authorize(ctx context.Context, tgID int64, username string) error {
	if !s.IsAdmin(tgID, username) {
		return common.ErrNotAdmin
	}
	if !s.PasswordRequired() {
		return nil
	}

	var sess adminSession
	err := s.sessions.Get(ctx, session.Key(sessionKind, tgID), &sess)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return common.ErrLoginRequired
	case err != nil:
		return err
	}
	return nil
}

// Login проверяет пароль и открывает сессию на SessionTTL.
// После MaxLoginAttempts неудач вход блокируется на AttemptsWindow.
func (s *Service) Login(ctx context.Context, tgID int64, username, password string) error {
	if !s.IsAdmin(tgID, username) {
		return common.ErrNotAdmin
	}
	if !s.PasswordRequired() {
		return nil
	}

	attemptsKey := session.Key(attemptsKind, tgID)
	var failed int64
	if err := s.sessions.Get(ctx, attemptsKey, &failed); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	if failed >= MaxLoginAttempts {
		return common.ErrTooManyAttempts
	}

	if !VerifyPassword(password, s.passwordHash) {
		n, err := s.sessions.Incr(ctx, attemptsKey, AttemptsWindow)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"tg_id": tgID, "attempt": n}).Warn("Неудачная попытка входа в админку")
		return common.ErrWrongPassword
	}

	if err := s.sessions.Delete(ctx, attemptsKey); err != nil {
		log.WithError(err).Warn("Не удалось сбросить счётчик попыток")
	}
	sess := adminSession{AuthenticatedAt: s.now()}
	if err := s.sessions.Set(ctx, session.Key(sessionKind, tgID), sess, SessionTTL); err != nil {
		return err
	}
	log.WithField("tg_id", tgID).Info("Админ вошёл")
	return nil
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, tgID int64) error {
	return s.sessions.Delete(ctx, session.Key(sessionKind, tgID))
}
