// service.go содержит бизнес-логику работы с игроками.
package users

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Service управляет пользователями.
type Service struct {
	repo *Repository

	// Одновременные первые обращения одного аккаунта сводятся в один запрос к БД.
	resolving singleflight.Group
}

// NewService создаёт сервис пользователей.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// resolveTimeout ограничивает общий запрос, который не отменяется вместе с ctx вызывающего.
const resolveTimeout = 5 * time.Second

// ResolveOrCreate возвращает (или создаёт) пользователя для внешнего аккаунта.
// Каждый вызывающий получает свою копию структуры.
//
// Общий запрос идёт на контексте без отмены: отменённый ctx первого вызывающего
// не роняет остальных. Каждый ждёт результат, пока жив его собственный ctx.
func (s *Service) ResolveOrCreate(ctx context.Context, ident Identity, displayName string) (*User, error) {
	ch := s.resolving.DoChan(ident.key(), func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()
		return s.repo.ResolveOrCreate(shared, ident, displayName)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		u := *res.Val.(*User)
		return &u, nil
	}
}

// Get возвращает пользователя по внутреннему id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetNickname возвращает ник или nil.
func (s *Service) GetNickname(ctx context.Context, id int64) (*string, error) {
	return s.repo.GetNickname(ctx, id)
}

// SetNickname проверяет формат и сохраняет ник.
// Возвращает сохранённый ник и признак «это первый ник».
func (s *Service) SetNickname(ctx context.Context, id int64, raw string) (string, bool, error) {
	nick, err := ValidateNickname(raw)
	if err != nil {
		return "", false, err
	}
	first, err := s.repo.SetNickname(ctx, id, nick)
	if err != nil {
		return "", false, err
	}
	log.WithFields(log.Fields{"user_id": id, "nickname": nick, "first": first}).Info("Никнейм установлен")
	return nick, first, nil
}

// TouchActivity отмечает активность. Ошибки не возвращаются: это не должно
// мешать основной операции.
func (s *Service) TouchActivity(ctx context.Context, id int64) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.repo.TouchActivity(ctx, id); err != nil {
		log.WithError(err).WithField("user_id", id).Debug("touch_activity не удался")
	}
}

// Stats возвращает данные профиля.
func (s *Service) Stats(ctx context.Context, id int64) (*Stats, error) {
	return s.repo.Stats(ctx, id)
}

// Count: число пользователей.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
