// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: чистка просроченных сессий и лимитеров,
// выключение исчерпанных промокодов и обновление метрик.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/metrics"
)

// limiterIdle: через сколько простоя лимитер пользователя выбрасывается.
const limiterIdle = 10 * time.Minute

// SessionSweeper: хранилище сессий, которое надо чистить вручную (in-memory).
type SessionSweeper interface {
	Sweep() int
}

// LimiterSweeper: rate limiter с вычисткой простаивающих пользователей.
type LimiterSweeper interface {
	Sweep(idle time.Duration) int
}

// PromoDeactivator выключает исчерпанные промокоды.
type PromoDeactivator interface {
	DeactivateExhausted(ctx context.Context) (int64, error)
}

// UserCounter считает игроков.
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionSweeper // nil, если сессии в Redis
	limiter  LimiterSweeper
	promo    PromoDeactivator
	users    UserCounter
}

// NewScheduler создаёт планировщик задач в указанном часовом поясе.
func NewScheduler(timezone string, sessions SessionSweeper, limiter LimiterSweeper, promo PromoDeactivator, users UserCounter) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).Warnf("Не удалось загрузить %s, используем UTC+3", timezone)
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		sessions: sessions,
		limiter:  limiter,
		promo:    promo,
		users:    users,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	// Каждую минуту: чистка памяти
	if _, err := s.cron.AddFunc("* * * * *", s.sweep); err != nil {
		return err
	}

	// Каждый час: исчерпанные промокоды
	if _, err := s.cron.AddFunc("0 * * * *", func() { s.deactivateExhausted(ctx) }); err != nil {
		return err
	}

	// Каждые 5 минут, число игроков для метрик
	if _, err := s.cron.AddFunc("*/5 * * * *", func() { s.refreshUsers(ctx) }); err != nil {
		return err
	}

	s.refreshUsers(ctx)
	s.cron.Start()
	log.WithField("location", s.cron.Location().String()).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт выполняющиеся задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

func (s *Scheduler) sweep() {
	var sessions, limiters int
	if s.sessions != nil {
		sessions = s.sessions.Sweep()
	}
	if s.limiter != nil {
		limiters = s.limiter.Sweep(limiterIdle)
	}
	if sessions > 0 || limiters > 0 {
		log.WithFields(log.Fields{"sessions": sessions, "limiters": limiters}).Debug("[CRON] Очистка памяти")
	}
}

func (s *Scheduler) deactivateExhausted(ctx context.Context) {
	log.Debug("[CRON] Проверка исчерпанных промокодов")
	if _, err := s.promo.DeactivateExhausted(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка выключения промокодов")
	}
}

func (s *Scheduler) refreshUsers(ctx context.Context) {
	n, err := s.users.Count(ctx)
	if err != nil {
		log.WithError(err).Warn("[CRON] Не удалось посчитать игроков")
		return
	}
	metrics.Users.Set(float64(n))
}
