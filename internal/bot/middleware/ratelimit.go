package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ufcards.ru/cards-bot/internal/metrics"
)

// RateLimiter ограничивает количество запросов на пользователя.
// У каждого пользователя свой token bucket; долго молчавшие вычищаются через Sweep.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter: perSecond запросов в секунду, всплеск до burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[int64]*userLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow сообщает, можно ли обработать запрос пользователя прямо сейчас.
func (rl *RateLimiter) Allow(tgID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	ul, ok := rl.limiters[tgID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[tgID] = ul
	}
	ul.lastSeen = now

	if !ul.limiter.AllowN(now, 1) {
		metrics.RateLimited.Inc()
		return false
	}
	return true
}

// Sweep удаляет пользователей, не писавших дольше idle. Возвращает число удалённых.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for id, ul := range rl.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(rl.limiters, id)
			removed++
		}
	}
	return removed
}

// Len: число отслеживаемых пользователей.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
