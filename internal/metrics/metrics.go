// Package metrics: счётчики Prometheus и HTTP-листенер /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "ufcards"

var (
	// CardDraws: вытянутые карточки по редкости и типу (new / repeat).
	CardDraws = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "card_draws_total",
		Help:      "Вытянутые карточки.",
	}, []string{"tier", "kind"})

	// CooldownRejections: попытки вытянуть карточку до конца кулдауна.
	CooldownRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cooldown_rejections_total",
		Help:      "Отказы по кулдауну.",
	})

	// PromoRedemptions: активации промокодов по исходу.
	PromoRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promo_redemptions_total",
		Help:      "Попытки активации промокодов.",
	}, []string{"outcome"})

	// CoinsGranted: начисленные монеты по источнику (card / promo).
	CoinsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coins_granted_total",
		Help:      "Начисленные монеты.",
	}, []string{"source"})

	// Commands: обработанные команды.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Обработанные команды.",
	}, []string{"command"})

	// CommandDuration: время обработки апдейта.
	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_seconds",
		Help:      "Время обработки команды.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"command"})

	// Panics: восстановленные паники в обработчиках.
	Panics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_panics_total",
		Help:      "Паники в обработчиках.",
	})

	// RateLimited: апдейты, отброшенные лимитером.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Отброшенные лимитером апдейты.",
	})

	// Users: число пользователей (обновляется планировщиком).
	Users = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users",
		Help:      "Зарегистрированные пользователи.",
	})
)

// Serve поднимает /metrics на addr и останавливается по ctx.
// Пустой addr: метрики наружу не отдаются.
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Метрики доступны на /metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Сервер метрик остановлен с ошибкой")
	}
}
