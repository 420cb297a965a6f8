// Package app инициализирует все компоненты приложения.
// app.go собирает приложение: создаёт БД-пул, хранилище сессий, репозитории, сервисы,
// обработчики и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot"
	"ufcards.ru/cards-bot/internal/bot/middleware"
	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/bot/session"
	"ufcards.ru/cards-bot/internal/catalog"
	"ufcards.ru/cards-bot/internal/config"
	"ufcards.ru/cards-bot/internal/db/postgres"
	"ufcards.ru/cards-bot/internal/features/admin"
	"ufcards.ru/cards-bot/internal/features/cards"
	"ufcards.ru/cards-bot/internal/features/economy"
	"ufcards.ru/cards-bot/internal/features/profile"
	"ufcards.ru/cards-bot/internal/features/promo"
	"ufcards.ru/cards-bot/internal/features/users"
	"ufcards.ru/cards-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
	Redis     *redis.Client // nil, если сессии в памяти
}

// Services: ядро без транспорта.
type Services struct {
	Catalog *catalog.Catalog
	Users   *users.Service
	Economy *economy.Service
	Cards   *cards.Service
	Promo   *promo.Service
	Profile *profile.Service
}

// NewServices собирает сервисы поверх БД и каталога.
func NewServices(db postgres.DB, cat *catalog.Catalog, cfg *config.Config) *Services {
	userService := users.NewService(users.NewRepository(db))
	economyService := economy.NewService(economy.NewRepository(db))
	cardService := cards.NewService(db, cards.NewRepository(db), economyService, cat,
		catalog.NewSampler(cat, nil), cfg.CardCooldown)

	return &Services{
		Catalog: cat,
		Users:   userService,
		Economy: economyService,
		Cards:   cardService,
		Promo:   promo.NewService(db, promo.NewRepository(db), economyService),
		Profile: profile.NewService(userService, cat.Len(), cfg.CardCooldown),
	}
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен, компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Каталог ===
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	log.WithFields(log.Fields{"cards": cat.Len(), "tiers": len(cat.Tiers())}).Info("Каталог загружен")

	// === 3. Сессии ===
	var (
		sessions    session.Store
		memory      *session.Memory
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient, err = session.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		sessions = session.NewRedis(redisClient)
	} else {
		memory = session.NewMemory()
		sessions = memory
		log.Info("REDIS_ADDR не задан, сессии хранятся в памяти")
	}

	a := &App{DB: pool, Redis: redisClient}

	// === 4. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development" && cfg.AppLogLevel == "trace"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 5. Сервисы ===
	svc := NewServices(pool, cat, cfg)
	adminService := admin.NewService(cfg.AdminIDs, cfg.AdminUsernames, cfg.AdminPasswordHash, sessions)

	// === 6. Обработчики ===
	r := reply.New(botAPI)
	userHandler := users.NewHandler(svc.Users, sessions, r, cards.HumanCooldown(cfg.CardCooldown))
	cardHandler := cards.NewHandler(svc.Cards, sessions, r, cfg.CardImagesDir, cfg.CurrencyName, cfg.SessionTTL)
	economyHandler := economy.NewHandler(svc.Economy, r, cfg.CurrencyName, cfg.TopLimit)
	profileHandler := profile.NewHandler(svc.Profile, r, cfg.CurrencyName)
	promoHandler := promo.NewHandler(svc.Promo, r, cfg.CurrencyName)
	adminHandler := admin.NewHandler(adminService, r)

	// === 7. Собираем бота ===
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	b := bot.New(
		botAPI, cfg, r, limiter, cat,
		svc.Users,
		userHandler,
		cardHandler,
		economyHandler,
		profileHandler,
		promoHandler,
		adminHandler,
	)

	// === 8. Планировщик задач ===
	var sweeper jobs.SessionSweeper
	if memory != nil {
		sweeper = memory
	}
	scheduler := jobs.NewScheduler(cfg.AppTimezone, sweeper, limiter, svc.Promo, svc.Users)

	a.Bot = b
	a.Scheduler = scheduler
	a.BotAPI = botAPI
	return a, nil
}

// Close освобождает соединения. Годится и для частично собранного App.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
