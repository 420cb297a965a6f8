// Package bot реализует транспортный адаптер Telegram: polling, разбор команд, маршрутизация.
// Бизнес-логика живёт в пакетах features, сюда приходят только готовые результаты.
package bot

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/filters"
	"ufcards.ru/cards-bot/internal/bot/middleware"
	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/catalog"
	"ufcards.ru/cards-bot/internal/common"
	"ufcards.ru/cards-bot/internal/config"
	"ufcards.ru/cards-bot/internal/features/admin"
	"ufcards.ru/cards-bot/internal/features/cards"
	"ufcards.ru/cards-bot/internal/features/economy"
	"ufcards.ru/cards-bot/internal/features/profile"
	"ufcards.ru/cards-bot/internal/features/promo"
	"ufcards.ru/cards-bot/internal/features/users"
	"ufcards.ru/cards-bot/internal/metrics"
)

const textNeedNickname = "❌ <b>сначала установи никнейм командой /start</b>"

const textUnknown = "<b>❌ неизвестная команда</b>\n\n<i>посмотреть список команд можно с помощью /help</i>"

// Bot: главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	reply       *reply.Replier
	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
	parser      *CommandParser

	userService *users.Service

	userHandler    *users.Handler
	cardHandler    *cards.Handler
	economyHandler *economy.Handler
	profileHandler *profile.Handler
	promoHandler   *promo.Handler
	adminHandler   *admin.Handler

	helpText string

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}

	// background запускает фоновые задачи (обновление активности)
	background func(func())
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	r *reply.Replier,
	rateLimiter *middleware.RateLimiter,
	cat *catalog.Catalog,
	userService *users.Service,
	userHandler *users.Handler,
	cardHandler *cards.Handler,
	economyHandler *economy.Handler,
	profileHandler *profile.Handler,
	promoHandler *promo.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	botUsername := ""
	if api != nil {
		botUsername = api.Self.UserName
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		reply:          r,
		chatFilter:     filters.NewChatFilter(r, cmdStart, cmdNick, cmdMyCards, cmdLink, cmdLogin, cmdLogout),
		rateLimiter:    rateLimiter,
		parser:         NewCommandParser(botUsername),
		userService:    userService,
		userHandler:    userHandler,
		cardHandler:    cardHandler,
		economyHandler: economyHandler,
		profileHandler: profileHandler,
		promoHandler:   promoHandler,
		adminHandler:   adminHandler,
		helpText:       buildHelp(cat, cfg.CardCooldown, cfg.CurrencyName),
		inflight:       make(chan struct{}, maxInFlight),
		background:     func(f func()) { go f() },
	}
}

// Start запускает polling обновлений от Telegram. Возвращается, когда ctx отменён
// и все начатые обработчики завершились.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"bot":          b.api.Self.UserName,
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.drain()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// drain ждёт завершения обработчиков, занимая все слоты.
func (b *Bot) drain() {
	for range cap(b.inflight) {
		b.inflight <- struct{}{}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil || message.Text == "" {
		return
	}

	in := incomingFromMessage(message)
	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	in.Args = args
	middleware.LogIncoming(in, cmd)

	if !b.rateLimiter.Allow(in.TgUserID) {
		log.WithField("tg_id", in.TgUserID).Debug("rate limited")
		return
	}

	u, ok := b.resolveUser(ctx, in)
	if !ok {
		return
	}

	if !isCommand {
		if !in.Private {
			return
		}
		if b.userHandler.AwaitingNickname(ctx, in.TgUserID) {
			b.userHandler.HandleNicknameInput(ctx, in, u)
			return
		}
		b.reply.Text(in, textUnknown)
		return
	}

	// любая команда прерывает ожидание ника
	if cmd != cmdNick && in.Private && b.userHandler.AwaitingNickname(ctx, in.TgUserID) {
		b.userHandler.CancelNickname(ctx, in.TgUserID)
	}

	if !b.chatFilter.CheckAccess(in, cmd) {
		return
	}

	b.routeCommand(ctx, in, u, cmd)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, in *reply.Incoming, u *users.User, cmd string) {
	known := true
	timer := prometheus.NewTimer(metrics.CommandDuration.WithLabelValues(cmd))

	switch cmd {
	case cmdStart:
		b.userHandler.HandleStart(ctx, in, u)
	case cmdHelp:
		b.reply.Text(in, b.helpText)
	case cmdNick:
		b.userHandler.HandleNick(ctx, in, u)
	case cmdLink:
		b.userHandler.HandleLink(ctx, in)

	case cmdCard:
		if b.requireNickname(in, u) {
			b.cardHandler.HandleCard(ctx, in, u.ID)
		}
	case cmdStats:
		if b.requireNickname(in, u) {
			b.profileHandler.HandleStats(ctx, in, u.ID)
		}
	case cmdMyCards:
		b.cardHandler.HandleMyCards(ctx, in, u.ID)
	case cmdTop:
		b.economyHandler.HandleTop(ctx, in)

	case cmdCode:
		b.promoHandler.HandleCode(ctx, in, u.ID)
	case cmdCodeCreate:
		if b.adminHandler.Guard(ctx, in) {
			b.promoHandler.HandleCodeCreate(ctx, in)
		}
	case cmdLogin:
		b.adminHandler.HandleLogin(ctx, in)
	case cmdLogout:
		b.adminHandler.HandleLogout(ctx, in)

	default:
		known = false
		if in.Private {
			b.reply.Text(in, textUnknown)
		}
	}

	if known {
		timer.ObserveDuration()
		metrics.Commands.WithLabelValues(cmd).Inc()
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}

	in := incomingFromCallback(cb)
	middleware.LogIncoming(in, "callback:"+cb.Data)

	if !b.rateLimiter.Allow(in.TgUserID) {
		b.reply.Answer(in, "⏳ слишком часто", false)
		return
	}

	switch cb.Data {
	case users.CallbackStartGame:
		u, ok := b.resolveUser(ctx, in)
		if !ok {
			b.reply.Answer(in, "", false)
			return
		}
		b.userHandler.HandleStartGame(ctx, in, u)
	case cards.CallbackPrev, cards.CallbackNext, cards.CallbackClose, cards.CallbackPage:
		b.cardHandler.HandlePageCallback(ctx, in, cb.Data)
	default:
		b.reply.Answer(in, "", false)
	}
}

// resolveUser находит или создаёт игрока и отмечает активность.
func (b *Bot) resolveUser(ctx context.Context, in *reply.Incoming) (*users.User, bool) {
	u, err := b.userService.ResolveOrCreate(ctx, users.Telegram(in.TgUserID), in.DisplayName())
	if err != nil {
		log.WithError(err).WithField("tg_id", in.TgUserID).Error("Не удалось получить пользователя")
		if in.CallbackID == "" {
			b.reply.Text(in, common.MsgInternalError)
		}
		return nil, false
	}
	in.UserID = u.ID

	touchCtx := context.WithoutCancel(ctx)
	b.background(func() { b.userService.TouchActivity(touchCtx, u.ID) })
	return u, true
}

func (b *Bot) requireNickname(in *reply.Incoming, u *users.User) bool {
	if u.HasNickname() {
		return true
	}
	b.reply.Text(in, textNeedNickname)
	return false
}

func incomingFromMessage(m *tgbotapi.Message) *reply.Incoming {
	return &reply.Incoming{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Private:   m.Chat.IsPrivate(),
		TgUserID:  m.From.ID,
		Username:  m.From.UserName,
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		Text:      m.Text,
	}
}

func incomingFromCallback(cb *tgbotapi.CallbackQuery) *reply.Incoming {
	return &reply.Incoming{
		ChatID:     cb.Message.Chat.ID,
		MessageID:  cb.Message.MessageID,
		Private:    cb.Message.Chat.IsPrivate(),
		TgUserID:   cb.From.ID,
		Username:   cb.From.UserName,
		FirstName:  cb.From.FirstName,
		LastName:   cb.From.LastName,
		Text:       cb.Data,
		CallbackID: cb.ID,
	}
}

func buildHelp(cat *catalog.Catalog, cooldown time.Duration, currency string) string {
	tiers := cat.Tiers()
	sampler := catalog.NewSampler(cat, nil)
	names := make([]string, len(tiers))
	for i, t := range tiers {
		odds := math.Round(sampler.Probability(t.Name)*1000) / 10
		names[i] = fmt.Sprintf("%s (%g%%)", t.Name, odds)
	}
	var tierList string
	switch len(names) {
	case 0:
	case 1:
		tierList = names[0]
	default:
		tierList = strings.Join(names[:len(names)-1], ", ") + " и " + names[len(names)-1]
	}

	return fmt.Sprintf(`<b>❔ помощь по боту</b>

ℹ️ <b>основные команды (работают везде):</b>
/card - получить карточку
/stats - посмотреть свою статистику
/top - топ богачей
/code - активировать промо-код
/help - помощь

🔒 <b>команды только в личных сообщениях:</b>
/nick - установить никнейм
/mycards - посмотреть свои карточки
/link - привязать аккаунт (в разработке)

🧠 <b>система карточек:</b>
• Карточку можно получить раз в %s
• %d %s: %s
• Новые карточки дают в 2 раза больше %s`,
		cards.HumanCooldown(cooldown),
		len(names), common.Pluralize(int64(len(names)), "крутость", "крутости", "крутостей"), tierList,
		currency,
	)
}
