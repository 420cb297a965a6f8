// handlers.go обрабатывает /start, /nick, /link и ввод никнейма.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/bot/session"
	"ufcards.ru/cards-bot/internal/common"
)

// CallbackStartGame: data кнопки «начать».
const CallbackStartGame = "start_game"

const (
	nickStateKind = "nick"
	nickStateTTL  = 10 * time.Minute
)

const textWelcome = `<b>🤖 добро пожаловать в бота UFCards</b>

🎴 • получай случайную карточку раз в %s!
💬 • добавляй бота в чат, играть с друзьями круче!
🤑 • собери всю коллекцию и стань самым богатым чуваком!

🆒 <b>начинай игру прямо сейчас</b>

чтобы начать играть в бота, нажмите на кнопку «начать»`

const textNeedNickname = `<b>➡️ чтобы начать играть в бота, тебе нужно придумать никнейм и написать его сообщением ниже</b>

<i>вы всегда сможете изменить свой ник, используя команду /nick</i>`

const textGreeting = `<b>🤖 Привет, %s!</b>

<b>🎴 • получай случайную карточку раз в %s!
💬 • добавляй бота в чат, играть с друзьями круче!
🤑 • собери всю коллекцию и стань самым богатым чуваком!</b>

<i>помощь по боту - /help</i>`

const textFirstNickname = `😎<b>приятно познакомиться, %s!</b>

🎮 <b>Теперь ты можешь играть!</b>

1️⃣<b>используй команду /card чтобы получить свою первую карточку</b>

⁉️ <b>если тебе понадобится помощь, напиши /help</b>`

const tryAgain = "\n\n✏️ <b>попробуйте еще раз:</b>"

// Handler обрабатывает команды регистрации и никнейма.
type Handler struct {
	service  *Service
	sessions session.Store
	reply    *reply.Replier
	// cooldown: кулдаун словами, «3 часа»
	cooldown string
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, sessions session.Store, r *reply.Replier, cooldown string) *Handler {
	return &Handler{service: service, sessions: sessions, reply: r, cooldown: cooldown}
}

type nickState struct {
	Since time.Time `json:"since"`
}

func startKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚀 начать", CallbackStartGame)),
	)
}

// HandleStart: /start. Новичку показывает приветствие с кнопкой «начать».
func (h *Handler) HandleStart(ctx context.Context, in *reply.Incoming, u *User) {
	switch {
	case !u.HasNickname() && time.Since(u.CreatedAt) < time.Minute:
		h.reply.WithKeyboard(in, fmt.Sprintf(textWelcome, h.cooldown), startKeyboard())
	case !u.HasNickname():
		h.reply.WithKeyboard(in, textNeedNickname, startKeyboard())
	default:
		h.reply.Text(in, fmt.Sprintf(textGreeting, common.EscapeHTML(*u.Nickname), h.cooldown))
	}
}

// HandleStartGame обрабатывает нажатие «начать»: либо приветствие, либо запрос ника.
func (h *Handler) HandleStartGame(ctx context.Context, in *reply.Incoming, u *User) {
	if u.HasNickname() {
		h.reply.EditText(in.ChatID, in.MessageID, fmt.Sprintf(
			"<b>🤖 Привет, %s!</b>\n\nИспользуй /card чтобы получить карточку!", common.EscapeHTML(*u.Nickname)))
		h.reply.Answer(in, "", false)
		return
	}

	h.reply.EditText(in.ChatID, in.MessageID,
		"<b>📝 напиши свой никнейм:</b>\n\n<i>вы всегда сможете изменить свой ник, используя команду /nick</i>")
	h.awaitNickname(ctx, in.TgUserID)
	h.reply.Answer(in, "", false)
}

// HandleNick: /nick: показывает текущий ник и ждёт новый.
func (h *Handler) HandleNick(ctx context.Context, in *reply.Incoming, u *User) {
	var text string
	if u.HasNickname() {
		text = fmt.Sprintf("<b>текущий никнейм: %s</b>\n\n✏️ <i>напишите новый никнейм:</i>", common.EscapeHTML(*u.Nickname))
	} else {
		text = "📝 <b>напишите ваш никнейм:</b>\n\n<b>вы всегда сможете изменить свой ник, используя команду /nick</b>"
	}
	h.awaitNickname(ctx, in.TgUserID)
	h.reply.Text(in, text)
}

// HandleLink: привязка второго аккаунта пока не реализована.
func (h *Handler) HandleLink(ctx context.Context, in *reply.Incoming) {
	h.reply.Text(in, "<b>🚀 в разработке</b>")
}

// AwaitingNickname сообщает, ждём ли от пользователя ввода ника.
func (h *Handler) AwaitingNickname(ctx context.Context, tgID int64) bool {
	var st nickState
	err := h.sessions.Get(ctx, session.Key(nickStateKind, tgID), &st)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		log.WithError(err).Warn("Ошибка чтения состояния ника")
	}
	return err == nil
}

// CancelNickname сбрасывает ожидание ника (пользователь ввёл другую команду).
func (h *Handler) CancelNickname(ctx context.Context, tgID int64) {
	if err := h.sessions.Delete(ctx, session.Key(nickStateKind, tgID)); err != nil {
		log.WithError(err).Warn("Ошибка сброса состояния ника")
	}
}

// HandleNicknameInput принимает текст как новый ник.
// При ошибке формата или занятом нике состояние сохраняется, можно попробовать снова.
func (h *Handler) HandleNicknameInput(ctx context.Context, in *reply.Incoming, u *User) {
	nick, first, err := h.service.SetNickname(ctx, u.ID, in.Text)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNicknameTooShort),
			errors.Is(err, common.ErrNicknameTooLong),
			errors.Is(err, common.ErrNicknameBadChars):
			h.reply.Text(in, "❌ <b>"+err.Error()+"</b>"+tryAgain)
		case errors.Is(err, common.ErrNicknameTaken):
			h.reply.Text(in, "<b>❌ этот никнейм уже занят\n\n✏️ напишите новый никнейм:</b>")
		case errors.Is(err, common.ErrUserNotFound):
			h.CancelNickname(ctx, in.TgUserID)
			log.WithError(err).WithField("user_id", u.ID).Error("Пользователь пропал при установке ника")
			h.reply.Text(in, "❌ <b>ошибка - пользователь не найден</b>")
		default:
			log.WithError(err).WithField("user_id", u.ID).Error("Ошибка установки ника")
			h.reply.Text(in, common.MsgInternalError)
		}
		return
	}

	h.CancelNickname(ctx, in.TgUserID)
	if first {
		link := fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, in.TgUserID, common.EscapeHTML(nick))
		h.reply.Text(in, fmt.Sprintf(textFirstNickname, link))
		return
	}
	h.reply.Text(in, fmt.Sprintf("✅ <b>никнейм успешно изменен</b>\n\n<i>новый ник - %s</i>", common.EscapeHTML(nick)))
}

func (h *Handler) awaitNickname(ctx context.Context, tgID int64) {
	err := h.sessions.Set(ctx, session.Key(nickStateKind, tgID), nickState{Since: time.Now()}, nickStateTTL)
	if err != nil {
		log.WithError(err).Warn("Ошибка сохранения состояния ника")
	}
}
