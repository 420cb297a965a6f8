// handlers.go обрабатывает /card и листание коллекции /mycards.
package cards

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/bot/session"
	"ufcards.ru/cards-bot/internal/catalog"
	"ufcards.ru/cards-bot/internal/common"
)

// Callback data кнопок коллекции.
const (
	CallbackPrev  = "mycards_prev"
	CallbackNext  = "mycards_next"
	CallbackClose = "mycards_close"
	CallbackPage  = "current_page"
)

const pagesKind = "cards"

// Handler обрабатывает команды карточек.
type Handler struct {
	service    *Service
	sessions   session.Store
	reply      *reply.Replier
	imagesDir  string
	currency   string
	sessionTTL time.Duration
}

// NewHandler создаёт обработчик карточек.
func NewHandler(service *Service, sessions session.Store, r *reply.Replier, imagesDir, currency string, sessionTTL time.Duration) *Handler {
	return &Handler{
		service:    service,
		sessions:   sessions,
		reply:      r,
		imagesDir:  imagesDir,
		currency:   currency,
		sessionTTL: sessionTTL,
	}
}

// pages: состояние листания коллекции одного пользователя.
type pages struct {
	CardIDs   []int `json:"card_ids"`
	Page      int   `json:"page"`
	MessageID int   `json:"message_id"`
}

// HandleCard: /card.
func (h *Handler) HandleCard(ctx context.Context, in *reply.Incoming, userID int64) {
	out, err := h.service.Draw(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			log.WithError(err).WithField("user_id", userID).Error("Розыгрыш для несуществующего пользователя")
		} else {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка розыгрыша")
		}
		h.reply.Text(in, common.MsgInternalError)
		return
	}

	if out.Status == DrawOnCooldown {
		h.reply.Text(in, fmt.Sprintf("🆕 <b>новую карточку можно получить через %s</b>",
			common.FormatDuration(out.Cooldown.SecondsRemaining)))
		return
	}

	if _, err := h.reply.Photo(in, h.imagePath(out.Card), h.drawCaption(out), nil); err != nil {
		log.WithError(err).WithField("card_id", out.Card.ID).Error("Ошибка отправки карточки")
	}
}

func (h *Handler) drawCaption(out *DrawOutcome) string {
	head := "🔄 <b>повторка...</b>\n\n"
	if out.WasNew {
		head = "💥 <b>новая карточка!</b>\n\n"
	}
	return head + fmt.Sprintf(
		"<b>название - %s</b>\n<b>крутость - %s</b>\n<b>+%d %s</b>\n\n<i>получить новую карточку можно через %s</i>",
		common.EscapeHTML(out.Card.Name), common.EscapeHTML(out.Card.Tier), out.Reward, h.currency,
		HumanCooldown(h.service.Cooldown()),
	)
}

// HumanCooldown форматирует кулдаун: «3 часа», а для неровных значений «1 час 30 мин 0 сек».
func HumanCooldown(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int64(d / time.Hour)
		return fmt.Sprintf("%d %s", hours, common.Pluralize(hours, "час", "часа", "часов"))
	}
	return common.FormatDuration(int64(d / time.Second))
}

func (h *Handler) imagePath(card catalog.Card) string {
	if card.Image == "" {
		return ""
	}
	return filepath.Join(h.imagesDir, card.Image)
}

// HandleMyCards: /mycards: открывает коллекцию на первой карточке.
func (h *Handler) HandleMyCards(ctx context.Context, in *reply.Incoming, userID int64) {
	owned, err := h.service.OwnedCards(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения коллекции")
		h.reply.Text(in, common.MsgInternalError)
		return
	}
	if len(owned) == 0 {
		h.reply.Text(in, "📚 <b>ваша коллекция карточек</b>\n\n🎴 <b>у вас пока нет карточек</b>\n\n<b>получите первую карточку командой /card</b>")
		return
	}

	st := &pages{CardIDs: make([]int, len(owned))}
	for i, c := range owned {
		st.CardIDs[i] = c.ID
	}

	kb := pageKeyboard(0, len(owned))
	msgID, err := h.reply.Photo(in, h.imagePath(owned[0]), h.pageCaption(owned[0], 0, len(owned)), &kb)
	if err != nil {
		log.WithError(err).Error("Ошибка отправки коллекции")
		h.reply.Text(in, "❌ ошибка загрузки картинки")
		return
	}
	st.MessageID = msgID
	h.save(ctx, in.TgUserID, st)
}

// HandlePageCallback обрабатывает кнопки коллекции.
func (h *Handler) HandlePageCallback(ctx context.Context, in *reply.Incoming, data string) {
	key := session.Key(pagesKind, in.TgUserID)

	if data == CallbackClose {
		if err := h.sessions.Delete(ctx, key); err != nil {
			log.WithError(err).Warn("Ошибка удаления сессии коллекции")
		}
		h.reply.Delete(in.ChatID, in.MessageID)
		h.reply.Answer(in, "", false)
		return
	}

	var st pages
	if err := h.sessions.Get(ctx, key, &st); err != nil || len(st.CardIDs) == 0 {
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			log.WithError(err).Warn("Ошибка чтения сессии коллекции")
		}
		h.reply.Answer(in, "❌ сначала откройте коллекцию командой /mycards", true)
		return
	}

	delta := 0
	switch data {
	case CallbackNext:
		delta = 1
	case CallbackPrev:
		delta = -1
	default:
		h.reply.Answer(in, "", false)
		return
	}

	st.Page = Wrap(st.Page, delta, len(st.CardIDs))
	card, ok := h.service.Catalog().Get(st.CardIDs[st.Page])
	if !ok {
		h.reply.Answer(in, "❌ карточка не найдена", true)
		return
	}

	kb := pageKeyboard(st.Page, len(st.CardIDs))
	caption := h.pageCaption(card, st.Page, len(st.CardIDs))
	messageID := in.MessageID
	if messageID == 0 {
		messageID = st.MessageID
	}
	if err := h.reply.EditPhoto(in.ChatID, messageID, h.imagePath(card), caption, &kb); err != nil {
		log.WithError(err).Debug("Не удалось изменить сообщение, отправляем новое")
		id, sendErr := h.reply.Photo(in, h.imagePath(card), caption, &kb)
		if sendErr != nil {
			log.WithError(sendErr).Error("Ошибка отправки страницы коллекции")
		} else {
			messageID = id
		}
	}
	st.MessageID = messageID
	h.save(ctx, in.TgUserID, &st)
	h.reply.Answer(in, "", false)
}

func (h *Handler) pageCaption(card catalog.Card, page, total int) string {
	return fmt.Sprintf(`📚 <b>ваша коллекция карточек</b>

🎴 <b>карточка %d из %d</b>
📊 <b>всего карточек: %d/%d</b>

<b>%s</b>
<b>крутость - %s</b>
<b>стоимость - %d %s</b>`,
		page+1, total, total, h.service.Catalog().Len(),
		common.EscapeHTML(card.Name), common.EscapeHTML(card.Tier), card.Value, h.currency)
}

func pageKeyboard(page, total int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️", CallbackPrev),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, total), CallbackPage),
			tgbotapi.NewInlineKeyboardButtonData("➡️", CallbackNext),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ закрыть", CallbackClose),
		),
	)
}

func (h *Handler) save(ctx context.Context, tgID int64, st *pages) {
	if err := h.sessions.Set(ctx, session.Key(pagesKind, tgID), st, h.sessionTTL); err != nil {
		log.WithError(err).Warn("Ошибка сохранения сессии коллекции")
	}
}
