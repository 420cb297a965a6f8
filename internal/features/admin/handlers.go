// handlers.go обрабатывает /login и /logout и проверяет права для админ-команд.
package admin

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/common"
)

// Handler обрабатывает админские команды.
type Handler struct {
	service *Service
	reply   *reply.Replier
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, r *reply.Replier) *Handler {
	return &Handler{service: service, reply: r}
}

// Guard пропускает только авторизованного админа. Остальным отвечает сам и возвращает false.
func (h *Handler) Guard(ctx context.Context, in *reply.Incoming) bool {
	err := h.service.Authorize(ctx, in.TgUserID, in.Username)
	switch {
	case err == nil:
		return true
	case errors.Is(err, common.ErrNotAdmin):
		h.reply.Text(in, "❌ недостаточно прав")
	case errors.Is(err, common.ErrLoginRequired):
		h.reply.Text(in, "🔐 <b>сначала авторизуйтесь:</b> <code>/login пароль</code> в личных сообщениях")
	default:
		log.WithError(err).Error("Ошибка проверки прав")
		h.reply.Text(in, common.MsgInternalError)
	}
	return false
}

// HandleLogin: /login <пароль>. Только в личных сообщениях.
// Сообщение с паролем удаляется из переписки.
func (h *Handler) HandleLogin(ctx context.Context, in *reply.Incoming) {
	if !h.service.IsAdmin(in.TgUserID, in.Username) {
		h.reply.Text(in, "❌ недостаточно прав")
		return
	}
	if !h.service.PasswordRequired() {
		h.reply.Text(in, "✅ <b>пароль не требуется</b>")
		return
	}
	if len(in.Args) == 0 {
		h.reply.Text(in, "🔐 <b>введите пароль:</b> <code>/login пароль</code>")
		return
	}

	err := h.service.Login(ctx, in.TgUserID, in.Username, in.Args[0])
	h.reply.Delete(in.ChatID, in.MessageID)

	// ответ уже не может ссылаться на удалённое сообщение
	out := *in
	out.MessageID = 0
	switch {
	case err == nil:
		h.reply.Text(&out, "✅ <b>аутентификация успешна</b>\n\n<i>сессия действует 24 часа</i>")
	case errors.Is(err, common.ErrWrongPassword), errors.Is(err, common.ErrTooManyAttempts):
		h.reply.Text(&out, "❌ <b>"+err.Error()+"</b>")
	default:
		log.WithError(err).Error("Ошибка входа в админку")
		h.reply.Text(&out, common.MsgInternalError)
	}
}

// HandleLogout: /logout.
func (h *Handler) HandleLogout(ctx context.Context, in *reply.Incoming) {
	if err := h.service.Logout(ctx, in.TgUserID); err != nil {
		log.WithError(err).Warn("Ошибка закрытия админ-сессии")
	}
	h.reply.Text(in, "👋 <b>сессия закрыта</b>")
}
