// handlers.go обрабатывает /code и /codecreate.
package promo

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/common"
)

// Handler обрабатывает команды промокодов.
type Handler struct {
	service  *Service
	reply    *reply.Replier
	currency string
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, r *reply.Replier, currency string) *Handler {
	return &Handler{service: service, reply: r, currency: currency}
}

// HandleCode: /code <КОД>.
func (h *Handler) HandleCode(ctx context.Context, in *reply.Incoming, userID int64) {
	if len(in.Args) == 0 {
		h.reply.Text(in, "🔐 <b>напишите код, который хотите использовать:</b>\n\n<i>пример:</i> <code>/code FREE</code>")
		return
	}

	out, err := h.service.Redeem(ctx, userID, in.Args[0])
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка активации промокода")
		h.reply.Text(in, common.MsgInternalError)
		return
	}
	h.reply.Text(in, h.redeemText(out))
}

func (h *Handler) redeemText(out *RedeemOutcome) string {
	switch out.Status {
	case RedeemRedeemed:
		return fmt.Sprintf("<b>✅ код активирован!\n\n💳 +%d %s</b>", out.Amount, h.currency)
	case RedeemLimitReached:
		return "<b>❌ лимит активаций исчерпан</b>"
	case RedeemAlreadyRedeemed:
		return "<b>❌ вы уже активировали этот код</b>"
	default:
		return "<b>❌ код не найден или неактивен</b>"
	}
}

// HandleCodeCreate: /codecreate НАЗВАНИЕ КОЛВО_МОНЕТ КОЛВО_АКТИВАЦИЙ.
// Права проверяются до вызова.
func (h *Handler) HandleCodeCreate(ctx context.Context, in *reply.Incoming) {
	if len(in.Args) == 0 {
		h.reply.Text(in, "📝 <b>введите промокод в формате: НАЗВАНИЕ КОЛВО_МОНЕТ КОЛВО_АКТИВАЦИЙ</b>\n\n<b>пример:</b> <code>/codecreate FREE 100 10</code>")
		return
	}

	req, err := ParseCreateArgs(in.Args, in.TgUserID)
	if err != nil {
		h.reply.Text(in, "❌ <b>неверный формат. Используйте:</b> <code>/codecreate НАЗВАНИЕ КОЛВО_МОНЕТ КОЛВО_АКТИВАЦИЙ</code>")
		return
	}

	c, err := h.service.Create(ctx, req)
	switch {
	case errors.Is(err, common.ErrDuplicateCode):
		h.reply.Text(in, "<b>❌ промокод уже существует</b>")
	case err != nil:
		log.WithError(err).Error("Ошибка создания промокода")
		h.reply.Text(in, common.MsgInternalError)
	default:
		h.reply.Text(in, fmt.Sprintf("<b>✅ Код %s создан!\n\n💰 %d %s\n🎫 %d %s</b>",
			common.EscapeHTML(c.Code), c.Reward, h.currency, c.MaxActivations,
			common.Pluralize(int64(c.MaxActivations), "активация", "активации", "активаций")))
	}
}
