package profile

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/common"
)

// Handler обрабатывает /stats.
type Handler struct {
	service  *Service
	reply    *reply.Replier
	currency string
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, r *reply.Replier, currency string) *Handler {
	return &Handler{service: service, reply: r, currency: currency}
}

// HandleStats: /stats.
func (h *Handler) HandleStats(ctx context.Context, in *reply.Incoming, userID int64) {
	v, err := h.service.View(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения профиля")
		h.reply.Text(in, common.MsgInternalError)
		return
	}
	h.reply.Text(in, render(v, h.currency))
}

func render(v *View, currency string) string {
	timeText := "❕ <i>новую карточку можно получить прямо сейчас</i>"
	if !v.Cooldown.Ready {
		timeText = fmt.Sprintf("⏰ <i>новую карточку можно получить через %s</i>",
			common.FormatDuration(v.Cooldown.SecondsRemaining))
	}

	return fmt.Sprintf(`👤 <b>%s | профиль</b>

💰 <b>баланс: %d %s</b>
🏆 <b>рекорд: %d %s</b>
🎴 <b>открыто карточек: %d</b>
📊 <b>прогресс в боте: %d%%</b>

%s`,
		common.EscapeHTML(v.Nickname),
		v.Balance, currency,
		v.RecordBalance, currency,
		v.OwnedCount,
		v.Progress,
		timeText,
	)
}
