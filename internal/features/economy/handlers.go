// handlers.go обрабатывает команду /top (топ богачей).
package economy

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/common"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service  *Service
	reply    *reply.Replier
	currency string
	limit    int
}

// NewHandler создаёт новый обработчик.
func NewHandler(service *Service, r *reply.Replier, currency string, limit int) *Handler {
	return &Handler{service: service, reply: r, currency: currency, limit: limit}
}

// HandleTop: /top.
//
// Формат ответа:
//
//	💸 топ богачей
//
//	🥇 1. neo - 500 UFCoins
//	...
//	🏆 рекорд по UFCoins - neo, 900 UFCoins
func (h *Handler) HandleTop(ctx context.Context, in *reply.Incoming) {
	top, err := h.service.Top(ctx, h.limit)
	if err != nil {
		log.WithError(err).Error("Ошибка получения топа")
		h.reply.Text(in, "❌ ошибка при получении топа")
		return
	}
	holder, err := h.service.RecordHolder(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения рекорда")
		h.reply.Text(in, "❌ ошибка при получении топа")
		return
	}
	h.reply.Text(in, renderTop(top, holder, h.currency))
}

func renderTop(top []LeaderboardEntry, holder *RecordHolder, currency string) string {
	var sb strings.Builder
	sb.WriteString("💸 <b>топ богачей</b>\n\n")

	if len(top) == 0 {
		sb.WriteString("📊 Пока никто не заработал " + currency)
	}
	medals := []string{"🥇 ", "🥈 ", "🥉 "}
	for i, e := range top {
		prefix := ""
		if i < len(medals) {
			prefix = medals[i]
		}
		fmt.Fprintf(&sb, "<b>%s%d. %s - %d %s\n</b>", prefix, i+1, common.EscapeHTML(e.Nickname), e.Balance, currency)
	}

	if holder != nil {
		fmt.Fprintf(&sb, "\n🏆 <i>рекорд по %s - %s, %d %s</i>",
			currency, common.EscapeHTML(holder.Nickname), holder.RecordBalance, currency)
	}
	return sb.String()
}
