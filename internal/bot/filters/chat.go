// Package filters отсекает команды, которые нельзя выполнять в текущем чате.
package filters

import (
	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/bot/reply"
)

const textPrivateOnly = "❌ <b>эту команду нельзя использовать в чате</b>\n\n<i>используйте ее в личных сообщениях с ботом</i>"

// ChatFilter пропускает команды «только для лички» лишь в личных сообщениях.
type ChatFilter struct {
	privateOnly map[string]struct{}
	reply       *reply.Replier
}

// NewChatFilter создаёт фильтр для перечисленных команд.
func NewChatFilter(r *reply.Replier, privateOnly ...string) *ChatFilter {
	f := &ChatFilter{privateOnly: make(map[string]struct{}, len(privateOnly)), reply: r}
	for _, c := range privateOnly {
		f.privateOnly[c] = struct{}{}
	}
	return f
}

// PrivateOnly: команда доступна только в личке.
func (f *ChatFilter) PrivateOnly(command string) bool {
	_, ok := f.privateOnly[command]
	return ok
}

// CheckAccess сообщает, можно ли выполнить команду. При отказе отвечает пользователю сам.
func (f *ChatFilter) CheckAccess(in *reply.Incoming, command string) bool {
	if in.Private || !f.PrivateOnly(command) {
		return true
	}
	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   in.ChatID,
		"tg_id":     in.TgUserID,
		"command":   command,
	}).Debug("deny: private-only command in group")
	f.reply.Text(in, textPrivateOnly)
	return false
}
