// Package users хранит записи игроков: создание при первом обращении, никнеймы, активность.
// models.go описывает пользователя и его внешнюю идентичность.
package users

import (
	"fmt"
	"time"
)

// Platform: площадка, с которой пришёл игрок.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformVK       Platform = "vk"
)

// Identity: внешний аккаунт. Один аккаунт соответствует не более чем одному пользователю.
type Identity struct {
	Platform   Platform
	ExternalID int64
}

// Telegram: идентичность Telegram-аккаунта.
func Telegram(id int64) Identity {
	return Identity{Platform: PlatformTelegram, ExternalID: id}
}

func (i Identity) key() string {
	return fmt.Sprintf("%s:%d", i.Platform, i.ExternalID)
}

// User: запись игрока.
type User struct {
	ID             int64      `db:"id"`
	TgID           *int64     `db:"tg_id"`
	VkID           *int64     `db:"vk_id"`
	DisplayName    string     `db:"display_name"`     // Снимок имени на момент создания
	Nickname       *string    `db:"nickname"`         // nil, пока игрок не выбрал ник
	Balance        int64      `db:"balance"`          // Текущий баланс, >= 0
	RecordBalance  int64      `db:"record_balance"`   // Максимум баланса за всё время, >= Balance
	LastDrawAt     *time.Time `db:"last_draw_at"`     // nil: ещё ни разу не тянул карточку
	LastActivityAt time.Time  `db:"last_activity_at"` // Последнее обращение к боту
	CreatedAt      time.Time  `db:"created_at"`
}

// HasNickname сообщает, выбран ли ник.
func (u *User) HasNickname() bool {
	return u.Nickname != nil && *u.Nickname != ""
}

// DisplayNick: ник или «игрок #id», если ника нет.
func (u *User) DisplayNick() string {
	return NickOrFallback(u.ID, u.Nickname)
}

// NickOrFallback: то же для случаев, когда под рукой только id и ник.
func NickOrFallback(id int64, nickname *string) string {
	if nickname != nil && *nickname != "" {
		return *nickname
	}
	return fmt.Sprintf("игрок #%d", id)
}

// Stats: данные для профиля.
type Stats struct {
	OwnedCount    int
	LastDrawAt    *time.Time
	Balance       int64
	RecordBalance int64
	Nickname      *string
}
