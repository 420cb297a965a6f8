// Package promo реализует промокоды: создание админом и однократная активация игроком.
// models.go описывает промокод, исходы активации и разбор аргументов.
package promo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ufcards.ru/cards-bot/internal/common"
)

const maxCodeLen = 32

// Code: промокод.
type Code struct {
	ID                 int64     `db:"id"`
	Code               string    `db:"code"` // Всегда в верхнем регистре
	Reward             int64     `db:"reward"`
	MaxActivations     int       `db:"max_activations"`
	CurrentActivations int       `db:"current_activations"` // <= MaxActivations
	CreatedBy          int64     `db:"created_by"`          // Telegram ID админа
	CreatedAt          time.Time `db:"created_at"`
	IsActive           bool      `db:"is_active"`
}

// RedeemStatus: исход активации.
type RedeemStatus int

const (
	RedeemInvalid         RedeemStatus = iota // Кода нет или он выключен
	RedeemLimitReached                        // Активации закончились
	RedeemAlreadyRedeemed                     // Этот игрок уже активировал код
	RedeemRedeemed                            // Успех
)

func (s RedeemStatus) String() string {
	switch s {
	case RedeemInvalid:
		return "invalid"
	case RedeemLimitReached:
		return "limit_reached"
	case RedeemAlreadyRedeemed:
		return "already_redeemed"
	case RedeemRedeemed:
		return "redeemed"
	default:
		return "unknown"
	}
}

// RedeemOutcome: результат активации.
type RedeemOutcome struct {
	Status  RedeemStatus
	Amount  int64 // Начислено (только для RedeemRedeemed)
	Balance int64
}

// CreateRequest: параметры нового промокода.
type CreateRequest struct {
	Code           string
	Reward         int64
	MaxActivations int
	CreatedBy      int64
}

// CanonicalCode приводит код к виду, в котором он хранится.
func CanonicalCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate проверяет параметры и канонизирует код.
func (r *CreateRequest) Validate() error {
	r.Code = CanonicalCode(r.Code)
	if r.Code == "" || utf8.RuneCountInString(r.Code) > maxCodeLen {
		return fmt.Errorf("%w: длина кода 1–%d символов", common.ErrInvalidPromoArgs, maxCodeLen)
	}
	if strings.IndexFunc(r.Code, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: код без пробелов", common.ErrInvalidPromoArgs)
	}
	if r.Reward <= 0 {
		return fmt.Errorf("%w: награда должна быть > 0", common.ErrInvalidPromoArgs)
	}
	if r.MaxActivations <= 0 {
		return fmt.Errorf("%w: число активаций должно быть > 0", common.ErrInvalidPromoArgs)
	}
	return nil
}

// ParseCreateArgs разбирает «НАЗВАНИЕ КОЛВО_МОНЕТ КОЛВО_АКТИВАЦИЙ».
func ParseCreateArgs(args []string, createdBy int64) (CreateRequest, error) {
	if len(args) != 3 {
		return CreateRequest{}, fmt.Errorf("%w: нужно 3 аргумента", common.ErrInvalidPromoArgs)
	}
	reward, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return CreateRequest{}, fmt.Errorf("%w: монеты не число", common.ErrInvalidPromoArgs)
	}
	activations, err := strconv.Atoi(args[2])
	if err != nil {
		return CreateRequest{}, fmt.Errorf("%w: активации не число", common.ErrInvalidPromoArgs)
	}
	req := CreateRequest{Code: args[0], Reward: reward, MaxActivations: activations, CreatedBy: createdBy}
	if err := req.Validate(); err != nil {
		return CreateRequest{}, err
	}
	return req, nil
}
