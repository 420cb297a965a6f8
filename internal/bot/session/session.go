// Package session хранит короткоживущее состояние диалогов адаптера:
// страницы коллекции, ожидание ввода никнейма, админ-сессии, счётчики попыток входа.
// У каждой записи есть TTL, бесконечно растущих map здесь нет.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound: записи нет или её TTL истёк.
var ErrNotFound = errors.New("сессия не найдена")

// Store: хранилище сессий. Значения сериализуются в JSON.
type Store interface {
	Get(ctx context.Context, key string, v any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr увеличивает счётчик на 1. TTL ставится при создании счётчика и не продлевается.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Key собирает ключ вида "<kind>:<tgID>".
func Key(kind string, tgID int64) string {
	return fmt.Sprintf("%s:%d", kind, tgID)
}
