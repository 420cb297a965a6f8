package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"ufcards.ru/cards-bot/internal/metrics"
)

// RecoverFromPanic вызывается через defer в каждой горутине обработки апдейта.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		metrics.Panics.Inc()
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике, восстановлено")
	}
}
