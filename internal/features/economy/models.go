// Package economy управляет валютой UFCoins: начисления, рекорд баланса, топ богачей.
// models.go описывает структуры лидерборда.
package economy

// Balance: баланс после начисления.
type Balance struct {
	Balance       int64 // Текущий баланс
	RecordBalance int64 // Максимум за всё время, всегда >= Balance
}

// LeaderboardEntry: строка топа богачей.
type LeaderboardEntry struct {
	UserID   int64
	Nickname string
	Balance  int64
}

// RecordHolder: владелец рекорда баланса среди игроков с ником.
type RecordHolder struct {
	UserID        int64
	Nickname      string
	RecordBalance int64
}
