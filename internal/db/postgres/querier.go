package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ufcards.ru/cards-bot/internal/common"
)

// Querier: общее подмножество методов пула и транзакции.
// Репозитории принимают его, чтобы одна и та же операция
// работала и сама по себе, и внутри чужой транзакции.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB: пул соединений (*pgxpool.Pool или pgxmock в тестах).
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InTx выполняет fn в транзакции.
// Если fn вернула ошибку, транзакция откатывается, ошибка возвращается как есть.
// Сбои BEGIN/COMMIT оборачиваются в common.StorageError.
func InTx(ctx context.Context, db DB, fn func(q Querier) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return common.Storage("begin", err)
	}
	// После Commit откат ничего не делает
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return common.Storage("commit", err)
	}
	return nil
}

const (
	codeUniqueViolation = "23505"
	codeFKViolation     = "23503"
)

// IsUniqueViolation проверяет, что err, нарушение уникальности.
// Если constraint не пустой, имя ограничения (или индекса) тоже должно совпасть.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

// IsForeignKeyViolation проверяет нарушение внешнего ключа
// (обычно, операция над несуществующим пользователем).
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeFKViolation
}

// IsNoRows: обёртка над errors.Is(err, pgx.ErrNoRows).
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
