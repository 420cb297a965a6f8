// errors.go определяет ошибки, которые используются во всех модулях бота.
// Обработчики различают по ним типы проблем и показывают пользователю понятный текст.
package common

import (
	"errors"
	"fmt"
)

// Ошибки пользователей
var (
	// ErrUserNotFound: запись пользователя должна была быть создана лениво, но её нет.
	// Это нарушение инварианта, а не бизнес-отказ: по нему надо алертить.
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrNicknameTaken: никнейм уже занят другим игроком (без учёта регистра)
	ErrNicknameTaken = errors.New("этот никнейм уже занят")
	// ErrNicknameTooShort: меньше 3 символов
	ErrNicknameTooShort = errors.New("слишком короткий никнейм (минимум 3 символа)")
	// ErrNicknameTooLong: больше 20 символов
	ErrNicknameTooLong = errors.New("слишком длинный никнейм (максимум 20 символов)")
	// ErrNicknameBadChars: допустимы только буквы, цифры и подчёркивание
	ErrNicknameBadChars = errors.New("никнейм может содержать только буквы, цифры и подчеркивания")
)

// Ошибки промокодов
var (
	// ErrDuplicateCode: промокод с таким названием уже есть
	ErrDuplicateCode = errors.New("промокод уже существует")
	// ErrInvalidPromoArgs: некорректные аргументы создания промокода
	ErrInvalidPromoArgs = errors.New("некорректные параметры промокода")
)

// Ошибки админки
var (
	// ErrNotAdmin: пользователь не в списке администраторов
	ErrNotAdmin = errors.New("недостаточно прав")
	// ErrLoginRequired: нужен /login перед админ-командами
	ErrLoginRequired = errors.New("сначала авторизуйтесь через /login")
	// ErrWrongPassword: неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts: слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)

// MsgInternalError: что показать пользователю при StorageError и прочих сбоях.
// Частичное применение операции не предполагается.
const MsgInternalError = "❌ <b>что-то пошло не так, попробуйте позже</b>"

// StorageError: сбой хранилища (I/O, соединение, неожиданное нарушение ограничения).
// Вызывающий не должен считать, что какая-либо часть операции применилась.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage оборачивает ошибку БД в StorageError. nil остаётся nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError сообщает, является ли ошибка сбоем хранилища.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
