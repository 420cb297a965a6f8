// Package reply: тонкая обёртка над отправкой сообщений в Telegram.
// Обработчики фич получают отсюда входящее сообщение и способ ответить,
// не завися от пакета bot.
package reply

import (
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Sender: то, что умеет *tgbotapi.BotAPI. В тестах подменяется фейком.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Incoming: входящая команда или нажатие кнопки, уже разобранные адаптером.
type Incoming struct {
	ChatID    int64
	MessageID int
	Private   bool

	TgUserID  int64
	Username  string
	FirstName string
	LastName  string

	// UserID: внутренний id пользователя, 0 если ещё не определён.
	UserID int64

	Text string
	Args []string

	// CallbackID заполнен для нажатий inline-кнопок.
	CallbackID string
}

// DisplayName возвращает снимок имени для записи пользователя: @username или имя и фамилия.
func (in *Incoming) DisplayName() string {
	if in.Username != "" {
		return in.Username
	}
	if in.LastName == "" {
		return in.FirstName
	}
	return in.FirstName + " " + in.LastName
}

// Replier отправляет ответы в HTML-разметке.
type Replier struct {
	api Sender
}

// New создаёт Replier.
func New(api Sender) *Replier {
	return &Replier{api: api}
}

// Text отвечает на сообщение текстом.
func (r *Replier) Text(in *Incoming, text string) {
	r.send(in, text, nil)
}

// WithKeyboard отвечает текстом с inline-клавиатурой.
func (r *Replier) WithKeyboard(in *Incoming, text string, kb tgbotapi.InlineKeyboardMarkup) {
	r.send(in, text, kb)
}

func (r *Replier) send(in *Incoming, text string, markup any) {
	msg := tgbotapi.NewMessage(in.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if in.CallbackID == "" {
		msg.ReplyToMessageID = in.MessageID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", in.ChatID).Error("Ошибка отправки сообщения")
	}
}

// Photo отправляет картинку с подписью и возвращает id сообщения.
// Если файла нет, вместо фото уходит текст с подписью: карточка без картинки лучше, чем ошибка.
func (r *Replier) Photo(in *Incoming, path, caption string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	if !fileExists(path) {
		log.WithField("path", path).Warn("Картинка карточки не найдена, отправляем текст")
		msg := tgbotapi.NewMessage(in.ChatID, caption)
		msg.ParseMode = tgbotapi.ModeHTML
		if in.CallbackID == "" {
			msg.ReplyToMessageID = in.MessageID
		}
		if kb != nil {
			msg.ReplyMarkup = *kb
		}
		sent, err := r.api.Send(msg)
		if err != nil {
			return 0, fmt.Errorf("отправка текста: %w", err)
		}
		return sent.MessageID, nil
	}

	photo := tgbotapi.NewPhoto(in.ChatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if in.CallbackID == "" {
		photo.ReplyToMessageID = in.MessageID
	}
	if kb != nil {
		photo.ReplyMarkup = *kb
	}
	sent, err := r.api.Send(photo)
	if err != nil {
		return 0, fmt.Errorf("отправка фото: %w", err)
	}
	return sent.MessageID, nil
}

// EditPhoto заменяет картинку и подпись в уже отправленном сообщении.
// Без файла меняется только подпись.
func (r *Replier) EditPhoto(chatID int64, messageID int, path, caption string, kb *tgbotapi.InlineKeyboardMarkup) error {
	if !fileExists(path) {
		edit := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.ReplyMarkup = kb
		_, err := r.api.Request(edit)
		return err
	}

	media := tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(path))
	media.Caption = caption
	media.ParseMode = tgbotapi.ModeHTML
	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      chatID,
			MessageID:   messageID,
			ReplyMarkup: kb,
		},
		Media: media,
	}
	_, err := r.api.Request(edit)
	return err
}

// EditText меняет текст сообщения (для нажатий кнопок).
func (r *Replier) EditText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := r.api.Request(edit); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось изменить сообщение")
	}
}

// Delete удаляет сообщение.
func (r *Replier) Delete(chatID int64, messageID int) {
	if _, err := r.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Не удалось удалить сообщение")
	}
}

// Answer отвечает на нажатие кнопки. alert=true показывает всплывающее окно.
func (r *Replier) Answer(in *Incoming, text string, alert bool) {
	if in.CallbackID == "" {
		return
	}
	cb := tgbotapi.NewCallback(in.CallbackID, text)
	cb.ShowAlert = alert
	if _, err := r.api.Request(cb); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
