package reply

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// FakeSender запоминает всё отправленное. Используется в тестах обработчиков.
type FakeSender struct {
	mu       sync.Mutex
	Sent     []tgbotapi.Chattable
	Requests []tgbotapi.Chattable
	nextID   int
}

func (f *FakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: 1000 + f.nextID}, nil
}

func (f *FakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Texts возвращает тексты отправленных сообщений и подписи фото.
func (f *FakeSender) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, m.Caption)
		}
	}
	return out
}

// Last: текст последнего отправленного сообщения или пустая строка.
func (f *FakeSender) Last() string {
	texts := f.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}
