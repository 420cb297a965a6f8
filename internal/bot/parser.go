package bot

import "strings"

// Канонические имена команд
const (
	cmdStart      = "start"
	cmdHelp       = "help"
	cmdCard       = "card"
	cmdStats      = "stats"
	cmdNick       = "nick"
	cmdTop        = "top"
	cmdMyCards    = "mycards"
	cmdCode       = "code"
	cmdCodeCreate = "codecreate"
	cmdLink       = "link"
	cmdLogin      = "login"
	cmdLogout     = "logout"
)

// Текстовые команды: всё сообщение целиком, без учёта регистра.
var textAliases = map[string]string{
	"карточка":   cmdCard,
	"карта":      cmdCard,
	"карту":      cmdCard,
	"карт":       cmdCard,
	"боец":       cmdCard,
	"карточку":   cmdCard,
	"статистика": cmdStats,
	"стата":      cmdStats,
	"стат":       cmdStats,
	"статс":      cmdStats,
	"статистику": cmdStats,
	"ник":        cmdNick,
	"никнейм":    cmdNick,
	"помощь":     cmdHelp,
	"хелп":       cmdHelp,
	"хэлп":       cmdHelp,
	"топ":        cmdTop,
	"топы":       cmdTop,
	"богачи":     cmdTop,
	"топа":       cmdTop,
	"мои карты":  cmdMyCards,
	"коллекция":  cmdMyCards,
	"мой сбор":   cmdMyCards,
	"бойцы":      cmdMyCards,
}

// CommandParser разбирает команды с префиксами / и ! и текстовые команды.
type CommandParser struct {
	validPrefixes []string
	botUsername   string // без @, в нижнем регистре
}

// NewCommandParser создаёт парсер. botUsername нужен, чтобы понимать /card@bot в группах.
func NewCommandParser(botUsername string) *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!"},
		botUsername:   strings.ToLower(strings.TrimPrefix(botUsername, "@")),
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Команда, адресованная другому боту (/card@other_bot), не считается командой.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	if cmd, ok := textAliases[strings.Join(strings.Fields(strings.ToLower(text)), " ")]; ok {
		return cmd, nil, true
	}

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if name, target, found := strings.Cut(command, "@"); found {
		if target != p.botUsername {
			return "", nil, false
		}
		command = name
	}
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
