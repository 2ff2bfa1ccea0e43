package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Типы Bot API из telegram-bot-api/v5.
type (
	Update               = tgbotapi.Update
	User                 = tgbotapi.User
	Chat                 = tgbotapi.Chat
	Message              = tgbotapi.Message
	CallbackQuery        = tgbotapi.CallbackQuery
	InlineKeyboardButton = tgbotapi.InlineKeyboardButton
	InlineKeyboardMarkup = tgbotapi.InlineKeyboardMarkup
)

// Kind возвращает тип обновления для метрик и логов.
func Kind(u *Update) string {
	switch {
	case u.Message != nil:
		return "message"
	case u.CallbackQuery != nil:
		return "callback_query"
	case u.EditedMessage != nil:
		return "edited_message"
	default:
		return "other"
	}
}

// Command разбирает команду вида "/budget@bot 100 food" по тексту сообщения.
// Возвращает имя команды без "/" и упоминания бота, и аргументы.
// Message.Command из tgbotapi требует entity bot_command, здесь хватает текста.
func Command(m *Message) (string, string) {
	text := strings.TrimSpace(m.Text)
	if len(text) < 2 || text[0] != '/' {
		return "", ""
	}
	cmd, args := text[1:], ""
	if i := strings.IndexAny(cmd, " \n\t"); i >= 0 {
		cmd, args = cmd[:i], strings.TrimSpace(cmd[i+1:])
	}
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), args
}
