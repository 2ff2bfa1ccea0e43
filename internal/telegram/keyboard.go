package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Button создаёт кнопку с callback data.
func Button(text, data string) InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

// URLButton создаёт кнопку-ссылку.
func URLButton(text, url string) InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonURL(text, url)
}

// Row собирает ряд кнопок.
func Row(buttons ...InlineKeyboardButton) []InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

// ButtonData возвращает callback data кнопки ("" у кнопок-ссылок).
func ButtonData(b InlineKeyboardButton) string {
	if b.CallbackData == nil {
		return ""
	}
	return *b.CallbackData
}

// NewInlineKeyboard собирает клавиатуру из рядов, пропуская пустые.
func NewInlineKeyboard(rows ...[]InlineKeyboardButton) *InlineKeyboardMarkup {
	kept := make([][]InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			kept = append(kept, r)
		}
	}
	return &InlineKeyboardMarkup{InlineKeyboard: kept}
}

// Grid раскладывает кнопки по columns в ряд.
func Grid(columns int, buttons ...InlineKeyboardButton) [][]InlineKeyboardButton {
	if columns <= 0 {
		columns = 1
	}
	rows := make([][]InlineKeyboardButton, 0, (len(buttons)+columns-1)/columns)
	for len(buttons) > 0 {
		n := min(columns, len(buttons))
		rows = append(rows, buttons[:n:n])
		buttons = buttons[n:]
	}
	return rows
}
