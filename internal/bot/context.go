package bot

import (
	"context"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/i18n"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// Context — данные одного обновления, доступные обработчикам.
type Context struct {
	ctx context.Context
	bot *Bot

	Update *telegram.Update
	From   *telegram.User
	ChatID int64
	// Message — входящее сообщение или сообщение, к которому привязана кнопка
	Message  *telegram.Message
	Callback *telegram.CallbackQuery

	// Заполняются middleware
	User    *model.User
	IsNew   bool
	IsAdmin bool
	L       *i18n.Localizer
}

// newContext возвращает nil для обновлений, которые бот не обрабатывает.
func newContext(ctx context.Context, b *Bot, u *telegram.Update) *Context {
	c := &Context{ctx: ctx, bot: b, Update: u}

	switch {
	case u.Message != nil && u.Message.From != nil && u.Message.Chat != nil:
		c.Message = u.Message
		c.From = u.Message.From
		c.ChatID = u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		c.Callback = u.CallbackQuery
		c.From = u.CallbackQuery.From
		c.Message = u.CallbackQuery.Message
		c.ChatID = c.From.ID
		if c.Message != nil && c.Message.Chat != nil {
			c.ChatID = c.Message.Chat.ID
		}
	default:
		return nil
	}

	if c.From.IsBot {
		return nil
	}
	c.IsAdmin = b.IsAdmin(c.From.ID)
	c.L = new(i18n.Localizer)
	if b.deps.I18n != nil {
		c.L = b.deps.I18n.For(b.deps.I18n.Match(c.From.LanguageCode))
	}
	return c
}

// Ctx возвращает context.Context обновления.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Text возвращает текст входящего сообщения.
func (c *Context) Text() string {
	if c.Callback != nil || c.Message == nil {
		return ""
	}
	return c.Message.Text
}

// Args возвращает аргументы команды.
func (c *Context) Args() string {
	if c.Message == nil {
		return ""
	}
	_, args := telegram.Command(c.Message)
	return args
}

func htmlOptions(kb *telegram.InlineKeyboardMarkup) *telegram.SendOptions {
	return &telegram.SendOptions{
		ParseMode:             telegram.ParseModeHTML,
		ReplyMarkup:           kb,
		DisableWebPagePreview: true,
	}
}

// Reply отправляет HTML-сообщение в чат обновления.
func (c *Context) Reply(text string, kb *telegram.InlineKeyboardMarkup) error {
	_, err := c.bot.deps.API.SendMessage(c.ctx, c.ChatID, text, htmlOptions(kb))
	return err
}

// Edit заменяет текст сообщения с кнопкой. Вне callback отправляет новое сообщение.
func (c *Context) Edit(text string, kb *telegram.InlineKeyboardMarkup) error {
	if c.Callback == nil || c.Message == nil {
		return c.Reply(text, kb)
	}
	return c.bot.deps.API.EditMessageText(c.ctx, c.ChatID, c.Message.MessageID, text, htmlOptions(kb))
}

// Answer отвечает на callback query (убирает «часики» на кнопке).
func (c *Context) Answer(text string, alert bool) error {
	if c.Callback == nil {
		return nil
	}
	return c.bot.deps.API.AnswerCallbackQuery(c.ctx, c.Callback.ID, text, alert)
}

// Typing показывает индикатор набора текста. Ошибка игнорируется.
func (c *Context) Typing() {
	_ = c.bot.deps.API.SendChatAction(c.ctx, c.ChatID, "typing")
}
