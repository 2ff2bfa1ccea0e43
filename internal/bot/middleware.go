package bot

import (
	"fmt"
	"log/slog"

	"github.com/oddava/finance-tracker/internal/service"
)

// maintenanceMiddleware отвечает всем, кроме администраторов, сообщением
// о технических работах.
func (b *Bot) maintenanceMiddleware(next HandlerFunc) HandlerFunc {
	return func(c *Context) error {
		if c.IsAdmin || b.deps.Settings == nil || !b.deps.Settings.Maintenance() {
			return next(c)
		}

		text := c.L.T("🔧 <b>Bot is under maintenance</b>\n\n" +
			"We're currently performing updates to improve your experience.\n" +
			"Please try again in a few minutes.\n\n" +
			"Thank you for your patience! 🙏")
		if c.Callback != nil {
			return c.Answer(stripTags(text), true)
		}
		return c.Reply(text, nil)
	}
}

// throttleMiddleware ограничивает частоту сообщений. Callback-кнопки
// и администраторы не ограничиваются.
func (b *Bot) throttleMiddleware(next HandlerFunc) HandlerFunc {
	return func(c *Context) error {
		if c.IsAdmin || c.Callback != nil {
			return next(c)
		}

		allowed, warn := b.throttle.Allow(c.From.ID)
		if allowed {
			return next(c)
		}

		throttledTotal.Inc()
		b.logger.Debug("Сообщение отброшено ограничителем", slog.Int64("user_id", c.From.ID))
		if !warn {
			return nil
		}
		return c.Reply(c.L.T("⚠️ <b>Slow down!</b>\n\n"+
			"You're sending messages too quickly. Please wait a moment."), nil)
	}
}

// userMiddleware регистрирует пользователя при первом обращении.
func (b *Bot) userMiddleware(next HandlerFunc) HandlerFunc {
	return func(c *Context) error {
		u, isNew, err := b.deps.Users.EnsureUser(c.Ctx(), service.TelegramProfile{
			UserID:       c.From.ID,
			Username:     c.From.UserName,
			FirstName:    c.From.FirstName,
			LanguageCode: c.From.LanguageCode,
		})
		if err != nil {
			return fmt.Errorf("ошибка получения пользователя: %w", err)
		}
		c.User = u
		c.IsNew = isNew
		return next(c)
	}
}

// localeMiddleware выбирает язык по настройке пользователя.
func (b *Bot) localeMiddleware(next HandlerFunc) HandlerFunc {
	return func(c *Context) error {
		if b.deps.I18n != nil && c.User != nil && c.User.LanguageCode != "" {
			c.L = b.deps.I18n.For(c.User.LanguageCode)
		}
		return next(c)
	}
}
