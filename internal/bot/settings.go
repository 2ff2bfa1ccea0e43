package bot

import (
	"errors"
	"strings"

	"github.com/oddava/finance-tracker/internal/format"
	"github.com/oddava/finance-tracker/internal/i18n"
	"github.com/oddava/finance-tracker/internal/service"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// Языки интерфейса, которые можно выбрать.
var interfaceLanguages = []string{"en", "ru", "uz"}

// Часовые пояса клавиатуры /timezone. Другие задаются аргументом команды.
var commonTimezones = []string{
	"UTC",
	"Europe/London",
	"Europe/Berlin",
	"Europe/Moscow",
	"Asia/Tashkent",
	"Asia/Almaty",
	"Asia/Dubai",
	"Asia/Kolkata",
	"Asia/Shanghai",
	"Asia/Tokyo",
	"America/New_York",
	"America/Los_Angeles",
}

func (b *Bot) registerSettings() {
	b.command("settings", b.handleSettings)
	b.command("language", b.handleLanguage)
	b.command("currency", b.handleCurrency)
	b.command("timezone", b.handleTimezone)

	b.callback("settings_main", b.handleSettingsMain)
	b.callback("settings_language", b.handleLanguage)
	b.callback("settings_currency", b.handleCurrency)
	b.callback("settings_timezone", b.handleTimezone)
	b.callback("settings_close", b.handleSettingsClose)
	b.callback("settings_categories", func(c *Context) error {
		return c.Answer(c.L.T("🏷️ Category management coming soon!"), true)
	})
	b.callback("settings_notifications", func(c *Context) error {
		return c.Answer(c.L.T("🔔 Notification settings coming soon!"), true)
	})
	b.callback("settings_export", func(c *Context) error {
		return c.Answer(c.L.T("📥 Data export coming soon!"), true)
	})
	b.callback("settings_delete", func(c *Context) error {
		return c.Answer(c.L.T("🗑️ Account deletion coming soon!"), true)
	})
	b.callback("lang_", b.handleLanguageSelected)
	b.callback("tz_", b.handleTimezoneSelected)
}

func (b *Bot) settingsKeyboard(c *Context) *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(
		telegram.Row(
			telegram.Button(c.L.T("🌍 Language"), "settings_language"),
			telegram.Button(c.L.T("💱 Currency"), "settings_currency"),
		),
		telegram.Row(
			telegram.Button(c.L.T("🕐 Timezone"), "settings_timezone"),
			telegram.Button(c.L.T("🏷️ Categories"), "settings_categories"),
		),
		telegram.Row(
			telegram.Button(c.L.T("🔔 Notifications"), "settings_notifications"),
			telegram.Button(c.L.T("📥 Export"), "settings_export"),
		),
		telegram.Row(telegram.Button(c.L.T("🗑️ Delete account"), "settings_delete")),
		telegram.Row(telegram.Button(c.L.T("❌ Close"), "settings_close")),
	)
}

func backRow(c *Context) []telegram.InlineKeyboardButton {
	return telegram.Row(telegram.Button(c.L.T("⬅️ Back"), "settings_main"))
}

func (b *Bot) settingsText(c *Context) string {
	return c.L.Tf("⚙️ <b>Settings</b>\n\n"+
		"Current configuration:\n"+
		"🌍 Language: %s\n"+
		"💱 Currency: %s\n"+
		"🕐 Timezone: %s\n\n"+
		"What would you like to change?",
		i18n.Name(c.User.LanguageCode), c.User.Currency, format.Timezone(c.User.Timezone, b.now()))
}

func (b *Bot) handleSettings(c *Context) error {
	if c.Message != nil {
		_ = b.deps.API.DeleteMessage(c.Ctx(), c.ChatID, c.Message.MessageID)
	}
	return c.Reply(b.settingsText(c), b.settingsKeyboard(c))
}

func (b *Bot) handleSettingsMain(c *Context) error {
	if err := b.reloadUser(c); err != nil {
		return err
	}
	if err := c.Edit(b.settingsText(c), b.settingsKeyboard(c)); err != nil {
		return err
	}
	return c.Answer("", false)
}

func (b *Bot) handleSettingsClose(c *Context) error {
	if c.Message != nil {
		if err := b.deps.API.DeleteMessage(c.Ctx(), c.ChatID, c.Message.MessageID); err != nil {
			return err
		}
	}
	return c.Answer("", false)
}

// reloadUser перечитывает профиль после изменения настроек.
func (b *Bot) reloadUser(c *Context) error {
	u, err := b.deps.Users.Get(c.Ctx(), c.From.ID)
	if err != nil {
		return err
	}
	c.User = u
	return nil
}

// reply отвечает правкой сообщения для callback и новым сообщением для команды.
func (c *Context) reply(text string, kb *telegram.InlineKeyboardMarkup) error {
	if c.Callback != nil {
		if err := c.Edit(text, kb); err != nil {
			return err
		}
		return c.Answer("", false)
	}
	return c.Reply(text, kb)
}

func (b *Bot) handleLanguage(c *Context) error {
	buttons := make([]telegram.InlineKeyboardButton, 0, len(interfaceLanguages))
	for _, lang := range interfaceLanguages {
		label := i18n.Name(lang)
		if lang == c.User.LanguageCode {
			label = "✅ " + label
		}
		buttons = append(buttons, telegram.Button(label, "lang_"+lang))
	}
	rows := telegram.Grid(1, buttons...)
	if c.Callback != nil {
		rows = append(rows, backRow(c))
	}

	return c.reply(c.L.Tf("🌍 <b>Select Language</b>\n\nCurrent: %s", i18n.Name(c.User.LanguageCode)),
		telegram.NewInlineKeyboard(rows...))
}

func (b *Bot) handleLanguageSelected(c *Context) error {
	lang := strings.TrimPrefix(c.Callback.Data, "lang_")
	valid := false
	for _, l := range interfaceLanguages {
		valid = valid || l == lang
	}
	if !valid {
		return c.Answer(c.L.T("❌ Invalid language"), true)
	}

	if err := b.deps.Users.SetLanguage(c.Ctx(), c.From.ID, lang); err != nil {
		return err
	}
	if b.deps.I18n != nil {
		c.L = b.deps.I18n.For(lang)
	}

	return c.reply(c.L.Tf("✅ Language changed to %s!\n\nYou can change it anytime in /settings", i18n.Name(lang)), nil)
}

func (b *Bot) handleCurrency(c *Context) error {
	currencies := service.SupportedCurrencies()
	buttons := make([]telegram.InlineKeyboardButton, 0, len(currencies))
	for _, cur := range currencies {
		label := cur + "(" + format.CurrencySymbol(cur) + ")"
		if cur == c.User.Currency {
			label = "✅ " + label
		}
		buttons = append(buttons, telegram.Button(label, "currency_set_"+cur))
	}
	rows := telegram.Grid(2, buttons...)
	if c.Callback != nil {
		rows = append(rows, backRow(c))
	}

	return c.reply(c.L.Tf("💱 <b>Select Currency</b>\n\nCurrent: %s", c.User.Currency),
		telegram.NewInlineKeyboard(rows...))
}

func (b *Bot) handleTimezone(c *Context) error {
	if arg := strings.TrimSpace(c.Args()); arg != "" && c.Callback == nil {
		return b.setTimezone(c, arg)
	}

	buttons := make([]telegram.InlineKeyboardButton, 0, len(commonTimezones))
	for _, tz := range commonTimezones {
		label := tz
		if tz == c.User.Timezone {
			label = "✅ " + label
		}
		buttons = append(buttons, telegram.Button(label, "tz_"+tz))
	}
	rows := telegram.Grid(2, buttons...)
	if c.Callback != nil {
		rows = append(rows, backRow(c))
	}

	local := b.now().In(c.User.Location()).Format("15:04")
	return c.reply(c.L.Tf("🕐 <b>Select Timezone</b>\n\n"+
		"Current: %s\n"+
		"Local time: %s\n\n"+
		"Not in the list? Send <code>/timezone Area/City</code>",
		format.Timezone(c.User.Timezone, b.now()), local),
		telegram.NewInlineKeyboard(rows...))
}

func (b *Bot) handleTimezoneSelected(c *Context) error {
	return b.setTimezone(c, strings.TrimPrefix(c.Callback.Data, "tz_"))
}

func (b *Bot) setTimezone(c *Context, tz string) error {
	if err := b.deps.Users.SetTimezone(c.Ctx(), c.From.ID, tz); err != nil {
		if errors.Is(err, service.ErrValidation) {
			if c.Callback != nil {
				return c.Answer(c.L.T("❌ Invalid timezone"), true)
			}
			return c.Reply(c.L.T("❌ Invalid timezone"), nil)
		}
		return err
	}

	if err := b.reloadUser(c); err != nil {
		return err
	}
	local := b.now().In(c.User.Location()).Format("15:04")
	return c.reply(c.L.Tf("✅ Timezone changed to %s!\n\n"+
		"🕐 Local time: %s\n\n"+
		"All timestamps will now use this timezone.",
		format.Timezone(c.User.Timezone, b.now()), local), nil)
}
