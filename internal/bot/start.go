package bot

import (
	"errors"
	"strings"

	"github.com/oddava/finance-tracker/internal/format"
	"github.com/oddava/finance-tracker/internal/service"
	"github.com/oddava/finance-tracker/internal/telegram"
)

func (b *Bot) registerStart() {
	b.command("start", b.handleStart)
	b.command("menu", b.handleMenu)
	b.command("help", b.handleHelp)
	b.command("about", b.handleAbout)
	b.command("feedback", b.handleFeedback)

	b.callback("currency_set_", b.handleCurrencySet)
	b.callback("menu_main", b.handleMenuCallback)
}

func currencyKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewInlineKeyboard(telegram.Row(
		telegram.Button("USD($)", "currency_set_USD"),
		telegram.Button("RUB(₽)", "currency_set_RUB"),
		telegram.Button("UZS(сўм)", "currency_set_UZS"),
	))
}

func (b *Bot) handleStart(c *Context) error {
	if !c.IsNew {
		return b.handleMenu(c)
	}

	name := format.EscapeHTML(c.User.DisplayName())
	if err := c.Reply(c.L.Tf("👋 <b>Welcome, %s!</b>\n\n"+
		"I'm your personal finance assistant. Just tell me what you spent, "+
		"like <code>50k taxi</code>, and I'll keep track of it.", name), nil); err != nil {
		return err
	}
	return c.Reply(c.L.T("💱 <b>First, let's set your currency:</b>\n\n"+
		"Select your preferred currency:"), currencyKeyboard())
}

func (b *Bot) handleCurrencySet(c *Context) error {
	currency := strings.TrimPrefix(c.Callback.Data, "currency_set_")
	if err := b.deps.Users.SetCurrency(c.Ctx(), c.From.ID, currency); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.Answer(c.L.T("❌ Invalid currency"), true)
		}
		return err
	}

	if err := c.Edit(c.L.Tf("✅ Currency set to: %s\n\n"+
		"Perfect! You're all set up.\n\n"+
		"<b>Try your first expense:</b>\n"+
		"• Type: <code>50k taxi</code>\n\n"+
		"Let's get started! 🚀", currency), nil); err != nil {
		return err
	}
	return c.Answer("", false)
}

func (b *Bot) menuText(c *Context) string {
	return c.L.T("🏠 <b>Main Menu</b>\n\n" +
		"What would you like to do?\n\n" +
		"<b>Quick Commands:</b>\n" +
		"• Just type: <code>50k taxi</code>\n" +
		"• /today - Today's summary\n" +
		"• /month - Monthly report\n" +
		"• /recent - Recent transactions\n" +
		"• /help - Get help")
}

func (b *Bot) handleMenu(c *Context) error {
	return c.Reply(b.menuText(c), nil)
}

func (b *Bot) handleMenuCallback(c *Context) error {
	if err := c.Edit(b.menuText(c), nil); err != nil {
		return err
	}
	return c.Answer("", false)
}

func (b *Bot) handleHelp(c *Context) error {
	return c.Reply(c.L.T("❓ <b>How to Use Finance Tracker Bot</b>\n\n"+
		"<b>📝 Logging Expenses:</b>\n"+
		"• <code>50k taxi</code>\n"+
		"• <code>lunch 25000</code>\n"+
		"• <code>spent 150 on groceries</code>\n"+
		"• <code>45k taxi, 15k snacks</code> - several at once\n\n"+
		"<b>💰 Income:</b>\n"+
		"• <code>received 5k from freelance</code>\n\n"+
		"<b>📊 Reports:</b>\n"+
		"• /today - Today's expenses\n"+
		"• /month - Monthly breakdown\n"+
		"• /recent - Last 10 transactions\n\n"+
		"<b>🎯 Budgets:</b>\n"+
		"• /budget - View budgets\n"+
		"• <code>/budget 500k food</code> - Set a monthly budget\n\n"+
		"<b>⚙️ Settings:</b>\n"+
		"• /settings - Change preferences\n"+
		"• /language - Change language\n"+
		"• /currency - Change currency\n"+
		"• /timezone - Change timezone\n\n"+
		"<b>Other:</b>\n"+
		"• /menu - Show main menu\n"+
		"• /about - About the bot\n"+
		"• /cancel - Cancel current operation\n"+
		"• /help - Show this message\n\n"+
		"💡 <b>Pro Tip:</b> Just type naturally! The bot understands:\n"+
		"\"50k taxi\", \"bought groceries 120\", \"coffee 15000\""), nil)
}

func (b *Bot) handleAbout(c *Context) error {
	sum, err := b.deps.Transactions.Month(c.Ctx(), c.User)
	if err != nil {
		return err
	}

	since := c.User.CreatedAt.In(c.User.Location()).Format("02 Jan 2006")
	version := b.opts.Version
	if version == "" {
		version = "dev"
	}
	return c.Reply(c.L.Tf("ℹ️ <b>About Finance Tracker Bot</b>\n\n"+
		"🤖 Smart personal finance tracking made easy!\n\n"+
		"<b>Your Stats:</b>\n"+
		"📅 Member since: %s\n"+
		"💰 Currency: %s\n"+
		"📝 This month: %d transactions\n"+
		"💸 Total spent: %s\n\n"+
		"<b>Features:</b>\n"+
		"✅ Natural language expense logging\n"+
		"✅ Budget tracking & alerts\n"+
		"✅ Multiple currencies support\n\n"+
		"Version: %s",
		since, c.User.Currency, sum.TransactionCount,
		format.Amount(sum.TotalExpenses, c.User.Currency), version), nil)
}

func (b *Bot) handleFeedback(c *Context) error {
	return c.Reply(c.L.T("💬 <b>Feedback & Support</b>\n\n"+
		"We'd love to hear from you!\n\n"+
		"🐛 <b>Report Issues:</b>\n"+
		"Found a bug? Let us know!\n\n"+
		"⭐ <b>Feature Requests:</b>\n"+
		"Have an idea? We're listening!\n\n"+
		"🌟 <b>Rate Us:</b>\n"+
		"Enjoying the bot? Share with friends!"), nil)
}

var (
	greetingWords = map[string]bool{"hi": true, "hello": true, "hey": true, "привет": true, "salom": true}
	thanksWords   = map[string]bool{"thanks": true, "thank you": true, "thx": true, "спасибо": true, "rahmat": true}
)

// smallTalk отвечает на приветствия и благодарности. Возвращает false,
// если текст не из их числа.
func (b *Bot) smallTalk(c *Context, text string) (bool, error) {
	lower := strings.ToLower(text)
	var replies []string
	switch {
	case greetingWords[lower]:
		replies = []string{
			c.L.T("👋 Hello! Ready to track some expenses?"),
			c.L.T("Hi there! 💰 How can I help you today?"),
			c.L.T("Hey! 👋 Let's manage your finances!"),
			c.L.T("Hello! Start by telling me what you spent. 😊"),
		}
	case thanksWords[lower]:
		replies = []string{
			c.L.T("You're welcome! 😊"),
			c.L.T("Happy to help! 💙"),
			c.L.T("Anytime! Keep tracking! 💪"),
			c.L.T("My pleasure! 🎉"),
		}
	default:
		return false, nil
	}
	return true, c.Reply(replies[b.pick(len(replies))], nil)
}
