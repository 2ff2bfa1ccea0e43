package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oddava/finance-tracker/internal/format"
	"github.com/oddava/finance-tracker/internal/telegram"
)

func (b *Bot) registerAdmin() {
	b.adminCommand("maintenance", b.handleMaintenance)
	b.adminCommand("status", b.handleStatus)
	b.adminCommand("broadcast", b.handleBroadcast)

	b.callback("broadcast_confirm", b.adminOnly(b.handleBroadcastConfirm))
	b.callback("broadcast_cancel", b.adminOnly(b.handleBroadcastCancel))
}

func (b *Bot) adminOnly(h HandlerFunc) HandlerFunc {
	return func(c *Context) error {
		if !c.IsAdmin {
			return c.Answer(c.L.T("❌ You don't have permission to use this command."), true)
		}
		return h(c)
	}
}

// handleMaintenance: on, off, status; без аргумента переключает режим.
func (b *Bot) handleMaintenance(c *Context) error {
	current := b.deps.Settings.Maintenance()
	next := current

	switch arg := strings.ToLower(strings.TrimSpace(c.Args())); arg {
	case "on":
		next = true
	case "off":
		next = false
	case "status":
	case "":
		next = !current
	default:
		return c.Reply(c.L.T("Usage: <code>/maintenance on|off|status</code>"), nil)
	}

	if next != current {
		if err := b.deps.Settings.SetMaintenance(c.Ctx(), next); err != nil {
			return err
		}
		b.logger.Warn("Режим обслуживания изменён",
			slog.Bool("enabled", next),
			slog.Int64("admin_id", c.From.ID),
			slog.String("admin_username", c.From.UserName),
		)
	}

	status, state := c.L.T("✅ DISABLED"), c.L.T("Normal operation")
	if next {
		status, state = c.L.T("🔧 ENABLED"), c.L.T("Under maintenance")
	}
	return c.Reply(c.L.Tf("<b>Maintenance Mode: %s</b>\n\nCurrent state: %s", status, state), nil)
}

func (b *Bot) handleStatus(c *Context) error {
	stats, err := b.deps.Admin.Stats(c.Ctx())
	if err != nil {
		return err
	}

	mode := c.L.T("✅ Running")
	if b.deps.Settings.Maintenance() {
		mode = c.L.T("🔧 Under Maintenance")
	}
	delivery := c.L.T("Polling")
	if b.opts.UseWebhook {
		delivery = c.L.T("Webhook")
	}

	var sb strings.Builder
	sb.WriteString(c.L.Tf("<b>Bot Status</b>\n\nMode: %s\nUpdates: %s\nUptime: %s",
		mode, delivery, b.now().Sub(b.started).Round(time.Second)))
	sb.WriteString("\n\n")
	sb.WriteString(c.L.Tf("👥 <b>Users</b>\nTotal: %d\nNew today: %d\nActive today: %d\nActive this week: %d\nRetention: %.1f%%",
		stats.TotalUsers, stats.NewUsersToday, stats.ActiveUsersToday, stats.ActiveUsersWeek, stats.RetentionRate))
	sb.WriteString("\n\n")
	sb.WriteString(c.L.Tf("📝 <b>Transactions</b>\nToday: %d\nTotal: %d\nExpense volume: %.2f\nIncome volume: %.2f",
		stats.TransactionsToday, stats.TransactionsTotal, stats.TotalExpenseVolume, stats.TotalIncomeVolume))

	if len(stats.TopUsers) > 0 {
		sb.WriteString("\n\n<b>" + c.L.T("🏆 Top users") + "</b>\n")
		for i, u := range stats.TopUsers {
			name := u.Username
			if name == "" {
				name = u.FirstName
			}
			if name == "" {
				name = fmt.Sprint(u.UserID)
			}
			fmt.Fprintf(&sb, "%d. %s: %d\n", i+1, format.EscapeHTML(name), u.TransactionCount)
		}
	}
	if len(stats.PopularCategories) > 0 {
		sb.WriteString("\n<b>" + c.L.T("📂 Popular categories") + "</b>\n")
		for _, pc := range stats.PopularCategories {
			fmt.Fprintf(&sb, "%s %s: %d\n", pc.Emoji, format.EscapeHTML(pc.Name), pc.Count)
		}
	}
	if stats.DatabaseSize != "" {
		sb.WriteString("\n" + c.L.Tf("💾 Database: %s", stats.DatabaseSize))
	}
	return c.Reply(strings.TrimRight(sb.String(), "\n"), nil)
}

func (b *Bot) handleBroadcast(c *Context) error {
	text := strings.TrimSpace(c.Args())
	if text == "" {
		return c.Reply(c.L.T("Usage: <code>/broadcast your message</code>"), nil)
	}

	b.states.SetBroadcast(c.From.ID, text)
	kb := telegram.NewInlineKeyboard(telegram.Row(
		telegram.Button(c.L.T("✅ Send"), "broadcast_confirm"),
		telegram.Button(c.L.T("❌ Cancel"), "broadcast_cancel"),
	))
	return c.Reply(c.L.T("📢 <b>Broadcast preview</b>")+"\n\n"+text+"\n\n"+
		c.L.T("Send this message to all users?"), kb)
}

func (b *Bot) handleBroadcastConfirm(c *Context) error {
	text, ok := b.states.TakeBroadcast(c.From.ID)
	if !ok {
		return c.Answer(c.L.T("⚠️ Session expired. Please try again."), true)
	}
	if err := c.Edit(c.L.T("📢 Broadcast started…"), nil); err != nil {
		return err
	}
	if err := c.Answer("", false); err != nil {
		b.logger.Debug("Ошибка ответа на callback", slog.String("error", err.Error()))
	}

	adminID, chatID, l := c.From.ID, c.ChatID, c.L
	b.runJob("broadcast", func(ctx context.Context) {
		res, err := b.deps.Admin.Broadcast(ctx, text, adminID)
		var report string
		switch {
		case err != nil:
			b.logger.Error("Ошибка рассылки", slog.String("error", err.Error()))
			report = l.T("❌ Broadcast failed.")
		default:
			report = l.Tf("📢 <b>Broadcast finished</b>\n\n✅ Sent: %d\n🚫 Blocked: %d\n❌ Failed: %d\n⏱ Duration: %s",
				res.Success, res.Blocked, res.Failed, res.Duration.Round(time.Second))
			if res.Cancelled {
				report += "\n\n" + l.T("⚠️ Broadcast was interrupted.")
			}
		}

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := b.deps.API.SendMessage(sendCtx, chatID, report, htmlOptions(nil)); err != nil {
			b.logger.Error("Не удалось отправить итог рассылки", slog.String("error", err.Error()))
		}
	})
	return nil
}

func (b *Bot) handleBroadcastCancel(c *Context) error {
	b.states.TakeBroadcast(c.From.ID)
	if err := c.Edit(c.L.T("❌ Broadcast cancelled."), nil); err != nil {
		return err
	}
	return c.Answer("", false)
}
