package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/format"
	"github.com/oddava/finance-tracker/internal/service"
)

// recentLimit — сколько транзакций показывает /recent.
const recentLimit = 10

func (b *Bot) registerReports() {
	b.command("today", b.handleToday)
	b.command("recent", b.handleRecent)
	b.command("month", b.handleMonth)
	b.command("budget", b.handleBudget)
}

func (b *Bot) handleToday(c *Context) error {
	day, err := b.deps.Transactions.Today(c.Ctx(), c.User)
	if err != nil {
		return err
	}
	if len(day.Transactions) == 0 {
		return c.Reply(c.L.T("📊 No expenses recorded today."), nil)
	}

	cur := c.User.Currency
	var sb strings.Builder
	sb.WriteString("📊 <b>" + c.L.T("Today's Expenses") + "</b>\n\n")
	sb.WriteString("💸 " + c.L.T("Total") + ": " + format.Amount(day.TotalExpenses, cur) + "\n")
	if day.TotalIncome > 0 {
		sb.WriteString("💰 " + c.L.T("Income") + ": " + format.Amount(day.TotalIncome, cur) + "\n")
	}
	sb.WriteString("📝 " + c.L.T("Transactions") + ": " + strconv.Itoa(len(day.Transactions)) + "\n")

	if len(day.ByCategory) > 0 {
		sb.WriteString("\n<b>" + c.L.T("By Category") + ":</b>\n")
		for _, ca := range day.ByCategory {
			fmt.Fprintf(&sb, "%s %s: %s (%s)\n",
				ca.Emoji, format.EscapeHTML(ca.Name), format.Amount(ca.Amount, cur),
				format.Percentage(ca.Amount, day.TotalExpenses))
		}
	}

	sb.WriteString("\n<b>" + c.L.T("Recent transactions") + ":</b>\n")
	list := day.Transactions
	if len(list) > 5 {
		list = list[len(list)-5:]
	}
	for _, t := range list {
		sign := "-"
		if t.Type == model.TypeIncome {
			sign = "+"
		}
		fmt.Fprintf(&sb, "• %s %s%s", t.CategoryEmoji, sign, format.Amount(t.Amount, t.Currency))
		if t.Description != "" {
			sb.WriteString(" - " + format.EscapeHTML(t.Description))
		}
		sb.WriteString("\n")
	}
	return c.Reply(sb.String(), nil)
}

func (b *Bot) handleRecent(c *Context) error {
	list, err := b.deps.Transactions.Recent(c.Ctx(), c.User.UserID, recentLimit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return c.Reply(c.L.T("📊 No transactions yet. Start by logging your first expense!"), nil)
	}

	loc := c.User.Location()
	var sb strings.Builder
	sb.WriteString("📋 <b>" + c.L.T("Recent Transactions") + "</b>\n\n")
	for _, t := range list {
		typeEmoji := "💸"
		if t.Type == model.TypeIncome {
			typeEmoji = "💰"
		}
		fmt.Fprintf(&sb, "%s %s <b>%s</b>\n   %s", typeEmoji, t.CategoryEmoji,
			format.Amount(t.Amount, t.Currency), format.EscapeHTML(t.CategoryName))
		if t.Description != "" {
			sb.WriteString(" • " + format.EscapeHTML(t.Description))
		}
		fmt.Fprintf(&sb, "\n   <i>%s</i>\n\n", t.Date.In(loc).Format("02 Jan, 15:04"))
	}
	return c.Reply(sb.String(), nil)
}

func (b *Bot) handleMonth(c *Context) error {
	sum, err := b.deps.Transactions.Month(c.Ctx(), c.User)
	if err != nil {
		return err
	}
	if sum.TransactionCount == 0 {
		return c.Reply(c.L.T("📅 No transactions this month yet."), nil)
	}

	cur := c.User.Currency
	var sb strings.Builder
	sb.WriteString("📅 <b>" + c.L.T("Monthly Report") + "</b>\n")
	sb.WriteString("<i>" + format.DateRange(sum.PeriodStart, sum.PeriodEnd) + "</i>\n\n")
	sb.WriteString("💸 " + c.L.T("Expenses") + ": " + format.Amount(sum.TotalExpenses, cur) + "\n")
	sb.WriteString("💰 " + c.L.T("Income") + ": " + format.Amount(sum.TotalIncome, cur) + "\n")
	balanceEmoji := "📈"
	if sum.Balance < 0 {
		balanceEmoji = "📉"
	}
	sb.WriteString(balanceEmoji + " " + c.L.T("Balance") + ": " + format.Amount(sum.Balance, cur) + "\n")
	sb.WriteString("📝 " + c.L.T("Transactions") + ": " + strconv.Itoa(sum.TransactionCount) + "\n")

	if len(sum.Categories) > 0 {
		sb.WriteString("\n<b>" + c.L.T("By Category") + ":</b>\n")
		for _, ca := range sum.Categories {
			fmt.Fprintf(&sb, "%s %s: %s\n%s\n",
				ca.Emoji, format.EscapeHTML(ca.Name), format.Amount(ca.Amount, cur),
				format.ProgressBar(ca.Amount, sum.TotalExpenses, 10))
		}
	}
	return c.Reply(sb.String(), nil)
}

// handleBudget: без аргументов — список бюджетов, иначе
// «/budget <сумма> <категория>» задаёт месячный бюджет.
func (b *Bot) handleBudget(c *Context) error {
	args := strings.Fields(c.Args())
	if len(args) == 0 {
		return b.listBudgets(c)
	}

	usage := c.L.T("Usage: <code>/budget 500k food</code>")
	if len(args) < 2 {
		return c.Reply(usage, nil)
	}
	amount, ok := parseAmountArg(args[0])
	if !ok {
		return c.Reply(c.L.T("❌ Invalid amount")+"\n\n"+usage, nil)
	}

	name := strings.Join(args[1:], " ")
	cats, err := b.deps.Categories.List(c.Ctx(), c.User.UserID, model.TypeExpense)
	if err != nil {
		return err
	}
	cat := matchCategory(cats, name, model.TypeExpense)
	if cat == nil {
		return c.Reply(c.L.Tf("❌ Category not found: %s", format.EscapeHTML(name)), nil)
	}

	budget, err := b.deps.Budgets.Set(c.Ctx(), c.User.UserID, cat.ID, amount, model.PeriodMonthly, b.now().In(c.User.Location()))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.Reply(c.L.T("❌ Invalid amount")+"\n\n"+usage, nil)
		}
		return err
	}

	text := c.L.Tf("🎯 <b>Budget set!</b>\n\n%s: %s per month",
		format.EscapeHTML(cat.Label()), format.Amount(budget.Amount, c.User.Currency))
	if info, _ := b.budgetInfo(c, cat.ID); info != "" {
		text += "\n\n" + info
	}
	return c.Reply(text, nil)
}

func (b *Bot) listBudgets(c *Context) error {
	list, err := b.deps.Budgets.List(c.Ctx(), c.User.UserID, c.User.Location(), b.now())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return c.Reply(c.L.T("🎯 No budgets set yet.\n\nSet one with <code>/budget 500k food</code>"), nil)
	}

	cur := c.User.Currency
	var sb strings.Builder
	sb.WriteString("🎯 <b>" + c.L.T("Budgets") + "</b>\n\n")
	for _, st := range list {
		label := strings.TrimSpace(st.Budget.CategoryEmoji + " " + st.Budget.CategoryName)
		fmt.Fprintf(&sb, "%s <b>%s</b>\n%s / %s\n%s\n\n",
			format.LevelFor(st.Percentage).Emoji(), format.EscapeHTML(label),
			format.Amount(st.Spent, cur), format.Amount(st.Budget.Amount, cur),
			format.ProgressBar(st.Spent, st.Budget.Amount, 10))
	}
	return c.Reply(strings.TrimRight(sb.String(), "\n"), nil)
}

// parseAmountArg разбирает сумму вида 500000, 500k, 1.5k, 2,5к.
func parseAmountArg(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	mult := 1.0
	for _, suffix := range []string{"k", "к"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			mult = 1000
			break
		}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	v *= mult
	if !model.ValidAmount(v) {
		return 0, false
	}
	return v, true
}
