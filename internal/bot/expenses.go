package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/format"
	"github.com/oddava/finance-tracker/internal/parser"
	"github.com/oddava/finance-tracker/internal/service"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// Пороги уверенности разбора.
const (
	minConfidence        = 0.4
	autoCreateConfidence = 0.75
)

// sourceSelection — метка транзакций, категория которых выбрана вручную.
const sourceSelection = "selection"

func (b *Bot) registerExpenses() {
	b.command("cancel", b.handleCancelCommand)
	b.callback("cat_", b.handleCategorySelected)
	b.callback("cancel", b.handleCancelSelection)
}

// handleText обрабатывает свободный текст: небольшой разговор или транзакцию.
func (b *Bot) handleText(c *Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}
	if handled, err := b.smallTalk(c, text); handled {
		return err
	}
	if casualWords[strings.ToLower(text)] || utf8.RuneCountInString(text) < 2 {
		return nil
	}
	if shouldSkipInput(text) {
		b.logger.Debug("Сообщение не похоже на транзакцию", slog.Int64("user_id", c.From.ID))
		return nil
	}

	cats, err := b.deps.Categories.List(c.Ctx(), c.User.UserID, "")
	if err != nil {
		return err
	}

	c.Typing()
	res := b.parse(c, text, service.Names(cats))

	b.logger.Info("Сообщение разобрано",
		slog.Int64("user_id", c.User.UserID),
		slog.String("method", res.Method),
		slog.Float64("confidence", res.Confidence),
		slog.Bool("multiple", res.Multiple),
	)

	switch {
	case res.Multiple:
		return b.handleMultiple(c, res, cats)
	case res.Confidence < minConfidence:
		return b.sendParseHelp(c)
	case res.Type == model.TypeIncome:
		return b.handleIncome(c, res, cats)
	default:
		return b.handleExpense(c, res, cats)
	}
}

// parse разбирает текст правилами; при сомнениях пробует AI-парсер.
func (b *Bot) parse(c *Context, text string, names []string) *parser.Result {
	res := b.deps.Parser.Parse(text, names)
	if b.deps.AI == nil || res.Multiple || !parser.ShouldUseAI(res, text) {
		return res
	}

	ai, err := b.deps.AI.Parse(c.Ctx(), text, names)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, service.ErrAIUnavailable) {
			level = slog.LevelDebug
		}
		b.logger.Log(c.Ctx(), level, "AI-разбор недоступен", slog.String("error", err.Error()))
		return res
	}
	if ai.Amount > 0 && ai.Confidence > res.Confidence {
		return ai
	}
	return res
}

func (b *Bot) sendParseHelp(c *Context) error {
	return c.Reply(c.L.T("🤔 <b>I couldn't understand that clearly.</b>\n\n"+
		"<b>Try these formats:</b>\n"+
		"• <code>50k taxi</code> - Quick expense\n"+
		"• <code>lunch 25000</code> - Amount first or last\n"+
		"• <code>bought groceries 120k</code> - With description\n"+
		"• <code>received 5k from freelance</code> - For income"), nil)
}

// matchCategory ищет категорию типа typ по имени или ключу парсера.
func matchCategory(cats []*model.Category, name, typ string) *model.Category {
	if name == "" {
		return nil
	}
	typed := filterType(cats, typ)
	if cat := service.MatchCategory(typed, parser.CategoryDisplayName(name)); cat != nil {
		return cat
	}
	return service.MatchCategory(typed, name)
}

func filterType(cats []*model.Category, typ string) []*model.Category {
	out := make([]*model.Category, 0, len(cats))
	for _, cat := range cats {
		if cat.Type == typ {
			out = append(out, cat)
		}
	}
	return out
}

func pendingFrom(amount float64, typ, category, description string, confidence float64, source string) PendingItem {
	if typ == "" {
		typ = model.TypeExpense
	}
	return PendingItem{
		Amount:      amount,
		Type:        typ,
		Description: description,
		Suggested:   category,
		Confidence:  confidence,
		Source:      source,
	}
}

func (b *Bot) handleExpense(c *Context, res *parser.Result, cats []*model.Category) error {
	item := pendingFrom(res.Amount, model.TypeExpense, res.Category, res.Description, res.Confidence, res.Method)

	cat := matchCategory(cats, res.Category, model.TypeExpense)
	if cat != nil && res.Confidence >= autoCreateConfidence {
		t, err := b.createTransaction(c, item, cat)
		if err != nil {
			return err
		}
		return c.Reply(b.transactionText(c, t, confidenceMark(res.Confidence)), nil)
	}
	return b.requestCategory(c, &Pending{Current: item}, cats)
}

func (b *Bot) handleIncome(c *Context, res *parser.Result, cats []*model.Category) error {
	income := filterType(cats, model.TypeIncome)
	if len(income) == 0 {
		return c.Reply(c.L.T("⚠️ <b>No income categories found</b>"), nil)
	}

	item := pendingFrom(res.Amount, model.TypeIncome, res.Category, res.Description, res.Confidence, res.Method)

	cat := matchCategory(cats, res.Category, model.TypeIncome)
	if cat == nil && len(income) == 1 {
		cat = income[0]
	}
	if cat != nil {
		t, err := b.createTransaction(c, item, cat)
		if err != nil {
			return err
		}
		return c.Reply(b.transactionText(c, t, ""), nil)
	}
	return b.requestCategory(c, &Pending{Current: item}, cats)
}

// handleMultiple записывает уверенно разобранные транзакции сразу,
// остальные ставит в очередь выбора категории.
func (b *Bot) handleMultiple(c *Context, res *parser.Result, cats []*model.Category) error {
	if len(res.Items) == 0 {
		return c.Reply(c.L.T("🤔 I detected multiple expenses but couldn't parse them clearly.\n\n"+
			"Try separating them with commas:\n"+
			"<code>10k food, 5k taxi, 20k groceries</code>"), nil)
	}

	var (
		queue   []PendingItem
		lines   []string
		alerts  []string
		created int
		total   float64
	)
	for _, it := range res.Items {
		item := pendingFrom(it.Amount, it.Type, it.Category, it.Description, it.Confidence, res.Method)
		cat := matchCategory(cats, it.Category, item.Type)
		if cat == nil || it.Confidence < autoCreateConfidence {
			queue = append(queue, item)
			continue
		}

		t, err := b.createTransaction(c, item, cat)
		if err != nil {
			b.logger.Error("Ошибка записи транзакции из списка",
				slog.Int64("user_id", c.User.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		created++
		if t.Type == model.TypeExpense {
			total += t.Amount
		}

		line := fmt.Sprintf("• %s - %s", format.Amount(t.Amount, t.Currency), format.EscapeHTML(cat.Name))
		if t.Description != "" {
			line += " (" + format.EscapeHTML(t.Description) + ")"
		}
		lines = append(lines, line)

		if t.Type == model.TypeExpense {
			if info, alert := b.budgetInfo(c, cat.ID); alert {
				alerts = append(alerts, "• "+format.EscapeHTML(cat.Name)+": "+info)
			}
		}
	}

	if created > 0 {
		mark := ""
		if created == len(res.Items) {
			mark = " ✨"
		}
		var sb strings.Builder
		sb.WriteString(c.L.Tn("✅ <b>%d expense logged!%s</b>", "✅ <b>%d expenses logged!%s</b>", created, created, mark))
		sb.WriteString("\n\n")
		sb.WriteString(c.L.Tf("💸 Total: -%s", format.Amount(total, c.User.Currency)))
		sb.WriteString("\n\n")
		sb.WriteString(strings.Join(lines, "\n"))
		if len(alerts) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(c.L.T("⚠️ <b>Budget Alerts:</b>"))
			sb.WriteString("\n")
			sb.WriteString(strings.Join(alerts, "\n"))
		}
		if err := c.Reply(sb.String(), nil); err != nil {
			return err
		}
	}

	if len(queue) > 0 {
		return b.requestCategory(c, &Pending{Current: queue[0], Queue: queue[1:]}, cats)
	}
	if created == 0 {
		return c.Reply(c.L.T("❌ Failed to save expense. Please try again."), nil)
	}
	return nil
}

func (b *Bot) createTransaction(c *Context, item PendingItem, cat *model.Category) (*model.Transaction, error) {
	t, err := b.deps.Transactions.Create(c.Ctx(), service.NewTransaction{
		UserID:      c.User.UserID,
		Category:    cat,
		Type:        item.Type,
		Amount:      item.Amount,
		Currency:    c.User.Currency,
		Description: item.Description,
	})
	if err != nil {
		return nil, err
	}
	source := item.Source
	if source == "" {
		source = sourceSelection
	}
	transactionsCreatedTotal.WithLabelValues(t.Type, source).Inc()
	return t, nil
}

// transactionText — подтверждение записи транзакции. Для расходов
// добавляется состояние бюджета категории.
func (b *Bot) transactionText(c *Context, t *model.Transaction, mark string) string {
	var sb strings.Builder
	if t.Type == model.TypeIncome {
		sb.WriteString("✅ <b>" + c.L.T("Income logged!") + "</b>\n\n")
		sb.WriteString("💰 +" + format.Amount(t.Amount, t.Currency) + "\n")
	} else {
		sb.WriteString("✅ <b>" + c.L.T("Expense logged!") + mark + "</b>\n\n")
		sb.WriteString("💸 -" + format.Amount(t.Amount, t.Currency) + "\n")
	}
	sb.WriteString("📁 " + format.EscapeHTML(strings.TrimSpace(t.CategoryEmoji+" "+t.CategoryName)) + "\n")
	if t.Description != "" {
		sb.WriteString("📝 " + format.EscapeHTML(t.Description) + "\n")
	}

	if t.Type == model.TypeExpense {
		if info, _ := b.budgetInfo(c, t.CategoryID); info != "" {
			sb.WriteString("\n" + info)
		}
	}
	return sb.String()
}

// budgetInfo описывает бюджет категории. alert = true при превышении
// или достижении порога предупреждения. Без бюджета — пустая строка.
func (b *Bot) budgetInfo(c *Context, categoryID int64) (string, bool) {
	st, err := b.deps.Budgets.Status(c.Ctx(), c.User.UserID, categoryID, c.User.Location(), b.now())
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			b.logger.Warn("Ошибка получения бюджета",
				slog.Int64("user_id", c.User.UserID),
				slog.String("error", err.Error()),
			)
		}
		return "", false
	}

	spent := format.Amount(st.Spent, c.User.Currency)
	limit := format.Amount(st.Budget.Amount, c.User.Currency)
	pct := strconv.FormatFloat(st.Percentage, 'f', -1, 64)

	switch {
	case st.Exceeded:
		return c.L.Tf("⚠️ <b>Budget exceeded!</b>\nSpent: %s / %s (%s%%)", spent, limit, pct), true
	case st.Warning:
		return c.L.Tf("⚡ <b>Budget warning: %s%%</b>\nSpent: %s / %s", pct, spent, limit), true
	default:
		return c.L.Tf("✅ Budget: %s / %s (%s%%)", spent, limit, pct) + "\n" +
			format.ProgressBar(st.Spent, st.Budget.Amount, 10), false
	}
}

// requestCategory сохраняет выбор и показывает клавиатуру категорий.
// cats == nil — категории загружаются заново.
func (b *Bot) requestCategory(c *Context, p *Pending, cats []*model.Category) error {
	if cats == nil {
		var err error
		cats, err = b.deps.Categories.List(c.Ctx(), c.User.UserID, p.Current.Type)
		if err != nil {
			return err
		}
	}
	typed := filterType(cats, p.Current.Type)
	if len(typed) == 0 {
		b.states.ClearPending(c.User.UserID)
		return c.Reply(c.L.T("⚠️ <b>No categories found</b>"), nil)
	}

	b.states.SetPending(c.User.UserID, p)

	item := p.Current
	amount := format.Amount(item.Amount, c.User.Currency)

	var sb strings.Builder
	if item.Type == model.TypeIncome {
		sb.WriteString(c.L.Tf("💰 <b>Income: %s</b>", amount))
	} else {
		sb.WriteString(c.L.Tf("💸 <b>Expense: %s</b>", amount))
	}
	sb.WriteString("\n\n")
	if item.Description != "" {
		sb.WriteString("📝 " + format.EscapeHTML(item.Description) + "\n\n")
	}
	if item.Suggested != "" {
		sb.WriteString(c.L.Tf("💡 Suggested: <i>%s</i>", format.EscapeHTML(parser.CategoryDisplayName(item.Suggested))))
		sb.WriteString("\n\n")
	}
	if n := len(p.Queue); n > 0 {
		sb.WriteString(c.L.Tn("📊 %d expense needs review", "📊 %d expenses need review", n+1, n+1))
		sb.WriteString("\n\n")
	}
	sb.WriteString(c.L.T("Select the correct category:"))

	return c.Reply(sb.String(), categoryKeyboard(c, typed))
}

func categoryKeyboard(c *Context, cats []*model.Category) *telegram.InlineKeyboardMarkup {
	buttons := make([]telegram.InlineKeyboardButton, 0, len(cats))
	for _, cat := range cats {
		buttons = append(buttons, telegram.Button(cat.Label(), "cat_"+strconv.FormatInt(cat.ID, 10)))
	}
	rows := telegram.Grid(2, buttons...)
	rows = append(rows, telegram.Row(telegram.Button(c.L.T("❌ Cancel"), "cancel")))
	return telegram.NewInlineKeyboard(rows...)
}

func (b *Bot) handleCategorySelected(c *Context) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(c.Callback.Data, "cat_"), 10, 64)
	if err != nil {
		return c.Answer(c.L.T("❌ Invalid category"), true)
	}
	cat, err := b.deps.Categories.Get(c.Ctx(), c.User.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			return c.Answer(c.L.T("❌ Category not found"), true)
		}
		return err
	}

	p, ok := b.states.TakePending(c.From.ID)
	if !ok {
		return c.Answer(c.L.T("⚠️ Session expired. Please try again."), true)
	}

	item := p.Current
	item.Source = sourceSelection
	t, err := b.createTransaction(c, item, cat)
	if err != nil {
		return err
	}

	if err := c.Edit(b.transactionText(c, t, ""), nil); err != nil {
		b.logger.Warn("Ошибка обновления сообщения", slog.String("error", err.Error()))
	}
	if err := c.Answer(c.L.T("✅ Saved!"), false); err != nil {
		b.logger.Debug("Ошибка ответа на callback", slog.String("error", err.Error()))
	}

	if len(p.Queue) == 0 {
		return nil
	}
	return b.requestCategory(c, &Pending{Current: p.Queue[0], Queue: p.Queue[1:]}, nil)
}

func (b *Bot) handleCancelSelection(c *Context) error {
	b.states.ClearPending(c.From.ID)
	if err := c.Edit(c.L.T("❌ <b>Cancelled</b>\n\nTransaction was not saved."), nil); err != nil {
		return err
	}
	return c.Answer("", false)
}

func (b *Bot) handleCancelCommand(c *Context) error {
	cleared := b.states.ClearPending(c.From.ID)
	if _, ok := b.states.TakeBroadcast(c.From.ID); ok {
		cleared = true
	}
	if !cleared {
		return c.Reply(c.L.T("Nothing to cancel."), nil)
	}
	return c.Reply(c.L.T("❌ <b>Cancelled</b>"), nil)
}
