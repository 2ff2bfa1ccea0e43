// Пакет bot — диспетчер обновлений Telegram: цепочка middleware
// (обслуживание, ограничение частоты, пользователь, язык), маршрутизация
// команд, callback-кнопок и свободного текста.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/oddava/finance-tracker/internal/i18n"
	"github.com/oddava/finance-tracker/internal/parser"
	"github.com/oddava/finance-tracker/internal/service"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// Messenger — методы Bot API, которые использует бот.
// Реализуется *telegram.Client.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, opts *telegram.SendOptions) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// AIParser — запасной разбор текста. Реализуется *service.AIParser.
type AIParser interface {
	Parse(ctx context.Context, text string, userCategories []string) (*parser.Result, error)
}

// Deps — зависимости бота.
type Deps struct {
	API          Messenger
	Users        *service.UserService
	Categories   *service.CategoryService
	Transactions *service.TransactionService
	Budgets      *service.BudgetService
	Settings     *service.SettingsService
	Admin        *service.AdminService
	Parser       *parser.Parser
	// AI — nil, если AI-разбор отключён
	AI   AIParser
	I18n *i18n.Bundle
}

// Options — параметры поведения бота.
type Options struct {
	AdminIDs []int64
	// RateLimit — сообщений в минуту на пользователя
	RateLimit int
	// StateTTL — время жизни незавершённого выбора категории
	StateTTL   time.Duration
	UseWebhook bool
	Version    string
}

// HandlerFunc обрабатывает одно обновление.
type HandlerFunc func(c *Context) error

// Middleware оборачивает обработчик.
type Middleware func(next HandlerFunc) HandlerFunc

type callbackRoute struct {
	prefix  string
	handler HandlerFunc
}

// Bot — диспетчер обновлений.
type Bot struct {
	deps     Deps
	opts     Options
	admins   map[int64]bool
	commands map[string]HandlerFunc
	adminCmd map[string]HandlerFunc
	// callbacks проверяются по порядку, первый совпавший префикс выигрывает
	callbacks []callbackRoute
	chain     HandlerFunc
	throttle  *Throttle
	states    *StateStore
	now       func() time.Time
	pick      func(n int) int
	started   time.Time

	// фоновые задачи (рассылки)
	jobsCtx    context.Context
	jobsCancel context.CancelFunc
	jobs       sync.WaitGroup

	logger *slog.Logger
}

// New создаёт бота и регистрирует обработчики.
func New(deps Deps, opts Options, logger *slog.Logger) *Bot {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 30
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = 15 * time.Minute
	}

	admins := make(map[int64]bool, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = true
	}

	jobsCtx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		deps:       deps,
		opts:       opts,
		admins:     admins,
		commands:   make(map[string]HandlerFunc),
		adminCmd:   make(map[string]HandlerFunc),
		throttle:   NewThrottle(opts.RateLimit, time.Minute, 5*time.Minute),
		states:     NewStateStore(opts.StateTTL),
		now:        time.Now,
		pick:       rand.IntN,
		started:    time.Now(),
		jobsCtx:    jobsCtx,
		jobsCancel: cancel,
		logger:     logger.With(slog.String("component", "bot")),
	}

	b.registerStart()
	b.registerExpenses()
	b.registerReports()
	b.registerSettings()
	b.registerAdmin()

	b.chain = chain(b.route,
		b.maintenanceMiddleware,
		b.throttleMiddleware,
		b.userMiddleware,
		b.localeMiddleware,
	)
	return b
}

// chain применяет middleware так, что первый в списке выполняется первым.
func chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (b *Bot) command(name string, h HandlerFunc) {
	b.commands[name] = h
}

func (b *Bot) adminCommand(name string, h HandlerFunc) {
	b.adminCmd[name] = h
}

func (b *Bot) callback(prefix string, h HandlerFunc) {
	b.callbacks = append(b.callbacks, callbackRoute{prefix: prefix, handler: h})
}

// IsAdmin сообщает, является ли пользователь администратором.
func (b *Bot) IsAdmin(userID int64) bool {
	return b.admins[userID]
}

// HandleUpdate обрабатывает одно обновление. Ошибки обработчиков
// логируются, отправляются в Sentry и сообщаются пользователю.
func (b *Bot) HandleUpdate(ctx context.Context, u *telegram.Update) {
	kind := telegram.Kind(u)
	updatesTotal.WithLabelValues(kind).Inc()

	c := newContext(ctx, b, u)
	if c == nil {
		b.logger.Debug("Обновление пропущено", slog.Int("update_id", u.UpdateID), slog.String("kind", kind))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.reportError(c, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := b.chain(c); err != nil {
		b.reportError(c, err)
	}
}

func (b *Bot) reportError(c *Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if errors.Is(err, service.ErrAmountOutOfRange) {
		b.logger.Info("Сумма вне допустимого диапазона",
			slog.Int64("user_id", c.From.ID),
			slog.String("error", err.Error()),
		)
		msg := c.L.T("❌ Amount is out of range. Please check the number and try again.")
		if c.Callback != nil {
			_ = c.Answer(msg, true)
			return
		}
		_ = c.Reply(msg, nil)
		return
	}

	handlerErrorsTotal.Inc()
	b.logger.Error("Ошибка обработки обновления",
		slog.Int("update_id", c.Update.UpdateID),
		slog.Int64("user_id", c.From.ID),
		slog.String("error", err.Error()),
	)

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: fmt.Sprint(c.From.ID), Username: c.From.UserName})
		scope.SetTag("update_kind", telegram.Kind(c.Update))
	})
	hub.CaptureException(err)

	text := c.L.T("❌ <b>Something went wrong</b>\n\nPlease try again later.")
	if c.Callback != nil {
		_ = c.Answer(c.L.T("❌ Failed. Please try again."), true)
		return
	}
	_ = c.Reply(text, nil)
}

// route выбирает обработчик для обновления.
func (b *Bot) route(c *Context) error {
	if c.Callback != nil {
		data := c.Callback.Data
		for _, r := range b.callbacks {
			if data == r.prefix || (strings.HasSuffix(r.prefix, "_") && strings.HasPrefix(data, r.prefix)) {
				return r.handler(c)
			}
		}
		return c.Answer("", false)
	}

	if c.Message == nil || c.Message.Text == "" {
		return nil
	}

	if strings.HasPrefix(c.Message.Text, "/") {
		cmd, _ := telegram.Command(c.Message)
		if h, ok := b.commands[cmd]; ok {
			return h(c)
		}
		if h, ok := b.adminCmd[cmd]; ok {
			if !c.IsAdmin {
				return c.Reply(c.L.T("❌ You don't have permission to use this command."), nil)
			}
			return h(c)
		}
		return c.Reply(c.L.T("🤷 Unknown command. Send /help to see what I can do."), nil)
	}

	return b.handleText(c)
}

// Close ждёт завершения фоновых задач до отмены ctx, затем отменяет
// оставшиеся и дожидается их выхода.
func (b *Bot) Close(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		b.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("Фоновые задачи не завершились, отмена")
		b.jobsCancel()
		<-done
	}
	b.jobsCancel()
}

// runJob запускает фоновую задачу, переживающую обработку обновления.
func (b *Bot) runJob(name string, fn func(ctx context.Context)) {
	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Паника в фоновой задаче", slog.String("job", name), slog.Any("panic", r))
				sentry.CurrentHub().Recover(r)
			}
		}()
		fn(b.jobsCtx)
	}()
}
