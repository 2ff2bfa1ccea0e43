// Пакет telegram — клиент к Telegram Bot API поверх telegram-bot-api/v5.
// Добавляет контекст к каждому запросу, журнал и разбор ошибок Bot API:
// отправка и редактирование сообщений, inline-клавиатуры, ответы на
// callback, webhook и long polling (getUpdates).
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultBaseURL — адрес Bot API по умолчанию.
const DefaultBaseURL = "https://api.telegram.org"

// ParseModeHTML — разметка сообщений.
const ParseModeHTML = tgbotapi.ModeHTML

// Таймаут обычного запроса, если в контексте нет дедлайна.
const requestTimeout = 30 * time.Second

// allowedUpdates — типы обновлений, которые бот обрабатывает.
var allowedUpdates = []string{"message", "callback_query"}

// APIError — ответ Bot API с ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
	// Секунды до повтора (429 Too Many Requests)
	RetryAfter int

	err *tgbotapi.Error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

func (e *APIError) Unwrap() error {
	if e.err == nil {
		return nil
	}
	return e.err
}

// IsForbidden сообщает, что бот заблокирован пользователем или не может ему писать.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}

// RetryAfter возвращает паузу из ответа 429 (0, если её нет).
func RetryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

// SendOptions — необязательные параметры отправки.
type SendOptions struct {
	ParseMode             string
	ReplyMarkup           *InlineKeyboardMarkup
	DisableWebPagePreview bool
}

// Client — клиент Bot API.
type Client struct {
	endpoint   string // Шаблон адреса метода для tgbotapi: <base>/bot%s/%s
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент Bot API.
// baseURL — адрес Bot API (пустая строка — DefaultBaseURL).
// httpClient — HTTP-клиент (nil — клиент с пулом соединений без общего таймаута,
// таймауты задаются контекстом запроса).
func New(baseURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
		}
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/bot%s/%s",
		token:      token,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "telegram_client")),
	}
}

// ctxDoer привязывает запросы tgbotapi к контексту вызова.
type ctxDoer struct {
	ctx    context.Context
	client *http.Client
}

func (d ctxDoer) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req.WithContext(d.ctx))
}

// api возвращает экземпляр tgbotapi.BotAPI, все запросы которого идут с ctx.
// NewBotAPI не используется: он делает getMe при создании.
func (c *Client) api(ctx context.Context) *tgbotapi.BotAPI {
	api := &tgbotapi.BotAPI{
		Token:  c.token,
		Client: ctxDoer{ctx: ctx, client: c.httpClient},
	}
	api.SetAPIEndpoint(c.endpoint)
	return api
}

// call выполняет метод Bot API через do и декодирует result в out (если out != nil).
func (c *Client) call(ctx context.Context, method string, out any, do func(api *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error)) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := do(c.api(ctx))
	if err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) {
			return &APIError{
				Method:      method,
				Code:        tgErr.Code,
				Description: tgErr.Message,
				RetryAfter:  tgErr.RetryAfter,
				err:         tgErr,
			}
		}
		return fmt.Errorf("запрос %s: %w", method, c.redact(err))
	}

	c.logger.Debug("Запрос Bot API выполнен",
		slog.String("method", method),
		slog.Duration("duration", time.Since(start)),
	)

	if out != nil && resp != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("декодирование результата %s: %w", method, err)
		}
	}
	return nil
}

// request отправляет готовую конфигурацию tgbotapi.
func (c *Client) request(ctx context.Context, method string, cfg tgbotapi.Chattable, out any) error {
	return c.call(ctx, method, out, func(api *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return api.Request(cfg)
	})
}

// redact убирает токен из ошибок net/http (*url.Error содержит полный URL).
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<token>")
	}
	return err
}

// GetMe возвращает информацию о боте.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	err := c.call(ctx, "getMe", &u, func(api *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return api.MakeRequest("getMe", nil)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SendMessage отправляет сообщение в чат.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (*Message, error) {
	cfg := tgbotapi.NewMessage(chatID, text)
	if opts != nil {
		cfg.ParseMode = opts.ParseMode
		cfg.DisableWebPagePreview = opts.DisableWebPagePreview
		if opts.ReplyMarkup != nil {
			cfg.ReplyMarkup = opts.ReplyMarkup
		}
	}

	var m Message
	if err := c.request(ctx, "sendMessage", cfg, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// EditMessageText заменяет текст (и клавиатуру) сообщения.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error {
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if opts != nil {
		cfg.ParseMode = opts.ParseMode
		cfg.DisableWebPagePreview = opts.DisableWebPagePreview
		cfg.ReplyMarkup = opts.ReplyMarkup
	}
	return c.request(ctx, "editMessageText", cfg, nil)
}

// AnswerCallbackQuery отвечает на нажатие inline-кнопки.
// showAlert — показать модальное окно вместо всплывающего уведомления.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if showAlert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	return c.request(ctx, "answerCallbackQuery", cfg, nil)
}

// DeleteMessage удаляет сообщение.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return c.request(ctx, "deleteMessage", tgbotapi.NewDeleteMessage(chatID, messageID), nil)
}

// SendChatAction показывает статус "печатает" и т.п.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.request(ctx, "sendChatAction", tgbotapi.NewChatAction(chatID, action), nil)
}

// SetWebhook регистрирует webhook. secret передаётся Telegram в заголовке
// X-Telegram-Bot-Api-Secret-Token каждого запроса.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	// WebhookConfig в v5.5.1 не знает secret_token, параметры собираются вручную.
	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", allowedUpdates); err != nil {
		return fmt.Errorf("кодирование параметров setWebhook: %w", err)
	}
	return c.call(ctx, "setWebhook", nil, func(api *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return api.MakeRequest("setWebhook", params)
	})
}

// DeleteWebhook отключает webhook (нужно перед long polling).
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return c.request(ctx, "deleteWebhook", tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}, nil)
}

// GetUpdates запрашивает обновления начиная с offset (long polling).
func (c *Client) GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()

	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = int(timeout.Seconds())
	cfg.AllowedUpdates = allowedUpdates

	var updates []Update
	if err := c.request(ctx, "getUpdates", cfg, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
