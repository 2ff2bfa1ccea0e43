package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const testToken = "123456:SECRET"

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// apiServer поднимает mock Bot API. handler получает имя метода и параметры
// формы; JSON-параметры (reply_markup, allowed_updates) приходят строкой.
func apiServer(t *testing.T, handler func(method string, form url.Values) (int, string)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			t.Errorf("неожиданный путь %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("метод = %s, ожидается POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("тело запроса не форма: %v", err)
		}

		status, resp := handler(strings.TrimPrefix(r.URL.Path, prefix), r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", testToken, srv.Client(), testLogger())
}

func TestClient_SendMessage(t *testing.T) {
	c := apiServer(t, func(method string, form url.Values) (int, string) {
		if method != "sendMessage" {
			t.Errorf("метод = %s", method)
		}
		if form.Get("chat_id") != "42" {
			t.Errorf("chat_id = %v", form.Get("chat_id"))
		}
		if form.Get("parse_mode") != "HTML" {
			t.Errorf("parse_mode = %v", form.Get("parse_mode"))
		}
		var markup InlineKeyboardMarkup
		if err := json.Unmarshal([]byte(form.Get("reply_markup")), &markup); err != nil {
			t.Errorf("reply_markup не JSON: %v", form)
			return http.StatusOK, `{"ok":true,"result":{"message_id":7,"chat":{"id":42,"type":"private"}}}`
		}
		if len(markup.InlineKeyboard) != 1 || ButtonData(markup.InlineKeyboard[0][0]) != "cat_1" {
			t.Errorf("клавиатура = %+v", markup.InlineKeyboard)
		}
		return http.StatusOK, `{"ok":true,"result":{"message_id":7,"chat":{"id":42,"type":"private"},"text":"hi"}}`
	})

	kb := NewInlineKeyboard(Row(Button("✅", "cat_1"), Button("❌", "cancel")))
	msg, err := c.SendMessage(context.Background(), 42, "hi", &SendOptions{ParseMode: ParseModeHTML, ReplyMarkup: kb})
	if err != nil {
		t.Fatalf("SendMessage() вернул ошибку: %v", err)
	}
	if msg.MessageID != 7 || msg.Chat.ID != 42 {
		t.Errorf("сообщение = %+v", msg)
	}
}

func TestClient_SendMessage_NoOptions(t *testing.T) {
	c := apiServer(t, func(_ string, form url.Values) (int, string) {
		if form.Has("reply_markup") {
			t.Error("reply_markup не должен передаваться без клавиатуры")
		}
		if form.Has("parse_mode") {
			t.Error("parse_mode не должен передаваться без опций")
		}
		return http.StatusOK, `{"ok":true,"result":{"message_id":1,"chat":{"id":1,"type":"private"}}}`
	})

	if _, err := c.SendMessage(context.Background(), 1, "plain", nil); err != nil {
		t.Fatalf("SendMessage() вернул ошибку: %v", err)
	}
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantForbidden bool
		wantRetry     time.Duration
	}{
		{
			name:          "бот заблокирован",
			status:        http.StatusForbidden,
			body:          `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`,
			wantForbidden: true,
		},
		{
			name:      "слишком много запросов",
			status:    http.StatusTooManyRequests,
			body:      `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":5}}`,
			wantRetry: 5 * time.Second,
		},
		{
			name:   "неверный запрос",
			status: http.StatusBadRequest,
			body:   `{"ok":false,"error_code":400,"description":"Bad Request: message text is empty"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := apiServer(t, func(string, url.Values) (int, string) {
				return tt.status, tt.body
			})

			_, err := c.SendMessage(context.Background(), 1, "x", nil)
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("ошибка %T, ожидается *APIError", err)
			}
			if apiErr.Code != tt.status || apiErr.Method != "sendMessage" {
				t.Errorf("APIError = %+v, ожидается код %d", apiErr, tt.status)
			}
			var tgErr *tgbotapi.Error
			if !errors.As(err, &tgErr) || tgErr.Code != tt.status {
				t.Errorf("исходная ошибка tgbotapi не доступна через errors.As: %v", err)
			}
			if IsForbidden(err) != tt.wantForbidden {
				t.Errorf("IsForbidden() = %v", IsForbidden(err))
			}
			if RetryAfter(err) != tt.wantRetry {
				t.Errorf("RetryAfter() = %v, ожидается %v", RetryAfter(err), tt.wantRetry)
			}
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	c := apiServer(t, func(string, url.Values) (int, string) {
		return http.StatusBadGateway, "<html>bad gateway</html>"
	})

	err := c.DeleteMessage(context.Background(), 1, 2)
	if err == nil {
		t.Fatal("ожидалась ошибка для не-JSON ответа")
	}
	if IsForbidden(err) {
		t.Error("IsForbidden() = true для 502")
	}
}

func TestClient_GetUpdates(t *testing.T) {
	c := apiServer(t, func(method string, form url.Values) (int, string) {
		if method != "getUpdates" {
			t.Errorf("метод = %s", method)
		}
		if form.Get("offset") != "100" {
			t.Errorf("offset = %v", form.Get("offset"))
		}
		if form.Get("timeout") != "1" {
			t.Errorf("timeout = %v", form.Get("timeout"))
		}
		if form.Get("allowed_updates") != `["message","callback_query"]` {
			t.Errorf("allowed_updates = %v", form.Get("allowed_updates"))
		}
		return http.StatusOK, `{"ok":true,"result":[
			{"update_id":100,"message":{"message_id":1,"from":{"id":5,"first_name":"Ann","language_code":"ru"},"chat":{"id":5,"type":"private"},"text":"50k taxi"}},
			{"update_id":101,"callback_query":{"id":"cb1","from":{"id":5,"first_name":"Ann"},"data":"cat_3"}}
		]}`
	})

	updates, err := c.GetUpdates(context.Background(), 100, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates() вернул ошибку: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("получено %d обновлений, ожидается 2", len(updates))
	}
	if Kind(&updates[0]) != "message" || updates[0].Message.From.LanguageCode != "ru" {
		t.Errorf("первое обновление = %+v", updates[0])
	}
	if Kind(&updates[1]) != "callback_query" || updates[1].CallbackQuery.Data != "cat_3" {
		t.Errorf("второе обновление = %+v", updates[1])
	}
}

func TestClient_Methods(t *testing.T) {
	var mu sync.Mutex
	calls := make(map[string]url.Values)
	c := apiServer(t, func(method string, form url.Values) (int, string) {
		mu.Lock()
		calls[method] = form
		mu.Unlock()
		if method == "getMe" {
			return http.StatusOK, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Finance","username":"finance_bot"}}`
		}
		return http.StatusOK, `{"ok":true,"result":true}`
	})
	ctx := context.Background()

	me, err := c.GetMe(ctx)
	if err != nil || me.UserName != "finance_bot" || !me.IsBot {
		t.Fatalf("GetMe() = %+v, %v", me, err)
	}
	if err := c.EditMessageText(ctx, 1, 2, "edited", nil); err != nil {
		t.Fatalf("EditMessageText() вернул ошибку: %v", err)
	}
	if err := c.AnswerCallbackQuery(ctx, "cb", "✅ Saved!", true); err != nil {
		t.Fatalf("AnswerCallbackQuery() вернул ошибку: %v", err)
	}
	if err := c.SendChatAction(ctx, 1, "typing"); err != nil {
		t.Fatalf("SendChatAction() вернул ошибку: %v", err)
	}
	if err := c.SetWebhook(ctx, "https://bot.example.com/webhook", "s3cret"); err != nil {
		t.Fatalf("SetWebhook() вернул ошибку: %v", err)
	}
	if err := c.DeleteWebhook(ctx, true); err != nil {
		t.Fatalf("DeleteWebhook() вернул ошибку: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls["editMessageText"].Get("message_id") != "2" {
		t.Errorf("editMessageText message_id = %v", calls["editMessageText"].Get("message_id"))
	}
	if calls["answerCallbackQuery"].Get("show_alert") != "true" {
		t.Errorf("answerCallbackQuery show_alert = %v", calls["answerCallbackQuery"].Get("show_alert"))
	}
	if calls["sendChatAction"].Get("action") != "typing" {
		t.Errorf("sendChatAction action = %v", calls["sendChatAction"].Get("action"))
	}
	if calls["setWebhook"].Get("secret_token") != "s3cret" || calls["setWebhook"].Get("url") != "https://bot.example.com/webhook" {
		t.Errorf("setWebhook = %v", calls["setWebhook"])
	}
	if calls["deleteWebhook"].Get("drop_pending_updates") != "true" {
		t.Errorf("deleteWebhook drop_pending_updates = %v", calls["deleteWebhook"].Get("drop_pending_updates"))
	}
}

func TestClient_RedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(addr, testToken, nil, testLogger())
	_, err := c.GetMe(context.Background())
	if err == nil {
		t.Fatal("ожидалась ошибка для закрытого сервера")
	}
	if strings.Contains(err.Error(), "SECRET") {
		t.Errorf("токен попал в текст ошибки: %v", err)
	}
}

func TestMessage_Command(t *testing.T) {
	tests := []struct {
		text     string
		wantCmd  string
		wantArgs string
	}{
		{"/start", "start", ""},
		{"/budget 500000 food", "budget", "500000 food"},
		{"/Budget@finance_bot  100  taxi ", "budget", "100  taxi"},
		{"/broadcast\nline one\nline two", "broadcast", "line one\nline two"},
		{"50k taxi", "", ""},
		{"/", "", ""},
	}
	for _, tt := range tests {
		cmd, args := Command(&Message{Text: tt.text})
		if cmd != tt.wantCmd || args != tt.wantArgs {
			t.Errorf("Command(%q) = (%q, %q), ожидается (%q, %q)", tt.text, cmd, args, tt.wantCmd, tt.wantArgs)
		}
	}
}

func TestGrid(t *testing.T) {
	buttons := []InlineKeyboardButton{Button("1", "1"), Button("2", "2"), Button("3", "3"), Button("4", "4"), Button("5", "5")}
	rows := Grid(2, buttons...)
	if len(rows) != 3 || len(rows[2]) != 1 {
		t.Fatalf("Grid(2) = %v", rows)
	}
	rows[0] = append(rows[0], Button("x", "x"))
	if rows[1][0].Text != "3" {
		t.Error("append в ряд не должен затирать следующий ряд")
	}

	kb := NewInlineKeyboard(rows[0], nil, rows[1])
	if len(kb.InlineKeyboard) != 2 {
		t.Errorf("пустые ряды должны пропускаться: %v", kb.InlineKeyboard)
	}
}

func TestUpdate_Kind(t *testing.T) {
	if Kind(&Update{}) != "other" {
		t.Error("пустое обновление должно быть other")
	}
	if Kind(&Update{EditedMessage: &Message{}}) != "edited_message" {
		t.Error("ожидался edited_message")
	}
}

func TestClient_GetUpdates_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	c := apiServer(t, func(string, url.Values) (int, string) {
		<-release
		return http.StatusOK, `{"ok":true,"result":[]}`
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.GetUpdates(ctx, 0, 30*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидалась context.Canceled, получено %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("GetUpdates() не прервался по отмене контекста")
	}
}

func TestNewInlineKeyboard_Empty(t *testing.T) {
	raw, err := json.Marshal(NewInlineKeyboard())
	if err != nil {
		t.Fatalf("Marshal() вернул ошибку: %v", err)
	}
	if string(raw) != `{"inline_keyboard":[]}` {
		t.Errorf("пустая клавиатура = %s", raw)
	}
}
