// webhook.go — приём обновлений Telegram в режиме webhook.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/oddava/finance-tracker/internal/api/errors"
	"github.com/oddava/finance-tracker/internal/telegram"
)

// maxUpdateSize — ограничение размера тела запроса с обновлением.
const maxUpdateSize = 1 << 20

// UpdateHandler обрабатывает обновление. Реализуется *bot.Bot.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u *telegram.Update)
}

// WebhookHandler — обработчик POST {WEBHOOK_PATH}.
type WebhookHandler struct {
	bot     UpdateHandler
	timeout time.Duration
	logger  *slog.Logger
}

// NewWebhookHandler создаёт обработчик webhook. timeout — время на
// обработку одного обновления (по умолчанию 30s).
func NewWebhookHandler(bot UpdateHandler, timeout time.Duration, logger *slog.Logger) *WebhookHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookHandler{
		bot:     bot,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "webhook")),
	}
}

// ServeHTTP декодирует Update и обрабатывает его синхронно.
// После успешного декодирования всегда отвечает 200 {"ok":true}.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var u telegram.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&u); err != nil {
		h.logger.Warn("Некорректное тело webhook", slog.String("error", err.Error()))
		apierrors.BadUpdate(w, "Некорректное обновление Telegram")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	h.bot.HandleUpdate(ctx, &u)

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
