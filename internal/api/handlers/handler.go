// handler.go — маршруты HTTP API бота.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// APIHandler объединяет health endpoints и webhook.
type APIHandler struct {
	health  *HealthHandler
	webhook http.Handler
	logger  *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// webhook может быть nil — в режиме long polling маршрут не регистрируется.
func NewAPIHandler(health *HealthHandler, webhook http.Handler, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		health:  health,
		webhook: webhook,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует маршруты в роутере.
// webhookMiddlewares применяются только к маршруту webhook.
func (h *APIHandler) Routes(r chi.Router, webhookPath string, webhookMiddlewares ...func(http.Handler) http.Handler) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/health", h.health.Health)
	r.Head("/health", h.health.Health)
	r.Get("/metrics", h.health.GetMetrics)

	if h.webhook == nil {
		return
	}
	r.With(webhookMiddlewares...).Post(webhookPath, h.webhook.ServeHTTP)
	h.logger.Info("Маршрут webhook зарегистрирован", slog.String("path", webhookPath))
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
