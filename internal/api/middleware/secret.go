// secret.go — проверка секрета webhook в заголовке X-Telegram-Bot-Api-Secret-Token.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	apierrors "github.com/oddava/finance-tracker/internal/api/errors"
)

// SecretHeader — заголовок, в котором Telegram передаёт secret_token.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecret возвращает middleware, отклоняющий запросы с неверным
// секретом (403). Пустой secret отключает проверку.
func WebhookSecret(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		want := []byte(secret)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(SecretHeader))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				logger.Warn("Неверный секрет webhook",
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Forbidden(w, "Неверный секрет webhook")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
