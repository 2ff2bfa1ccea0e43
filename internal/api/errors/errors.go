// Пакет errors — JSON-ошибки HTTP-эндпоинтов бота:
// {"error": {"code": "...", "message": "..."}}.
package errors //nolint:revive // конфликт имени со stdlib

import (
	"encoding/json"
	"net/http"
)

const (
	// CodeBadUpdate — тело webhook не разбирается как Update.
	CodeBadUpdate = "BAD_UPDATE"
	// CodeForbidden — неверный секрет webhook.
	CodeForbidden = "FORBIDDEN"
)

// Body — тело ответа с ошибкой.
type Body struct {
	Error Detail `json:"error"`
}

// Detail — код и текст ошибки.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError пишет ошибку со статусом status.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Error: Detail{Code: code, Message: message}})
}

// BadUpdate отвечает 400.
func BadUpdate(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeBadUpdate, message)
}

// Forbidden отвечает 403.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}
