package service

import "testing"

// TestTelegramHealthPath проверяет path проверки Bot API.
func TestTelegramHealthPath(t *testing.T) {
	tests := []struct {
		name     string
		apiURL   string
		expected string
	}{
		{"официальный API", "https://api.telegram.org", "/bot123:ABC/getMe"},
		{"завершающий слэш", "https://api.telegram.org/", "/bot123:ABC/getMe"},
		{"локальный сервер с префиксом", "http://bot-api:8081/tg/", "/tg/bot123:ABC/getMe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := telegramHealthPath(tt.apiURL, "123:ABC"); got != tt.expected {
				t.Errorf("telegramHealthPath(%q) = %q, ожидалось %q", tt.apiURL, got, tt.expected)
			}
		})
	}
}
