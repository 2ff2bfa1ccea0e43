package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/parser"
)

// chatServer — httptest-сервер, отвечающий как chat completions API.
func chatServer(t *testing.T, content string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("неожиданный путь %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("некорректный JSON запроса: %v", err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("запрос = %s", body)
		}

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAIParser(srvURL string, perMinute int) *AIParser {
	return NewAIParser(AIParserConfig{
		APIKey:         "test-key",
		BaseURL:        srvURL + "/v1/",
		Model:          "gpt-4o-mini",
		CallsPerMinute: perMinute,
	}, testLogger())
}

func TestAIParser_Parse(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, "```json\n{\"amount\": 45000, \"category\": \"Food\", \"description\": \"plov with friends\", \"type\": \"expense\", \"confidence\": 0.9}\n```", &calls)
	p := newTestAIParser(srv.URL, 10)

	res, err := p.Parse(context.Background(), "ate plov with friends 45k", []string{"Food", "Transport"})
	if err != nil {
		t.Fatalf("Parse() ошибка: %v", err)
	}
	if res.Amount != 45000 || res.Category != "Food" || res.Type != model.TypeExpense {
		t.Errorf("результат = %+v", res)
	}
	if res.Method != parser.MethodAI || res.Confidence != 0.9 || res.NeedsClarification {
		t.Errorf("Method=%s Confidence=%v NeedsClarification=%v", res.Method, res.Confidence, res.NeedsClarification)
	}
	if res.RawText != "ate plov with friends 45k" {
		t.Errorf("RawText = %q", res.RawText)
	}
	if calls.Load() != 1 {
		t.Errorf("вызовов API = %d", calls.Load())
	}
}

func TestAIParser_RateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, `{"amount": 1, "category": "", "description": "", "type": "income", "confidence": 0.7}`, &calls)
	p := newTestAIParser(srv.URL, 1)

	if _, err := p.Parse(context.Background(), "got 1", nil); err != nil {
		t.Fatalf("первый Parse() ошибка: %v", err)
	}
	if _, err := p.Parse(context.Background(), "got 2", nil); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("второй Parse(): %v, ожидалась ErrAIUnavailable", err)
	}
	if calls.Load() != 1 {
		t.Errorf("вызовов API = %d, ожидался 1", calls.Load())
	}
}

func TestAIParser_BadReply(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, "Sorry, I cannot help with that.", &calls)
	p := newTestAIParser(srv.URL, 10)

	if _, err := p.Parse(context.Background(), "hmm", nil); err == nil {
		t.Fatal("ожидалась ошибка для ответа без JSON")
	}
}

func TestAIReply_ToResult(t *testing.T) {
	tests := []struct {
		name     string
		reply    aiReply
		wantType string
		wantConf float64
		wantDesc string
	}{
		{"нормальный ответ", aiReply{Amount: 10, Type: "INCOME", Confidence: 0.8, Description: "bonus"}, model.TypeIncome, 0.8, "bonus"},
		{"неизвестный тип", aiReply{Amount: 10, Type: "transfer", Confidence: 0.8}, model.TypeExpense, 0.8, "Transaction"},
		{"уверенность больше 1", aiReply{Amount: 10, Type: "expense", Confidence: 7}, model.TypeExpense, 1, "Transaction"},
		{"без суммы", aiReply{Type: "expense", Confidence: 0.9}, model.TypeExpense, 0.3, "Transaction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.reply.toResult("text")
			if r.Type != tt.wantType || r.Confidence != tt.wantConf || r.Description != tt.wantDesc {
				t.Errorf("toResult() = type=%s conf=%v desc=%q", r.Type, r.Confidence, r.Description)
			}
		})
	}
}
