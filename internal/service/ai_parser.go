// ai_parser.go — разбор сообщений через OpenAI-совместимый chat completions API.
// Используется как запасной вариант, когда разбор на правилах не уверен.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/oddava/finance-tracker/internal/domain/model"
	"github.com/oddava/finance-tracker/internal/parser"
)

const aiSystemPrompt = `You extract a single personal finance transaction from a short chat message.
Messages may be in English, Russian or Uzbek. "k" or "к" after a number means thousands.
Reply with ONLY a JSON object, no prose, no code fences:
{"amount": number, "category": string, "description": string, "type": "expense"|"income", "confidence": number}
- amount: positive number, 0 if the message has no amount
- category: one of the user's categories listed below when possible, otherwise ""
- description: a short description of what the money was for, without the amount
- confidence: 0..1, how sure you are that this is a transaction`

// aiRequestTimeout — ограничение на один запрос к модели.
const aiRequestTimeout = 15 * time.Second

// AIParserConfig — параметры AI-парсера.
type AIParserConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// CallsPerMinute — глобальный лимит вызовов
	CallsPerMinute int
	HTTPClient     *http.Client
}

// AIParser — разбор текста через LLM с ограничением частоты вызовов.
type AIParser struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewAIParser создаёт AI-парсер.
func NewAIParser(cfg AIParserConfig, logger *slog.Logger) *AIParser {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	perMinute := cfg.CallsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}

	return &AIParser{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
		logger:  logger.With(slog.String("component", "ai_parser")),
	}
}

type aiReply struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
}

// Parse разбирает текст. Если лимит вызовов исчерпан — ErrAIUnavailable.
// userCategories передаются модели как допустимые категории.
func (p *AIParser) Parse(ctx context.Context, text string, userCategories []string) (*parser.Result, error) {
	if !p.limiter.Allow() {
		return nil, fmt.Errorf("%w: превышен лимит вызовов", ErrAIUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, aiRequestTimeout)
	defer cancel()

	system := aiSystemPrompt
	if len(userCategories) > 0 {
		system += "\nUser categories: " + strings.Join(userCategories, ", ")
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(200),
	}

	started := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к AI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("пустой ответ AI")
	}

	reply, err := decodeAIReply(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("AI-разбор выполнен",
		slog.Duration("duration", time.Since(started)),
		slog.Float64("confidence", reply.Confidence),
	)
	return reply.toResult(text), nil
}

// decodeAIReply извлекает JSON-объект из ответа модели.
func decodeAIReply(content string) (*aiReply, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("ответ AI не содержит JSON: %q", truncateRunes(content, 100))
	}

	var r aiReply
	if err := json.Unmarshal([]byte(content[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа AI: %w", err)
	}
	return &r, nil
}

func (r *aiReply) toResult(text string) *parser.Result {
	typ := strings.ToLower(strings.TrimSpace(r.Type))
	if !model.ValidType(typ) {
		typ = model.TypeExpense
	}
	conf := math.Max(0, math.Min(1, r.Confidence))
	amount := math.Max(0, r.Amount)
	if amount == 0 {
		conf = math.Min(conf, 0.3)
	}

	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		desc = "Transaction"
	}

	return &parser.Result{
		Amount:             amount,
		Category:           strings.TrimSpace(r.Category),
		Description:        desc,
		Confidence:         conf,
		Type:               typ,
		TypeConfidence:     conf,
		Method:             parser.MethodAI,
		RawText:            text,
		NeedsClarification: conf < parser.ClarificationThreshold,
	}
}
