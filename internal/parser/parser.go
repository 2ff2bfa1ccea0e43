// Пакет parser — разбор расходов и доходов из свободного текста
// («50k taxi», «обед 25000», «45k taxi, 15k snacks»).
// Работает на правилах: регулярные выражения и словари ключевых слов.
package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/oddava/finance-tracker/internal/domain/model"
)

// Способы разбора.
const (
	MethodRuleBased = "rule_based"
	MethodMulti     = "multi_parse"
	MethodAI        = "ai"
)

// ClarificationThreshold — ниже этой уверенности результат требует уточнения.
const ClarificationThreshold = 0.5

var (
	amountRe   = regexp.MustCompile(`(?i)(?:^|\s|,)(\d+(?:[.,]\d+)?)\s*(?:k|к|thousand|тысяч|т|thous)?(?:\s|,|$)`)
	currencyRe = regexp.MustCompile(`[$€£₽]\s*(\d+(?:[.,]\d+)?)`)
)

// Item — одна транзакция из сообщения с несколькими суммами.
type Item struct {
	Amount      float64
	Category    string
	Description string
	Confidence  float64
	Type        string
}

// Result — результат разбора сообщения.
type Result struct {
	// Amount — сумма; 0 — сумма не найдена
	Amount float64
	// Category — ключ встроенной категории (food, bills) или имя категории пользователя
	Category        string
	Description     string
	Confidence      float64
	Type            string
	TypeConfidence  float64
	Method          string
	MatchedKeywords []string
	RawText         string
	// NeedsClarification — уверенность ниже ClarificationThreshold
	NeedsClarification bool

	// Multiple — сообщение содержит несколько транзакций (Items)
	Multiple bool
	Items    []Item
}

// Parser — разбор текста на правилах. Без состояния, безопасен для конкурентного использования.
type Parser struct{}

// New создаёт Parser.
func New() *Parser {
	return &Parser{}
}

// Parse разбирает сообщение. userCategories — имена категорий пользователя,
// совпадение с ними приоритетнее встроенных словарей.
func (p *Parser) Parse(text string, userCategories []string) *Result {
	text = strings.TrimSpace(text)

	if strings.Contains(text, ",") && hasMultipleAmounts(text) {
		return p.parseMultiple(text, userCategories)
	}
	return p.parseSingle(text, userCategories)
}

func hasMultipleAmounts(text string) bool {
	total := len(amountRe.FindAllString(text, -1)) + len(currencyRe.FindAllString(text, -1))
	return total >= 2
}

func (p *Parser) parseMultiple(text string, userCategories []string) *Result {
	var items []Item
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r := p.parseSingle(part, userCategories)
		if r.Amount == 0 {
			continue
		}
		items = append(items, Item{
			Amount:      r.Amount,
			Category:    r.Category,
			Description: r.Description,
			Confidence:  r.Confidence,
			Type:        r.Type,
		})
	}

	if len(items) == 0 {
		return p.parseSingle(text, userCategories)
	}

	var sum float64
	for _, it := range items {
		sum += it.Confidence
	}
	return &Result{
		Multiple:   true,
		Items:      items,
		Confidence: sum / float64(len(items)),
		Method:     MethodMulti,
		RawText:    text,
		Type:       model.TypeExpense,
	}
}

func (p *Parser) parseSingle(text string, userCategories []string) *Result {
	typ, typeConf := detectType(text)

	r := parseWithRules(text, userCategories)
	r.Type = typ
	r.TypeConfidence = typeConf

	if typeConf < 0.7 {
		r.Confidence *= 0.9
	}
	if r.Confidence < ClarificationThreshold {
		r.NeedsClarification = true
	}
	return r
}

// detectType определяет доход или расход по маркерам в тексте.
func detectType(text string) (string, float64) {
	lower := strings.ToLower(text)

	incomeScore := countContains(lower, incomeStrong)*2 + countContains(lower, incomeWeak)*0.5
	expenseScore := countContains(lower, expenseStrong)*2 + countContains(lower, expenseWeak)*0.5

	if incomeScore > 0 && incomeScore > expenseScore {
		return model.TypeIncome, math.Min(0.95, 0.6+incomeScore*0.1)
	}
	if expenseScore > 0 {
		return model.TypeExpense, math.Min(0.9, 0.7+expenseScore*0.1)
	}
	return model.TypeExpense, 0.6
}

func countContains(text string, words []string) float64 {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return float64(n)
}

func parseWithRules(text string, userCategories []string) *Result {
	lower := strings.ToLower(text)

	amount, amountConf := extractAmount(lower)
	category, categoryConf, matched := detectCategory(lower, userCategories)
	description := extractDescription(text, amount)

	return &Result{
		Amount:          amount,
		Category:        category,
		Description:     description,
		Confidence:      overallConfidence(amount, amountConf, category, categoryConf, len(matched), lower),
		Method:          MethodRuleBased,
		MatchedKeywords: matched,
		RawText:         text,
	}
}

// extractAmount ищет сумму: сначала со значком валюты, затем число с множителем.
func extractAmount(text string) (float64, float64) {
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		if v, err := parseNumber(m[1]); err == nil {
			return v, 0.95
		}
	}

	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0
	}
	v, err := parseNumber(m[1])
	if err != nil {
		return 0, 0
	}

	whole := strings.ToLower(m[0])
	for _, mul := range amountMultipliers {
		if strings.Contains(whole, mul) {
			v *= 1000
			break
		}
	}

	if v >= 10 {
		return v, 0.95
	}
	return v, 0.85
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

type categoryScore struct {
	name    string
	score   float64
	matched []string
}

// detectCategory подбирает категорию по словарям и категориям пользователя.
func detectCategory(text string, userCategories []string) (string, float64, []string) {
	var scores []*categoryScore
	find := func(name string) *categoryScore {
		for _, s := range scores {
			if s.name == name {
				return s
			}
		}
		return nil
	}

	for _, g := range categoryKeywords {
		var score float64
		var matched []string
		for _, kw := range g.primary {
			if strings.Contains(text, kw) {
				score += g.weight
				matched = append(matched, kw)
			}
		}
		for _, kw := range g.secondary {
			if strings.Contains(text, kw) {
				score += 0.5 * g.weight
				matched = append(matched, kw+"*")
			}
		}
		if score > 0 {
			scores = append(scores, &categoryScore{name: g.key, score: score, matched: matched})
		}
	}

	for _, name := range userCategories {
		lowerName := strings.ToLower(name)
		if lowerName == "" {
			continue
		}
		if strings.Contains(text, lowerName) {
			return name, 0.95, []string{lowerName}
		}
		for _, word := range strings.Fields(lowerName) {
			if len([]rune(word)) <= 3 || !strings.Contains(text, word) {
				continue
			}
			if s := find(name); s == nil {
				scores = append(scores, &categoryScore{name: name, score: 2.5, matched: []string{word}})
			} else if s.score < 2.5 {
				s.score = 2.5
				s.matched = []string{word}
			}
		}
	}

	if len(scores) == 0 {
		return "", 0, nil
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.score > best.score {
			best = s
		}
	}

	var conf float64
	switch {
	case best.score >= 3.0:
		conf = 0.95
	case best.score >= 2.0:
		conf = 0.85
	case best.score >= 1.5:
		conf = 0.75
	case best.score >= 1.0:
		conf = 0.65
	default:
		conf = 0.45
	}
	return best.name, conf, best.matched
}

func overallConfidence(amount, amountConf float64, category string, categoryConf float64, keywords int, text string) float64 {
	switch {
	case amount == 0 && category == "":
		return 0.1
	case amount == 0:
		return math.Max(0.3, categoryConf*0.6)
	case category == "":
		return math.Max(0.3, amountConf*0.6)
	}

	conf := amountConf*0.5 + categoryConf*0.5
	if keywords >= 2 {
		conf = math.Min(0.98, conf*1.1)
	}
	if len(strings.Fields(text)) <= 4 && keywords >= 1 {
		conf = math.Min(0.95, conf*1.05)
	}
	return math.Round(conf*1000) / 1000
}

// ShouldUseAI решает, стоит ли перепроверить результат через AI-парсер.
func ShouldUseAI(r *Result, text string) bool {
	if r.Confidence < ClarificationThreshold {
		return true
	}
	if r.Amount != 0 && r.Category == "" {
		return true
	}

	words := strings.Fields(strings.ToLower(text))
	suspicious := 0
	for _, w := range words {
		n := len([]rune(w))
		if n > 15 || (n < 3 && !shortAllowedWords[w]) {
			suspicious++
		}
	}
	if float64(suspicious) > float64(len(words))*0.4 {
		return true
	}

	return len(words) > 8 && r.Confidence < 0.75
}
