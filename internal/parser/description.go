package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxDescriptionLen  = 100
	defaultDescription = "Transaction"
)

var (
	whitespaceRe     = regexp.MustCompile(`\s+`)
	leadingPrepRe    = regexp.MustCompile(`(?i)^(for|on|at|in)\s+`)
	descriptionTrims = "!,.:;-"
)

// extractDescription убирает из текста сумму, ключевые слова и маркеры расхода.
func extractDescription(text string, amount float64) string {
	if amount != 0 {
		text = amountRe.ReplaceAllString(text, " ")
		text = currencyRe.ReplaceAllString(text, " ")
	}

	for _, g := range categoryKeywords {
		for _, kw := range g.primary {
			text = stripKeyword(text, kw)
		}
		for _, kw := range g.secondary {
			text = stripKeyword(text, kw)
		}
	}

	for _, ind := range expenseStrong {
		text = removeWord(text, ind)
	}
	for _, ind := range expenseWeak {
		text = removeWord(text, ind)
	}

	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	text = leadingPrepRe.ReplaceAllString(text, "")
	text = strings.Trim(text, descriptionTrims)

	if utf8.RuneCountInString(text) > maxDescriptionLen {
		text = string([]rune(text)[:maxDescriptionLen-3]) + "..."
	}

	if text == "" {
		return defaultDescription
	}
	return text
}

// stripKeyword удаляет ключевое слово длиннее трёх символов.
func stripKeyword(text, kw string) string {
	if utf8.RuneCountInString(kw) <= 3 {
		return text
	}
	return removeWord(text, kw)
}

// removeWord удаляет все вхождения word как отдельного слова без учёта регистра.
// Границы слова определяются по буквам, цифрам и '_' в Unicode.
func removeWord(text, word string) string {
	if word == "" {
		return text
	}
	src := []rune(text)
	needle := []rune(strings.ToLower(word))

	out := make([]rune, 0, len(src))
	for i := 0; i < len(src); {
		if matchesAt(src, needle, i) &&
			(i == 0 || !isWordRune(src[i-1])) &&
			(i+len(needle) == len(src) || !isWordRune(src[i+len(needle)])) {
			i += len(needle)
			continue
		}
		out = append(out, src[i])
		i++
	}
	return string(out)
}

func matchesAt(src, needle []rune, i int) bool {
	if i+len(needle) > len(src) {
		return false
	}
	for j, r := range needle {
		if unicode.ToLower(src[i+j]) != r {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
