package bot

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// stripTags убирает HTML-разметку: всплывающие ответы на callback её не поддерживают.
func stripTags(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}

// Слова, на которые бот не отвечает как на транзакцию.
var casualWords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "thanks": true, "thank": true,
	"ok": true, "okay": true, "yes": true, "no": true, "bye": true,
}

var codePatterns = []string{
	"self.", "def ", "class ", "import ", "from ", "async ", "await ",
	"return ", "() {", "[]", "{}", "=>", "function(", "const ", "let ", "var ",
}

const specialChars = `()[]{}|\<>@#$%^&*_=+` + "`~"

// maxInputLen — более длинные сообщения считаются спамом.
const maxInputLen = 200

// shouldSkipInput сообщает, что текст не похож на транзакцию:
// код, ссылки, мусор из спецсимволов, слишком длинный текст.
func shouldSkipInput(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range codePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}

	runes := []rune(text)
	special := 0
	for _, r := range runes {
		if strings.ContainsRune(specialChars, r) {
			special++
		}
	}
	if float64(special) > float64(len(runes))*0.3 {
		return true
	}

	if strings.Contains(lower, "http://") || strings.Contains(lower, "https://") || strings.Contains(lower, "www.") {
		return true
	}
	return len(runes) > maxInputLen
}

// confidenceMark — отметка уверенности разбора после заголовка.
func confidenceMark(confidence float64) string {
	switch {
	case confidence < 0.6:
		return " 🤔"
	case confidence < 0.75:
		return " 💭"
	case confidence >= 0.9:
		return " ✨"
	}
	return ""
}
