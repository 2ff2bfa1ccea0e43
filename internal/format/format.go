// Пакет format — форматирование сумм, процентов, дат и прогресс-баров
// для сообщений бота (Telegram HTML).
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var currencySymbols = map[string]string{
	"UZS": "so'm",
	"USD": "$",
	"EUR": "€",
	"RUB": "₽",
	"GBP": "£",
}

// Amount форматирует сумму в валюте пользователя.
//
//	Amount(50000, "UZS")   → "50 000 so'm"
//	Amount(1234.5, "USD")  → "$1,234.50"
//	Amount(10, "KZT")      → "10.00 KZT"
func Amount(v float64, currency string) string {
	symbol, known := currencySymbols[currency]
	if !known {
		symbol = currency
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	if currency == "UZS" {
		return sign + groupThousands(fmt.Sprintf("%d", int64(v)), " ") + " " + symbol
	}

	s := fmt.Sprintf("%.2f", v)
	intPart, frac, _ := strings.Cut(s, ".")
	num := groupThousands(intPart, ",") + "." + frac

	if known {
		return sign + symbol + num
	}
	return sign + num + " " + symbol
}

// CurrencySymbol возвращает символ валюты или её код.
func CurrencySymbol(currency string) string {
	if s, ok := currencySymbols[currency]; ok {
		return s
	}
	return currency
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Percentage возвращает долю value от total с одним знаком после запятой.
func Percentage(value, total float64) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", value/total*100)
}

// ProgressBar рисует полосу из length символов и процент (не больше 100%).
func ProgressBar(current, target float64, length int) string {
	if length <= 0 {
		length = 10
	}
	ratio := current / target
	if !(target > 0) || math.IsNaN(ratio) {
		return strings.Repeat("░", length) + " 0%"
	}
	ratio = math.Max(0, math.Min(ratio, 1.0))
	filled := int(float64(length) * ratio)

	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled) +
		fmt.Sprintf(" %.0f%%", ratio*100)
}

// BudgetLevel — уровень расходования бюджета.
type BudgetLevel int

const (
	BudgetGood BudgetLevel = iota
	BudgetOnTrack
	BudgetWarning
	BudgetExceeded
)

// LevelFor определяет уровень по проценту израсходованного бюджета.
func LevelFor(pct float64) BudgetLevel {
	switch {
	case pct >= 100:
		return BudgetExceeded
	case pct >= 80:
		return BudgetWarning
	case pct >= 50:
		return BudgetOnTrack
	default:
		return BudgetGood
	}
}

// Emoji возвращает цветовой индикатор уровня.
func (l BudgetLevel) Emoji() string {
	switch l {
	case BudgetExceeded:
		return "🔴"
	case BudgetWarning:
		return "🟠"
	case BudgetOnTrack:
		return "🟡"
	default:
		return "🟢"
	}
}

// DateRange форматирует период: «5 March 2024», «1-7 March 2024»,
// «28 Feb - 05 Mar 2024» или «28 Dec 2023 - 03 Jan 2024».
func DateRange(start, end time.Time) string {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()

	switch {
	case sy == ey && sm == em && sd == ed:
		return start.Format("02 January 2006")
	case sy == ey && sm == em:
		return fmt.Sprintf("%d-%d %s", sd, ed, start.Format("January 2006"))
	case sy == ey:
		return start.Format("02 Jan") + " - " + end.Format("02 Jan 2006")
	default:
		return start.Format("02 Jan 2006") + " - " + end.Format("02 Jan 2006")
	}
}

// Timezone отображает часовой пояс со смещением: «Asia/Tashkent (UTC+05:00)».
func Timezone(name string, now time.Time) string {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return name
	}
	return fmt.Sprintf("%s (UTC%s)", name, now.In(loc).Format("-07:00"))
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML экранирует пользовательский текст для parse_mode=HTML.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
