package model

import (
	"math"
	"time"
)

// Границы сумм, которые помещаются в NUMERIC(15, 2) и не округляются до нуля.
const (
	MinAmount = 0.01
	MaxAmount = 9_999_999_999_999.99
)

// ValidAmount проверяет сумму транзакции или бюджета.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= MinAmount && v <= MaxAmount
}

// Способы оплаты.
const (
	PaymentCash = "cash"
	PaymentBank = "bank"
)

// Transaction — запись о расходе или доходе.
// Хранится в таблице transactions.
type Transaction struct {
	ID         int64
	UserID     int64
	CategoryID int64
	// Type — expense или income
	Type     string
	Amount   float64
	Currency string
	// Description — описание, извлечённое из сообщения
	Description string
	// Date — момент совершения операции
	Date          time.Time
	PaymentMethod string
	PhotoURL      *string
	Tags          []string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Поля категории (заполняются при выборках с JOIN)
	CategoryName  string
	CategoryEmoji string
}

// CategoryAmount — сумма расходов по категории за период.
type CategoryAmount struct {
	Name   string
	Emoji  string
	Amount float64
}

// Summary — сводка транзакций за период.
type Summary struct {
	TotalExpenses    float64
	TotalIncome      float64
	Balance          float64
	Categories       []CategoryAmount
	TransactionCount int
	PeriodStart      time.Time
	PeriodEnd        time.Time
}
