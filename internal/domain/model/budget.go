package model

import "time"

// Периоды бюджета.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// ValidPeriod проверяет период бюджета.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Budget — лимит расходов по категории.
// Хранится в таблице budgets.
type Budget struct {
	ID         int64
	UserID     int64
	CategoryID int64
	Amount     float64
	// Period — daily, weekly, monthly
	Period string
	// AlertThreshold — порог предупреждения в процентах
	AlertThreshold int
	StartDate      time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Поля категории (заполняются при выборках с JOIN)
	CategoryName  string
	CategoryEmoji string
}

// BudgetStatus — состояние бюджета в текущем периоде.
type BudgetStatus struct {
	Budget     Budget
	Spent      float64
	Remaining  float64
	Percentage float64
	Exceeded   bool
	Warning    bool
}
