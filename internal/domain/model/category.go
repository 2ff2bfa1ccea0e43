package model

import "time"

// Тип транзакции и категории.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// ValidType проверяет тип транзакции.
func ValidType(t string) bool {
	return t == TypeExpense || t == TypeIncome
}

// Category — категория расходов или доходов пользователя.
// Хранится в таблице categories.
type Category struct {
	ID     int64
	UserID int64
	// Name — отображаемое имя (Food, Bills & Utilities)
	Name string
	// Slug — нормализованное имя для поиска (other-income)
	Slug      string
	IconEmoji string
	// Color — цвет в формате #RRGGBB
	Color string
	// Type — expense или income
	Type      string
	IsDefault bool
	CreatedAt time.Time
}

// Label возвращает имя категории с эмодзи.
func (c *Category) Label() string {
	if c.IconEmoji == "" {
		return c.Name
	}
	return c.IconEmoji + " " + c.Name
}
