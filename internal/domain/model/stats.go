package model

// TopUser — пользователь с наибольшим числом транзакций.
type TopUser struct {
	UserID           int64
	Username         string
	FirstName        string
	TransactionCount int
}

// PopularCategory — категория по числу использований.
type PopularCategory struct {
	Name  string
	Emoji string
	Count int
}

// BotStats — статистика для администратора.
type BotStats struct {
	TotalUsers         int
	NewUsersToday      int
	ActiveUsersToday   int
	ActiveUsersWeek    int
	TransactionsToday  int
	TransactionsTotal  int
	TotalExpenseVolume float64
	TotalIncomeVolume  float64
	TopUsers           []TopUser
	PopularCategories  []PopularCategory
	// RetentionRate — доля пользователей старше 7 дней, активных за неделю (%)
	RetentionRate float64
	DatabaseSize  string
}
