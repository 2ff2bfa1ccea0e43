package parser

// keywordGroup — ключевые слова встроенной категории.
type keywordGroup struct {
	key       string
	primary   []string
	secondary []string
	weight    float64
}

// Порядок групп важен: при равных очках побеждает более ранняя.
var categoryKeywords = []keywordGroup{
	{
		key: "food",
		primary: []string{"lunch", "dinner", "breakfast", "cafe", "restaurant",
			"eat", "ate", "eating", "pizza", "burger", "sushi", "coffee",
			"обед", "ужин", "завтрак", "кафе", "еда", "кофе", "meal"},
		secondary: []string{"snack", "food"},
		weight:    2.0,
	},
	{
		key: "transport",
		primary: []string{"taxi", "uber", "yandex", "bus", "metro", "subway",
			"такси", "метро", "автобус", "яндекс", "ride"},
		secondary: []string{"fuel", "gas", "petrol", "parking", "бензин", "паркинг"},
		weight:    2.0,
	},
	{
		key: "groceries",
		primary: []string{"grocery", "groceries", "market", "supermarket",
			"магазин", "продукты", "makro", "korzinka", "havas"},
		secondary: []string{"store", "shop"},
		weight:    1.8,
	},
	{
		key: "entertainment",
		primary: []string{"movie", "cinema", "film", "game", "concert",
			"кино", "игра", "концерт"},
		secondary: []string{"party", "bar", "club", "theater"},
		weight:    1.5,
	},
	{
		key: "shopping",
		primary: []string{"shopping", "clothes", "shoes", "bought",
			"одежда", "обувь", "купил"},
		secondary: []string{"buy", "shirt", "pants", "dress", "покупка"},
		weight:    1.2,
	},
	{
		key: "bills",
		primary: []string{"electricity", "water", "internet", "phone", "rent",
			"электричество", "вода", "интернет", "телефон", "аренда"},
		secondary: []string{"utility", "bill", "коммуналка"},
		weight:    1.8,
	},
	{
		key: "healthcare",
		primary: []string{"doctor", "hospital", "pharmacy", "medicine", "pills",
			"врач", "больница", "аптека", "лекарство"},
		secondary: []string{"clinic", "dental", "health"},
		weight:    1.5,
	},
}

var (
	incomeStrong = []string{"received", "gift", "got paid", "earned", "salary", "income", "paycheck",
		"получил", "зарплата", "доход", "оплата получена"}
	incomeWeak = []string{"got", "получил деньги"}

	expenseStrong = []string{"spent", "paid", "bought", "purchased", "cost",
		"потратил", "заплатил", "купил", "стоило"}
	expenseWeak = []string{"for", "on"}
)

// amountMultipliers — суффиксы «тысяч» после суммы (50k, 50к, 50 тысяч).
var amountMultipliers = []string{"k", "к", "thousand", "тысяч", "т", "thous"}

// shortAllowedWords — короткие слова, которые не считаются опечатками.
var shortAllowedWords = map[string]bool{"i": true, "on": true, "at": true, "to": true, "k": true}

// displayNames — имена категорий по умолчанию для ключей парсера.
var displayNames = map[string]string{
	"food":          "Food",
	"transport":     "Transport",
	"groceries":     "Groceries",
	"entertainment": "Entertainment",
	"shopping":      "Shopping",
	"bills":         "Bills & Utilities",
	"healthcare":    "Healthcare",
}

// CategoryDisplayName возвращает имя категории по умолчанию для ключа парсера.
// Неизвестный ключ (например, имя пользовательской категории) возвращается как есть.
func CategoryDisplayName(key string) string {
	if name, ok := displayNames[key]; ok {
		return name
	}
	return key
}
