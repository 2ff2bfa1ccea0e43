package parser

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParse_Amounts(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"50000 taxi", 50000},
		{"taxi 50000", 50000},
		{"25000", 25000},
		{"150.5", 150.5},
		{"50k taxi", 50000},
		{"50K taxi", 50000},
		{"50 k taxi", 50000},
		{"50к такси", 50000},
		{"2.5k groceries", 2500},
		{"25.50 coffee", 25.5},
		{"100,50 lunch", 100.5},
		{"1.5k taxi", 1500},
		{"spent $50", 50},
		{"€ 12.5 pizza", 12.5},
		{"50k taxi!", 50000},
		{"lunch - 25000", 25000},
		{"groceries: 120k", 120000},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := p.Parse(tt.text, nil)
			if r.Amount != tt.want {
				t.Errorf("Parse(%q).Amount = %v, ожидается %v", tt.text, r.Amount, tt.want)
			}
		})
	}
}

func TestParse_Categories(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"50k taxi", "transport"},
		{"lunch 25000", "food"},
		{"bought groceries 120k", "groceries"},
		{"movie ticket 35k", "entertainment"},
		{"shopping clothes 200k", "shopping"},
		{"electricity bill 150k", "bills"},
		{"pharmacy 30k", "healthcare"},
		{"такси 50к", "transport"},
		{"обед 25000", "food"},
		{"продукты 120к", "groceries"},
		{"кофе 15к", "food"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := p.Parse(tt.text, nil)
			if r.Category != tt.want {
				t.Errorf("Parse(%q).Category = %q, ожидается %q", tt.text, r.Category, tt.want)
			}
		})
	}
}

func TestParse_UserCategories(t *testing.T) {
	userCategories := []string{"Food & Dining", "Transportation", "Groceries", "Entertainment", "Shopping"}

	r := New().Parse("Food & Dining 50k", userCategories)
	if r.Category != "Food & Dining" {
		t.Errorf("Category = %q, ожидается Food & Dining", r.Category)
	}
	if r.Confidence <= 0.8 {
		t.Errorf("Confidence = %v, ожидается > 0.8", r.Confidence)
	}

	// Совпадение по отдельному слову длиннее трёх символов
	r = New().Parse("dining out 40k", userCategories)
	if r.Category != "Food & Dining" {
		t.Errorf("Category = %q, ожидается Food & Dining", r.Category)
	}
}

func TestParse_Confidence(t *testing.T) {
	p := New()

	for _, text := range []string{"50k taxi", "lunch 25000"} {
		if r := p.Parse(text, nil); r.Confidence < 0.85 {
			t.Errorf("Parse(%q).Confidence = %v, ожидается >= 0.85", text, r.Confidence)
		}
	}

	for _, text := range []string{"50k", "spent on taxi"} {
		r := p.Parse(text, nil)
		if r.Confidence < 0.3 || r.Confidence >= 0.85 {
			t.Errorf("Parse(%q).Confidence = %v, ожидается в [0.3, 0.85)", text, r.Confidence)
		}
	}

	for _, text := range []string{"hello", "how are you", "spent money"} {
		r := p.Parse(text, nil)
		if r.Confidence >= ClarificationThreshold {
			t.Errorf("Parse(%q).Confidence = %v, ожидается < 0.5", text, r.Confidence)
		}
		if !r.NeedsClarification {
			t.Errorf("Parse(%q).NeedsClarification = false", text)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	r := New().Parse("", nil)
	if r.Amount != 0 {
		t.Errorf("Amount = %v, ожидается 0", r.Amount)
	}
	if r.Confidence >= 0.2 {
		t.Errorf("Confidence = %v, ожидается < 0.2", r.Confidence)
	}
	if r.Description != "Transaction" {
		t.Errorf("Description = %q, ожидается Transaction", r.Description)
	}
}

func TestParse_Type(t *testing.T) {
	tests := []struct {
		text     string
		wantType string
	}{
		{"received 5k salary", "income"},
		{"зарплата 5000000", "income"},
		{"spent 50k on taxi", "expense"},
		{"50k taxi", "expense"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := p.Parse(tt.text, nil)
			if r.Type != tt.wantType {
				t.Errorf("Parse(%q).Type = %q, ожидается %q", tt.text, r.Type, tt.wantType)
			}
		})
	}

	r := p.Parse("received 5k salary", nil)
	if r.Amount != 5000 {
		t.Errorf("Amount = %v, ожидается 5000", r.Amount)
	}
	if r.TypeConfidence != 0.95 {
		t.Errorf("TypeConfidence = %v, ожидается 0.95", r.TypeConfidence)
	}
}

func TestParse_Multiple(t *testing.T) {
	r := New().Parse("45k taxi, 15k snacks, 30k coffee", nil)
	if !r.Multiple {
		t.Fatal("Multiple = false, ожидается true")
	}
	if r.Method != MethodMulti {
		t.Errorf("Method = %q, ожидается %q", r.Method, MethodMulti)
	}
	if len(r.Items) != 3 {
		t.Fatalf("Items = %d, ожидается 3", len(r.Items))
	}

	want := []struct {
		amount   float64
		category string
	}{
		{45000, "transport"},
		{15000, "food"},
		{30000, "food"},
	}
	var sum float64
	for i, w := range want {
		if r.Items[i].Amount != w.amount || r.Items[i].Category != w.category {
			t.Errorf("Items[%d] = %+v, ожидается %v %s", i, r.Items[i], w.amount, w.category)
		}
		sum += r.Items[i].Confidence
	}
	if avg := sum / 3; r.Confidence != avg {
		t.Errorf("Confidence = %v, ожидается среднее %v", r.Confidence, avg)
	}
}

func TestParse_MultipleFallsBackToSingle(t *testing.T) {
	// Одна сумма и запятая — обычный разбор
	r := New().Parse("100,50 lunch", nil)
	if r.Multiple {
		t.Error("Multiple = true для одной суммы")
	}
	if r.Amount != 100.5 {
		t.Errorf("Amount = %v, ожидается 100.5", r.Amount)
	}
}

func TestParse_CurrencyWithDecimalCommaSplits(t *testing.T) {
	// Символ валюты и число с запятой считаются двумя суммами
	r := New().Parse("€ 12,5 pizza", nil)
	if !r.Multiple {
		t.Fatal("Multiple = false, ожидается true")
	}
	if len(r.Items) != 2 {
		t.Fatalf("Items = %d, ожидается 2", len(r.Items))
	}
	if r.Items[0].Amount != 12 || r.Items[1].Amount != 5 {
		t.Errorf("суммы = %v, %v; ожидаются 12 и 5", r.Items[0].Amount, r.Items[1].Amount)
	}
}

func TestParse_FirstAmountWins(t *testing.T) {
	r := New().Parse("spent 50k on taxi and 25k on lunch", nil)
	if r.Amount != 50000 {
		t.Errorf("Amount = %v, ожидается 50000", r.Amount)
	}
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"50k taxi", "Transaction"},
		{"spent 50k on new headphones", "new headphones"},
		{"bought groceries at the market 150k", "the"},
		{"50k for birthday cake!", "birthday cake"},
		{"Такси до аэропорта 80к", "до аэропорта"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := p.Parse(tt.text, nil)
			if r.Description != tt.want {
				t.Errorf("Parse(%q).Description = %q, ожидается %q", tt.text, r.Description, tt.want)
			}
		})
	}
}

func TestExtractDescription_Truncated(t *testing.T) {
	text := "bought some groceries at the market " + strings.Repeat("blah ", 50) + "150k"

	r := New().Parse(text, nil)
	if r.Amount != 150000 {
		t.Errorf("Amount = %v, ожидается 150000", r.Amount)
	}
	if n := utf8.RuneCountInString(r.Description); n > 100 {
		t.Errorf("длина описания = %d, ожидается <= 100", n)
	}
	if !strings.HasSuffix(r.Description, "...") {
		t.Errorf("Description = %q, ожидается многоточие в конце", r.Description)
	}
}

func TestRemoveWord(t *testing.T) {
	tests := []struct {
		text, word, want string
	}{
		{"new headphones", "phone", "new headphones"},
		{"Phone bill", "phone", " bill"},
		{"Купил хлеб", "купил", " хлеб"},
		{"купилка", "купил", "купилка"},
		{"taxi_taxi", "taxi", "taxi_taxi"},
	}
	for _, tt := range tests {
		if got := removeWord(tt.text, tt.word); got != tt.want {
			t.Errorf("removeWord(%q, %q) = %q, ожидается %q", tt.text, tt.word, got, tt.want)
		}
	}
}

func TestShouldUseAI(t *testing.T) {
	p := New()
	tests := []struct {
		text string
		want bool
	}{
		{"50k", true},
		{"hello", true},
		{"50k taxi", false},
		{"lunch 25000", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := p.Parse(tt.text, nil)
			if got := ShouldUseAI(r, tt.text); got != tt.want {
				t.Errorf("ShouldUseAI(%q) = %v, ожидается %v (confidence %v)", tt.text, got, tt.want, r.Confidence)
			}
		})
	}
}

func TestCategoryDisplayName(t *testing.T) {
	if got := CategoryDisplayName("bills"); got != "Bills & Utilities" {
		t.Errorf("CategoryDisplayName(bills) = %q", got)
	}
	if got := CategoryDisplayName("Food & Dining"); got != "Food & Dining" {
		t.Errorf("CategoryDisplayName(Food & Dining) = %q", got)
	}
}
