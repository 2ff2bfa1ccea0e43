package i18n

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"testing/fstest"

	"github.com/oddava/finance-tracker/internal/gettext"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const ruPO = `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"
"Language: ru\n"
"Plural-Forms: nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);\n"

msgid "Hello"
msgstr "Привет"

msgid "Spent: %s"
msgstr "Потрачено: %s"

msgid "%d day"
msgid_plural "%d days"
msgstr[0] "%d день"
msgstr[1] "%d дня"
msgstr[2] "%d дней"
`

const enPO = `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"
"Language: en\n"
"Plural-Forms: nplurals=2; plural=(n != 1);\n"

msgid "menu_title"
msgstr "📋 Menu"
`

// uzMO компилирует каталог узбекского языка в MO.
func uzMO(t *testing.T) []byte {
	t.Helper()
	cat := &gettext.Catalog{
		Headers: []gettext.Header{
			{Key: "Content-Type", Value: "text/plain; charset=UTF-8"},
			{Key: "Language", Value: "uz"},
			{Key: "Plural-Forms", Value: gettext.PluralForms("uz")},
		},
		Messages: []*gettext.Message{
			{ID: "Hello", Str: []string{"Salom"}},
		},
	}
	var buf bytes.Buffer
	if _, err := gettext.CompileMO(&buf, cat, gettext.CompileOptions{}); err != nil {
		t.Fatalf("CompileMO() вернул ошибку: %v", err)
	}
	return buf.Bytes()
}

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	fsys := fstest.MapFS{
		"ru/LC_MESSAGES/messages.po": {Data: []byte(ruPO)},
		"en/LC_MESSAGES/messages.po": {Data: []byte(enPO)},
		"uz/LC_MESSAGES/messages.mo": {Data: uzMO(t)},
		"uz/LC_MESSAGES/messages.po": {Data: []byte("broken po is ignored when mo exists")},
		"de/README":                  {Data: []byte("no catalog")},
		"messages.pot":               {Data: []byte("")},
	}
	b, err := NewBundle(fsys, "en", testLogger())
	if err != nil {
		t.Fatalf("NewBundle() вернул ошибку: %v", err)
	}
	return b
}

func TestBundle_Languages(t *testing.T) {
	b := testBundle(t)

	got := b.Languages()
	want := []string{"en", "ru", "uz"}
	if len(got) != len(want) {
		t.Fatalf("Languages() = %v, ожидается %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Languages()[%d] = %q, ожидается %q", i, got[i], want[i])
		}
	}
	if b.Has("de") {
		t.Error("Has(de) = true, каталога нет")
	}
	if b.DefaultLanguage() != "en" {
		t.Errorf("DefaultLanguage() = %q", b.DefaultLanguage())
	}
}

func TestBundle_Match(t *testing.T) {
	b := testBundle(t)

	tests := []struct {
		code string
		want string
	}{
		{"ru", "ru"},
		{"ru-RU", "ru"},
		{"uz", "uz"},
		{"en-US", "en"},
		{"de", "en"},
		{"", "en"},
		{"not a tag!", "en"},
	}
	for _, tt := range tests {
		if got := b.Match(tt.code); got != tt.want {
			t.Errorf("Match(%q) = %q, ожидается %q", tt.code, got, tt.want)
		}
	}
}

func TestLocalizer_T(t *testing.T) {
	b := testBundle(t)

	ru := b.For("ru")
	if ru.Lang() != "ru" {
		t.Errorf("Lang() = %q, ожидается ru", ru.Lang())
	}
	if got := ru.T("Hello"); got != "Привет" {
		t.Errorf("ru T(Hello) = %q", got)
	}
	// нет в ru — берётся из языка по умолчанию
	if got := ru.T("menu_title"); got != "📋 Menu" {
		t.Errorf("ru T(menu_title) = %q, ожидается перевод из en", got)
	}
	if got := ru.T("Unknown"); got != "Unknown" {
		t.Errorf("ru T(Unknown) = %q, ожидается msgid", got)
	}
	if got := ru.Tf("Spent: %s", "10 000 so'm"); got != "Потрачено: 10 000 so'm" {
		t.Errorf("ru Tf = %q", got)
	}

	if got := b.For("uz").T("Hello"); got != "Salom" {
		t.Errorf("uz T(Hello) = %q, ожидается перевод из .mo", got)
	}

	fr := b.For("fr")
	if fr.Lang() != "en" {
		t.Errorf("For(fr).Lang() = %q, ожидается en", fr.Lang())
	}
	if got := fr.T("Hello"); got != "Hello" {
		t.Errorf("en T(Hello) = %q", got)
	}
}

func TestLocalizer_Tn(t *testing.T) {
	b := testBundle(t)
	ru := b.For("ru")

	tests := []struct {
		n    int
		want string
	}{
		{1, "1 день"},
		{3, "3 дня"},
		{5, "5 дней"},
		{11, "11 дней"},
		{21, "21 день"},
	}
	for _, tt := range tests {
		if got := ru.Tn("%d day", "%d days", tt.n, tt.n); got != tt.want {
			t.Errorf("Tn(%d) = %q, ожидается %q", tt.n, got, tt.want)
		}
	}

	en := b.For("en")
	if got := en.Tn("%d item", "%d items", 1, 1); got != "1 item" {
		t.Errorf("en Tn(1) = %q", got)
	}
	if got := en.Tn("%d item", "%d items", 2, 2); got != "2 items" {
		t.Errorf("en Tn(2) = %q", got)
	}
	if got := en.Tn("item", "items", 2); got != "items" {
		t.Errorf("en Tn без аргументов = %q", got)
	}
}

func TestNewBundle_Empty(t *testing.T) {
	b, err := NewBundle(fstest.MapFS{}, "en", testLogger())
	if err != nil {
		t.Fatalf("NewBundle() вернул ошибку: %v", err)
	}
	if got := b.Languages(); len(got) != 1 || got[0] != "en" {
		t.Errorf("Languages() = %v, ожидается [en]", got)
	}
	if got := b.For("ru").T("Hello"); got != "Hello" {
		t.Errorf("T(Hello) = %q", got)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	b, err := LoadDir(t.TempDir()+"/absent", "en", testLogger())
	if err != nil {
		t.Fatalf("LoadDir() вернул ошибку: %v", err)
	}
	if b.Match("ru") != "en" {
		t.Error("без каталогов Match должен возвращать язык по умолчанию")
	}
}

func TestName(t *testing.T) {
	if Name("ru") != "🇷🇺 Русский" {
		t.Errorf("Name(ru) = %q", Name("ru"))
	}
	if Name("xx") != "xx" {
		t.Errorf("Name(xx) = %q", Name("xx"))
	}
}
