package gettext

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acronis/go-stacktrace"
	"github.com/leonelquinteros/gotext"
	"github.com/stretchr/testify/require"
)

const samplePO = `# Russian translations for finance-tracker.
#
msgid ""
msgstr ""
"Project-Id-Version: finance-tracker 1.0.0\n"
"Language: ru\n"
"Plural-Forms: nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);\n"

# проверено
#. TRANSLATORS: greeting
#: internal/bot/start.go:12 internal/bot/start.go:40
#, fuzzy, go-format
msgid "Hello, %s!"
msgstr "Привет, %s!"

msgctxt "menu"
msgid "Open"
msgstr "Открыть"

msgid "%d day"
msgid_plural "%d days"
msgstr[0] "%d день"
msgstr[1] "%d дня"
msgstr[2] "%d дней"

msgid ""
"Line one\n"
"Line two"
msgstr ""
"Строка один\n"
"Строка два"

#~ msgid "Bye"
#~ msgstr "Пока"
`

func Test_ParsePO(t *testing.T) {
	cat, err := ParsePO(strings.NewReader(samplePO))
	require.NoError(t, err)

	require.Equal(t, []string{"Russian translations for finance-tracker.", ""}, cat.HeaderComments)
	require.Equal(t, "ru", cat.Language())
	require.Equal(t, 3, cat.NPlurals())
	require.Len(t, cat.Messages, 5)

	hello := cat.Messages[0]
	require.Equal(t, "Hello, %s!", hello.ID)
	require.Equal(t, []string{"Привет, %s!"}, hello.Str)
	require.Equal(t, []string{"проверено"}, hello.TranslatorComments)
	require.Equal(t, []string{"TRANSLATORS: greeting"}, hello.ExtractedComments)
	require.Equal(t, []string{"internal/bot/start.go:12", "internal/bot/start.go:40"}, hello.References)
	require.True(t, hello.IsFuzzy())
	require.True(t, hello.HasFlag("go-format"))

	open := cat.Find("menu", "Open")
	require.NotNil(t, open)
	require.Equal(t, "Открыть", open.Str[0])
	require.Nil(t, cat.Find("", "Open"))

	days := cat.Messages[2]
	require.True(t, days.IsPlural())
	require.Equal(t, []string{"%d день", "%d дня", "%d дней"}, days.Str)

	require.Equal(t, "Line one\nLine two", cat.Messages[3].ID)
	require.Equal(t, "Строка один\nСтрока два", cat.Messages[3].Str[0])

	bye := cat.Messages[4]
	require.True(t, bye.Obsolete)
	require.Equal(t, "Bye", bye.ID)
	require.Nil(t, cat.Find("", "Bye"))
}

func Test_ParsePO_Errors(t *testing.T) {
	testcases := map[string]string{
		"unknown keyword":      "msgfoo \"x\"\n",
		"dangling string":      "\"x\"\n",
		"unquoted value":       "msgid x\n",
		"negative plural slot": "msgid \"a\"\nmsgid_plural \"b\"\nmsgstr[-1] \"\"\n",
	}
	for name, input := range testcases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePO(strings.NewReader(input))
			require.Error(t, err)
		})
	}
}

func Test_WritePO_RoundTrip(t *testing.T) {
	cat, err := ParsePO(strings.NewReader(samplePO))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePO(&buf, cat, WriteOptions{}))

	again, err := ParsePO(&buf)
	require.NoError(t, err)
	require.Equal(t, cat, again)
}

func Test_WritePO_Format(t *testing.T) {
	cat := &Catalog{
		Headers: []Header{{Key: "Language", Value: "en"}},
		Messages: []*Message{
			{ID: `Say "hi"`, Str: []string{""}, References: []string{"a.go:1"}, Flags: []string{"go-format"}},
			{ID: "Bye", Str: []string{"Bye"}, Obsolete: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePO(&buf, cat, WriteOptions{}))
	require.Equal(t, `msgid ""
msgstr "Language: en\n"

#: a.go:1
#, go-format
msgid "Say \"hi\""
msgstr ""

#~ msgid "Bye"
#~ msgstr "Bye"
`, buf.String())

	buf.Reset()
	require.NoError(t, WritePO(&buf, cat, WriteOptions{OmitObsolete: true, OmitReferences: true}))
	require.NotContains(t, buf.String(), "#~")
	require.NotContains(t, buf.String(), "#:")
}

func Test_WrapReferences(t *testing.T) {
	refs := []string{
		"internal/bot/expenses.go:100",
		"internal/bot/expenses.go:200",
		"internal/bot/expenses.go:300",
	}
	lines := wrapReferences(refs)
	require.Len(t, lines, 2)
	for _, l := range lines {
		require.LessOrEqual(t, len(l), referenceWidth-3)
	}
}

func Test_ParseKeyword(t *testing.T) {
	testcases := map[string]struct {
		spec    string
		want    Keyword
		wantErr bool
	}{
		"name only":   {spec: "T", want: Keyword{Name: "T", IDArg: 0, PluralArg: -1}},
		"plural":      {spec: "Tn:1,2", want: Keyword{Name: "Tn", IDArg: 0, PluralArg: 1}},
		"second arg":  {spec: "Tc:2", want: Keyword{Name: "Tc", IDArg: 1, PluralArg: -1}},
		"empty name":  {spec: ":1", wantErr: true},
		"zero index":  {spec: "T:0", wantErr: true},
		"three args":  {spec: "T:1,2,3", wantErr: true},
		"not numeric": {spec: "T:a", wantErr: true},
	}
	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseKeyword(tc.spec)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func Test_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "i18n.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
project = "finance-tracker"
version = "1.0.0"
keywords = ["T", "Tn:1,2"]
ignore_dirs = ["vendor"]
`), 0o600))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "finance-tracker", cfg.Project)
	require.Equal(t, []string{"T", "Tn:1,2"}, cfg.Keywords)
	require.Equal(t, "messages", cfg.Domain)

	require.NoError(t, os.WriteFile(path, []byte("unknown_key = 1\n"), 0o600))
	_, err = LoadConfig(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("keywords = [\"T:x\"]\n"), 0o600))
	_, err = LoadConfig(path)
	require.Error(t, err)
}

const sampleSource = `package bot

func render(l *Localizer, x string) {
	// TRANSLATORS: greeting on /start
	l.T("Hello")
	_ = T("Hello")
	l.Tn("%d item", "%d items", 2)
	l.Tf("Spent: %s", x)
	l.T(x)
	l.T("Long " + "message")
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func Test_Extract(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bot", "render.go"), sampleSource)
	writeFile(t, filepath.Join(root, "bot", "render_test.go"), "package bot\n\nvar _ = T(\"From test\")\n")
	writeFile(t, filepath.Join(root, ".git", "hook.go"), "package git\n\nvar _ = T(\"Hidden\")\n")
	writeFile(t, filepath.Join(root, "vendor", "lib.go"), "package lib\n\nvar _ = T(\"Vendored\")\n")
	writeFile(t, filepath.Join(root, "_scratch", "s.go"), "package s\n\nvar _ = T(\"Scratch\")\n")

	cfg := DefaultConfig()
	msgs, err := Extract(cfg, root, ".")
	require.NoError(t, err)

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []string{"Hello", "%d item", "Spent: %s", "Long message"}, ids)

	hello := msgs[0]
	require.Equal(t, []string{"bot/render.go:5", "bot/render.go:6"}, hello.References)
	require.Equal(t, []string{"TRANSLATORS: greeting on /start"}, hello.ExtractedComments)
	require.Equal(t, []string{""}, hello.Str)

	items := msgs[1]
	require.Equal(t, "%d items", items.IDPlural)
	require.Equal(t, []string{"", ""}, items.Str)
	require.Empty(t, items.ExtractedComments)
}

func Test_Extract_SyntaxError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.go"), "package broken\n\nfunc {\n")

	_, err := Extract(DefaultConfig(), root)
	require.Error(t, err)
}

func Test_NewTemplateAndInit(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.Project = "finance-tracker"

	tmpl := NewTemplate(cfg, []*Message{
		{ID: "Hello", Str: []string{""}},
		{ID: "%d day", IDPlural: "%d days", Str: []string{"", ""}},
	}, now)
	require.True(t, tmpl.HeaderFuzzy)
	require.Equal(t, "2025-01-15 10:30+0000", tmpl.Header("POT-Creation-Date"))
	require.Equal(t, "Translations template for finance-tracker.", tmpl.HeaderComments[0])

	ru := InitCatalog(tmpl, "ru", now)
	require.Equal(t, "ru", ru.Language())
	require.Equal(t, 3, ru.NPlurals())
	require.Equal(t, "Russian translations for finance-tracker.", ru.HeaderComments[0])
	require.Len(t, ru.Messages[1].Str, 3)

	uz := InitCatalog(tmpl, "uz", now)
	require.Equal(t, "nplurals=2; plural=(n != 1);", uz.Header("Plural-Forms"))
	require.Len(t, uz.Messages[1].Str, 2)

	// шаблон не изменяется
	require.Len(t, tmpl.Messages[1].Str, 2)
}

func Test_Merge(t *testing.T) {
	tmpl := &Catalog{
		Headers: []Header{{Key: "POT-Creation-Date", Value: "2025-02-01 00:00+0000"}},
		Messages: []*Message{
			{ID: "Hello", Str: []string{""}, References: []string{"bot/start.go:10"}},
			{ID: "Hello, world!", Str: []string{""}},
			{ID: "Balance", Str: []string{""}},
			{ID: "%d item", IDPlural: "%d items", Str: []string{"", ""}},
		},
	}
	po := &Catalog{
		Headers: []Header{
			{Key: "Language", Value: "ru"},
			{Key: "POT-Creation-Date", Value: "2025-01-01 00:00+0000"},
			{Key: "Plural-Forms", Value: PluralForms("ru")},
		},
		Messages: []*Message{
			{ID: "Hello", Str: []string{"Привет"}, TranslatorComments: []string{"ok"}, References: []string{"old.go:1"}},
			{ID: "Hello world", Str: []string{"Привет мир"}},
			{ID: "Bye", Str: []string{"Пока"}},
			{ID: "%d item", Str: []string{"%d предмет"}},
		},
	}

	out, stats := Merge(tmpl, po, MergeOptions{})
	require.Equal(t, MergeStats{Kept: 2, Added: 1, Fuzzy: 1, Obsolete: 1}, stats)
	require.Equal(t, "2025-02-01 00:00+0000", out.Header("POT-Creation-Date"))
	require.Equal(t, "ru", out.Language())

	hello := out.Find("", "Hello")
	require.Equal(t, []string{"Привет"}, hello.Str)
	require.Equal(t, []string{"ok"}, hello.TranslatorComments)
	require.Equal(t, []string{"bot/start.go:10"}, hello.References)
	require.False(t, hello.IsFuzzy())

	world := out.Find("", "Hello, world!")
	require.Equal(t, []string{"Привет мир"}, world.Str)
	require.True(t, world.IsFuzzy())

	balance := out.Find("", "Balance")
	require.Equal(t, []string{""}, balance.Str)

	items := out.Find("", "%d item")
	require.Equal(t, []string{"%d предмет", "", ""}, items.Str)
	require.True(t, items.IsFuzzy())

	last := out.Messages[len(out.Messages)-1]
	require.Equal(t, "Bye", last.ID)
	require.True(t, last.Obsolete)

	// исходный каталог не изменяется
	require.False(t, po.Messages[2].Obsolete)
}

func Test_Merge_Options(t *testing.T) {
	tmpl := &Catalog{Messages: []*Message{{ID: "Hello, world!", Str: []string{""}}}}
	po := &Catalog{Messages: []*Message{{ID: "Hello world", Str: []string{"Привет мир"}}}}

	out, stats := Merge(tmpl, po, MergeOptions{NoFuzzyMatching: true, IgnoreObsolete: true})
	require.Equal(t, MergeStats{Added: 1}, stats)
	require.Len(t, out.Messages, 1)
	require.Equal(t, []string{""}, out.Messages[0].Str)
}

func Test_Similarity(t *testing.T) {
	require.InDelta(t, 1.0, similarity("", ""), 1e-9)
	require.InDelta(t, 1.0, similarity("abc", "abc"), 1e-9)
	require.InDelta(t, 0.75, similarity("abcd", "bcde"), 1e-9)
	require.InDelta(t, 0.0, similarity("abc", "xyz"), 1e-9)
	require.InDelta(t, 22.0/24.0, similarity("Hello, world!", "Hello world"), 1e-9)
}

func Test_CompileMO(t *testing.T) {
	cat := &Catalog{
		Headers: []Header{
			{Key: "Content-Type", Value: "text/plain; charset=utf-8"},
			{Key: "Language", Value: "ru"},
			{Key: "Plural-Forms", Value: PluralForms("ru")},
		},
		Messages: []*Message{
			{ID: "Hello", Str: []string{"Привет"}},
			{ID: "%d day", IDPlural: "%d days", Str: []string{"%d день", "%d дня", "%d дней"}},
			{Context: "menu", ID: "Open", Str: []string{"Открыть"}},
			{ID: "Draft", Str: []string{"Черновик"}, Flags: []string{"fuzzy"}},
			{ID: "Empty", Str: []string{""}},
			{ID: "Gone", Str: []string{"Нет"}, Obsolete: true},
		},
	}

	var buf bytes.Buffer
	n, err := CompileMO(&buf, cat, CompileOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	mo := gotext.NewMo()
	mo.Parse(buf.Bytes())

	require.Equal(t, "Привет", mo.Get("Hello"))
	require.Equal(t, "%d день", mo.GetN("%d day", "%d days", 1))
	require.Equal(t, "%d дня", mo.GetN("%d day", "%d days", 3))
	require.Equal(t, "%d дней", mo.GetN("%d day", "%d days", 11))
	require.Equal(t, "Открыть", mo.GetC("Open", "menu"))
	require.Equal(t, "Draft", mo.Get("Draft"))
	require.Equal(t, "Empty", mo.Get("Empty"))
	require.Equal(t, "Gone", mo.Get("Gone"))

	buf.Reset()
	n, err = CompileMO(&buf, cat, CompileOptions{UseFuzzy: true})
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func Test_CompileMO_Layout(t *testing.T) {
	var buf bytes.Buffer
	_, err := CompileMO(&buf, &Catalog{}, CompileOptions{})
	require.NoError(t, err)

	data := buf.Bytes()
	require.Equal(t, []byte{0xde, 0x12, 0x04, 0x95}, data[:4])
	// заголовок 28 байт + две таблицы по одной записи + две пустые строки с \0
	require.Len(t, data, 28+8+8+2)
}

func Test_Check(t *testing.T) {
	cat := &Catalog{
		Headers: []Header{{Key: "Plural-Forms", Value: PluralForms("ru")}},
		Messages: []*Message{
			{ID: "Spent: %s", Str: []string{"Потрачено: %s"}},
			{ID: "100%% done", Str: []string{"Готово"}},
			{ID: "Total: %s", Str: []string{"Итого"}},
			{ID: "%d day", IDPlural: "%d days", Str: []string{"%d день", "%d дня"}},
			{ID: "Draft %s", Str: []string{"Черновик"}, Flags: []string{"fuzzy"}},
			{ID: "Empty %s", Str: []string{""}},
		},
	}

	err := Check(cat)
	require.Error(t, err)

	var st *stacktrace.StackTrace
	require.ErrorAs(t, err, &st)
	require.Len(t, st.List, 2)

	cat.Messages = cat.Messages[:2]
	require.NoError(t, Check(cat))
}

func Test_Stats(t *testing.T) {
	cat := &Catalog{Messages: []*Message{
		{ID: "a", Str: []string{"а"}},
		{ID: "b", Str: []string{"б"}, Flags: []string{"fuzzy"}},
		{ID: "c", Str: []string{""}},
		{ID: "d", Str: []string{"д"}, Obsolete: true},
	}}
	s := Stats(cat)
	require.Equal(t, CatalogStats{Total: 3, Translated: 1, Fuzzy: 1, Untranslated: 1}, s)
	require.InDelta(t, 33.33, s.Percent(), 0.01)
	require.InDelta(t, 100.0, CatalogStats{}.Percent(), 1e-9)
}

func Test_FindCatalogsAndFiles(t *testing.T) {
	dir := t.TempDir()
	cat := &Catalog{
		Headers:  []Header{{Key: "Language", Value: "ru"}},
		Messages: []*Message{{ID: "Hello", Str: []string{"Привет"}}},
	}
	require.NoError(t, WritePOFile(CatalogPath(dir, "ru", "messages", ".po"), cat, WriteOptions{}))
	require.NoError(t, WritePOFile(CatalogPath(dir, "en", "messages", ".po"), cat, WriteOptions{}))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	files, err := FindCatalogs(dir, "messages")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "en", files[0].Lang)
	require.Equal(t, filepath.Join(dir, "ru", "LC_MESSAGES", "messages.mo"), files[1].MO)

	files, err = FindCatalogs(dir, "messages", "uz")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.False(t, Exists(files[0].PO))

	read, err := ReadPOFile(files[0].PO)
	require.Error(t, err)
	require.Nil(t, read)

	read, err = ReadPOFile(CatalogPath(dir, "ru", "messages", ".po"))
	require.NoError(t, err)
	require.Equal(t, cat, read)

	n, err := WriteMOFile(CatalogPath(dir, "ru", "messages", ".mo"), read, CompileOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, Exists(CatalogPath(dir, "ru", "messages", ".mo")))
}
