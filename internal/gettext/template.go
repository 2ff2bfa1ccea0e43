package gettext

import (
	"fmt"
	"strings"
	"time"
)

// Формат дат в заголовках POT/PO.
const headerDateLayout = "2006-01-02 15:04-0700"

// Значения Plural-Forms для поддерживаемых языков.
var pluralForms = map[string]string{
	"en": "nplurals=2; plural=(n != 1);",
	"uz": "nplurals=2; plural=(n != 1);",
	"ru": "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);",
}

var languageNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"uz": "Uzbek",
}

// PluralForms возвращает Plural-Forms для языка (по умолчанию как в английском).
func PluralForms(lang string) string {
	if pf, ok := pluralForms[baseLanguage(lang)]; ok {
		return pf
	}
	return pluralForms["en"]
}

// NewTemplate создаёт пустой POT-каталог с заголовками.
func NewTemplate(cfg *Config, messages []*Message, now time.Time) *Catalog {
	year := now.Format("2006")
	return &Catalog{
		HeaderComments: []string{
			"Translations template for " + cfg.Project + ".",
			"Copyright (C) " + year + " " + cfg.CopyrightHolder,
			"This file is distributed under the same license as the " + cfg.Project + " project.",
			"FIRST AUTHOR <EMAIL@ADDRESS>, " + year + ".",
			"",
		},
		HeaderFuzzy: true,
		Headers: []Header{
			{"Project-Id-Version", cfg.Project + " " + cfg.Version},
			{"Report-Msgid-Bugs-To", cfg.BugsAddress},
			{"POT-Creation-Date", now.Format(headerDateLayout)},
			{"PO-Revision-Date", "YEAR-MO-DA HO:MI+ZONE"},
			{"Last-Translator", "FULL NAME <EMAIL@ADDRESS>"},
			{"Language-Team", "LANGUAGE <LL@li.org>"},
			{"MIME-Version", "1.0"},
			{"Content-Type", "text/plain; charset=utf-8"},
			{"Content-Transfer-Encoding", "8bit"},
			{"Generated-By", "financebot i18n"},
		},
		Messages: messages,
	}
}

// InitCatalog создаёт каталог языка lang из шаблона.
func InitCatalog(tmpl *Catalog, lang string, now time.Time) *Catalog {
	name := languageNames[baseLanguage(lang)]
	if name == "" {
		name = lang
	}

	cat := &Catalog{
		HeaderComments: make([]string, 0, len(tmpl.HeaderComments)),
		Headers:        append([]Header(nil), tmpl.Headers...),
	}
	for _, c := range tmpl.HeaderComments {
		c = strings.Replace(c, "Translations template", name+" translations", 1)
		cat.HeaderComments = append(cat.HeaderComments, c)
	}

	cat.SetHeader("PO-Revision-Date", now.Format(headerDateLayout))
	cat.SetHeader("Language", lang)
	cat.SetHeader("Language-Team", fmt.Sprintf("%s <LL@li.org>", lang))
	cat.SetHeader("Plural-Forms", PluralForms(lang))

	n := cat.NPlurals()
	for _, m := range tmpl.Messages {
		if m.Obsolete {
			continue
		}
		c := m.Clone()
		c.Str = emptyStr(c, n)
		c.SetFuzzy(false)
		cat.Messages = append(cat.Messages, c)
	}
	return cat
}

func emptyStr(m *Message, nplurals int) []string {
	if m.IsPlural() {
		return make([]string, nplurals)
	}
	return []string{""}
}

func baseLanguage(lang string) string {
	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "_-"); i >= 0 {
		return lang[:i]
	}
	return lang
}

func parseNPlurals(pf string) int {
	for _, part := range strings.Split(pf, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(key) != "nplurals" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	return 2
}
