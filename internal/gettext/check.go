package gettext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/acronis/go-stacktrace"
)

var verbRe = regexp.MustCompile(`%(?:\[\d+\])?[-+# 0]*(?:\d+|\*)?(?:\.(?:\d+|\*))?[vTtbcdoOqxXUeEfFgGsp%]`)

// CatalogStats — статистика заполненности каталога.
type CatalogStats struct {
	Total        int
	Translated   int
	Fuzzy        int
	Untranslated int
}

// Percent возвращает долю переведённых строк, %.
func (s CatalogStats) Percent() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Translated) * 100 / float64(s.Total)
}

// Stats считает активные записи каталога.
func Stats(cat *Catalog) CatalogStats {
	var s CatalogStats
	for _, m := range cat.Messages {
		if m.Obsolete {
			continue
		}
		s.Total++
		switch {
		case m.IsFuzzy():
			s.Fuzzy++
		case m.Translated():
			s.Translated++
		default:
			s.Untranslated++
		}
	}
	return s
}

// Check проверяет переводы: число форм множественного числа и
// совпадение форматных директив с msgid. Ошибки собираются в *stacktrace.StackTrace.
func Check(cat *Catalog) error {
	st := stacktrace.StackTrace{}
	nplurals := cat.NPlurals()

	for _, m := range cat.Messages {
		if m.Obsolete || m.IsFuzzy() {
			continue
		}

		if m.IsPlural() && len(m.Str) != nplurals {
			_ = st.Append(stacktrace.New(
				fmt.Sprintf("ожидалось %d форм множественного числа, найдено %d", nplurals, len(m.Str)),
				stacktrace.WithInfo("msgid", m.ID),
				stacktrace.WithType("plural"),
			))
		}

		for i, s := range m.Str {
			if s == "" {
				continue
			}
			if !sameVerbs(s, m.ID) && (!m.IsPlural() || !sameVerbs(s, m.IDPlural)) {
				_ = st.Append(stacktrace.New(
					fmt.Sprintf("директивы msgstr[%d] не совпадают с msgid", i),
					stacktrace.WithInfo("msgid", m.ID),
					stacktrace.WithInfo("msgstr", s),
					stacktrace.WithType("format"),
				))
			}
		}
	}

	if len(st.List) > 0 {
		return &st
	}
	return nil
}

func sameVerbs(a, b string) bool {
	return strings.Join(verbs(a), " ") == strings.Join(verbs(b), " ")
}

// verbs возвращает отсортированные директивы fmt без %%.
func verbs(s string) []string {
	var out []string
	for _, v := range verbRe.FindAllString(s, -1) {
		if v != "%%" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
