package gettext

// Порог похожести msgid для fuzzy-сопоставления.
const fuzzyCutoff = 0.6

// MergeOptions — параметры слияния шаблона с каталогом языка.
type MergeOptions struct {
	// Не искать похожие строки для новых msgid
	NoFuzzyMatching bool
	// Удалять исчезнувшие строки вместо пометки obsolete
	IgnoreObsolete bool
}

// MergeStats — итог слияния.
type MergeStats struct {
	Kept     int
	Added    int
	Fuzzy    int
	Obsolete int
}

// Merge обновляет каталог po по шаблону tmpl. Порядок записей — как в шаблоне,
// существующие переводы и комментарии переводчиков сохраняются.
func Merge(tmpl, po *Catalog, opts MergeOptions) (*Catalog, MergeStats) {
	var stats MergeStats

	out := &Catalog{
		HeaderComments: append([]string(nil), po.HeaderComments...),
		HeaderFuzzy:    po.HeaderFuzzy,
		Headers:        append([]Header(nil), po.Headers...),
	}
	if created := tmpl.Header("POT-Creation-Date"); created != "" {
		out.SetHeader("POT-Creation-Date", created)
	}
	nplurals := out.NPlurals()

	active := make(map[string]*Message)
	obsolete := make(map[string]*Message)
	var candidates []*Message
	for _, m := range po.Messages {
		if m.Obsolete {
			obsolete[m.Key()] = m
			continue
		}
		active[m.Key()] = m
		candidates = append(candidates, m)
	}

	used := make(map[string]bool)
	for _, t := range tmpl.Messages {
		if t.Obsolete {
			continue
		}
		key := t.Key()

		old, ok := active[key]
		if !ok {
			old, ok = obsolete[key]
		}
		if ok {
			used[key] = true
			out.Messages = append(out.Messages, updateMessage(t, old, nplurals, false))
			stats.Kept++
			continue
		}

		if !opts.NoFuzzyMatching {
			if match := closestMatch(t, candidates, tmpl); match != nil {
				used[match.Key()] = true
				out.Messages = append(out.Messages, updateMessage(t, match, nplurals, true))
				stats.Fuzzy++
				continue
			}
		}

		m := t.Clone()
		m.Str = emptyStr(m, nplurals)
		out.Messages = append(out.Messages, m)
		stats.Added++
	}

	if opts.IgnoreObsolete {
		return out, stats
	}
	for _, m := range po.Messages {
		if used[m.Key()] {
			continue
		}
		o := m.Clone()
		if !o.Obsolete {
			stats.Obsolete++
		}
		o.Obsolete = true
		out.Messages = append(out.Messages, o)
	}
	return out, stats
}

// updateMessage переносит перевод old в новую запись по образцу t.
func updateMessage(t, old *Message, nplurals int, fuzzy bool) *Message {
	m := t.Clone()
	m.TranslatorComments = append([]string(nil), old.TranslatorComments...)
	m.Flags = append([]string(nil), old.Flags...)
	m.Obsolete = false

	switch {
	case m.IsPlural() == old.IsPlural():
		m.Str = append([]string(nil), old.Str...)
		if m.IsPlural() {
			for len(m.Str) < nplurals {
				m.Str = append(m.Str, "")
			}
		}
	case m.IsPlural():
		m.Str = make([]string, nplurals)
		if len(old.Str) > 0 {
			m.Str[0] = old.Str[0]
		}
		fuzzy = true
	default:
		m.Str = []string{""}
		if len(old.Str) > 0 {
			m.Str[0] = old.Str[0]
		}
		fuzzy = true
	}

	if fuzzy {
		m.SetFuzzy(true)
	}
	return m
}

// closestMatch ищет перевод самой похожей строки, которой больше нет в шаблоне.
func closestMatch(t *Message, candidates []*Message, tmpl *Catalog) *Message {
	var (
		best      *Message
		bestRatio float64
	)
	for _, c := range candidates {
		if c.Context != t.Context || !c.Translated() {
			continue
		}
		if tmpl.Find(c.Context, c.ID) != nil {
			continue
		}
		ratio := similarity(t.ID, c.ID)
		if ratio >= fuzzyCutoff && ratio > bestRatio {
			best, bestRatio = c, ratio
		}
	}
	return best
}

// similarity — коэффициент Ratcliff/Obershelp: 2*M / (len(a)+len(b)).
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

// matchingRunes рекурсивно суммирует длины наибольших общих подстрок.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+size:], b[j+size:])
}

// longestMatch находит самую длинную общую подстроку (самую левую в a).
func longestMatch(a, b []rune) (int, int, int) {
	bestI, bestJ, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestSize {
					bestI, bestJ, bestSize = i-cur[j], j-cur[j], cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestSize
}
