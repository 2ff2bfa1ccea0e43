// Пакет gettext — инструменты каталогов переводов для `financebot i18n`:
// чтение и запись PO, извлечение строк из исходников Go, слияние каталогов
// и компиляция MO.
package gettext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	contextSeparator = "\x04"
	pluralSeparator  = "\x00"
	fuzzyFlag        = "fuzzy"
)

// Message — запись каталога.
type Message struct {
	Context  string
	ID       string
	IDPlural string
	Str      []string

	TranslatorComments []string
	ExtractedComments  []string
	References         []string
	Flags              []string

	Obsolete bool
}

// Key — ключ записи в каталоге (msgctxt\x04msgid).
func (m *Message) Key() string {
	if m.Context == "" {
		return m.ID
	}
	return m.Context + contextSeparator + m.ID
}

func (m *Message) IsPlural() bool {
	return m.IDPlural != ""
}

func (m *Message) IsFuzzy() bool {
	return m.HasFlag(fuzzyFlag)
}

func (m *Message) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func (m *Message) SetFuzzy(fuzzy bool) {
	if fuzzy == m.IsFuzzy() {
		return
	}
	if fuzzy {
		m.Flags = append([]string{fuzzyFlag}, m.Flags...)
		return
	}
	flags := m.Flags[:0]
	for _, f := range m.Flags {
		if f != fuzzyFlag {
			flags = append(flags, f)
		}
	}
	m.Flags = flags
}

// Translated сообщает, заполнены ли все msgstr.
func (m *Message) Translated() bool {
	if len(m.Str) == 0 {
		return false
	}
	for _, s := range m.Str {
		if s == "" {
			return false
		}
	}
	return true
}

// Clone возвращает глубокую копию.
func (m *Message) Clone() *Message {
	c := *m
	c.Str = append([]string(nil), m.Str...)
	c.TranslatorComments = append([]string(nil), m.TranslatorComments...)
	c.ExtractedComments = append([]string(nil), m.ExtractedComments...)
	c.References = append([]string(nil), m.References...)
	c.Flags = append([]string(nil), m.Flags...)
	return &c
}

// Header — строка заголовка каталога "Key: Value".
type Header struct {
	Key   string
	Value string
}

// Catalog — разобранный PO/POT файл.
type Catalog struct {
	HeaderComments []string
	HeaderFuzzy    bool
	Headers        []Header
	Messages       []*Message
}

func (c *Catalog) Header(key string) string {
	for _, h := range c.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

// SetHeader обновляет заголовок или добавляет новый в конец.
func (c *Catalog) SetHeader(key, value string) {
	for i, h := range c.Headers {
		if strings.EqualFold(h.Key, key) {
			c.Headers[i].Value = value
			return
		}
	}
	c.Headers = append(c.Headers, Header{Key: key, Value: value})
}

// Find ищет активную (не obsolete) запись по контексту и msgid.
func (c *Catalog) Find(context, id string) *Message {
	key := (&Message{Context: context, ID: id}).Key()
	for _, m := range c.Messages {
		if !m.Obsolete && m.Key() == key {
			return m
		}
	}
	return nil
}

func (c *Catalog) Language() string {
	return c.Header("Language")
}

// NPlurals возвращает nplurals из Plural-Forms (2, если заголовка нет).
func (c *Catalog) NPlurals() int {
	return parseNPlurals(c.Header("Plural-Forms"))
}

func (c *Catalog) headerString() string {
	var b strings.Builder
	for _, h := range c.Headers {
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\n")
	}
	return b.String()
}

// ParsePO читает PO или POT файл.
func ParsePO(r io.Reader) (*Catalog, error) {
	p := &poParser{cat: &Catalog{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		p.line++
		if err := p.parseLine(strings.TrimRight(sc.Text(), "\r")); err != nil {
			return nil, fmt.Errorf("строка %d: %w", p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения PO: %w", err)
	}
	p.flush()
	return p.cat, nil
}

type poParser struct {
	cat  *Catalog
	line int

	cur    *Message
	hasID  bool
	hasStr bool
	target *string
}

func (p *poParser) entry() *Message {
	if p.cur == nil {
		p.cur = &Message{}
	}
	return p.cur
}

func (p *poParser) flush() {
	m, hasID := p.cur, p.hasID
	p.cur, p.hasID, p.hasStr, p.target = nil, false, false, nil
	if m == nil || !hasID {
		return
	}

	if m.ID == "" && m.Context == "" && !m.Obsolete && p.cat.Headers == nil && len(p.cat.Messages) == 0 {
		p.cat.HeaderComments = m.TranslatorComments
		p.cat.HeaderFuzzy = m.IsFuzzy()
		p.cat.Headers = parseHeaders(strings.Join(m.Str, ""))
		if p.cat.Headers == nil {
			p.cat.Headers = []Header{}
		}
		return
	}
	p.cat.Messages = append(p.cat.Messages, m)
}

func (p *poParser) parseLine(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		p.flush()
		return nil
	}

	obsolete := false
	if strings.HasPrefix(trimmed, "#~") {
		obsolete = true
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "#~"))
		if strings.HasPrefix(trimmed, "|") {
			return nil
		}
	}

	if strings.HasPrefix(trimmed, "#") {
		if p.hasStr {
			p.flush()
		}
		p.parseComment(trimmed)
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		if p.target == nil {
			return fmt.Errorf("строка-продолжение без ключевого слова")
		}
		s, err := unquote(trimmed)
		if err != nil {
			return err
		}
		*p.target += s
		return nil
	}

	keyword, rest, _ := strings.Cut(trimmed, " ")
	value, err := unquote(strings.TrimSpace(rest))
	if err != nil {
		return fmt.Errorf("%s: %w", keyword, err)
	}

	switch {
	case keyword == "msgctxt":
		if p.hasStr {
			p.flush()
		}
		m := p.entry()
		m.Obsolete = obsolete
		m.Context = value
		p.target = &m.Context
	case keyword == "msgid":
		if p.hasStr {
			p.flush()
		}
		m := p.entry()
		m.Obsolete = obsolete
		m.ID = value
		p.hasID = true
		p.target = &m.ID
	case keyword == "msgid_plural":
		m := p.entry()
		m.IDPlural = value
		p.target = &m.IDPlural
	case keyword == "msgstr":
		m := p.entry()
		m.Str = []string{value}
		p.hasStr = true
		p.target = &m.Str[0]
	case strings.HasPrefix(keyword, "msgstr["):
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(keyword, "msgstr["), "]"))
		if err != nil || idx < 0 {
			return fmt.Errorf("некорректный индекс формы в %q", keyword)
		}
		m := p.entry()
		for len(m.Str) <= idx {
			m.Str = append(m.Str, "")
		}
		m.Str[idx] = value
		p.hasStr = true
		p.target = &m.Str[idx]
	default:
		return fmt.Errorf("неизвестное ключевое слово %q", keyword)
	}
	return nil
}

func (p *poParser) parseComment(line string) {
	m := p.entry()
	switch {
	case strings.HasPrefix(line, "#,"):
		for _, f := range strings.Split(line[2:], ",") {
			if f = strings.TrimSpace(f); f != "" && !m.HasFlag(f) {
				m.Flags = append(m.Flags, f)
			}
		}
	case strings.HasPrefix(line, "#:"):
		m.References = append(m.References, strings.Fields(line[2:])...)
	case strings.HasPrefix(line, "#."):
		m.ExtractedComments = append(m.ExtractedComments, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#|"):
		// #| пересоздаётся при слиянии
	default:
		text := strings.TrimPrefix(line, "#")
		text = strings.TrimPrefix(text, " ")
		m.TranslatorComments = append(m.TranslatorComments, text)
	}
}

func parseHeaders(s string) []Header {
	var headers []Header
	for _, line := range strings.Split(s, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, Header{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return headers
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("ожидалась строка в кавычках, получено %q", s)
	}
	s = s[1 : len(s)-1]

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
