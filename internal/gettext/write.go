package gettext

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Ширина строки #: при переносе ссылок.
const referenceWidth = 76

// WriteOptions — параметры записи PO.
type WriteOptions struct {
	// Не записывать obsolete-записи (#~)
	OmitObsolete bool
	// Не записывать ссылки на исходники (#:)
	OmitReferences bool
}

// WritePO записывает каталог в формате PO.
func WritePO(w io.Writer, cat *Catalog, opts WriteOptions) error {
	bw := bufio.NewWriter(w)

	for _, c := range cat.HeaderComments {
		writeComment(bw, "#", c)
	}
	if cat.HeaderFuzzy {
		bw.WriteString("#, fuzzy\n")
	}
	bw.WriteString("msgid \"\"\n")
	writeString(bw, "", "msgstr", cat.headerString())

	for _, m := range cat.Messages {
		if m.Obsolete && opts.OmitObsolete {
			continue
		}
		bw.WriteString("\n")
		writeMessage(bw, m, opts)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ошибка записи PO: %w", err)
	}
	return nil
}

func writeMessage(w *bufio.Writer, m *Message, opts WriteOptions) {
	prefix := ""
	if m.Obsolete {
		prefix = "#~ "
	}

	for _, c := range m.TranslatorComments {
		writeComment(w, "#", c)
	}
	for _, c := range m.ExtractedComments {
		writeComment(w, "#.", c)
	}
	if !opts.OmitReferences && !m.Obsolete {
		for _, line := range wrapReferences(m.References) {
			w.WriteString("#: " + line + "\n")
		}
	}
	if len(m.Flags) > 0 {
		w.WriteString("#, " + strings.Join(m.Flags, ", ") + "\n")
	}

	if m.Context != "" {
		writeString(w, prefix, "msgctxt", m.Context)
	}
	writeString(w, prefix, "msgid", m.ID)
	if m.IsPlural() {
		writeString(w, prefix, "msgid_plural", m.IDPlural)
		strs := m.Str
		if len(strs) == 0 {
			strs = []string{"", ""}
		}
		for i, s := range strs {
			writeString(w, prefix, fmt.Sprintf("msgstr[%d]", i), s)
		}
		return
	}

	str := ""
	if len(m.Str) > 0 {
		str = m.Str[0]
	}
	writeString(w, prefix, "msgstr", str)
}

func writeComment(w *bufio.Writer, marker, text string) {
	if text == "" {
		w.WriteString(marker + "\n")
		return
	}
	w.WriteString(marker + " " + text + "\n")
}

// writeString пишет keyword "..." с разбиением многострочных значений.
func writeString(w *bufio.Writer, prefix, keyword, s string) {
	lines := splitLines(s)
	if len(lines) <= 1 {
		w.WriteString(prefix + keyword + " " + quote(s) + "\n")
		return
	}
	w.WriteString(prefix + keyword + " \"\"\n")
	for _, line := range lines {
		w.WriteString(prefix + quote(line) + "\n")
	}
}

// splitLines режет строку после каждого \n, сохраняя перевод строки.
func splitLines(s string) []string {
	var lines []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 || i == len(s)-1 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

func wrapReferences(refs []string) []string {
	var (
		lines []string
		cur   string
	)
	for _, r := range refs {
		switch {
		case cur == "":
			cur = r
		case len(cur)+1+len(r) > referenceWidth-3:
			lines = append(lines, cur)
			cur = r
		default:
			cur += " " + r
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
