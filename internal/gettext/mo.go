package gettext

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
)

const (
	moMagic      = 0x950412de
	moHeaderSize = 28
)

// CompileOptions — параметры компиляции MO.
type CompileOptions struct {
	// Включать fuzzy-переводы
	UseFuzzy bool
}

// CompileMO записывает каталог в бинарном формате MO (little-endian, без хэш-таблицы).
// Возвращает число записанных переводов без учёта заголовка.
func CompileMO(w io.Writer, cat *Catalog, opts CompileOptions) (int, error) {
	type entry struct {
		key   string
		value string
	}

	entries := []entry{{key: "", value: cat.headerString()}}
	for _, m := range cat.Messages {
		if m.Obsolete || m.ID == "" || !m.Translated() {
			continue
		}
		if m.IsFuzzy() && !opts.UseFuzzy {
			continue
		}

		key := m.Key()
		if m.IsPlural() {
			key += pluralSeparator + m.IDPlural
		}
		entries = append(entries, entry{key: key, value: strings.Join(m.Str, pluralSeparator)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	n := uint32(len(entries))
	origTable := uint32(moHeaderSize)
	transTable := origTable + 8*n
	dataStart := transTable + 8*n

	var (
		origIdx  = make([]uint32, 0, 2*n)
		transIdx = make([]uint32, 0, 2*n)
		data     bytes.Buffer
	)
	offset := dataStart
	for _, e := range entries {
		origIdx = append(origIdx, uint32(len(e.key)), offset)
		data.WriteString(e.key)
		data.WriteByte(0)
		offset += uint32(len(e.key)) + 1
	}
	for _, e := range entries {
		transIdx = append(transIdx, uint32(len(e.value)), offset)
		data.WriteString(e.value)
		data.WriteByte(0)
		offset += uint32(len(e.value)) + 1
	}

	header := []uint32{moMagic, 0, n, origTable, transTable, 0, dataStart}

	var buf bytes.Buffer
	for _, part := range [][]uint32{header, origIdx, transIdx} {
		if err := binary.Write(&buf, binary.LittleEndian, part); err != nil {
			return 0, fmt.Errorf("ошибка записи MO: %w", err)
		}
	}
	buf.Write(data.Bytes())

	if _, err := w.Write(buf.Bytes()); err != nil {
		return 0, fmt.Errorf("ошибка записи MO: %w", err)
	}
	return len(entries) - 1, nil
}
