package gettext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// LocaleFile — пути каталогов одного языка.
type LocaleFile struct {
	Lang string
	PO   string
	MO   string
}

// CatalogPath возвращает <dir>/<lang>/LC_MESSAGES/<domain><ext>.
func CatalogPath(dir, lang, domain, ext string) string {
	return filepath.Join(dir, lang, "LC_MESSAGES", domain+ext)
}

// FindCatalogs находит языки с <domain>.po в dir. Если langs не пуст,
// возвращаются только они (в том числе ещё не созданные).
func FindCatalogs(dir, domain string, langs ...string) ([]LocaleFile, error) {
	if len(langs) == 0 {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения каталога %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, err := os.Stat(CatalogPath(dir, e.Name(), domain, ".po")); err == nil {
				langs = append(langs, e.Name())
			}
		}
	}
	sort.Strings(langs)

	out := make([]LocaleFile, 0, len(langs))
	for _, lang := range langs {
		out = append(out, LocaleFile{
			Lang: lang,
			PO:   CatalogPath(dir, lang, domain, ".po"),
			MO:   CatalogPath(dir, lang, domain, ".mo"),
		})
	}
	return out, nil
}

// ReadPOFile читает PO/POT с диска.
func ReadPOFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cat, err := ParsePO(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// WritePOFile атомарно записывает каталог, создавая каталоги по пути.
func WritePOFile(path string, cat *Catalog, opts WriteOptions) error {
	return writeFileAtomic(path, func(f *os.File) error {
		return WritePO(f, cat, opts)
	})
}

// WriteMOFile компилирует каталог в MO-файл.
func WriteMOFile(path string, cat *Catalog, opts CompileOptions) (int, error) {
	var n int
	err := writeFileAtomic(path, func(f *os.File) error {
		var err error
		n, err = CompileMO(f, cat, opts)
		return err
	})
	return n, err
}

// Exists сообщает, существует ли файл.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func writeFileAtomic(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога для %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return nil
}
