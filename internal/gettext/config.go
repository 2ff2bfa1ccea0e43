package gettext

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config — настройки извлечения строк (i18n.toml).
type Config struct {
	Project         string   `toml:"project"`
	Version         string   `toml:"version"`
	BugsAddress     string   `toml:"bugs_address"`
	CopyrightHolder string   `toml:"copyright_holder"`
	Domain          string   `toml:"domain"`
	LocalesDir      string   `toml:"locales_dir"`
	Keywords        []string `toml:"keywords"`
	IgnoreDirs      []string `toml:"ignore_dirs"`
	CommentTag      string   `toml:"comment_tag"`
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		Project:         "PROJECT",
		Version:         "VERSION",
		BugsAddress:     "",
		CopyrightHolder: "ORGANIZATION",
		Domain:          "messages",
		LocalesDir:      "bot/locales",
		Keywords:        []string{"T", "Tf", "Tn:1,2"},
		IgnoreDirs:      []string{"vendor", "testdata"},
		CommentTag:      "TRANSLATORS:",
	}
}

// LoadConfig читает i18n.toml. Отсутствующий файл — не ошибка,
// возвращаются значения по умолчанию.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("неизвестные ключи в %s: %v", path, undecoded)
	}

	if _, err := cfg.ParsedKeywords(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Keyword — функция-переводчик и позиции её строковых аргументов.
type Keyword struct {
	Name string
	// Индекс msgid (с нуля)
	IDArg int
	// Индекс msgid_plural, -1 — нет
	PluralArg int
}

// ParseKeyword разбирает запись вида "Tn:1,2" (позиции с единицы).
func ParseKeyword(spec string) (Keyword, error) {
	name, args, hasArgs := strings.Cut(strings.TrimSpace(spec), ":")
	if name == "" {
		return Keyword{}, fmt.Errorf("пустое имя keyword в %q", spec)
	}
	kw := Keyword{Name: name, IDArg: 0, PluralArg: -1}
	if !hasArgs {
		return kw, nil
	}

	parts := strings.Split(args, ",")
	if len(parts) > 2 {
		return Keyword{}, fmt.Errorf("keyword %q: допускается не более двух позиций", spec)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return Keyword{}, fmt.Errorf("keyword %q: некорректная позиция %q", spec, p)
		}
		if i == 0 {
			kw.IDArg = n - 1
		} else {
			kw.PluralArg = n - 1
		}
	}
	return kw, nil
}

// ParsedKeywords возвращает keywords, индексированные по имени функции.
func (c *Config) ParsedKeywords() (map[string]Keyword, error) {
	out := make(map[string]Keyword, len(c.Keywords))
	for _, spec := range c.Keywords {
		kw, err := ParseKeyword(spec)
		if err != nil {
			return nil, err
		}
		out[kw.Name] = kw
	}
	return out, nil
}
