// Пакет i18n — переводы сообщений бота во время работы.
// Каталоги (<lang>/LC_MESSAGES/messages.mo или .po) читаются через gotext.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// Domain — имя каталога сообщений.
const Domain = "messages"

var displayNames = map[string]string{
	"en": "🇬🇧 English",
	"ru": "🇷🇺 Русский",
	"uz": "🇺🇿 O'zbekcha",
}

// Name возвращает отображаемое имя языка.
func Name(lang string) string {
	if name, ok := displayNames[lang]; ok {
		return name
	}
	return lang
}

// translator — общая часть *gotext.Mo и *gotext.Po.
type translator interface {
	Get(str string, vars ...interface{}) string
	GetN(str, plural string, n int, vars ...interface{}) string
}

// Bundle — набор загруженных каталогов.
type Bundle struct {
	defaultLang string
	catalogs    map[string]translator
	langs       []string
	matcher     language.Matcher
}

// LoadDir загружает каталоги из каталога на диске.
func LoadDir(dir, defaultLang string, logger *slog.Logger) (*Bundle, error) {
	return NewBundle(os.DirFS(dir), defaultLang, logger)
}

// NewBundle загружает каталоги всех языков из fsys. Отсутствие каталога
// языка по умолчанию не ошибка: тогда возвращается исходный msgid.
func NewBundle(fsys fs.FS, defaultLang string, logger *slog.Logger) (*Bundle, error) {
	log := logger.With(slog.String("component", "i18n"))

	b := &Bundle{
		defaultLang: defaultLang,
		catalogs:    make(map[string]translator),
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения каталога переводов: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		lang := e.Name()
		tr, source, err := loadCatalog(fsys, lang)
		if err != nil {
			return nil, err
		}
		if tr == nil {
			continue
		}
		b.catalogs[lang] = tr
		log.Debug("Каталог переводов загружен",
			slog.String("lang", lang),
			slog.String("source", source),
		)
	}

	b.langs = make([]string, 0, len(b.catalogs)+1)
	b.langs = append(b.langs, defaultLang)
	others := make([]string, 0, len(b.catalogs))
	for lang := range b.catalogs {
		if lang != defaultLang {
			others = append(others, lang)
		}
	}
	sort.Strings(others)
	b.langs = append(b.langs, others...)

	tags := make([]language.Tag, 0, len(b.langs))
	for _, lang := range b.langs {
		tags = append(tags, language.Make(lang))
	}
	b.matcher = language.NewMatcher(tags)

	if _, ok := b.catalogs[defaultLang]; !ok {
		log.Warn("Каталог языка по умолчанию не найден, используются исходные строки",
			slog.String("lang", defaultLang),
		)
	}
	log.Info("Переводы загружены", slog.Any("languages", b.langs))
	return b, nil
}

// loadCatalog читает .mo, при его отсутствии — .po.
func loadCatalog(fsys fs.FS, lang string) (translator, string, error) {
	base := path.Join(lang, "LC_MESSAGES", Domain)

	if data, err := fs.ReadFile(fsys, base+".mo"); err == nil {
		mo := gotext.NewMo()
		mo.Parse(data)
		return mo, base + ".mo", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("ошибка чтения %s.mo: %w", base, err)
	}

	if data, err := fs.ReadFile(fsys, base+".po"); err == nil {
		po := gotext.NewPo()
		po.Parse(data)
		return po, base + ".po", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("ошибка чтения %s.po: %w", base, err)
	}

	return nil, "", nil
}

// Languages возвращает доступные языки, первым — язык по умолчанию.
func (b *Bundle) Languages() []string {
	return append([]string(nil), b.langs...)
}

// DefaultLanguage возвращает язык по умолчанию.
func (b *Bundle) DefaultLanguage() string {
	return b.defaultLang
}

// Has сообщает, поддерживается ли язык.
func (b *Bundle) Has(lang string) bool {
	for _, l := range b.langs {
		if l == lang {
			return true
		}
	}
	return false
}

// Match подбирает загруженный язык по language_code из Telegram (например, ru-RU).
func (b *Bundle) Match(code string) string {
	if code == "" {
		return b.defaultLang
	}
	tag, err := language.Parse(code)
	if err != nil {
		return b.defaultLang
	}
	_, idx, conf := b.matcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(b.langs) {
		return b.defaultLang
	}
	return b.langs[idx]
}

// For возвращает Localizer для языка. Неизвестный язык — язык по умолчанию.
func (b *Bundle) For(lang string) *Localizer {
	if !b.Has(lang) {
		lang = b.defaultLang
	}
	l := &Localizer{lang: lang, primary: b.catalogs[lang]}
	if lang != b.defaultLang {
		l.fallback = b.catalogs[b.defaultLang]
	}
	return l
}

// Localizer переводит строки для одного языка.
type Localizer struct {
	lang     string
	primary  translator
	fallback translator
}

// Lang возвращает язык локализатора.
func (l *Localizer) Lang() string {
	return l.lang
}

// T переводит msgid.
func (l *Localizer) T(msgid string) string {
	for _, tr := range []translator{l.primary, l.fallback} {
		if tr == nil {
			continue
		}
		if s := tr.Get(msgid); s != msgid && s != "" {
			return s
		}
	}
	return msgid
}

// Tf переводит msgid и форматирует результат через fmt.Sprintf.
func (l *Localizer) Tf(msgid string, args ...any) string {
	return fmt.Sprintf(l.T(msgid), args...)
}

// Tn выбирает форму множественного числа по n. Если переданы args,
// результат форматируется через fmt.Sprintf.
func (l *Localizer) Tn(singular, plural string, n int, args ...any) string {
	s := l.plural(singular, plural, n)
	if len(args) == 0 {
		return s
	}
	return fmt.Sprintf(s, args...)
}

func (l *Localizer) plural(singular, plural string, n int) string {
	for _, tr := range []translator{l.primary, l.fallback} {
		if tr == nil {
			continue
		}
		if s := tr.GetN(singular, plural, n); s != "" && s != singular && s != plural {
			return s
		}
	}
	if n == 1 {
		return singular
	}
	return plural
}
