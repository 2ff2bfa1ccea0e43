package gettext

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Extract собирает переводимые строки из Go-файлов в paths
// (пути относительно root). Ссылки #: записываются относительно root.
func Extract(cfg *Config, root string, paths ...string) ([]*Message, error) {
	keywords, err := cfg.ParsedKeywords()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	ignored := make(map[string]bool, len(cfg.IgnoreDirs))
	for _, d := range cfg.IgnoreDirs {
		ignored[d] = true
	}

	ex := &extractor{
		root:     root,
		keywords: keywords,
		tag:      cfg.CommentTag,
		fset:     token.NewFileSet(),
		index:    make(map[string]*Message),
	}

	for _, p := range paths {
		start := p
		if !filepath.IsAbs(start) {
			start = filepath.Join(root, p)
		}
		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != start && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || ignored[name]) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
				return nil
			}
			return ex.file(path)
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка извлечения из %s: %w", p, err)
		}
	}

	sort.SliceStable(ex.messages, func(i, j int) bool {
		return referenceLess(ex.messages[i].References[0], ex.messages[j].References[0])
	})
	return ex.messages, nil
}

type extractor struct {
	root     string
	keywords map[string]Keyword
	tag      string
	fset     *token.FileSet

	messages []*Message
	index    map[string]*Message
}

func (ex *extractor) file(path string) error {
	f, err := parser.ParseFile(ex.fset, path, nil, parser.ParseComments)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(ex.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	comments := ex.translatorComments(f)

	ast.Inspect(f, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		kw, ok := ex.keywords[funcName(call.Fun)]
		if !ok {
			return true
		}

		id, ok := stringArg(call, kw.IDArg)
		if !ok || id == "" {
			return true
		}
		plural := ""
		if kw.PluralArg >= 0 {
			if plural, ok = stringArg(call, kw.PluralArg); !ok {
				return true
			}
		}

		line := ex.fset.Position(call.Pos()).Line
		ex.add(&Message{
			ID:                id,
			IDPlural:          plural,
			References:        []string{rel + ":" + strconv.Itoa(line)},
			ExtractedComments: commentsFor(comments, line),
		})
		return true
	})
	return nil
}

func (ex *extractor) add(m *Message) {
	if prev, ok := ex.index[m.Key()]; ok {
		prev.References = appendUnique(prev.References, m.References...)
		prev.ExtractedComments = appendUnique(prev.ExtractedComments, m.ExtractedComments...)
		if prev.IDPlural == "" {
			prev.IDPlural = m.IDPlural
		}
		return
	}
	if m.IsPlural() {
		m.Str = []string{"", ""}
	} else {
		m.Str = []string{""}
	}
	ex.index[m.Key()] = m
	ex.messages = append(ex.messages, m)
}

// translatorComments возвращает комментарии с тегом, по номеру последней строки.
func (ex *extractor) translatorComments(f *ast.File) map[int][]string {
	out := make(map[int][]string)
	if ex.tag == "" {
		return out
	}
	for _, group := range f.Comments {
		text := strings.TrimSpace(group.Text())
		if !strings.HasPrefix(text, ex.tag) {
			continue
		}
		end := ex.fset.Position(group.End()).Line
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out[end] = append(out[end], line)
			}
		}
	}
	return out
}

func commentsFor(comments map[int][]string, line int) []string {
	if c, ok := comments[line-1]; ok {
		return c
	}
	return comments[line]
}

func funcName(expr ast.Expr) string {
	switch fn := expr.(type) {
	case *ast.Ident:
		return fn.Name
	case *ast.SelectorExpr:
		return fn.Sel.Name
	}
	return ""
}

// stringArg возвращает значение строкового литерала (или конкатенации литералов).
func stringArg(call *ast.CallExpr, idx int) (string, bool) {
	if idx >= len(call.Args) {
		return "", false
	}
	return literal(call.Args[idx])
}

func literal(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(e.Value)
		return s, err == nil
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return "", false
		}
		l, ok := literal(e.X)
		if !ok {
			return "", false
		}
		r, ok := literal(e.Y)
		return l + r, ok
	case *ast.ParenExpr:
		return literal(e.X)
	}
	return "", false
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

func referenceLess(a, b string) bool {
	fa, la := splitReference(a)
	fb, lb := splitReference(b)
	if fa != fb {
		return fa < fb
	}
	return la < lb
}

func splitReference(ref string) (string, int) {
	i := strings.LastIndexByte(ref, ':')
	if i < 0 {
		return ref, 0
	}
	n, _ := strconv.Atoi(ref[i+1:])
	return ref[:i], n
}
