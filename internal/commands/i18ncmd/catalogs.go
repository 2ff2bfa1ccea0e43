package i18ncmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/oddava/finance-tracker/internal/gettext"
)

func extract(_ context.Context, e *env, out string, paths ...string) error {
	messages, err := gettext.Extract(e.cfg, e.root, paths...)
	if err != nil {
		return fmt.Errorf("extract messages: %w", err)
	}

	tmpl := gettext.NewTemplate(e.cfg, messages, time.Now())
	if err := gettext.WritePOFile(out, tmpl, gettext.WriteOptions{}); err != nil {
		return fmt.Errorf("write template: %w", err)
	}

	slog.Info("Template written",
		slog.String("path", relPath(e.root, out)),
		slog.Int("messages", len(messages)),
	)
	return nil
}

func initCatalog(_ context.Context, e *env, lang string) error {
	tmpl, err := gettext.ReadPOFile(e.templatePath())
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	path := gettext.CatalogPath(e.dir, lang, e.cfg.Domain, ".po")
	cat := gettext.InitCatalog(tmpl, lang, time.Now())
	if err := gettext.WritePOFile(path, cat, gettext.WriteOptions{}); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	slog.Info("Catalog created",
		slog.String("lang", lang),
		slog.String("path", relPath(e.root, path)),
	)
	return nil
}

func update(ctx context.Context, e *env, opts gettext.MergeOptions, langs ...string) error {
	tmpl, err := gettext.ReadPOFile(e.templatePath())
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	files, err := gettext.FindCatalogs(e.dir, e.cfg.Domain, langs...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Warn("No catalogs found", slog.String("dir", relPath(e.root, e.dir)))
		return nil
	}

	for _, f := range files {
		if !gettext.Exists(f.PO) {
			slog.Info("Catalog is missing, creating it", slog.String("lang", f.Lang))
			if err := initCatalog(ctx, e, f.Lang); err != nil {
				return err
			}
			continue
		}

		po, err := gettext.ReadPOFile(f.PO)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		merged, stats := gettext.Merge(tmpl, po, opts)
		if err := gettext.WritePOFile(f.PO, merged, gettext.WriteOptions{OmitObsolete: opts.IgnoreObsolete}); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}

		slog.Info("Catalog updated",
			slog.String("lang", f.Lang),
			slog.Int("kept", stats.Kept),
			slog.Int("added", stats.Added),
			slog.Int("fuzzy", stats.Fuzzy),
			slog.Int("obsolete", stats.Obsolete),
		)
	}
	return nil
}

// compile компилирует каталоги в MO. Каталог с ошибками пропускается,
// ошибки всех каталогов возвращаются вместе.
func compile(_ context.Context, e *env, opts gettext.CompileOptions, statistics bool, langs ...string) error {
	files, err := gettext.FindCatalogs(e.dir, e.cfg.Domain, langs...)
	if err != nil {
		return err
	}

	var errs []error
	for _, f := range files {
		po, err := gettext.ReadPOFile(f.PO)
		if err != nil {
			errs = append(errs, fmt.Errorf("read catalog %s: %w", f.Lang, err))
			continue
		}

		if statistics {
			st := gettext.Stats(po)
			slog.Info("Catalog statistics",
				slog.String("lang", f.Lang),
				slog.Int("translated", st.Translated),
				slog.Int("fuzzy", st.Fuzzy),
				slog.Int("untranslated", st.Untranslated),
				slog.String("complete", fmt.Sprintf("%.0f%%", st.Percent())),
			)
		}

		if err := gettext.Check(po); err != nil {
			errs = append(errs, fmt.Errorf("catalog %s: %w", f.Lang, err))
			continue
		}

		n, err := gettext.WriteMOFile(f.MO, po, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("compile catalog %s: %w", f.Lang, err))
			continue
		}
		slog.Info("Catalog compiled",
			slog.String("lang", f.Lang),
			slog.String("path", relPath(e.root, f.MO)),
			slog.Int("messages", n),
		)
	}
	return errors.Join(errs...)
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
