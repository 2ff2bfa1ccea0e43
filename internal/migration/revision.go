// Package migration creates new SQL revision files for golang-migrate.
package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

var (
	ErrEmptyMessage = errors.New("revision message is empty")

	revisionFileRe = regexp.MustCompile(`^(\d+)_.+\.(up|down)\.sql$`)
)

const sequenceWidth = 6

// Revision describes a freshly created pair of migration files.
type Revision struct {
	Version  uint64
	Name     string
	UpPath   string
	DownPath string
}

// CreateRevision writes empty up/down files with the next sequence number into dir.
func CreateRevision(dir, message string, now time.Time) (*Revision, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations dir: %w", err)
	}

	last, err := LatestVersion(dir)
	if err != nil {
		return nil, err
	}
	version := last + 1

	name := fmt.Sprintf("%0*d_%s", sequenceWidth, version, revisionSlug(message))
	rev := &Revision{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(dir, name+".up.sql"),
		DownPath: filepath.Join(dir, name+".down.sql"),
	}

	header := revisionHeader(version, message, now)
	if err := writeExclusive(rev.UpPath, header+"\n-- +up\n"); err != nil {
		return nil, err
	}
	if err := writeExclusive(rev.DownPath, header+"\n-- +down\n"); err != nil {
		_ = os.Remove(rev.UpPath)
		return nil, err
	}

	return rev, nil
}

// LatestVersion returns the highest sequence number found in dir (0 if none).
func LatestVersion(dir string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migrations dir: %w", err)
	}

	var last uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := revisionFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse version of %s: %w", e.Name(), err)
		}
		if v > last {
			last = v
		}
	}
	return last, nil
}

func revisionSlug(message string) string {
	s := strings.ReplaceAll(slug.Make(message), "-", "_")
	if s == "" {
		return "revision"
	}
	return s
}

func revisionHeader(version uint64, message string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Revision: %0*d\n", sequenceWidth, version)
	fmt.Fprintf(&b, "-- Message: %s\n", strings.ReplaceAll(message, "\n", " "))
	fmt.Fprintf(&b, "-- Created: %s\n", now.UTC().Format(time.RFC3339))
	return b.String()
}

func writeExclusive(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
