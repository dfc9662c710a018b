package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tabcite/bibstore"
	"github.com/tsawler/tabcite/format"
	"github.com/tsawler/tabcite/internal/config"
)

// writeLines writes one JSON value per line to path, compressed according
// to its suffix.
func writeLines[T any](path string, values []T) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	w, err := format.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	for _, v := range values {
		if err := w.Write(v); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// stem strips compression and JSON extensions from a file name.
func stem(name string) string {
	base := filepath.Base(name)
	for _, ext := range []string{".gz", ".zlib", ".jsonl", ".json"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// openStore opens the configured bibliographic store. It returns nil when
// none is configured and required is false.
func (a *app) openStore(required bool) (*bibstore.Store, error) {
	if a.cfg.BibDB == "" {
		if required {
			return nil, fmt.Errorf("no bibliographic store configured; use --bib-db or %s", config.EnvBibDB)
		}
		return nil, nil
	}
	return bibstore.Open(a.cfg.BibDB)
}
