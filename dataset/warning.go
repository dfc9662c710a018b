package dataset

import "fmt"

// WarningKind classifies a non-fatal problem met while building a dataset.
type WarningKind string

const (
	// WarnSkippedTable means a table could not be parsed, reconstructed or
	// mapped and was left out.
	WarnSkippedTable WarningKind = "skipped_table"
	// WarnMissingBib means a mapped row's key has no bibliographic entry.
	// The table is still emitted.
	WarnMissingBib WarningKind = "missing_bib"
)

// Warning describes one skipped table or unresolved key.
type Warning struct {
	Kind      WarningKind
	PaperID   string
	TableHash string
	// Key is the unresolved bibliographic key of a WarnMissingBib.
	Key string
	Err error
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnMissingBib:
		return fmt.Sprintf("%s: table %s: no entry for %s", w.Kind, w.TableHash, w.Key)
	default:
		return fmt.Sprintf("%s: table %s: %v", w.Kind, w.TableHash, w.Err)
	}
}

// Unwrap returns the underlying error, if any.
func (w Warning) Unwrap() error {
	return w.Err
}

// Count returns how many warnings are of the given kind.
func Count(ws []Warning, kind WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
