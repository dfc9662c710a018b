package tabcite

import (
	"fmt"
	"strings"

	"github.com/tsawler/tabcite/dataset"
)

// Warning is a non-fatal problem met while processing: a skipped table or
// an unresolved bibliographic key.
type Warning = dataset.Warning

// FormatWarnings summarizes warnings in one line per kind, followed by
// each warning.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	skipped := dataset.Count(warnings, dataset.WarnSkippedTable)
	missing := dataset.Count(warnings, dataset.WarnMissingBib)
	fmt.Fprintf(&sb, "%d skipped tables, %d unresolved keys", skipped, missing)
	for _, w := range warnings {
		sb.WriteString("\n  ")
		sb.WriteString(w.String())
	}
	return sb.String()
}
