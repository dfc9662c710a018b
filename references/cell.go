package references

import (
	"regexp"
	"strings"

	"github.com/tsawler/tabcite/model"
)

// Glyphs used for boolean cells.
const (
	CrossMark = "✗"
	CheckMark = "✓"
)

// colors is the closed set of color annotations that leak into cell text.
const colors = `((alice)?blue|black|(mid)?gr[ae]y|red|(dark)?green|tablewhite|tableblue)`

var (
	// trailing annotation: a color followed by "!NN" or directly by a glyph,
	// which is kept.
	colorAnnotation = regexp.MustCompile(colors + `(?:!\d\d?|(?P<glyph>[✗✓]))`)
	leadingColor    = regexp.MustCompile(`^` + colors)
	positioning     = regexp.MustCompile(`\[[cl]\]`)
	fontSize        = regexp.MustCompile(`^\d\d+em`)
	notApplicable   = regexp.MustCompile(`(N/A|none)`)
)

// ProcessCell normalizes the text of a cell or column header.
func ProcessCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "’", "'")

	switch s {
	case "X":
		s = CrossMark
	case "tablered":
		s = "no"
	}
	s = strings.ReplaceAll(s, "✔", CheckMark)
	if s == "tablegreen" {
		s = "yes"
	}

	s = colorAnnotation.ReplaceAllString(s, "${glyph}")
	s = leadingColor.ReplaceAllString(s, "")
	s = positioning.ReplaceAllString(s, "")
	s = fontSize.ReplaceAllString(s, "")
	s = notApplicable.ReplaceAllString(s, model.Dash)

	s = strings.TrimSpace(s)
	if s == "" {
		return model.Dash
	}
	return s
}

// ProcessTable applies [ProcessCell] to every header and value.
func ProcessTable(ct model.ColumnTable) model.ColumnTable {
	out := make(model.ColumnTable, len(ct))
	for j, c := range ct {
		values := make([]string, len(c.Values))
		for i, v := range c.Values {
			values[i] = ProcessCell(v)
		}
		out[j] = model.Column{Name: ProcessCell(c.Name), Values: values}
	}
	return out
}
