package predicate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tsawler/tabcite/markup"
)

// ErrUnknownPredicate is returned when a predicate name is not registered.
var ErrUnknownPredicate = errors.New("predicate: unknown predicate")

const minCites = 2

// FloatPattern matches a decimal-number token.
var FloatPattern = regexp.MustCompile(`\.\d`)

// FigurePlaceholder marks an embedded figure in cell text.
const FigurePlaceholder = "{{figure"

// NotTooLong accepts trees whose serialized length is below limit.
func NotTooLong(limit int) Func {
	return func(t *markup.Tree) bool {
		return t.Len() < limit
	}
}

// LengthWithin accepts trees whose serialized length is strictly between
// lower and upper.
func LengthWithin(lower, upper int) Func {
	return func(t *markup.Tree) bool {
		n := t.Len()
		return lower < n && n < upper
	}
}

func HasRows(t *markup.Tree) bool {
	return len(t.Rows()) > 0
}

func HasTableCells(t *markup.Tree) bool {
	return t.Doc().Find(markup.TagCell).Length() > 0
}

// HasCites accepts any citation element or an "et al" mention.
func HasCites(t *markup.Tree) bool {
	return t.Doc().Find(markup.TagCitation).Length() > 0 || strings.Contains(t.Text(), "et al")
}

func HasAtLeast2Cites(t *markup.Tree) bool {
	return t.Doc().Find(markup.TagCitation).Length() >= minCites
}

// HasMax2SubTables counts every table element, the outermost included.
func HasMax2SubTables(t *markup.Tree) bool {
	return t.Doc().Find(markup.TagTable).Length() <= 2
}

func HasAtLeast2Cols(t *markup.Tree) bool {
	return t.ColumnCount() >= 2 && len(t.Rows()) >= 2
}

func HasAtLeast2Rows(t *markup.Tree) bool {
	return len(t.Rows()) >= 2
}

// HasNoFloats rejects trees with a decimal number in any cell or paragraph.
func HasNoFloats(t *markup.Tree) bool {
	return !anyBlockText(t, func(s string) bool {
		return FloatPattern.MatchString(s)
	})
}

// HasNoFigures rejects trees with a figure placeholder in any cell or paragraph.
func HasNoFigures(t *markup.Tree) bool {
	return !anyBlockText(t, func(s string) bool {
		return strings.Contains(s, FigurePlaceholder)
	})
}

func HasX(t *markup.Tree) bool {
	return strings.Contains(t.Text(), "✗")
}

// HasCitesInRowsOrCols accepts a tree when any non-blank row, or else any
// column position, holds at least two citation cells. Columns are taken by
// cell position and ignore column spans.
func HasCitesInRowsOrCols(t *markup.Tree) bool {
	rows := t.Rows()

	maxCells := 0
	for _, row := range rows {
		if row.IsBlank() {
			continue
		}
		maxCells = max(maxCells, len(row.Cells))
		if row.CitationCells() >= minCites {
			return true
		}
	}

	for col := 0; col < maxCells; col++ {
		n := 0
		for _, row := range rows {
			if col < len(row.Cells) && row.Cells[col].HasCitation() {
				n++
			}
		}
		if n >= minCites {
			return true
		}
	}
	return false
}

// HasCitesInFirstRowOrCol is the strict variant that only looks at the first
// non-blank row and the first column.
func HasCitesInFirstRowOrCol(t *markup.Tree) bool {
	rows := t.Rows()

	for _, row := range rows {
		if row.IsBlank() {
			continue
		}
		if row.CitationCells() >= minCites {
			return true
		}
		break
	}

	n := 0
	for _, row := range rows {
		if len(row.Cells) > 0 && row.Cells[0].HasCitation() {
			n++
		}
	}
	return n >= minCites
}

// HasMaxOneCitePerCell rejects the whole tree if any cell cites more than once.
func HasMaxOneCitePerCell(t *markup.Tree) bool {
	for _, row := range t.Rows() {
		for _, cell := range row.Cells {
			if len(cell.Citations) > 1 {
				return false
			}
		}
	}
	return true
}

func anyBlockText(t *markup.Tree, match func(string) bool) bool {
	found := false
	for _, sel := range []string{markup.TagCell, "p"} {
		t.Doc().Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if text := s.Text(); text != "" && match(text) {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}
