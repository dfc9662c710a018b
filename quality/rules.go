package quality

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tsawler/tabcite/aspect"
	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/predicate"
)

const (
	formulaPlaceholder = "{{formula:"
	noCite             = "no_cite"
)

var (
	numericHeader  = regexp.MustCompile(`^\d+$`)
	andOrComma     = regexp.MustCompile(`and|,`)
	citeForSigning = regexp.MustCompile(`\{\{cite:.{7}\}\}`)
)

// nameHeaders are headers that only repeat who is cited.
var nameHeaders = map[string]bool{
	"reference":        true,
	"author":           true,
	"reference-(5)":    true,
	"author/reference": true,
}

// genericHeaders are headers of bibliographic metadata rather than content.
var genericHeaders = map[string]bool{
	"Venue":                   true,
	"Month":                   true,
	"Year":                    true,
	"No.":                     true,
	"[HTML]D0CECE\nYear":      true,
	"Title":                   true,
	"URL":                     true,
	"[HTML]BBDAFFYear":        true,
	"Link":                    true,
	"Version":                 true,
	"Organiser":               true,
	"Citations":               true,
	"Pub.":                    true,
	"Title of Survey Article": true,
	"License":                 true,
	"Publication":             true,
}

// Always-on rules. They run for every flag list.
var (
	referencesAllDash = tableRule{name: "references_all_dash", fn: func(c *Candidate) bool {
		for _, v := range c.Table.References() {
			if strings.TrimSpace(v) != model.Dash {
				return false
			}
		}
		return true
	}}

	citationOnlyColumn = columnRule{name: "citation_only_column", fn: func(_ *Candidate, col model.Column) bool {
		for _, v := range col.Values {
			if strings.TrimSpace(v) == model.Dash {
				continue
			}
			if !strings.HasPrefix(strings.TrimSpace(andOrComma.ReplaceAllString(v, "")), "{{cite:") {
				return false
			}
		}
		return true
	}}

	numericHeaderColumn = columnRule{name: "numeric_header", fn: func(_ *Candidate, col model.Column) bool {
		return numericHeader.MatchString(col.Name)
	}}
)

func init() {
	// table
	RegisterFilter(tableRule{name: "no_formula", fn: func(c *Candidate) bool {
		return strings.Contains(c.String(), formulaPlaceholder)
	}})
	// Captions are only checked when has_caption is enabled; a run without
	// the flag keeps blank and missing captions.
	RegisterFilter(tableRule{name: "has_caption", fn: func(c *Candidate) bool {
		return !c.Record.HasCaption()
	}})
	RegisterFilter(tableRule{name: "has_in_text_ref", fn: func(c *Candidate) bool {
		return len(c.Record.InTextRef) == 0
	}})
	RegisterFilter(tableRule{name: "no_no_cite", fn: func(c *Candidate) bool {
		return strings.Contains(c.String(), noCite)
	}})
	RegisterFilter(tableRule{name: "max_one_no_cite", fn: func(c *Candidate) bool {
		return strings.Count(c.String(), noCite) > 1
	}})
	RegisterFilter(tableRule{name: "no_merged_headers", fn: func(c *Candidate) bool {
		for _, name := range c.Table.Names() {
			if strings.Contains(name, "-") {
				return true
			}
		}
		return false
	}})
	RegisterFilter(tableRule{name: "no_missing_titles", fn: func(c *Candidate) bool {
		for _, rb := range c.Record.RowBibMap {
			if rb.Title == nil {
				return true
			}
		}
		return false
	}})
	RegisterFilter(tableRule{name: "no_missing_abstracts", fn: func(c *Candidate) bool {
		for _, rb := range c.Record.RowBibMap {
			if rb.Abstract == nil {
				return true
			}
		}
		return false
	}})

	// rows
	RegisterFilter(rowRule{name: "rows_no_missing_titles", fn: func(_ *Candidate, rb model.RowBib) bool {
		return rb.Title == nil
	}})
	RegisterFilter(rowRule{name: "rows_no_missing_abstracts", fn: func(_ *Candidate, rb model.RowBib) bool {
		return rb.Abstract == nil
	}})
	RegisterFilter(fullTextRule{rowRule{name: "rows_no_missing_full_texts", fn: func(c *Candidate, rb model.RowBib) bool {
		return !c.allow.Contains(rb.CorpusID)
	}}})

	// size
	RegisterFilter(sizeRule{name: "more_than_two_rows", fn: func(c *Candidate) bool {
		return c.Table.RowCount()-len(c.removedRows) < 2
	}})
	RegisterFilter(sizeRule{name: "more_than_two_uniq_rows", fn: func(c *Candidate) bool {
		uniq := make(map[string]struct{})
		for _, v := range c.Table.References() {
			uniq[v] = struct{}{}
		}
		return len(uniq)-len(c.removedKeys) < 2
	}})

	// columns
	RegisterFilter(columnRule{name: "cols_no_formula", fn: func(_ *Candidate, col model.Column) bool {
		return anyCell(col, func(s string) bool { return strings.Contains(s, formulaPlaceholder) })
	}})
	RegisterFilter(columnRule{name: "cols_no_formula_colname", fn: func(_ *Candidate, col model.Column) bool {
		return strings.Contains(col.Name, formulaPlaceholder)
	}})
	RegisterFilter(columnRule{name: "cols_no_names", fn: func(_ *Candidate, col model.Column) bool {
		return nameHeaders[cases.Lower(language.Und).String(col.Name)]
	}})
	RegisterFilter(columnRule{name: "col_no_generic", fn: func(_ *Candidate, col model.Column) bool {
		return genericHeaders[col.Name]
	}})
	RegisterFilter(columnRule{name: "cols_no_vague", fn: func(_ *Candidate, col model.Column) bool {
		return IsVague(col.Name)
	}})
	RegisterFilter(columnRule{name: "cols_no_old_citation_col", fn: func(c *Candidate, col model.Column) bool {
		old, ok := c.oldCitationColumn()
		return ok && col.Name == old
	}})
	RegisterFilter(columnRule{name: "cols_no_float", fn: func(_ *Candidate, col model.Column) bool {
		return anyCell(col, predicate.FloatPattern.MatchString)
	}})
	RegisterFilter(columnRule{name: "cols_no_figure", fn: func(_ *Candidate, col model.Column) bool {
		return anyCell(col, func(s string) bool { return strings.Contains(s, predicate.FigurePlaceholder) })
	}})
	RegisterFilter(aspectRule{columnRule{name: "cols_no_numeric", fn: func(_ *Candidate, col model.Column) bool {
		return aspect.Classify(col.Values) == aspect.Numeric
	}}})
	RegisterFilter(aspectRule{columnRule{name: "cols_no_ent_or_gen", fn: func(_ *Candidate, col model.Column) bool {
		return aspect.Classify(col.Values).IsText()
	}}})

	RegisterFilter(dedupFilter{})
}

// anyCell reports whether the header or any value of col satisfies match.
func anyCell(col model.Column, match func(string) bool) bool {
	if match(col.Name) {
		return true
	}
	for _, v := range col.Values {
		if match(v) {
			return true
		}
	}
	return false
}

// Signature is the duplicate-detection fingerprint of a table: every column
// except References, header then values, with citation markers masked.
func Signature(ct model.ColumnTable) string {
	lines := make([]string, 0, len(ct))
	for _, col := range ct {
		if col.Name == model.ReferencesColumn {
			continue
		}
		line := strings.Join(append([]string{col.Name}, col.Values...), "\t")
		lines = append(lines, citeForSigning.ReplaceAllString(line, "[cite]"))
	}
	return strings.Join(lines, "\n")
}
