package references

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tsawler/tabcite/model"
)

// OldReferencesColumn is the name given to a pre-existing References column
// that would collide with the extracted one.
const OldReferencesColumn = "References_OLD"

// NoCitePrefix starts the synthetic identifier of a row without a citation.
const NoCitePrefix = "no_cite-"

// CiteMarker matches an inline citation marker and captures its short key.
var CiteMarker = regexp.MustCompile(`\{\{cite:([a-f\d]{7})\}\}`)

const citePrefix = "{{cite:"

// Postprocess turns a freshly reconstructed table into its final form: tables
// with citations in the header are transposed, every cell is normalized and
// the citation column is split out. It returns the name of the column the
// citations were taken from.
func Postprocess(ct model.ColumnTable) (model.ColumnTable, string) {
	if CitedHeader(ct) {
		if t, ok := Transpose(ct); ok {
			ct = t
		}
	}
	ct = ProcessTable(ct)
	return SplitReferences(ct)
}

// CitedHeader reports whether any column name carries a citation marker.
func CitedHeader(ct model.ColumnTable) bool {
	return strings.Contains(strings.Join(ct.Names(), " "), citePrefix)
}

// Transpose swaps rows and columns around the first column: its values become
// the new header and every other column becomes a row. It reports false, and
// leaves the table alone, when the first column's name also appears among its
// values; transposing such a table back would give the same table.
func Transpose(ct model.ColumnTable) (model.ColumnTable, bool) {
	if len(ct) == 0 {
		return ct, false
	}
	first := ct[0]
	for _, v := range first.Values {
		if v == first.Name {
			return ct, false
		}
	}

	header := append([]string{first.Name}, first.Values...)
	rows := make([][]string, 0, len(ct)-1)
	for _, c := range ct[1:] {
		rows = append(rows, append([]string{c.Name}, c.Values...))
	}
	return model.NewColumnTable(header, rows), true
}

// CiteCount returns how many values carry a citation marker.
func CiteCount(values []string) int {
	n := 0
	for _, v := range values {
		if CiteMarker.MatchString(v) {
			n++
		}
	}
	return n
}

// SourceColumn returns the position of the column with the most cited
// values. Ties go to the leftmost column; a table without citations yields 0.
func SourceColumn(ct model.ColumnTable) int {
	src, best := 0, -1
	for j, c := range ct {
		if n := CiteCount(c.Values); n > best {
			src, best = j, n
		}
	}
	return src
}

// SplitReferences moves the citations of the most cited column into a leading
// References column. Rows without a citation get a "no_cite-<n>" identifier.
// When nothing but dashes would be left behind, the source column itself is
// renamed to References instead. The returned name is the column the
// citations came from.
func SplitReferences(ct model.ColumnTable) (model.ColumnTable, string) {
	if len(ct) == 0 {
		return ct, ""
	}

	src := SourceColumn(ct)
	name := ct[src].Name

	// same-named columns are read as one
	var same []int
	for j, c := range ct {
		if c.Name == name {
			same = append(same, j)
		}
	}
	values := ct[src].Values
	if len(same) > 1 {
		values = make([]string, ct.RowCount())
		for i := range values {
			var sb strings.Builder
			for _, j := range same {
				sb.WriteString(ct[j].Values[i])
			}
			values[i] = sb.String()
		}
	}

	refs := make([]string, len(values))
	residual := make([]string, len(values))
	noCite := 0
	for i, v := range values {
		marker := CiteMarker.FindString(v)
		if marker == "" {
			refs[i] = fmt.Sprintf("%s%d", NoCitePrefix, noCite)
			residual[i] = v
			noCite++
			continue
		}
		refs[i] = marker
		rest := strings.TrimSpace(strings.ReplaceAll(v, marker, ""))
		if rest == "" {
			rest = model.Dash
		}
		residual[i] = rest
	}

	out := ct.Clone()
	isSame := make(map[int]bool, len(same))
	for _, j := range same {
		isSame[j] = true
	}

	if !allDash(residual) {
		old := name
		if name == model.ReferencesColumn {
			old = OldReferencesColumn
		}
		for j := range out {
			if isSame[j] {
				out[j].Name = old
				out[j].Values = append([]string(nil), residual...)
			} else if out[j].Name == model.ReferencesColumn {
				out[j].Name = OldReferencesColumn
			}
		}
		refCol := model.Column{Name: model.ReferencesColumn, Values: refs}
		return append(model.ColumnTable{refCol}, out...), old
	}

	for j := range out {
		if j != src && out[j].Name == model.ReferencesColumn {
			out[j].Name = OldReferencesColumn
		}
	}
	moved := out[src]
	moved.Name = model.ReferencesColumn
	reordered := make(model.ColumnTable, 0, len(out))
	reordered = append(reordered, moved)
	reordered = append(reordered, out[:src]...)
	reordered = append(reordered, out[src+1:]...)
	return reordered, name
}

func allDash(values []string) bool {
	for _, v := range values {
		if v != model.Dash {
			return false
		}
	}
	return true
}
