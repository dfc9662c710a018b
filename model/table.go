package model

import (
	"strings"
)

// Dash is the placeholder written into cells that carry no value.
const Dash = "-"

// ReferencesColumn is the name of the dedicated citation column.
const ReferencesColumn = "References"

// Grid is a rectangular matrix of cell strings, indexed [row][col].
type Grid [][]string

// NewGrid creates an empty grid with the given dimensions
func NewGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for i := range g {
		g[i] = make([]string, cols)
	}
	return g
}

// RowCount returns the number of rows
func (g Grid) RowCount() int {
	return len(g)
}

// ColCount returns the number of columns in the first row
func (g Grid) ColCount() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// ToMarkdown converts the grid to markdown format, treating row 0 as the header.
func (g Grid) ToMarkdown() string {
	if len(g) == 0 {
		return ""
	}

	var sb strings.Builder

	writeRow := func(row []string) {
		for j, cell := range row {
			sb.WriteString("| ")
			cell = strings.ReplaceAll(cell, "\n", " ")
			sb.WriteString(strings.ReplaceAll(cell, "|", "\\|"))
			sb.WriteString(" ")
			if j == len(row)-1 {
				sb.WriteString("|")
			}
		}
		sb.WriteString("\n")
	}

	writeRow(g[0])

	// Separator
	for j := range g[0] {
		sb.WriteString("|---")
		if j == len(g[0])-1 {
			sb.WriteString("|")
		}
	}
	sb.WriteString("\n")

	for i := 1; i < len(g); i++ {
		writeRow(g[i])
	}

	return sb.String()
}

// ToCSV converts the grid to CSV format
func (g Grid) ToCSV() string {
	var sb strings.Builder
	for _, row := range g {
		for j, text := range row {
			// Escape quotes and wrap in quotes if necessary
			if strings.Contains(text, ",") || strings.Contains(text, "\"") || strings.Contains(text, "\n") {
				text = "\"" + strings.ReplaceAll(text, "\"", "\"\"") + "\""
			}
			sb.WriteString(text)
			if j < len(row)-1 {
				sb.WriteString(",")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// IncompleteRow is a markup row that could not be placed in the grid.
type IncompleteRow struct {
	RowIdx int      `json:"row_idx"`
	Cells  []string `json:"cells"`
}

// Column is a named, ordered list of cell values.
type Column struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ColumnTable is a column-oriented table. Column names may repeat; each
// occurrence is an independent column.
type ColumnTable []Column

// NewColumnTable builds a column table from a header row and data rows.
// Short data rows are padded with empty strings.
func NewColumnTable(header []string, rows [][]string) ColumnTable {
	ct := make(ColumnTable, len(header))
	for j, name := range header {
		values := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				values[i] = row[j]
			}
		}
		ct[j] = Column{Name: name, Values: values}
	}
	return ct
}

// RowCount returns the number of data rows
func (ct ColumnTable) RowCount() int {
	if len(ct) == 0 {
		return 0
	}
	return len(ct[0].Values)
}

// Names returns the column names in order
func (ct ColumnTable) Names() []string {
	names := make([]string, len(ct))
	for i, c := range ct {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the first column with the given name, or -1.
func (ct ColumnTable) Index(name string) int {
	for i, c := range ct {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the first column with the given name.
func (ct ColumnTable) Lookup(name string) (Column, bool) {
	if i := ct.Index(name); i >= 0 {
		return ct[i], true
	}
	return Column{}, false
}

// References returns the values of the References column, or nil.
func (ct ColumnTable) References() []string {
	col, ok := ct.Lookup(ReferencesColumn)
	if !ok {
		return nil
	}
	return col.Values
}

// Row returns the values of row i across all columns.
func (ct ColumnTable) Row(i int) []string {
	row := make([]string, len(ct))
	for j, c := range ct {
		if i < len(c.Values) {
			row[j] = c.Values[i]
		}
	}
	return row
}

// Clone returns a deep copy
func (ct ColumnTable) Clone() ColumnTable {
	if ct == nil {
		return nil
	}
	out := make(ColumnTable, len(ct))
	for i, c := range ct {
		out[i] = Column{Name: c.Name, Values: append([]string(nil), c.Values...)}
	}
	return out
}

// WithoutRows returns a copy with the given row indexes removed. Remaining
// rows keep their relative order.
func (ct ColumnTable) WithoutRows(remove map[int]bool) ColumnTable {
	out := make(ColumnTable, len(ct))
	for j, c := range ct {
		values := make([]string, 0, len(c.Values))
		for i, v := range c.Values {
			if !remove[i] {
				values = append(values, v)
			}
		}
		out[j] = Column{Name: c.Name, Values: values}
	}
	return out
}

// Grid renders the table as a grid whose first row holds the column names.
func (ct ColumnTable) Grid() Grid {
	g := make(Grid, 0, ct.RowCount()+1)
	g = append(g, ct.Names())
	for i := 0; i < ct.RowCount(); i++ {
		g = append(g, ct.Row(i))
	}
	return g
}

// TableJSON is the reconstructed form of one table.
type TableJSON struct {
	Table             Grid            `json:"table"`
	IncompleteRows    []IncompleteRow `json:"incomplete_rows"`
	OldCitationColumn *string         `json:"old_citation_column"`
	TableDict         ColumnTable     `json:"table_dict"`
}
