package tables

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tsawler/tabcite/markup"
	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/references"
)

var (
	// ErrEmptyTable is returned when no row of the grid holds any text.
	ErrEmptyTable = errors.New("tables: reconstructed table is empty")

	// ErrRowSpanOutOfRange is returned when a multi-row cell reaches past
	// the last row.
	ErrRowSpanOutOfRange = errors.New("tables: row span exceeds table")
)

var (
	// "<d>*text" spreads text over d rows
	rowSpanMarker = regexp.MustCompile(`(?s)^\s*(\d)\*(.+)`)
	ruleMarker    = regexp.MustCompile(`\(r\)\d-\d`)
)

// Config holds reconstruction settings
type Config struct {
	// FigureMarker marks a cell that embeds a figure. Rows with such a cell
	// are kept out of the grid.
	FigureMarker string

	// Postprocess normalizes cells and extracts the References column. When
	// false, TableDict holds the raw grid columns.
	Postprocess bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		FigureMarker: "{{figure:",
		Postprocess:  true,
	}
}

// Reconstructor turns parsed markup into a rectangular table.
type Reconstructor struct {
	config Config
}

// NewReconstructor creates a reconstructor with the default configuration
func NewReconstructor() *Reconstructor {
	return &Reconstructor{config: DefaultConfig()}
}

// Configure sets reconstruction parameters
func (r *Reconstructor) Configure(config Config) error {
	if config.FigureMarker == "" {
		return fmt.Errorf("tables: figure marker must not be empty")
	}
	r.config = config
	return nil
}

// Reconstruct runs the default reconstructor.
func Reconstruct(tree *markup.Tree) (*model.TableJSON, error) {
	return NewReconstructor().Reconstruct(tree)
}

type rowKind int

const (
	dataRow rowKind = iota
	headerRow
	incompleteRow
)

// foldState is carried from one row to the next while classifying.
type foldState struct {
	seenCites  bool
	headerRows []int
}

func (s foldState) lastHeader() int {
	h := -1
	for _, i := range s.headerRows {
		h = max(h, i)
	}
	return h
}

// classify decides how row idx is handled. A row may be recorded as a header
// and still be kept out of the grid when it embeds a figure.
func (r *Reconstructor) classify(s foldState, idx int, row markup.Row, numCols int) (foldState, rowKind) {
	cites := row.CitationCells()
	if cites > 0 {
		s.seenCites = true
	}

	header := cites == 0 && idx <= 1 && !s.seenCites
	short := len(row.Cells) < numCols

	kind := dataRow
	switch {
	case short && !s.seenCites:
		header = true
	case short || r.hasFigure(row):
		kind = incompleteRow
	}

	if header {
		s.headerRows = append(s.headerRows, idx)
		if kind == dataRow {
			kind = headerRow
		}
	}
	return s, kind
}

func (r *Reconstructor) hasFigure(row markup.Row) bool {
	for _, c := range row.Cells {
		if strings.Contains(c.Text, r.config.FigureMarker) {
			return true
		}
	}
	return false
}

// Reconstruct builds the grid, merges header rows and derives the column
// table. On failure it returns a nil table together with ErrEmptyTable or
// ErrRowSpanOutOfRange.
func (r *Reconstructor) Reconstruct(tree *markup.Tree) (*model.TableJSON, error) {
	rows := tree.Rows()
	numCols := tree.ColumnCount()
	grid := model.NewGrid(len(rows), numCols)

	result := &model.TableJSON{IncompleteRows: []model.IncompleteRow{}}

	var state foldState
	for idx, row := range rows {
		var kind rowKind
		state, kind = r.classify(state, idx, row, numCols)

		if kind == incompleteRow {
			result.IncompleteRows = append(result.IncompleteRows, model.IncompleteRow{
				RowIdx: idx,
				Cells:  row.Texts(),
			})
			continue
		}

		if err := fillRow(grid, idx, row, kind == headerRow); err != nil {
			return nil, err
		}
	}

	for i := 0; i < state.lastHeader() && len(grid) > 1; i++ {
		grid = mergeRows(grid, 0, 1)
	}

	grid = dropEmptyRows(grid)
	if len(grid) == 0 {
		return nil, ErrEmptyTable
	}
	result.Table = grid

	ct := model.NewColumnTable(grid[0], grid[1:])
	if r.config.Postprocess {
		var old string
		ct, old = references.Postprocess(ct)
		result.OldCitationColumn = &old
	}
	result.TableDict = ct

	return result, nil
}

// fillRow writes each cell into every grid position it spans. A position
// that already holds text is left alone.
func fillRow(grid model.Grid, idx int, row markup.Row, header bool) error {
	col := 0
	for _, cell := range row.Cells {
		for off := 0; off < cell.ColSpan; off++ {
			c := col + off
			text := cell.Text

			if m := rowSpanMarker.FindStringSubmatch(text); m != nil {
				count := int(m[1][0] - '0')
				text = m[2]
				for down := 1; down < count; down++ {
					if idx+down >= len(grid) {
						return fmt.Errorf("%w: row %d spans %d rows", ErrRowSpanOutOfRange, idx, count)
					}
					grid[idx+down][c] += strings.TrimSpace(text)
				}
			}

			text = strings.TrimSpace(ruleMarker.ReplaceAllString(text, ""))

			if grid[idx][c] != "" {
				continue
			}
			if isEmptyToken(text) && !header {
				text = model.Dash
			}
			grid[idx][c] = text
		}
		col += cell.ColSpan
	}
	return nil
}

func isEmptyToken(s string) bool {
	return strings.ToLower(s) == "n/a" || s == "" || s == "\u2216"
}

// mergeRows folds row j into row i and removes row j.
func mergeRows(grid model.Grid, i, j int) model.Grid {
	merged := make([]string, len(grid[i]))
	for c := range grid[i] {
		a, b := grid[i][c], grid[j][c]
		switch {
		case a == b || strings.TrimSpace(b) == "":
			merged[c] = a
		case strings.TrimSpace(a) == "":
			merged[c] = b
		default:
			merged[c] = a + "-" + b
		}
	}
	grid[i] = merged
	return append(grid[:j], grid[j+1:]...)
}

func dropEmptyRows(grid model.Grid) model.Grid {
	out := grid[:0]
	for _, row := range grid {
		for _, v := range row {
			if v != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
