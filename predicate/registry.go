package predicate

import (
	"fmt"
	"sort"

	"github.com/tsawler/tabcite/markup"
	"github.com/tsawler/tabcite/model"
)

// Func is a pure check over a parsed table.
type Func func(t *markup.Tree) bool

// Predicate is a named table check.
type Predicate struct {
	Name  string
	Check Func
}

// Registry holds named predicates
type Registry struct {
	predicates map[string]Predicate
}

// NewRegistry creates an empty predicate registry
func NewRegistry() *Registry {
	return &Registry{
		predicates: make(map[string]Predicate),
	}
}

// Register adds a predicate, replacing any predicate with the same name
func (r *Registry) Register(name string, fn Func) {
	r.predicates[name] = Predicate{Name: name, Check: fn}
}

// Get retrieves a predicate by name
func (r *Registry) Get(name string) (Predicate, bool) {
	p, ok := r.predicates[name]
	return p, ok
}

// List returns all registered predicate names in sorted order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up the named predicates, keeping the given order.
func (r *Registry) Resolve(names []string) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(names))
	for _, name := range names {
		p, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// Global registry
var globalRegistry = NewRegistry()

// RegisterPredicate registers a predicate globally
func RegisterPredicate(name string, fn Func) {
	globalRegistry.Register(name, fn)
}

// GetPredicate retrieves a globally registered predicate by name
func GetPredicate(name string) (Predicate, bool) {
	return globalRegistry.Get(name)
}

// ListPredicates returns all globally registered predicate names
func ListPredicates() []string {
	return globalRegistry.List()
}

// Resolve looks up globally registered predicates by name.
func Resolve(names []string) ([]Predicate, error) {
	return globalRegistry.Resolve(names)
}

// Label runs every predicate and records each result.
func Label(t *markup.Tree, preds []Predicate) model.Labels {
	labels := make(model.Labels, len(preds))
	for _, p := range preds {
		labels[p.Name] = p.Check(t)
	}
	return labels
}

// Filter runs the predicates in order and stops at the first failure. It
// returns the name of the failing predicate, or "" when all pass.
func Filter(t *markup.Tree, preds []Predicate) (bool, string) {
	for _, p := range preds {
		if !p.Check(t) {
			return false, p.Name
		}
	}
	return true, ""
}

// FilterLabels applies a predicate subset to previously computed labels. A
// name missing from the labels counts as failed.
func FilterLabels(labels model.Labels, names []string) (bool, string) {
	for _, name := range names {
		if !labels[name] {
			return false, name
		}
	}
	return true, ""
}

func init() {
	RegisterPredicate("not_too_long_15e3", NotTooLong(15000))
	RegisterPredicate("not_too_long_5e3", NotTooLong(5000))
	RegisterPredicate("not_too_long_or_short", LengthWithin(398, 15000))
	RegisterPredicate("has_rows", HasRows)
	RegisterPredicate("has_table_cells", HasTableCells)
	RegisterPredicate("has_cites", HasCites)
	RegisterPredicate("has_at_least_2_cites", HasAtLeast2Cites)
	RegisterPredicate("has_max_2_sub_tables", HasMax2SubTables)
	RegisterPredicate("has_at_least_2_cols", HasAtLeast2Cols)
	RegisterPredicate("has_at_least_2_rows", HasAtLeast2Rows)
	RegisterPredicate("has_no_floats", HasNoFloats)
	RegisterPredicate("has_no_figures", HasNoFigures)
	RegisterPredicate("has_x", HasX)
	RegisterPredicate("has_cites_in_rows_or_cols", HasCitesInRowsOrCols)
	RegisterPredicate("has_cites_in_first_row_or_col", HasCitesInFirstRowOrCol)
	RegisterPredicate("has_max_one_cite_per_cell", HasMaxOneCitePerCell)
}

// DefaultLabels is the predicate set computed by the label stage.
var DefaultLabels = []string{
	"not_too_long_15e3",
	"not_too_long_or_short",
	"has_table_cells",
	"has_at_least_2_cites",
	"has_max_2_sub_tables",
	"has_at_least_2_cols",
	"has_at_least_2_rows",
	"has_no_floats",
	"has_no_figures",
	"has_cites_in_rows_or_cols",
	"has_cites_in_first_row_or_col",
	"has_max_one_cite_per_cell",
}

// DefaultFilters is the predicate subset the assemble stage requires.
var DefaultFilters = []string{
	"has_cites_in_rows_or_cols",
	"has_at_least_2_cites",
	"not_too_long_or_short",
	"has_at_least_2_cols",
	"has_max_2_sub_tables",
	"has_at_least_2_rows",
	"has_table_cells",
}
