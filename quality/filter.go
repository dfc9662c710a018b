package quality

import (
	"errors"
	"sort"

	"github.com/tsawler/tabcite/model"
)

var (
	// ErrUnknownFilter is returned for a flag that names no registered filter.
	ErrUnknownFilter = errors.New("quality: unknown filter")

	// ErrMissingAllowList is returned when a filter needs the full-text
	// allow-list and none was supplied.
	ErrMissingAllowList = errors.New("quality: filter requires a full-text allow-list")
)

// Filter is a named quality rule. Concrete filters also implement one of
// TableFilter, RowFilter, SizeFilter or ColumnFilter, which decides the
// stage they run in.
type Filter interface {
	Name() string
}

// TableFilter rejects whole tables before any row or column is touched.
type TableFilter interface {
	Filter
	RejectTable(c *Candidate) bool
}

// RowFilter removes individual mapped rows.
type RowFilter interface {
	Filter
	RemoveRow(c *Candidate, row model.RowBib) bool
}

// SizeFilter rejects tables left too small after row removal.
type SizeFilter interface {
	Filter
	RejectSize(c *Candidate) bool
}

// ColumnFilter drops columns. The References column is never offered.
type ColumnFilter interface {
	Filter
	DropColumn(c *Candidate, col model.Column) bool
}

// AllowList holds the corpus ids that have a full text.
type AllowList interface {
	Contains(corpusID int64) bool
}

// IDSet is an in-memory AllowList.
type IDSet map[int64]struct{}

// Contains implements AllowList.
func (s IDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// needsAllowList is implemented by filters that consult the allow-list.
type needsAllowList interface {
	needsAllowList()
}

// relaxer is implemented by filters that lower the column minimum to two.
type relaxer interface {
	relaxesMinColumns()
}

type tableRule struct {
	name string
	fn   func(*Candidate) bool
}

func (r tableRule) Name() string { return r.name }
func (r tableRule) RejectTable(c *Candidate) bool { return r.fn(c) }

type rowRule struct {
	name string
	fn   func(*Candidate, model.RowBib) bool
}

func (r rowRule) Name() string { return r.name }
func (r rowRule) RemoveRow(c *Candidate, row model.RowBib) bool { return r.fn(c, row) }

type fullTextRule struct{ rowRule }

func (fullTextRule) needsAllowList() {}

type sizeRule struct {
	name string
	fn   func(*Candidate) bool
}

func (r sizeRule) Name() string { return r.name }
func (r sizeRule) RejectSize(c *Candidate) bool { return r.fn(c) }

type columnRule struct {
	name string
	fn   func(*Candidate, model.Column) bool
}

func (r columnRule) Name() string { return r.name }
func (r columnRule) DropColumn(c *Candidate, col model.Column) bool { return r.fn(c, col) }

type aspectRule struct{ columnRule }

func (aspectRule) relaxesMinColumns() {}

// dedupFilter marks the run-wide duplicate check, which the Pipeline
// performs itself against its SignatureSet.
type dedupFilter struct{}

func (dedupFilter) Name() string { return "no_dup" }

// Registry holds named filters
type Registry struct {
	filters map[string]Filter
}

// NewRegistry creates an empty filter registry
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]Filter)}
}

// Register adds a filter under its name
func (r *Registry) Register(f Filter) {
	r.filters[f.Name()] = f
}

// Get retrieves a filter by name
func (r *Registry) Get(name string) (Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// List returns all registered filter names in sorted order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registry
var globalRegistry = NewRegistry()

// RegisterFilter registers a filter globally
func RegisterFilter(f Filter) {
	globalRegistry.Register(f)
}

// GetFilter retrieves a globally registered filter
func GetFilter(name string) (Filter, bool) {
	return globalRegistry.Get(name)
}

// ListFilters returns all globally registered filter names
func ListFilters() []string {
	return globalRegistry.List()
}
