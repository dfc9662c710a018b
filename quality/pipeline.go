package quality

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tsawler/tabcite/internal/logging"
	"github.com/tsawler/tabcite/model"
)

// Rejection reasons reported by Apply for checks that are not flag filters.
const (
	ReasonNoTable    = "no_table"
	ReasonMinColumns = "min_columns"
)

// Candidate is a record under evaluation. Filters read it; only the
// Pipeline mutates it.
type Candidate struct {
	Record *model.Record
	// Table is the column table as it was before any row or column removal.
	Table model.ColumnTable

	allow       AllowList
	removedRows map[int]bool
	removedKeys map[string]struct{}
	str         string
}

func newCandidate(rec *model.Record, allow AllowList) *Candidate {
	return &Candidate{
		Record:      rec,
		Table:       rec.TableJSON.TableDict,
		allow:       allow,
		removedRows: make(map[int]bool),
		removedKeys: make(map[string]struct{}),
	}
}

// String renders the whole table one column per line, header then values
// joined by tabs.
func (c *Candidate) String() string {
	if c.str == "" {
		lines := make([]string, len(c.Table))
		for i, col := range c.Table {
			lines[i] = strings.Join(append([]string{col.Name}, col.Values...), "\t")
		}
		c.str = strings.Join(lines, "\n")
	}
	return c.str
}

func (c *Candidate) oldCitationColumn() (string, bool) {
	old := c.Record.TableJSON.OldCitationColumn
	if old == nil || *old == "" {
		return "", false
	}
	return *old, true
}

// SignatureSet records the table signatures seen during a run. It is safe
// for concurrent use, so one set can be shared by pipelines on several
// goroutines.
type SignatureSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSignatureSet creates an empty set.
func NewSignatureSet() *SignatureSet {
	return &SignatureSet{seen: make(map[string]struct{})}
}

// Add records sig and reports whether it was new.
func (s *SignatureSet) Add(sig string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[sig]; ok {
		return false
	}
	s.seen[sig] = struct{}{}
	return true
}

// Len returns the number of distinct signatures recorded.
func (s *SignatureSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAllowList supplies the full-text allow-list used by
// rows_no_missing_full_texts.
func WithAllowList(allow AllowList) Option {
	return func(p *Pipeline) { p.allow = allow }
}

// WithRegistry resolves flags against r instead of the global registry.
func WithRegistry(r *Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithSignatures shares a signature set between pipelines.
func WithSignatures(s *SignatureSet) Option {
	return func(p *Pipeline) { p.signatures = s }
}

// Stats summarizes a Curate call.
type Stats struct {
	Input    int
	Kept     int
	Rejected map[string]int
}

// Pipeline applies an ordered list of named filters to records.
type Pipeline struct {
	flags    []string
	registry *Registry

	tables  []TableFilter
	rows    []RowFilter
	sizes   []SizeFilter
	columns []ColumnFilter

	dedup      bool
	minColumns int

	allow      AllowList
	signatures *SignatureSet
}

// New resolves flags into a pipeline. Flags keep their order; repeated
// flags are applied once.
func New(flags []string, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		registry:   globalRegistry,
		minColumns: 3,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.signatures == nil {
		p.signatures = NewSignatureSet()
	}

	p.tables = append(p.tables, referencesAllDash)
	p.columns = append(p.columns, citationOnlyColumn, numericHeaderColumn)

	seen := make(map[string]bool)
	for _, name := range flags {
		if seen[name] {
			continue
		}
		seen[name] = true

		f, ok := p.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
		}
		if _, ok := f.(needsAllowList); ok && p.allow == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingAllowList, name)
		}
		if _, ok := f.(relaxer); ok {
			p.minColumns = 2
		}
		p.flags = append(p.flags, name)

		switch f := f.(type) {
		case dedupFilter:
			p.dedup = true
		case TableFilter:
			p.tables = append(p.tables, f)
		case RowFilter:
			p.rows = append(p.rows, f)
		case SizeFilter:
			p.sizes = append(p.sizes, f)
		case ColumnFilter:
			p.columns = append(p.columns, f)
		default:
			return nil, fmt.Errorf("quality: filter %q has no stage", name)
		}
	}
	return p, nil
}

// Flags returns the resolved flag list in order.
func (p *Pipeline) Flags() []string {
	return append([]string(nil), p.flags...)
}

// MinColumns returns the number of columns a table must keep.
func (p *Pipeline) MinColumns() int {
	return p.minColumns
}

// Apply runs every stage against rec. It returns the pruned copy, or nil
// and the name of the check that rejected the table. rec is not modified.
func (p *Pipeline) Apply(rec *model.Record) (*model.Record, string) {
	if rec == nil || rec.TableJSON == nil {
		return nil, ReasonNoTable
	}
	c := newCandidate(rec, p.allow)

	for _, f := range p.tables {
		if f.RejectTable(c) {
			return nil, f.Name()
		}
	}

	var kept []model.RowBib
	for _, rb := range rec.RowBibMap {
		remove := false
		for _, f := range p.rows {
			if f.RemoveRow(c, rb) {
				remove = true
			}
		}
		if remove {
			c.removedRows[rb.Row] = true
			c.removedKeys[rb.Key] = struct{}{}
			continue
		}
		kept = append(kept, rb)
	}

	for _, f := range p.sizes {
		if f.RejectSize(c) {
			return nil, f.Name()
		}
	}

	trimmed := c.Table.WithoutRows(c.removedRows)
	pruned := make(model.ColumnTable, 0, len(trimmed))
	for j, col := range c.Table {
		if col.Name != model.ReferencesColumn && p.dropColumn(c, col) {
			continue
		}
		pruned = append(pruned, trimmed[j])
	}
	if len(pruned) < p.minColumns {
		return nil, ReasonMinColumns
	}

	if p.dedup && !p.signatures.Add(Signature(pruned)) {
		return nil, dedupFilter{}.Name()
	}

	out := rec.Clone()
	out.TableJSON.TableDict = pruned
	out.RowBibMap = renumber(kept, c.removedRows)
	return out, ""
}

func (p *Pipeline) dropColumn(c *Candidate, col model.Column) bool {
	for _, f := range p.columns {
		if f.DropColumn(c, col) {
			return true
		}
	}
	return false
}

// renumber shifts each row index down by the number of removed rows above
// it, so indexes keep pointing at the same data after the rows are excised.
func renumber(rows []model.RowBib, removed map[int]bool) []model.RowBib {
	if len(rows) == 0 {
		return nil
	}
	out := make([]model.RowBib, len(rows))
	for i, rb := range rows {
		shift := 0
		for r := range removed {
			if r < rb.Row {
				shift++
			}
		}
		rb.Row -= shift
		out[i] = rb
	}
	return out
}

// Curate applies the pipeline to every record and returns the survivors in
// input order.
func (p *Pipeline) Curate(recs []*model.Record) ([]*model.Record, Stats) {
	stats := Stats{Input: len(recs), Rejected: make(map[string]int)}
	out := make([]*model.Record, 0, len(recs))
	for _, rec := range recs {
		kept, reason := p.Apply(rec)
		if kept == nil {
			stats.Rejected[reason]++
			if rec != nil {
				logging.Logger().Debug("rejected table", "hash", rec.TableHash, "reason", reason)
			}
			continue
		}
		out = append(out, kept)
	}
	stats.Kept = len(out)
	logging.Logger().Info("curated tables", "input", stats.Input, "kept", stats.Kept, "flags", strings.Join(p.flags, ","))
	return out, stats
}
