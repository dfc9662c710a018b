package tabcite

import (
	"context"
	"fmt"
	"io"

	"github.com/tsawler/tabcite/dataset"
	"github.com/tsawler/tabcite/format"
	"github.com/tsawler/tabcite/internal/logging"
	"github.com/tsawler/tabcite/internal/query"
	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/predicate"
	"github.com/tsawler/tabcite/quality"
)

// Processor provides a fluent interface over the label, assemble and
// curate stages. Each configuration method returns a new Processor, so a
// configured Processor can be reused as a template.
type Processor struct {
	// Source: a file, a reader, or records in memory
	filename string
	r        io.Reader
	records  []*model.Record
	inMemory bool

	// Configuration
	options Options

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Processor with a deep copy of options.
func (p *Processor) clone() *Processor {
	return &Processor{
		filename: p.filename,
		r:        p.r,
		records:  p.records,
		inMemory: p.inMemory,
		options:  p.options.clone(),
		err:      p.err,
	}
}

// File returns a copy of the Processor reading filename, keeping its
// configuration. It lets one configured Processor serve many inputs.
func (p *Processor) File(filename string) *Processor {
	newP := p.clone()
	newP.filename = filename
	newP.r = nil
	newP.records = nil
	newP.inMemory = false
	return newP
}

// WithRecords returns a copy of the Processor over recs, keeping its
// configuration.
func (p *Processor) WithRecords(recs []*model.Record) *Processor {
	newP := p.clone()
	newP.filename = ""
	newP.r = nil
	newP.records = recs
	newP.inMemory = true
	return newP
}

// Predicates selects the predicates the label stage computes, replacing
// the default set.
//
// Example:
//
//	recs, _, err := tabcite.Open("papers.jsonl").
//	    Predicates("has_at_least_2_cites", "has_at_least_2_cols").
//	    Label()
func (p *Processor) Predicates(names ...string) *Processor {
	newP := p.clone()
	newP.options.predicates = append([]string(nil), names...)
	return newP
}

// FilterMode makes Label drop tables that fail any selected predicate
// instead of recording every outcome.
func (p *Processor) FilterMode() *Processor {
	newP := p.clone()
	newP.options.mode = dataset.ModeFilter
	return newP
}

// AssembleFilters sets the labels a record must carry as true to be
// assembled.
func (p *Processor) AssembleFilters(names ...string) *Processor {
	newP := p.clone()
	newP.options.assembleFilters = append([]string(nil), names...)
	return newP
}

// Resolver sets the bibliographic resolver used for records without
// input_papers.
func (p *Processor) Resolver(r dataset.Resolver) *Processor {
	newP := p.clone()
	newP.options.resolver = r
	return newP
}

// AllowList sets the full-text allow-list for rows_no_missing_full_texts.
func (p *Processor) AllowList(a quality.AllowList) *Processor {
	newP := p.clone()
	newP.options.allow = a
	return newP
}

// Signatures shares a duplicate-signature set across several Curate calls,
// so no_dup works over more than one input.
func (p *Processor) Signatures(s *quality.SignatureSet) *Processor {
	newP := p.clone()
	newP.options.signatures = s
	return newP
}

// Where keeps only records for which the jq expression is truthy. It runs
// before the quality filters. An invalid expression fails the terminal call.
//
// Example:
//
//	curated, _, err := tabcite.Open("assembled.jsonl").
//	    Where(`.labels.has_no_floats`).
//	    Curate("no_dup")
func (p *Processor) Where(expr string) *Processor {
	newP := p.clone()
	q, err := query.Compile(expr)
	if err != nil {
		newP.err = fmt.Errorf("where: %w", err)
		return newP
	}
	newP.options.where = q
	return newP
}

// Err returns the first configuration error, such as an invalid Where
// expression. Terminal methods return it as well.
func (p *Processor) Err() error {
	return p.err
}

// open returns a JSON-lines reader over the configured source.
func (p *Processor) open() (*format.Reader, error) {
	switch {
	case p.r != nil:
		return format.NewJSONLReader(p.r)
	case p.filename != "":
		return format.Open(p.filename)
	default:
		return nil, fmt.Errorf("no input specified")
	}
}

// Documents decodes the source as document lines.
func (p *Processor) Documents() ([]model.Document, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.inMemory {
		return nil, fmt.Errorf("documents: source holds records")
	}
	r, err := p.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	docs, err := format.ReadAll[model.Document](r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.source(), err)
	}
	return docs, nil
}

// Records decodes the source as record lines, or returns the in-memory
// records.
func (p *Processor) Records() ([]*model.Record, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.inMemory {
		return p.records, nil
	}
	r, err := p.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	recs, err := format.ReadAll[*model.Record](r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.source(), err)
	}
	return recs, nil
}

func (p *Processor) source() string {
	if p.filename != "" {
		return p.filename
	}
	return "input"
}

// Label parses every table of every document and returns one record per
// kept table. Tables that fail to parse come back as warnings. A table
// already seen in an earlier table of the input, whole or nested, is
// dropped.
//
// Example:
//
//	recs, warnings, err := tabcite.Open("papers.jsonl").Label()
func (p *Processor) Label() ([]*model.Record, []Warning, error) {
	labeler, err := dataset.NewLabeler(p.options.predicates, p.options.mode)
	if err != nil {
		return nil, nil, err
	}
	docs, err := p.Documents()
	if err != nil {
		return nil, nil, err
	}

	var (
		out      []*model.Record
		warnings []Warning
	)
	subtables := predicate.NewSubTableIndex()
	for i := range docs {
		recs, ws := labeler.Label(&docs[i], subtables)
		out = append(out, recs...)
		warnings = append(warnings, ws...)
	}
	logging.Logger().Info("labeled tables", "source", p.source(), "documents", len(docs), "tables", len(out), "skipped", len(warnings))
	return out, warnings, nil
}

// Assemble reconstructs, maps and resolves every record. Skipped tables and
// unresolved keys come back as warnings; the error reports I/O, resolver
// or cancellation failures.
//
// Example:
//
//	recs, warnings, err := tabcite.Open("labeled.jsonl").Resolver(store).Assemble(ctx)
func (p *Processor) Assemble(ctx context.Context) ([]*model.Record, []Warning, error) {
	opts := []dataset.AssemblerOption{dataset.WithFilters(p.options.assembleFilters)}
	if p.options.resolver != nil {
		opts = append(opts, dataset.WithResolver(p.options.resolver))
	}
	asm, err := dataset.NewAssembler(opts...)
	if err != nil {
		return nil, nil, err
	}
	recs, err := p.Records()
	if err != nil {
		return nil, nil, err
	}
	return asm.AssembleAll(ctx, recs)
}

// Curate applies the Where expression, if any, then the quality filters
// named by flags in order.
//
// Example:
//
//	curated, stats, err := tabcite.Open("assembled.jsonl").Curate(quality.Default...)
func (p *Processor) Curate(flags ...string) ([]*model.Record, quality.Stats, error) {
	pipeline, err := p.pipeline(flags)
	if err != nil {
		return nil, quality.Stats{}, err
	}
	recs, err := p.Records()
	if err != nil {
		return nil, quality.Stats{}, err
	}

	if q := p.options.where; q != nil {
		before := len(recs)
		recs, err = query.Select(q, recs)
		if err != nil {
			return nil, quality.Stats{}, fmt.Errorf("where: %w", err)
		}
		logging.Logger().Info("selected records", "where", q.String(), "input", before, "kept", len(recs))
	}

	out, stats := pipeline.Curate(recs)
	return out, stats, nil
}

func (p *Processor) pipeline(flags []string) (*quality.Pipeline, error) {
	var opts []quality.Option
	if p.options.allow != nil {
		opts = append(opts, quality.WithAllowList(p.options.allow))
	}
	if p.options.signatures != nil {
		opts = append(opts, quality.WithSignatures(p.options.signatures))
	}
	return quality.New(flags, opts...)
}

// Export reshapes curated records into the tables and papers datasets.
func (p *Processor) Export() ([]dataset.TableEntry, []dataset.Paper, error) {
	recs, err := p.Records()
	if err != nil {
		return nil, nil, err
	}
	entries, papers := dataset.Export(recs)
	return entries, papers, nil
}
