package dataset

import (
	"context"
	"fmt"

	"github.com/tsawler/tabcite/bibmap"
	"github.com/tsawler/tabcite/internal/logging"
	"github.com/tsawler/tabcite/markup"
	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/predicate"
	"github.com/tsawler/tabcite/tables"
)

// Resolver looks up bibliographic metadata by citation key or paper id.
type Resolver interface {
	Resolve(ctx context.Context, key string) (model.BibEntry, bool, error)
}

// Assembler turns labeled records into reconstructed, mapped records.
type Assembler struct {
	filters  []string
	resolver Resolver
	rec      *tables.Reconstructor
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithFilters sets the labels a record must carry as true. Records without
// labels are not filtered.
func WithFilters(names []string) AssemblerOption {
	return func(a *Assembler) { a.filters = append([]string(nil), names...) }
}

// WithResolver resolves mapped rows of records that carry no input_papers.
func WithResolver(r Resolver) AssemblerOption {
	return func(a *Assembler) { a.resolver = r }
}

// WithReconstructor replaces the default table reconstructor.
func WithReconstructor(r *tables.Reconstructor) AssemblerOption {
	return func(a *Assembler) { a.rec = r }
}

// NewAssembler creates an assembler requiring predicate.DefaultFilters.
func NewAssembler(opts ...AssemblerOption) (*Assembler, error) {
	a := &Assembler{
		filters: predicate.DefaultFilters,
		rec:     tables.NewReconstructor(),
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, name := range a.filters {
		if _, ok := predicate.GetPredicate(name); !ok {
			return nil, fmt.Errorf("%w: %q", predicate.ErrUnknownPredicate, name)
		}
	}
	return a, nil
}

// AssembleAll assembles every record. Per-table failures and missing keys
// come back as warnings; the error is reserved for a failing resolver or a
// cancelled context.
func (a *Assembler) AssembleAll(ctx context.Context, recs []*model.Record) ([]*model.Record, []Warning, error) {
	var (
		out       []*model.Record
		warnings  []Warning
		unlabeled bool
	)
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return out, warnings, err
		}
		if rec.Labels == nil && !unlabeled {
			unlabeled = true
			logging.Logger().Info("records carry no labels; not filtering them", "paper", rec.PaperID)
		}

		assembled, ws, err := a.Assemble(ctx, rec)
		warnings = append(warnings, ws...)
		if err != nil {
			return out, warnings, err
		}
		if assembled != nil {
			out = append(out, assembled)
		}
	}

	if n := Count(warnings, WarnSkippedTable); n > 0 {
		logging.Logger().Info("skipped tables", "count", n)
	}
	if n := Count(warnings, WarnMissingBib); n > 0 {
		logging.Logger().Info("missing bibliographic entries", "count", n)
	}
	return out, warnings, nil
}

// Assemble processes one record. It returns nil when the record fails the
// label filters or cannot be assembled; the latter comes with a warning.
func (a *Assembler) Assemble(ctx context.Context, rec *model.Record) (*model.Record, []Warning, error) {
	if rec.Labels != nil {
		if ok, failed := predicate.FilterLabels(rec.Labels, a.filters); !ok {
			logging.Logger().Debug("filtered table", "hash", rec.TableHash, "label", failed)
			return nil, nil, nil
		}
	}

	skip := func(err error) (*model.Record, []Warning, error) {
		logging.Logger().Warn("skipped table", "paper", rec.PaperID, "hash", rec.TableHash, "err", err)
		return nil, []Warning{{Kind: WarnSkippedTable, PaperID: rec.PaperID, TableHash: rec.TableHash, Err: err}}, nil
	}

	tree, err := markup.Parse(rec.TableHTML)
	if err != nil {
		return skip(err)
	}
	keys := tree.CitationKeys()

	tj, err := a.rec.Reconstruct(tree)
	if err != nil {
		return skip(err)
	}
	if len(tj.TableDict) == 0 {
		return skip(tables.ErrEmptyTable)
	}

	rows, err := bibmap.Map(tj.TableDict, keys, rec.PaperID)
	if err != nil {
		return skip(err)
	}
	rewriteReferences(tj.TableDict, rows)

	out := &model.Record{
		PaperID:     rec.PaperID,
		PDFHash:     rec.PDFHash,
		SourceHash:  rec.SourceHash,
		SourceName:  rec.SourceName,
		TableHash:   rec.TableHash,
		Caption:     rec.Caption,
		InTextRef:   rec.InTextRef,
		TableHTML:   tree.String(),
		TableJSON:   tj,
		RowBibMap:   rows,
		BibHash:     keys,
		Labels:      rec.Labels,
		Length:      rec.Length,
		BibEntries:  rec.BibEntries,
		InputPapers: rec.InputPapers,
	}

	warnings, err := a.resolve(ctx, out)
	return out, warnings, err
}

// rewriteReferences replaces each mapped row's References cell with the
// row's key, so the column carries resolved identifiers.
func rewriteReferences(ct model.ColumnTable, rows []model.RowBib) {
	i := ct.Index(model.ReferencesColumn)
	if i < 0 {
		return
	}
	values := ct[i].Values
	for _, rb := range rows {
		if rb.Row >= 0 && rb.Row < len(values) {
			values[rb.Row] = rb.Key
		}
	}
}

func (a *Assembler) resolve(ctx context.Context, rec *model.Record) ([]Warning, error) {
	if rec.InputPapers == nil && a.resolver == nil {
		return nil, nil
	}

	var warnings []Warning
	for i := range rec.RowBibMap {
		rb := &rec.RowBibMap[i]

		var (
			entry model.BibEntry
			ok    bool
		)
		if rec.InputPapers != nil {
			entry, ok = rec.InputPapers[rb.Key]
		} else {
			var err error
			entry, ok, err = a.resolver.Resolve(ctx, rb.Key)
			if err != nil {
				return warnings, fmt.Errorf("dataset: resolve %s: %w", rb.Key, err)
			}
		}

		if !ok {
			logging.Logger().Debug("missing bibliographic entry", "hash", rec.TableHash, "key", rb.Key)
			warnings = append(warnings, Warning{Kind: WarnMissingBib, PaperID: rec.PaperID, TableHash: rec.TableHash, Key: rb.Key})
			continue
		}
		rb.CorpusID = entry.CorpusID
		rb.Title = entry.Title
		rb.Abstract = entry.Abstract
	}
	return warnings, nil
}
