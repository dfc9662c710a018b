package dataset

import (
	"github.com/tsawler/tabcite/internal/logging"
	"github.com/tsawler/tabcite/markup"
	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/predicate"
)

// Mode selects what the label stage does with predicate outcomes.
type Mode int

const (
	// ModeLabel keeps every table and records each predicate outcome.
	ModeLabel Mode = iota
	// ModeFilter keeps only tables passing every predicate.
	ModeFilter
)

// Labeler runs the label stage over documents.
type Labeler struct {
	preds []predicate.Predicate
	mode  Mode
}

// NewLabeler resolves the named predicates.
func NewLabeler(names []string, mode Mode) (*Labeler, error) {
	preds, err := predicate.Resolve(names)
	if err != nil {
		return nil, err
	}
	return &Labeler{preds: preds, mode: mode}, nil
}

// Label turns the tables of doc into records. Tables with empty markup are
// skipped silently; tables whose markup cannot be parsed are reported. A
// table whose outermost element was already seen in subtables (as a whole
// table or nested in one) is dropped, so subtables should span one input
// file.
func (l *Labeler) Label(doc *model.Document, subtables *predicate.SubTableIndex) ([]*model.Record, []Warning) {
	var (
		out      []*model.Record
		warnings []Warning
	)
	for _, raw := range doc.Tables {
		if raw.Markup == "" {
			continue
		}

		tree, err := markup.Parse(raw.Markup)
		if err != nil {
			logging.Logger().Warn("skipped table", "paper", doc.PaperID, "hash", raw.Hash, "err", err)
			warnings = append(warnings, Warning{Kind: WarnSkippedTable, PaperID: doc.PaperID, TableHash: raw.Hash, Err: err})
			continue
		}

		rec := newRecord(doc, raw, tree)
		switch l.mode {
		case ModeLabel:
			rec.Labels = predicate.Label(tree, l.preds)
			rec.Length = tree.Len()
		case ModeFilter:
			if ok, failed := predicate.Filter(tree, l.preds); !ok {
				logging.Logger().Debug("filtered table", "paper", doc.PaperID, "hash", raw.Hash, "predicate", failed)
				continue
			}
		}

		if !subtables.Admit(tree) {
			logging.Logger().Debug("duplicate sub-table", "paper", doc.PaperID, "hash", raw.Hash)
			continue
		}
		out = append(out, rec)
	}
	return out, warnings
}

func newRecord(doc *model.Document, raw model.RawTable, tree *markup.Tree) *model.Record {
	rec := &model.Record{
		PaperID:    doc.PaperID,
		PDFHash:    doc.PDFHash,
		SourceHash: doc.SourceHash,
		SourceName: doc.SourceName,
		TableHash:  raw.Hash,
		Caption:    raw.Caption,
		InTextRef:  doc.InTextRefs(raw.Hash),
		TableHTML:  tree.String(),
	}
	for _, key := range tree.CitationKeys() {
		text, ok := doc.BibEntries[key]
		if !ok {
			continue
		}
		if rec.BibEntries == nil {
			rec.BibEntries = make(map[string]string)
		}
		rec.BibEntries[key] = text
	}
	return rec
}
