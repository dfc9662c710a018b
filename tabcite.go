// Package tabcite provides a fluent API for turning scientific-paper tables
// into citation-linked datasets.
//
// Label every table of a document file:
//
//	recs, warnings, err := tabcite.Open("papers_00.jsonl.gz").Label()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", tabcite.FormatWarnings(warnings))
//	}
//
// Assemble labeled records and keep the high quality ones:
//
//	assembled, _, err := tabcite.Open("labeled.jsonl").
//	    Resolver(store).
//	    Assemble(ctx)
//	curated, stats, err := tabcite.FromRecords(assembled).
//	    Where(".caption != null").
//	    Curate(quality.HighQuality...)
//
// The stage packages (markup, predicate, tables, bibmap, dataset, quality)
// can also be used directly.
package tabcite

import (
	"io"

	"github.com/tsawler/tabcite/model"
)

// Open returns a Processor reading the JSON-lines file at filename. Gzip
// and zlib input is detected from its first bytes.
//
// Example:
//
//	recs, warnings, err := tabcite.Open("papers.jsonl").Label()
func Open(filename string) *Processor {
	return &Processor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromReader returns a Processor reading JSON lines from r. The caller
// keeps ownership of r.
//
// Example:
//
//	recs, _, err := tabcite.FromReader(os.Stdin).Label()
func FromReader(r io.Reader) *Processor {
	return &Processor{
		r:       r,
		options: defaultOptions(),
	}
}

// FromRecords returns a Processor over records already in memory, for
// chaining stages without a round trip through a file. The records are not
// modified.
//
// Example:
//
//	curated, _, err := tabcite.FromRecords(assembled).Curate("no_dup")
func FromRecords(recs []*model.Record) *Processor {
	return &Processor{
		records:  recs,
		inMemory: true,
		options:  defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	docs := tabcite.Must(tabcite.Open("papers.jsonl").Documents())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustRecords is a helper that wraps a call to Label() or Assemble() and
// panics if the error is non-nil. It discards warnings and returns just the
// records.
//
// Example:
//
//	recs := tabcite.MustRecords(tabcite.Open("papers.jsonl").Label())
func MustRecords(recs []*model.Record, _ []Warning, err error) []*model.Record {
	if err != nil {
		panic(err)
	}
	return recs
}
