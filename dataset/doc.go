// Package dataset builds table records from documents.
//
// The label stage ([Labeler]) parses each table of a document, records
// predicate outcomes and drops sub-tables already seen in the same file.
// The assemble stage ([Assembler]) filters on those labels, reconstructs
// each table, maps its rows to citation keys and fills in bibliographic
// metadata. [Export] reshapes curated records into the tables and papers
// datasets.
//
// A table that cannot be processed never stops a batch: it is left out and
// reported as a [Warning].
package dataset
