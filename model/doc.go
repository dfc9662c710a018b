// Package model defines the records that flow through the table curation
// pipeline.
//
// A [Document] holds the raw table markups of one paper. Each table becomes a
// [Record] that later stages enrich:
//
//   - the label stage sets TableHTML, Labels and the in-text references
//   - the assemble stage sets TableJSON, RowBibMap and BibHash
//   - the curate stage removes rows and columns from TableJSON.TableDict
//
// # Tables
//
// A reconstructed table is kept in two shapes. [Grid] is the rectangular
// matrix produced from the markup. [ColumnTable] is the column-oriented form
// used downstream; it is an ordered list of [Column] values, so a header that
// occurs twice yields two independent columns rather than one merged column.
//
// # Rows and identities
//
// Every data row that cites a work, plus at most one row describing the
// containing paper, gets a [RowBib] entry. CorpusID stays [UnresolvedID] until
// bibliographic metadata is merged in.
package model
