package model

import "strings"

// UnresolvedID is the corpus id of a row whose identity is not yet known.
const UnresolvedID int64 = -1

// Role distinguishes rows citing external work from the row describing the
// containing paper.
type Role string

const (
	RoleRef  Role = "ref"
	RoleSelf Role = "self"
)

// RowBib maps one data row to a bibliographic identity.
type RowBib struct {
	Key      string  `json:"bib_hash_or_arxiv_id"`
	Row      int     `json:"row"`
	CorpusID int64   `json:"corpus_id"`
	Role     Role    `json:"type"`
	Title    *string `json:"title,omitempty"`
	Abstract *string `json:"abstract,omitempty"`
}

// Resolved reports whether the row has a corpus id.
func (rb RowBib) Resolved() bool {
	return rb.CorpusID != UnresolvedID
}

// BibEntry is resolved bibliographic metadata for one key.
type BibEntry struct {
	CorpusID int64   `json:"corpus_id"`
	Title    *string `json:"title"`
	Abstract *string `json:"abstract"`
}

// Labels holds the outcome of every predicate run against a table.
type Labels map[string]bool

// Record is one table flowing through the label, assemble and curate
// stages. Later stages fill in TableJSON, RowBibMap and BibHash.
type Record struct {
	PaperID    string `json:"paper_id"`
	PDFHash    string `json:"_pdf_hash,omitempty"`
	SourceHash string `json:"_source_hash,omitempty"`
	SourceName string `json:"_source_name,omitempty"`
	TableHash  string `json:"_table_hash"`

	Caption   *string   `json:"caption,omitempty"`
	InTextRef []Section `json:"in_text_ref,omitempty"`

	TableHTML string     `json:"table_html"`
	TableJSON *TableJSON `json:"table_json,omitempty"`
	RowBibMap []RowBib   `json:"row_bib_map,omitempty"`
	BibHash   []string   `json:"bib_hash,omitempty"`

	Labels Labels `json:"labels,omitempty"`
	Length int    `json:"len,omitempty"`

	BibEntries  map[string]string   `json:"bib_entries,omitempty"`
	InputPapers map[string]BibEntry `json:"input_papers,omitempty"`
}

// HasCaption reports whether the record carries a usable caption.
func (r *Record) HasCaption() bool {
	if r.Caption == nil {
		return false
	}
	c := *r.Caption
	return c != "NO_CAPTION" && strings.TrimSpace(c) != ""
}

// Clone returns a deep copy of the parts later stages mutate.
func (r *Record) Clone() *Record {
	cp := *r
	if r.TableJSON != nil {
		tj := *r.TableJSON
		tj.TableDict = r.TableJSON.TableDict.Clone()
		cp.TableJSON = &tj
	}
	cp.RowBibMap = append([]RowBib(nil), r.RowBibMap...)
	return &cp
}
