package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is one source paper with its raw table markups.
type Document struct {
	PaperID    string `json:"paper_id"`
	PDFHash    string `json:"_pdf_hash,omitempty"`
	SourceHash string `json:"_source_hash,omitempty"`
	SourceName string `json:"_source_name,omitempty"`

	// Tables keeps the order in which the tables appear in the source object.
	Tables     OrderedTables     `json:"tables"`
	BodyText   []Section         `json:"body_text,omitempty"`
	BibEntries map[string]string `json:"bib_entries,omitempty"`
}

// RawTable is the markup of a single table keyed by its content hash.
type RawTable struct {
	Hash    string  `json:"-"`
	Markup  string  `json:"table"`
	Caption *string `json:"caption,omitempty"`
}

// Section is a block of body text and the spans in it that point at other
// objects (tables, figures) of the paper.
type Section struct {
	ContentType string    `json:"content_type"`
	Text        string    `json:"text"`
	RefSpans    []RefSpan `json:"ref_spans,omitempty"`
}

// RefSpan marks a reference to an object inside a section's text.
type RefSpan struct {
	RefID string `json:"ref_id"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

// InTextRefs returns the paragraph sections that reference the given table.
func (d *Document) InTextRefs(tableHash string) []Section {
	var out []Section
	for _, s := range d.BodyText {
		if s.ContentType != "paragraph" {
			continue
		}
		for _, ref := range s.RefSpans {
			if ref.RefID == tableHash {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// OrderedTables is a JSON object of hash -> table that remembers key order.
type OrderedTables []RawTable

// UnmarshalJSON decodes the object token by token so key order survives.
func (ot *OrderedTables) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*ot = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("tables: expected object, got %v", tok)
	}

	var tables OrderedTables
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("tables: expected string key, got %v", keyTok)
		}
		var rt RawTable
		if err := dec.Decode(&rt); err != nil {
			return fmt.Errorf("tables[%s]: %w", key, err)
		}
		rt.Hash = key
		tables = append(tables, rt)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*ot = tables
	return nil
}

// MarshalJSON writes the tables back as an object in their original order.
func (ot OrderedTables) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rt := range ot {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rt.Hash)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(rt)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
