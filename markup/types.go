package markup

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element names of the normalized vocabulary.
const (
	TagTable    = "table"
	TagRow      = "tr"
	TagCell     = "td"
	TagCitation = "cit"
	TagMath     = "texmath"
)

// Tree is a parsed table markup. Rows and cells are collected in document
// order, including those of nested sub-tables.
type Tree struct {
	root *html.Node
	doc  *goquery.Document
	rows []Row

	rendered string
	length   int
}

// Row is an ordered sequence of cells.
type Row struct {
	Cells []Cell
	node  *html.Node
}

// Cell is a table cell with its text, column span and citation markers.
type Cell struct {
	Text      string
	ColSpan   int
	Citations []Citation
	node      *html.Node
}

// Citation is a citation marker embedded in a cell.
type Citation struct {
	// ShortKey is the 7-hex-character key of the marker.
	ShortKey string
	// SHA is the full citation key from the element attribute, when present.
	SHA string
}

// Doc returns the goquery view of the tree.
func (t *Tree) Doc() *goquery.Document {
	return t.doc
}

// Root returns the document node.
func (t *Tree) Root() *html.Node {
	return t.root
}

// Rows returns all rows of the tree.
func (t *Tree) Rows() []Row {
	return t.rows
}

// String returns the serialized form of the normalized tree.
func (t *Tree) String() string {
	return t.rendered
}

// Len returns the length in characters of the tree serialized as an XML
// document: the declaration line, then the tree with empty elements
// self-closed.
func (t *Tree) Len() int {
	return t.length
}

// Text returns all text nodes of the tree joined by single spaces.
func (t *Tree) Text() string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(t.root)
	return strings.Join(parts, " ")
}

// Citations returns every citation marker of the tree in document order.
func (t *Tree) Citations() []Citation {
	var cites []Citation
	t.doc.Find(TagCitation).Each(func(_ int, s *goquery.Selection) {
		cites = append(cites, newCitation(s.Get(0)))
	})
	return cites
}

// CitationKeys returns the full keys of all citation markers in document
// order. Markers without a key attribute yield an empty string.
func (t *Tree) CitationKeys() []string {
	cites := t.Citations()
	keys := make([]string, len(cites))
	for i, c := range cites {
		keys[i] = c.SHA
	}
	return keys
}

// TableKeys returns the identity of every table element in the tree, the
// outermost first. The identity of a table is its serialized form.
func (t *Tree) TableKeys() []string {
	var keys []string
	t.doc.Find(TagTable).Each(func(_ int, s *goquery.Selection) {
		keys = append(keys, render(s.Get(0)))
	})
	return keys
}

// ColumnCount returns the widest row, counting both cells and column spans.
func (t *Tree) ColumnCount() int {
	n := 0
	for _, row := range t.rows {
		n = max(n, len(row.Cells), row.SpanWidth())
	}
	return n
}

// SpanWidth returns the sum of the column spans of the row's cells.
func (r Row) SpanWidth() int {
	w := 0
	for _, c := range r.Cells {
		w += c.ColSpan
	}
	return w
}

// CitationCells returns how many cells of the row contain a citation.
func (r Row) CitationCells() int {
	n := 0
	for _, c := range r.Cells {
		if c.HasCitation() {
			n++
		}
	}
	return n
}

// IsBlank reports whether every cell of the row is whitespace only.
func (r Row) IsBlank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}

// Texts returns the raw text of each cell.
func (r Row) Texts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Text
	}
	return out
}

// HasCitation reports whether the cell contains a citation marker.
func (c Cell) HasCitation() bool {
	return len(c.Citations) > 0
}

// xmlDeclaration opens every serialized XML document.
const xmlDeclaration = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// voidElements render self-closed already.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// xmlLen derives the XML length from the HTML rendering of root: each empty
// element written as "<x></x>" is "<x/>" in XML.
func xmlLen(root *html.Node, rendered string) int {
	n := utf8.RuneCountInString(xmlDeclaration) + utf8.RuneCountInString(rendered)
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode && x.FirstChild == nil && !voidElements[x.Data] {
			n -= utf8.RuneCountInString(x.Data) + 2
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return n
}

func render(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
