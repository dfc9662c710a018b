// Package markup parses LaTeX-derived table markup into a tree of rows and
// cells.
package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrParse is returned when markup cannot be read as a table.
	ErrParse = errors.New("markup: cannot parse table markup")
)

// MaxColSpan is the widest span a cell may claim. Larger values are treated
// like any other invalid span.
const MaxColSpan = 1000

// citeMarker matches the inline citation token carried by citation elements.
var citeMarker = regexp.MustCompile(`\{\{cite:([a-f\d]{7})\}\}`)

// source element name -> normalized element name
var vocabulary = map[string]string{
	"row":     TagRow,
	"cell":    TagCell,
	"cit":     TagCitation,
	"texmath": TagMath,
}

// Parse parses raw table markup. Math elements are dropped together with
// their text.
func Parse(raw string) (*Tree, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty markup", ErrParse)
	}

	root, err := buildTree(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !hasElement(root) {
		return nil, fmt.Errorf("%w: no elements", ErrParse)
	}

	return newTree(root), nil
}

func newTree(root *html.Node) *Tree {
	t := &Tree{
		root:     root,
		doc:      goquery.NewDocumentFromNode(root),
		rendered: render(root),
	}
	t.length = xmlLen(root, t.rendered)
	t.doc.Find(TagRow).Each(func(_ int, rs *goquery.Selection) {
		row := Row{node: rs.Get(0)}
		rs.Find(TagCell).Each(func(_ int, cs *goquery.Selection) {
			row.Cells = append(row.Cells, newCell(cs))
		})
		t.rows = append(t.rows, row)
	})
	return t
}

func newCell(s *goquery.Selection) Cell {
	cell := Cell{
		Text:    s.Text(),
		ColSpan: 1,
		node:    s.Get(0),
	}
	if v, ok := s.Attr("cols"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 && n <= MaxColSpan {
			cell.ColSpan = n
		}
	}
	s.Find(TagCitation).Each(func(_ int, c *goquery.Selection) {
		cell.Citations = append(cell.Citations, newCitation(c.Get(0)))
	})
	return cell
}

func newCitation(n *html.Node) Citation {
	c := Citation{}
	for _, a := range n.Attr {
		if a.Key == "sha" {
			c.SHA = a.Val
		}
	}
	if m := citeMarker.FindStringSubmatch(goquery.NewDocumentFromNode(n).Text()); m != nil {
		c.ShortKey = m[1]
	} else if len(c.SHA) >= 7 {
		c.ShortKey = c.SHA[:7]
	}
	return c
}

// buildTree tokenizes the markup as lenient XML and assembles an html.Node
// tree using the normalized vocabulary.
func buildTree(r io.Reader) (*html.Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	root := &html.Node{Type: html.DocumentNode}
	current := root
	skipDepth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := normalizeName(t.Name.Local)
			if skipDepth > 0 || name == TagMath {
				skipDepth++
				continue
			}
			n := &html.Node{Type: html.ElementNode, Data: name}
			for _, a := range t.Attr {
				n.Attr = append(n.Attr, html.Attribute{Key: a.Name.Local, Val: a.Value})
			}
			current.AppendChild(n)
			current = n

		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			if current.Parent != nil {
				current = current.Parent
			}

		case xml.CharData:
			if skipDepth > 0 {
				continue
			}
			current.AppendChild(&html.Node{Type: html.TextNode, Data: norm.NFC.String(string(t))})
		}
	}

	return root, nil
}

func normalizeName(local string) string {
	local = strings.ToLower(local)
	if v, ok := vocabulary[local]; ok {
		return v
	}
	return local
}

func hasElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}
