package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// ============================================================================
// Grid Tests
// ============================================================================

func TestNewGrid(t *testing.T) {
	g := NewGrid(2, 3)
	if g.RowCount() != 2 || g.ColCount() != 3 {
		t.Errorf("NewGrid(2, 3) = %dx%d, want 2x3", g.RowCount(), g.ColCount())
	}
	if (Grid{}).ColCount() != 0 {
		t.Error("empty grid should have 0 columns")
	}
}

func TestGridToMarkdown(t *testing.T) {
	g := Grid{
		{"References", "Task"},
		{"aaaaaaa", "QA | NLI"},
		{"bbbbbbb", "multi\nline"},
	}

	want := "| References | Task |\n" +
		"|---|---|\n" +
		"| aaaaaaa | QA \\| NLI |\n" +
		"| bbbbbbb | multi line |\n"
	if got := g.ToMarkdown(); got != want {
		t.Errorf("ToMarkdown() =\n%s\nwant\n%s", got, want)
	}
	if (Grid{}).ToMarkdown() != "" {
		t.Error("empty grid should render as empty markdown")
	}
}

func TestGridToCSV(t *testing.T) {
	g := Grid{
		{"a", "b,c"},
		{`say "hi"`, "plain"},
	}
	want := "a,\"b,c\"\n\"say \"\"hi\"\"\",plain\n"
	if got := g.ToCSV(); got != want {
		t.Errorf("ToCSV() = %q, want %q", got, want)
	}
}

// ============================================================================
// ColumnTable Tests
// ============================================================================

func sampleTable() ColumnTable {
	return NewColumnTable(
		[]string{ReferencesColumn, "Task", "Task"},
		[][]string{
			{"aaaaaaa", "QA", "SQuAD"},
			{"bbbbbbb", "NLI"},
			{"ccccccc", "MT", "WMT"},
		},
	)
}

func TestNewColumnTable(t *testing.T) {
	ct := sampleTable()

	if len(ct) != 3 {
		t.Fatalf("len = %d, want 3 (duplicate names stay separate)", len(ct))
	}
	if ct.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", ct.RowCount())
	}
	if got := ct[2].Values[1]; got != "" {
		t.Errorf("short row should be padded, got %q", got)
	}
	if got := ct.Names(); !reflect.DeepEqual(got, []string{"References", "Task", "Task"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestColumnTableLookup(t *testing.T) {
	ct := sampleTable()

	if ct.Index("Task") != 1 {
		t.Errorf("Index(Task) = %d, want first occurrence 1", ct.Index("Task"))
	}
	if ct.Index("Missing") != -1 {
		t.Error("Index of a missing column should be -1")
	}
	if _, ok := ct.Lookup("Missing"); ok {
		t.Error("Lookup of a missing column should fail")
	}
	if got := ct.References(); !reflect.DeepEqual(got, []string{"aaaaaaa", "bbbbbbb", "ccccccc"}) {
		t.Errorf("References() = %v", got)
	}
	if (ColumnTable{{Name: "Task"}}).References() != nil {
		t.Error("References() without the column should be nil")
	}
	if got := ct.Row(2); !reflect.DeepEqual(got, []string{"ccccccc", "MT", "WMT"}) {
		t.Errorf("Row(2) = %v", got)
	}
}

func TestColumnTableWithoutRows(t *testing.T) {
	ct := sampleTable()
	out := ct.WithoutRows(map[int]bool{1: true})

	if out.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", out.RowCount())
	}
	if got := out.References(); !reflect.DeepEqual(got, []string{"aaaaaaa", "ccccccc"}) {
		t.Errorf("References() = %v", got)
	}
	if ct.RowCount() != 3 {
		t.Error("WithoutRows must not modify the receiver")
	}
}

func TestColumnTableCloneAndGrid(t *testing.T) {
	ct := sampleTable()
	cp := ct.Clone()
	cp[1].Values[0] = "changed"
	if ct[1].Values[0] != "QA" {
		t.Error("Clone should not share value slices")
	}
	if ColumnTable(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}

	g := ct.Grid()
	if g.RowCount() != 4 {
		t.Fatalf("Grid rows = %d, want header + 3", g.RowCount())
	}
	if !reflect.DeepEqual(g[0], ct.Names()) {
		t.Errorf("Grid header = %v", g[0])
	}
}

func TestColumnTableJSONKeepsDuplicates(t *testing.T) {
	data, err := json.Marshal(sampleTable())
	if err != nil {
		t.Fatal(err)
	}
	var back ColumnTable
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, sampleTable()) {
		t.Errorf("round trip lost columns: %s", data)
	}
}

// ============================================================================
// Record Tests
// ============================================================================

func TestRecordHasCaption(t *testing.T) {
	s := func(v string) *string { return &v }
	tests := []struct {
		name    string
		caption *string
		want    bool
	}{
		{"nil", nil, false},
		{"placeholder", s("NO_CAPTION"), false},
		{"blank", s("  \n"), false},
		{"present", s("Table 1: methods"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Caption: tt.caption}
			if r.HasCaption() != tt.want {
				t.Errorf("HasCaption() = %v, want %v", r.HasCaption(), tt.want)
			}
		})
	}
}

func TestRecordClone(t *testing.T) {
	r := &Record{
		TableHash: "t1",
		TableJSON: &TableJSON{TableDict: sampleTable()},
		RowBibMap: []RowBib{{Key: "aaaaaaa", Row: 0, CorpusID: 7, Role: RoleRef}},
	}
	cp := r.Clone()
	cp.TableJSON.TableDict[0].Values[0] = "zzzzzzz"
	cp.RowBibMap[0].Row = 5

	if r.TableJSON.TableDict[0].Values[0] != "aaaaaaa" {
		t.Error("Clone shares the table")
	}
	if r.RowBibMap[0].Row != 0 {
		t.Error("Clone shares the row map")
	}
	if (&Record{}).Clone().TableJSON != nil {
		t.Error("Clone should keep a nil table nil")
	}
}

func TestRowBibResolved(t *testing.T) {
	if (RowBib{CorpusID: UnresolvedID}).Resolved() {
		t.Error("UnresolvedID should not be resolved")
	}
	if !(RowBib{CorpusID: 42}).Resolved() {
		t.Error("a corpus id should be resolved")
	}
}

func TestRowBibJSONNames(t *testing.T) {
	title := "Attention"
	data, err := json.Marshal(RowBib{Key: "k", Row: 1, CorpusID: 2, Role: RoleSelf, Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"bib_hash_or_arxiv_id":"k"`, `"row":1`, `"corpus_id":2`, `"type":"self"`, `"title":"Attention"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("%s missing %s", data, want)
		}
	}
}

// ============================================================================
// Document Tests
// ============================================================================

const documentJSON = `{
	"paper_id": "2101.00001",
	"_pdf_hash": "p",
	"tables": {
		"zeta": {"table": "<table></table>", "caption": "Methods"},
		"alpha": {"table": "<table><row/></table>"}
	},
	"body_text": [
		{"content_type": "paragraph", "text": "As Table 1 shows", "ref_spans": [{"ref_id": "zeta"}]},
		{"content_type": "section", "text": "Results", "ref_spans": [{"ref_id": "zeta"}]},
		{"content_type": "paragraph", "text": "unrelated", "ref_spans": [{"ref_id": "fig1"}]}
	],
	"bib_entries": {"aaaaaaa": "Vaswani et al. 2017"}
}`

func TestDocumentUnmarshalKeepsTableOrder(t *testing.T) {
	var d Document
	if err := json.Unmarshal([]byte(documentJSON), &d); err != nil {
		t.Fatal(err)
	}

	if len(d.Tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(d.Tables))
	}
	if d.Tables[0].Hash != "zeta" || d.Tables[1].Hash != "alpha" {
		t.Errorf("order = %s, %s; want zeta, alpha", d.Tables[0].Hash, d.Tables[1].Hash)
	}
	if d.Tables[0].Caption == nil || d.Tables[1].Caption != nil {
		t.Error("captions not decoded as present/absent")
	}
	if d.BibEntries["aaaaaaa"] != "Vaswani et al. 2017" {
		t.Errorf("bib entries = %v", d.BibEntries)
	}

	data, err := json.Marshal(d.Tables)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Index(string(data), `"zeta"`) > strings.Index(string(data), `"alpha"`) {
		t.Errorf("MarshalJSON reordered tables: %s", data)
	}
}

func TestOrderedTablesRejectsArray(t *testing.T) {
	var ot OrderedTables
	if err := json.Unmarshal([]byte(`[1, 2]`), &ot); err == nil {
		t.Error("expected an error for a JSON array")
	}
	if err := json.Unmarshal([]byte(`null`), &ot); err != nil || ot != nil {
		t.Errorf("null should decode to nil, got %v, %v", ot, err)
	}
}

func TestDocumentInTextRefs(t *testing.T) {
	var d Document
	if err := json.Unmarshal([]byte(documentJSON), &d); err != nil {
		t.Fatal(err)
	}

	refs := d.InTextRefs("zeta")
	if len(refs) != 1 || refs[0].Text != "As Table 1 shows" {
		t.Errorf("InTextRefs(zeta) = %+v, want only the paragraph", refs)
	}
	if len(d.InTextRefs("alpha")) != 0 {
		t.Error("alpha is never referenced")
	}
}
