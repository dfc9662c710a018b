package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/tabcite"
	"github.com/tsawler/tabcite/bibstore"
	"github.com/tsawler/tabcite/format"
	"github.com/tsawler/tabcite/internal/logging"
	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/quality"
)

const paperID = "2101.00001"

func cite(key string) string {
	return `<cit sha="` + key + `000">{{cite:` + key + `}}</cit>`
}

var methodsMarkup = `<table>` +
	`<row><cell>Method</cell><cell>Task</cell><cell>Data</cell></row>` +
	`<row><cell>` + cite("aaaaaaa") + `</cell><cell>QA</cell><cell>SQuAD</cell></row>` +
	`<row><cell>` + cite("bbbbbbb") + `</cell><cell>NLI</cell><cell>MNLI</cell></row>` +
	`<row><cell>Ours</cell><cell>QA</cell><cell>Wiki</cell></row>` +
	`</table>`

// testConfig relaxes the assemble predicates to what the small fixture
// table satisfies.
const testConfig = `
workers: 2
log_format: json
assemble_predicates: [has_at_least_2_cites, has_at_least_2_cols]
`

type env struct {
	dir    string
	config string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Cleanup(func() { logging.SetLogger(nil) })
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(testConfig), 0o600))
	return &env{dir: dir, config: cfg}
}

func (e *env) path(parts ...string) string {
	return filepath.Join(append([]string{e.dir}, parts...)...)
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errBuf)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) writeDocuments(t *testing.T, name string) string {
	t.Helper()
	caption := "Comparison of methods"
	doc := model.Document{
		PaperID:  paperID,
		Tables:   model.OrderedTables{{Hash: "t1", Markup: methodsMarkup, Caption: &caption}},
		BodyText: []model.Section{{ContentType: "paragraph", Text: "See Table 1.", RefSpans: []model.RefSpan{{RefID: "t1"}}}},
	}
	path := e.path(name)
	require.NoError(t, writeLines(path, []model.Document{doc}))
	return path
}

func readRecords(t *testing.T, path string) []*model.Record {
	t.Helper()
	r, err := format.Open(path)
	require.NoError(t, err)
	defer r.Close()
	recs, err := format.ReadAll[*model.Record](r)
	require.NoError(t, err)
	return recs
}

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() { version, commit, date = origVersion, origCommit, origDate }()

	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	root := NewRootCmd()
	assert.Equal(t, "1.2.3", root.Version)
}

func TestPresets(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "high_quality")
	assert.Contains(t, out, "no_formula,has_caption,no_no_cite,no_dup")
	assert.Contains(t, out, "cols_no_vague")
	assert.Contains(t, out, "has_at_least_2_cites")
}

func TestStages(t *testing.T) {
	e := newEnv(t)
	docs := e.writeDocuments(t, "papers.jsonl.gz")

	_, err := e.run(t, "label", docs, "-o", e.path("labeled.jsonl"))
	require.NoError(t, err)
	labeled := readRecords(t, e.path("labeled.jsonl"))
	require.Len(t, labeled, 1)
	assert.NotEmpty(t, labeled[0].Labels)

	_, err = e.run(t, "assemble", e.path("labeled.jsonl"), "-o", e.path("assembled.jsonl"))
	require.NoError(t, err)
	assembled := readRecords(t, e.path("assembled.jsonl"))
	require.Len(t, assembled, 1)
	require.NotNil(t, assembled[0].TableJSON)

	_, err = e.run(t, "curate", e.path("assembled.jsonl"), "-o", e.path("curated.jsonl"), "--flags", "no_formula,has_caption")
	require.NoError(t, err)
	assert.Len(t, readRecords(t, e.path("curated.jsonl")), 1)

	flags, err := quality.ReadFlags(e.path("curated.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, []string{"no_formula", "has_caption"}, flags)

	_, err = e.run(t, "curate", e.path("assembled.jsonl"), "-o", e.path("none.jsonl"), "--where", ".caption == null")
	require.NoError(t, err)
	assert.Empty(t, readRecords(t, e.path("none.jsonl")))

	_, err = e.run(t, "export", e.path("curated.jsonl"), "-o", e.path("dataset"))
	require.NoError(t, err)
	assert.FileExists(t, e.path("dataset", "tables.jsonl"))
	assert.FileExists(t, e.path("dataset", "papers.jsonl"))
}

func TestLabel_FilterModeAndPredicates(t *testing.T) {
	e := newEnv(t)
	docs := e.writeDocuments(t, "papers.jsonl")

	_, err := e.run(t, "label", docs, "-o", e.path("out.jsonl"), "--filter", "--predicates", "has_at_least_2_cites")
	require.NoError(t, err)
	recs := readRecords(t, e.path("out.jsonl"))
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Labels)

	_, err = e.run(t, "label", docs)
	assert.ErrorContains(t, err, "--out")
}

func TestBibImportResolves(t *testing.T) {
	e := newEnv(t)
	db := e.path("bib.db")
	entries := e.path("entries.jsonl")
	require.NoError(t, os.WriteFile(entries, []byte(
		`{"key":"aaaaaaa000","corpus_id":11,"title":"Attention","abstract":"a"}`+"\n"+
			`{"key":"bbbbbbb000","corpus_id":12,"title":"BERT","abstract":"b"}`+"\n"), 0o600))
	ids := e.path("ids.jsonl")
	require.NoError(t, os.WriteFile(ids, []byte(`{"corpusId":11}`+"\n"), 0o600))

	_, err := e.run(t, "--bib-db", db, "bib", "import", entries)
	require.NoError(t, err)
	_, err = e.run(t, "--bib-db", db, "fulltext", "import", ids)
	require.NoError(t, err)

	out, err := e.run(t, "--bib-db", db, "bib", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"entries":2`)
	assert.Contains(t, out, `"full_texts":1`)

	docs := e.writeDocuments(t, "papers.jsonl")
	_, err = e.run(t, "label", docs, "-o", e.path("labeled.jsonl"))
	require.NoError(t, err)
	_, err = e.run(t, "--bib-db", db, "assemble", e.path("labeled.jsonl"), "-o", e.path("assembled.jsonl"))
	require.NoError(t, err)

	recs := readRecords(t, e.path("assembled.jsonl"))
	require.Len(t, recs, 1)
	assert.Equal(t, int64(11), recs[0].RowBibMap[0].CorpusID)
	assert.Equal(t, int64(12), recs[0].RowBibMap[1].CorpusID)

	// Only corpus id 11 has a full text, so one row survives and the table
	// falls under the two-row minimum.
	_, err = e.run(t, "--bib-db", db, "curate", e.path("assembled.jsonl"), "-o", e.path("curated.jsonl"),
		"--flags", "rows_no_missing_full_texts,more_than_two_rows")
	require.NoError(t, err)
	assert.Empty(t, readRecords(t, e.path("curated.jsonl")))

	_, err = e.run(t, "curate", e.path("assembled.jsonl"), "-o", e.path("x.jsonl"), "--flags", "rows_no_missing_full_texts")
	assert.ErrorContains(t, err, "bibliographic store")

	store, err := bibstore.Open(db)
	require.NoError(t, err)
	defer store.Close()
	_, ok, err := store.Resolve(context.Background(), "aaaaaaa000")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun(t *testing.T) {
	e := newEnv(t)
	in := e.path("in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	e.writeDocuments(t, filepath.Join("in", "papers_00.jsonl"))
	e.writeDocuments(t, filepath.Join("in", "papers_01.jsonl.gz"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "done.log"), []byte("papers_00\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.jsonl"), []byte("{not json\n"), 0o600))

	out := e.path("out")
	_, err := e.run(t, "run", in, out, "--preset", "default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.jsonl")

	for _, name := range []string{"papers_00.jsonl", "papers_01.jsonl"} {
		assert.Len(t, readRecords(t, filepath.Join(out, labeledDir, name)), 1)
		assert.Len(t, readRecords(t, filepath.Join(out, assembledDir, name)), 1)
	}
	assert.NoFileExists(t, filepath.Join(out, labeledDir, "done.jsonl"))

	// The two files hold the same table; no_dup keeps it in the first file.
	assert.Len(t, readRecords(t, filepath.Join(out, curatedDir, "papers_00.jsonl")), 1)
	assert.Empty(t, readRecords(t, filepath.Join(out, curatedDir, "papers_01.jsonl")))

	for _, name := range []string{"papers_00.jsonl", "papers_01.jsonl"} {
		flags, err := quality.ReadFlags(filepath.Join(out, curatedDir, name))
		require.NoError(t, err)
		assert.Equal(t, quality.Default, flags)
	}
	assert.NoFileExists(t, filepath.Join(out, curatedDir, "broken_filters.json"))
}

func TestRunFiles_EarlierFileKeepsDuplicate(t *testing.T) {
	e := newEnv(t)
	var paths []string
	for _, name := range []string{"a.jsonl", "b.jsonl"} {
		paths = append(paths, e.writeDocuments(t, name))
	}

	for i := range 20 {
		tmpl := tabcite.FromRecords(nil).
			AssembleFilters("has_at_least_2_cites", "has_at_least_2_cols").
			Signatures(quality.NewSignatureSet())
		out := e.path("out", strconv.Itoa(i))

		results, err := runFiles(context.Background(), tmpl, paths, out, []string{"no_dup"}, 4)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].Curated, "iteration %d", i)
		assert.Equal(t, 0, results[1].Curated, "iteration %d", i)
		assert.Len(t, readRecords(t, filepath.Join(out, curatedDir, "a.jsonl")), 1)
		assert.Empty(t, readRecords(t, filepath.Join(out, curatedDir, "b.jsonl")))
	}
}

func TestRun_InvalidWhere(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "run", e.dir, e.path("out"), "--where", ".[")
	assert.ErrorContains(t, err, "where")
}

func TestProcessFiles_FailuresDoNotCancelSiblings(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	paths := []string{"a", "b", "c", "d"}

	results, err := processFiles(context.Background(), paths, 2, func(_ context.Context, path string) (fileResult, error) {
		calls.Add(1)
		if path == "b" {
			return fileResult{Path: path}, boom
		}
		return fileResult{Path: path, Curated: 1}, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(4), calls.Load())
	require.Len(t, results, 4)
	assert.Equal(t, 1, results[3].Curated)
}

func TestInspect(t *testing.T) {
	e := newEnv(t)
	docs := e.writeDocuments(t, "papers.jsonl")
	_, err := e.run(t, "label", docs, "-o", e.path("labeled.jsonl"))
	require.NoError(t, err)

	out, err := e.run(t, "inspect", e.path("labeled.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, `"_table_hash":"t1"`)

	out, err = e.run(t, "inspect", e.path("labeled.jsonl"), "--query", "._table_hash")
	require.NoError(t, err)
	assert.Equal(t, "\"t1\"\n", out)
}

func TestPrintGrids(t *testing.T) {
	caption := "Methods"
	var buf bytes.Buffer
	printGrids(&buf, []*model.Record{
		{PaperID: paperID, TableHash: "t1", Caption: &caption, TableJSON: &model.TableJSON{
			TableDict: model.ColumnTable{{Name: model.ReferencesColumn, Values: []string{"k1"}}, {Name: "Task", Values: []string{"QA"}}},
		}},
		{PaperID: paperID, TableHash: "t2", Length: 12},
	})
	out := buf.String()
	assert.Contains(t, out, "## 2101.00001 / t1\nMethods\n")
	assert.Contains(t, out, "| References | Task |")
	assert.Contains(t, out, "(not assembled; 0 labels, len 12)")
}

func TestStem(t *testing.T) {
	assert.Equal(t, "papers_00", stem("/data/papers_00.jsonl.gz"))
	assert.Equal(t, "papers_00", stem("papers_00.json"))
	assert.Equal(t, "notes.txt", stem("notes.txt"))
}
