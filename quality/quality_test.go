package quality

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/tabcite/model"
)

func strptr(s string) *string { return &s }

func methodsTable() model.ColumnTable {
	return model.ColumnTable{
		{Name: model.ReferencesColumn, Values: []string{"aaaaaaa", "bbbbbbb", "ccccccc"}},
		{Name: "Method", Values: []string{"Encoder", "Decoder", "Both"}},
		{Name: "Task", Values: []string{"QA", "NLI", "Summarization"}},
	}
}

func newRecord(hash string, ct model.ColumnTable) *model.Record {
	rows := make([]model.RowBib, 0, ct.RowCount())
	for i, key := range ct.References() {
		rows = append(rows, model.RowBib{
			Key:      key,
			Row:      i,
			CorpusID: int64(i + 1),
			Role:     model.RoleRef,
			Title:    strptr("title " + key),
			Abstract: strptr("abstract " + key),
		})
	}
	return &model.Record{
		TableHash: hash,
		Caption:   strptr("Comparison of methods"),
		InTextRef: []model.Section{{ContentType: "paragraph", Text: "see Table 1"}},
		TableJSON: &model.TableJSON{Table: ct.Grid(), TableDict: ct},
		RowBibMap: rows,
	}
}

func mustPipeline(t *testing.T, flags []string, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(flags, opts...)
	require.NoError(t, err)
	return p
}

func TestCurate_DuplicateTableKeptOnce(t *testing.T) {
	p := mustPipeline(t, Default)

	first := newRecord("t1", methodsTable())
	second := newRecord("t2", methodsTable())

	kept, stats := p.Curate([]*model.Record{first, second})
	require.Len(t, kept, 1)
	assert.Equal(t, "t1", kept[0].TableHash)
	assert.Equal(t, 2, stats.Input)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 1, stats.Rejected["no_dup"])
}

func TestCurate_BlankCaptionNeedsFlag(t *testing.T) {
	rec := newRecord("t1", methodsTable())
	rec.Caption = strptr("   ")

	kept, _ := mustPipeline(t, []string{"no_formula"}).Curate([]*model.Record{rec})
	assert.Len(t, kept, 1)

	kept, stats := mustPipeline(t, []string{"no_formula", "has_caption"}).Curate([]*model.Record{rec})
	assert.Empty(t, kept)
	assert.Equal(t, 1, stats.Rejected["has_caption"])
}

func TestSignature_MasksCitations(t *testing.T) {
	a := methodsTable()
	a[1].Values[0] = "{{cite:1234567}} Encoder"
	b := methodsTable()
	b[1].Values[0] = "{{cite:7654321}} Encoder"
	b[0].Values[0] = "zzzzzzz"

	assert.Equal(t, Signature(a), Signature(b))
	assert.NotContains(t, Signature(a), "aaaaaaa", "References are not part of the signature")
	assert.Contains(t, Signature(a), "[cite] Encoder")
}

func TestApply_TableRejects(t *testing.T) {
	tests := []struct {
		name   string
		flags  []string
		modify func(*model.Record)
		reason string
	}{
		{
			name:   "formula",
			flags:  Default,
			modify: func(r *model.Record) { r.TableJSON.TableDict[1].Values[0] = "{{formula:abc}}" },
			reason: "no_formula",
		},
		{
			name:   "missing caption",
			flags:  Default,
			modify: func(r *model.Record) { r.Caption = nil },
			reason: "has_caption",
		},
		{
			name:   "placeholder caption",
			flags:  Default,
			modify: func(r *model.Record) { r.Caption = strptr("NO_CAPTION") },
			reason: "has_caption",
		},
		{
			name:   "unresolved reference",
			flags:  Default,
			modify: func(r *model.Record) { r.TableJSON.TableDict[0].Values[2] = "no_cite-2" },
			reason: "no_no_cite",
		},
		{
			name:  "two unresolved references",
			flags: []string{"max_one_no_cite"},
			modify: func(r *model.Record) {
				r.TableJSON.TableDict[0].Values[1] = "no_cite-1"
				r.TableJSON.TableDict[0].Values[2] = "no_cite-2"
			},
			reason: "max_one_no_cite",
		},
		{
			name:   "no in-text reference",
			flags:  []string{"has_in_text_ref"},
			modify: func(r *model.Record) { r.InTextRef = nil },
			reason: "has_in_text_ref",
		},
		{
			name:   "merged header",
			flags:  []string{"no_merged_headers"},
			modify: func(r *model.Record) { r.TableJSON.TableDict[2].Name = "Task - Dataset" },
			reason: "no_merged_headers",
		},
		{
			name:   "missing title",
			flags:  []string{"no_missing_titles"},
			modify: func(r *model.Record) { r.RowBibMap[1].Title = nil },
			reason: "no_missing_titles",
		},
		{
			name:   "missing abstract",
			flags:  []string{"no_missing_abstracts"},
			modify: func(r *model.Record) { r.RowBibMap[0].Abstract = nil },
			reason: "no_missing_abstracts",
		},
		{
			name: "references all dashes",
			modify: func(r *model.Record) {
				r.TableJSON.TableDict[0].Values = []string{"-", " - ", "-"}
			},
			reason: "references_all_dash",
		},
		{
			name:   "repeated references",
			flags:  []string{"more_than_two_uniq_rows"},
			modify: func(r *model.Record) { r.TableJSON.TableDict[0].Values = []string{"a", "a", "a"} },
			reason: "more_than_two_uniq_rows",
		},
		{
			name:   "too few columns",
			modify: func(r *model.Record) { r.TableJSON.TableDict = r.TableJSON.TableDict[:2] },
			reason: ReasonMinColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord("t", methodsTable())
			tt.modify(rec)

			kept, reason := mustPipeline(t, tt.flags).Apply(rec)
			assert.Nil(t, kept)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestApply_NoTable(t *testing.T) {
	p := mustPipeline(t, nil)
	kept, reason := p.Apply(&model.Record{TableHash: "t"})
	assert.Nil(t, kept)
	assert.Equal(t, ReasonNoTable, reason)
}

func TestApply_RowRemovalRenumbers(t *testing.T) {
	rec := newRecord("t", methodsTable())
	rec.RowBibMap[1].Title = nil

	kept, reason := mustPipeline(t, []string{"rows_no_missing_titles"}).Apply(rec)
	require.NotNil(t, kept, reason)

	assert.Equal(t, []string{"aaaaaaa", "ccccccc"}, kept.TableJSON.TableDict.References())
	assert.Equal(t, []string{"Encoder", "Both"}, kept.TableJSON.TableDict[1].Values)
	require.Len(t, kept.RowBibMap, 2)
	assert.Equal(t, 0, kept.RowBibMap[0].Row)
	assert.Equal(t, "ccccccc", kept.RowBibMap[1].Key)
	assert.Equal(t, 1, kept.RowBibMap[1].Row)

	// input untouched
	assert.Equal(t, 3, rec.TableJSON.TableDict.RowCount())
	assert.Len(t, rec.RowBibMap, 3)
}

func TestApply_RowRemovalThenSize(t *testing.T) {
	rec := newRecord("t", methodsTable())
	rec.RowBibMap[0].Abstract = nil
	rec.RowBibMap[1].Abstract = nil

	kept, reason := mustPipeline(t, []string{"rows_no_missing_abstracts", "more_than_two_rows"}).Apply(rec)
	assert.Nil(t, kept)
	assert.Equal(t, "more_than_two_rows", reason)

	kept, reason = mustPipeline(t, []string{"rows_no_missing_abstracts", "more_than_two_uniq_rows"}).Apply(rec)
	assert.Nil(t, kept)
	assert.Equal(t, "more_than_two_uniq_rows", reason)
}

func TestApply_FullTextAllowList(t *testing.T) {
	_, err := New([]string{"rows_no_missing_full_texts"})
	assert.True(t, errors.Is(err, ErrMissingAllowList))

	p := mustPipeline(t, []string{"rows_no_missing_full_texts"}, WithAllowList(IDSet{1: {}, 3: {}}))
	kept, reason := p.Apply(newRecord("t", methodsTable()))
	require.NotNil(t, kept, reason)
	assert.Equal(t, []string{"aaaaaaa", "ccccccc"}, kept.TableJSON.TableDict.References())
}

func TestApply_ColumnDrops(t *testing.T) {
	base := func() model.ColumnTable {
		ct := methodsTable()
		return append(ct, model.Column{Name: "Score", Values: []string{"high", "low", "mid"}})
	}

	tests := []struct {
		name    string
		flags   []string
		extra   model.Column
		old     *string
		dropped bool
	}{
		{"citation only", nil, model.Column{Name: "Also", Values: []string{"{{cite:1234567}}", "-", "{{cite:1234567}} and {{cite:7654321}},"}}, nil, true},
		{"mixed citations", nil, model.Column{Name: "Also", Values: []string{"{{cite:1234567}}", "BERT", "-"}}, nil, false},
		{"numeric header", nil, model.Column{Name: "2021", Values: []string{"a", "b", "c"}}, nil, true},
		{"formula cell", []string{"cols_no_formula"}, model.Column{Name: "Loss", Values: []string{"{{formula:x}}", "b", "c"}}, nil, true},
		{"formula header only", []string{"cols_no_formula_colname"}, model.Column{Name: "Loss", Values: []string{"{{formula:x}}", "b", "c"}}, nil, false},
		{"formula header", []string{"cols_no_formula_colname"}, model.Column{Name: "{{formula:x}}", Values: []string{"a", "b", "c"}}, nil, true},
		{"author synonym", []string{"cols_no_names"}, model.Column{Name: "Author", Values: []string{"a", "b", "c"}}, nil, true},
		{"generic header", []string{"col_no_generic"}, model.Column{Name: "Venue", Values: []string{"a", "b", "c"}}, nil, true},
		{"vague header", []string{"cols_no_vague"}, model.Column{Name: "Github Link", Values: []string{"a", "b", "c"}}, nil, true},
		{"old citation column", []string{"cols_no_old_citation_col"}, model.Column{Name: "References_OLD", Values: []string{"a", "b", "c"}}, strptr("References_OLD"), true},
		{"old citation column unset", []string{"cols_no_old_citation_col"}, model.Column{Name: "References_OLD", Values: []string{"a", "b", "c"}}, nil, false},
		{"float", []string{"cols_no_float"}, model.Column{Name: "F1", Values: []string{"0.91", "b", "c"}}, nil, true},
		{"figure", []string{"cols_no_figure"}, model.Column{Name: "Arch", Values: []string{"{{figure:1}}", "b", "c"}}, nil, true},
		{"numeric aspect", []string{"cols_no_numeric"}, model.Column{Name: "Params", Values: []string{"110M", "340M", "-"}}, nil, true},
		{"flag off", nil, model.Column{Name: "Author", Values: []string{"a", "b", "c"}}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord("t", append(base(), tt.extra))
			rec.TableJSON.OldCitationColumn = tt.old

			kept, reason := mustPipeline(t, tt.flags).Apply(rec)
			require.NotNil(t, kept, reason)
			_, present := kept.TableJSON.TableDict.Lookup(tt.extra.Name)
			assert.Equal(t, !tt.dropped, present)
			assert.Equal(t, model.ReferencesColumn, kept.TableJSON.TableDict[0].Name)
		})
	}
}

func TestApply_ReferencesNeverDropped(t *testing.T) {
	rec := newRecord("t", methodsTable())
	rec.TableJSON.TableDict[0].Values = []string{"{{cite:1234567}}", "-", "{{cite:7654321}}"}

	kept, reason := mustPipeline(t, []string{"cols_no_formula"}).Apply(rec)
	require.NotNil(t, kept, reason)
	assert.Equal(t, []string{model.ReferencesColumn, "Method", "Task"}, kept.TableJSON.TableDict.Names())
}

func TestNew_AspectFilterRelaxesMinColumns(t *testing.T) {
	ct := methodsTable()[:2]

	_, reason := mustPipeline(t, nil).Apply(newRecord("t", ct))
	assert.Equal(t, ReasonMinColumns, reason)

	p := mustPipeline(t, []string{"cols_no_numeric"})
	assert.Equal(t, 2, p.MinColumns())
	kept, reason := p.Apply(newRecord("t", ct))
	require.NotNil(t, kept, reason)
}

func TestNew_Flags(t *testing.T) {
	_, err := New([]string{"no_formula", "no_such_flag"})
	assert.True(t, errors.Is(err, ErrUnknownFilter))

	p := mustPipeline(t, []string{"no_dup", "has_caption", "no_dup"})
	assert.Equal(t, []string{"no_dup", "has_caption"}, p.Flags())
}

func TestNew_CustomRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(tableRule{name: "reject_all", fn: func(*Candidate) bool { return true }})

	_, err := New(Default, WithRegistry(r))
	assert.True(t, errors.Is(err, ErrUnknownFilter))

	p := mustPipeline(t, []string{"reject_all"}, WithRegistry(r))
	_, reason := p.Apply(newRecord("t", methodsTable()))
	assert.Equal(t, "reject_all", reason)
}

func TestWithSignatures_SharedAcrossPipelines(t *testing.T) {
	sigs := NewSignatureSet()
	a := mustPipeline(t, []string{"no_dup"}, WithSignatures(sigs))
	b := mustPipeline(t, []string{"no_dup"}, WithSignatures(sigs))

	kept, _ := a.Apply(newRecord("t1", methodsTable()))
	require.NotNil(t, kept)
	kept, reason := b.Apply(newRecord("t2", methodsTable()))
	assert.Nil(t, kept)
	assert.Equal(t, "no_dup", reason)
	assert.Equal(t, 1, sigs.Len())
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			flags, err := Preset(name)
			require.NoError(t, err)
			_, err = New(flags, WithAllowList(IDSet{}))
			assert.NoError(t, err)
		})
	}

	flags, err := Preset("default")
	require.NoError(t, err)
	assert.Equal(t, []string{"no_formula", "has_caption", "no_no_cite", "no_dup"}, flags)

	_, err = Preset("best")
	assert.Error(t, err)
}

func TestIsVague(t *testing.T) {
	assert.True(t, IsVague("Year"))
	assert.True(t, IsVague("  Github Link "))
	assert.True(t, IsVague("Publicly Available Repository (Data or Code)"))
	assert.False(t, IsVague("Accuracy"))
	assert.False(t, IsVague("year of birth"))
}

func TestFlagsFile(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "part-0_filters.json"), FlagsPath(filepath.Join("out", "part-0.jsonl")))
	assert.Equal(t, "curated_filters.json", FlagsPath("curated"))

	out := filepath.Join(t.TempDir(), "curated.jsonl")
	require.NoError(t, WriteFlags(out, HighQualitySchemes))
	got, err := ReadFlags(out)
	require.NoError(t, err)
	assert.Equal(t, HighQualitySchemes, got)
}

func TestListFilters(t *testing.T) {
	names := ListFilters()
	for _, want := range []string{"no_dup", "has_caption", "rows_no_missing_full_texts", "cols_no_ent_or_gen"} {
		assert.Contains(t, names, want)
	}
	_, ok := GetFilter("references_all_dash")
	assert.False(t, ok, "always-on rules are not selectable")
}
