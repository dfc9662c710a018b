package dataset

import (
	"strconv"

	"github.com/tsawler/tabcite/model"
)

// TableEntry is one line of the tables dataset. Table maps each column to
// the values of each resolved row, keyed by corpus id.
type TableEntry struct {
	TabID     string                         `json:"tabid"`
	Table     map[string]map[string][]string `json:"table"`
	RowBibMap []model.RowBib                 `json:"row_bib_map"`
	Caption   *string                        `json:"caption"`
	InTextRef []model.Section                `json:"in_text_ref"`
	ArxivID   string                         `json:"arxiv_id"`
}

// Paper is one line of the papers dataset.
type Paper struct {
	CorpusID int64    `json:"corpus_id"`
	TabIDs   []string `json:"tabids"`
	Title    *string  `json:"title"`
	Abstract *string  `json:"abstract"`
}

// Export reshapes curated records into the tables and papers datasets.
// Only rows with a corpus id appear in a table; papers are listed in the
// order they were first cited.
func Export(recs []*model.Record) ([]TableEntry, []Paper) {
	var (
		entries []TableEntry
		order   []int64
		papers  = make(map[int64]*Paper)
	)

	for _, rec := range recs {
		if rec.TableJSON == nil || len(rec.TableJSON.TableDict) == 0 {
			continue
		}
		ct := rec.TableJSON.TableDict

		table := make(map[string]map[string][]string)
		for _, col := range ct {
			if col.Name == model.ReferencesColumn {
				continue
			}
			cells, ok := table[col.Name]
			if !ok {
				cells = make(map[string][]string)
				table[col.Name] = cells
			}
			for _, rb := range rec.RowBibMap {
				if !rb.Resolved() || rb.Row < 0 || rb.Row >= len(col.Values) {
					continue
				}
				id := strconv.FormatInt(rb.CorpusID, 10)
				cells[id] = append(cells[id], col.Values[rb.Row])
			}
		}

		entries = append(entries, TableEntry{
			TabID:     rec.TableHash,
			Table:     table,
			RowBibMap: rec.RowBibMap,
			Caption:   rec.Caption,
			InTextRef: rec.InTextRef,
			ArxivID:   rec.PaperID,
		})

		for _, rb := range rec.RowBibMap {
			if !rb.Resolved() {
				continue
			}
			p, ok := papers[rb.CorpusID]
			if !ok {
				p = &Paper{CorpusID: rb.CorpusID}
				papers[rb.CorpusID] = p
				order = append(order, rb.CorpusID)
			}
			p.Title = rb.Title
			p.Abstract = rb.Abstract
			if n := len(p.TabIDs); n == 0 || p.TabIDs[n-1] != rec.TableHash {
				p.TabIDs = append(p.TabIDs, rec.TableHash)
			}
		}
	}

	out := make([]Paper, len(order))
	for i, id := range order {
		out[i] = *papers[id]
	}
	return entries, out
}
