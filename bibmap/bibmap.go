// Package bibmap links the rows of a reconstructed table to the works they
// cite.
//
// Each row of the References column either carries a citation marker, whose
// short key is resolved to the full citation key of the table, or it does
// not. A row without a marker is taken to describe the paper that contains
// the table, unless it names a "standard". Only the last such row is kept.
package bibmap

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/references"
)

// ErrUnknownCitation is returned when a marker's short key matches none of
// the table's citation keys.
var ErrUnknownCitation = errors.New("bibmap: unknown citation key")

// UnknownKeyError reports the row and short key that failed to resolve.
type UnknownKeyError struct {
	Row      int
	ShortKey string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("bibmap: row %d: no citation key starting with %q", e.Row, e.ShortKey)
}

func (e *UnknownKeyError) Unwrap() error {
	return ErrUnknownCitation
}

const shortKeyLen = 7

// skipWord marks rows that describe a standard rather than a paper.
const skipWord = "standard"

// KeyIndex resolves short citation keys to full keys.
type KeyIndex map[string]string

// NewKeyIndex indexes full citation keys by their first seven characters.
// Empty keys are ignored; a later key wins over an earlier one with the same
// prefix.
func NewKeyIndex(keys []string) KeyIndex {
	idx := make(KeyIndex, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		idx[prefix(k)] = k
	}
	return idx
}

// Lookup returns the full key for a short key.
func (idx KeyIndex) Lookup(short string) (string, bool) {
	k, ok := idx[short]
	return k, ok
}

func prefix(k string) string {
	if len(k) < shortKeyLen {
		return k
	}
	return k[:shortKeyLen]
}

// Map builds the row mapping of a table from its first column. Cited rows
// come first in row order; the self row, if any, is appended last with the
// paper id as its key.
func Map(ct model.ColumnTable, keys []string, paperID string) ([]model.RowBib, error) {
	if len(ct) == 0 {
		return nil, nil
	}

	idx := NewKeyIndex(keys)
	lower := cases.Lower(language.Und)

	var out []model.RowBib
	var self *model.RowBib
	for i, v := range ct[0].Values {
		m := references.CiteMarker.FindStringSubmatch(v)
		if m == nil {
			if strings.Contains(lower.String(v), skipWord) {
				continue
			}
			self = &model.RowBib{
				Key:      paperID,
				Row:      i,
				CorpusID: model.UnresolvedID,
				Role:     model.RoleSelf,
			}
			continue
		}

		full, ok := idx.Lookup(m[1])
		if !ok {
			return nil, &UnknownKeyError{Row: i, ShortKey: m[1]}
		}
		out = append(out, model.RowBib{
			Key:      full,
			Row:      i,
			CorpusID: model.UnresolvedID,
			Role:     model.RoleRef,
		})
	}

	if self != nil {
		out = append(out, *self)
	}
	return out, nil
}
