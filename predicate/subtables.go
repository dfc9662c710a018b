package predicate

import "github.com/tsawler/tabcite/markup"

// SubTableIndex tracks table elements already emitted so that a sub-table
// that also appears on its own, or inside another table, is kept only once.
// It is not safe for concurrent use; each input file owns one.
type SubTableIndex struct {
	seen map[string]struct{}
}

// NewSubTableIndex creates an empty index.
func NewSubTableIndex() *SubTableIndex {
	return &SubTableIndex{seen: make(map[string]struct{})}
}

// Admit reports whether the tree's outermost table is new. When it is, every
// table element of the tree, nested ones included, is recorded as seen.
func (x *SubTableIndex) Admit(t *markup.Tree) bool {
	keys := t.TableKeys()
	if len(keys) == 0 {
		return true
	}
	if _, ok := x.seen[keys[0]]; ok {
		return false
	}
	for _, k := range keys {
		x.seen[k] = struct{}{}
	}
	return true
}

// Len returns how many distinct table elements have been recorded.
func (x *SubTableIndex) Len() int {
	return len(x.seen)
}
