// Package predicate provides the named table checks used to label and filter
// raw tables.
//
// Predicates are pure functions over a parsed [markup.Tree]. They are looked
// up by name through a [Registry]; the package registers the built-in set at
// init time:
//
//	preds, err := predicate.Resolve(predicate.DefaultLabels)
//	labels := predicate.Label(tree, preds)
//
// In label mode every predicate is evaluated and recorded. In filter mode
// evaluation stops at the first failing predicate.
//
// A [SubTableIndex] removes duplicate sub-tables within one document.
package predicate
