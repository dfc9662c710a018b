package tabcite

import (
	"github.com/tsawler/tabcite/dataset"
	"github.com/tsawler/tabcite/internal/query"
	"github.com/tsawler/tabcite/predicate"
	"github.com/tsawler/tabcite/quality"
)

// Options holds the configuration of every stage a Processor can run.
type Options struct {
	// Label stage
	predicates []string
	mode       dataset.Mode

	// Assemble stage
	assembleFilters []string
	resolver        dataset.Resolver

	// Curate stage
	allow      quality.AllowList
	signatures *quality.SignatureSet
	where      *query.Query
}

// defaultOptions returns the default stage options.
func defaultOptions() Options {
	return Options{
		predicates:      predicate.DefaultLabels,
		mode:            dataset.ModeLabel,
		assembleFilters: predicate.DefaultFilters,
	}
}

// clone creates a deep copy of Options. The resolver, allow-list and
// signature set are shared.
func (o Options) clone() Options {
	newOpts := o
	newOpts.predicates = append([]string(nil), o.predicates...)
	newOpts.assembleFilters = append([]string(nil), o.assembleFilters...)
	return newOpts
}
