// Package query runs jq expressions over records.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/tsawler/tabcite/model"
)

// Query is a compiled jq expression.
type Query struct {
	src  string
	code *gojq.Code
}

// Compile parses and compiles expr.
func Compile(expr string) (*Query, error) {
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	return &Query{src: expr, code: code}, nil
}

// String returns the source expression.
func (q *Query) String() string {
	return q.src
}

// Run evaluates the query against v and collects every output. v must
// already be made of JSON values; use Normalize for Go structs.
func (q *Query) Run(v any) ([]any, error) {
	var out []any
	iter := q.code.Run(v)
	for {
		r, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := r.(error); isErr {
			return nil, fmt.Errorf("query error: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Match reports whether the first output of the query is truthy. As in jq,
// only false and null are falsy; no output at all counts as false.
func (q *Query) Match(v any) (bool, error) {
	iter := q.code.Run(v)
	r, ok := iter.Next()
	if !ok {
		return false, nil
	}
	if err, isErr := r.(error); isErr {
		return false, fmt.Errorf("query error: %w", err)
	}
	return truthy(r), nil
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		return true
	}
}

// Normalize converts v into the plain maps, slices and scalars gojq works on.
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Select keeps the records for which q matches, in input order.
func Select(q *Query, recs []*model.Record) ([]*model.Record, error) {
	out := make([]*model.Record, 0, len(recs))
	for _, rec := range recs {
		v, err := Normalize(rec)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", rec.TableHash, err)
		}
		ok, err := q.Match(v)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", rec.TableHash, err)
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
