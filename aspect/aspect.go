// Package aspect classifies table columns by the kind of values they hold.
package aspect

import (
	"regexp"
	"strconv"
	"strings"
)

// Type is the coarse kind of a column.
type Type string

const (
	Cite    Type = "cite"
	Numeric Type = "num"
	Bool    Type = "bool"
	CatUniq Type = "cat-uniq"
	Cat     Type = "cat"
	Gen     Type = "gen"
	Ent     Type = "ent"
)

// IsText reports whether t is one of the free-text kinds.
func (t Type) IsText() bool {
	return t == Gen || t == Ent
}

var (
	numericNoise = regexp.MustCompile(`[<$∼~\s]`)
	naNoise      = regexp.MustCompile(`[∼~\s]`)

	withUnits = regexp.MustCompile(`^[<-]?\d+[km]`)
	duration  = regexp.MustCompile(`^(\d+(?:hrs?|hours?))?(\d+(?:ms?|mins?|minutes?))?(\d+(?:s|sec|seconds?))?`)
	frequency = regexp.MustCompile(`^\d+[gm]hz`)
)

var naValues = map[string]bool{
	"-":   true,
	"–":   true,
	"‐":   true,
	"n/a": true,
}

var boolWords = map[string]bool{"yes": true, "no": true}

var boolGlyphs = map[string]bool{
	"✘": true,
	"✗": true,
	"×": true,
	"✔": true,
	"✓": true,
}

// genTokens is the token count above which a value reads as prose.
const genTokens = 4

// IsNA reports whether v is a placeholder for a missing value.
func IsNA(v string) bool {
	return naValues[naNoise.ReplaceAllString(strings.ToLower(v), "")]
}

// IsNumeric reports whether v reads as a number, optionally with a
// comparator, a magnitude suffix, a duration or a frequency.
func IsNumeric(v string) bool {
	v = strings.ReplaceAll(v, "below", "<")
	v = numericNoise.ReplaceAllString(strings.ToLower(strings.TrimSpace(v)), "")

	if withUnits.MatchString(v) || frequency.MatchString(v) {
		return true
	}
	for _, g := range duration.FindStringSubmatch(v)[1:] {
		if g != "" {
			return true
		}
	}

	plain := strings.NewReplacer(",", "", "-", "").Replace(v)
	_, err := strconv.ParseFloat(plain, 64)
	return err == nil
}

// IsBool reports whether v is a yes/no word or a check or cross glyph.
func IsBool(v string) bool {
	v = strings.TrimSpace(v)
	return boolWords[strings.ToLower(v)] || boolGlyphs[v]
}

// Classify returns the kind of a column. The checks run in a fixed order and
// the first match wins. An empty column is an entity column.
func Classify(values []string) Type {
	if len(values) == 0 {
		return Ent
	}
	if strings.Contains(values[0], "{{cite:") {
		return Cite
	}
	if all(values, func(v string) bool { return IsNumeric(v) || IsNA(v) }) {
		return Numeric
	}
	if all(values, func(v string) bool { return IsBool(v) || IsNA(v) }) {
		return Bool
	}

	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	if len(distinct) == 1 {
		return CatUniq
	}
	if len(distinct) != len(values) {
		return Cat
	}

	long, counted := 0, 0
	for _, v := range values {
		if IsNA(v) {
			continue
		}
		counted++
		if len(strings.Fields(v)) > genTokens {
			long++
		}
	}
	if 2*long > counted {
		return Gen
	}
	return Ent
}

func all(values []string, fn func(string) bool) bool {
	for _, v := range values {
		if !fn(v) {
			return false
		}
	}
	return true
}
