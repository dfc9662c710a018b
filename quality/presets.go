package quality

import (
	"fmt"
	"sort"
)

// Built-in flag lists.
var (
	Default = []string{"no_formula", "has_caption", "no_no_cite", "no_dup"}

	HighQuality = []string{
		"no_formula",
		"has_caption",
		"no_no_cite",
		"no_dup",
		"more_than_two_uniq_rows",
		"has_in_text_ref",
		"cols_no_names",
		"cols_no_old_citation_col",
		"no_merged_headers",
		"cols_no_float",
		"cols_no_figure",
		"rows_no_missing_titles",
		"rows_no_missing_abstracts",
		"rows_no_missing_full_texts",
	}

	HighQualitySchemes = []string{
		"no_dup",
		"more_than_two_uniq_rows",
		"has_caption",
		"cols_no_names",
		"cols_no_formula_colname",
		"no_merged_headers",
	}

	MidQuality = []string{
		"no_dup",
		"max_one_no_cite",
		"more_than_two_uniq_rows",
		"has_caption",
		"cols_no_names",
		"cols_no_formula",
		"cols_no_float",
		"cols_no_figure",
		"rows_no_missing_titles",
		"rows_no_missing_abstracts",
	}
)

// Presets maps preset names to their flag lists.
var Presets = map[string][]string{
	"default":              Default,
	"high_quality":         HighQuality,
	"high_quality_schemes": HighQualitySchemes,
	"mid_quality":          MidQuality,
}

// Preset returns a copy of the named built-in flag list.
func Preset(name string) ([]string, error) {
	flags, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("quality: unknown preset %q", name)
	}
	return append([]string(nil), flags...), nil
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
