package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabcite/predicate"
	"github.com/tsawler/tabcite/quality"
)

func (a *app) newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List filter presets, quality filters and predicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Presets:")
			for _, name := range a.cfg.PresetNames() {
				flags, err := a.cfg.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %-22s %s\n", name, strings.Join(flags, ","))
			}
			fmt.Fprintln(w, "\nQuality filters:")
			for _, name := range quality.ListFilters() {
				fmt.Fprintf(w, "  %s\n", name)
			}
			fmt.Fprintln(w, "\nPredicates:")
			for _, name := range predicate.ListPredicates() {
				fmt.Fprintf(w, "  %s\n", name)
			}
			return nil
		},
	}
}
