package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabcite"
	"github.com/tsawler/tabcite/internal/logging"
)

func (a *app) newAssembleCmd() *cobra.Command {
	var (
		out     string
		filters []string
	)
	cmd := &cobra.Command{
		Use:   "assemble <labeled.jsonl>",
		Short: "Reconstruct tables and link rows to cited works",
		Long: `Reconstruct each labeled table into columns, map its rows to citation
keys and resolve them against the record's input_papers or the
bibliographic store.

Records whose labels fail any of the assemble predicates are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			if !flagChanged(cmd, "filters") {
				filters = a.cfg.AssemblePredicates
			}

			p := tabcite.Open(args[0]).AssembleFilters(filters...)
			store, err := a.openStore(false)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				p = p.Resolver(store)
			}

			recs, warnings, err := p.Assemble(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeLines(out, recs); err != nil {
				return err
			}
			logging.Logger().Info("wrote records", "path", out, "records", len(recs), "warnings", len(warnings))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	cmd.Flags().StringSliceVar(&filters, "filters", nil, "Labels a record must carry (default from config)")
	return cmd
}
