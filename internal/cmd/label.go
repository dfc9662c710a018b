package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabcite"
	"github.com/tsawler/tabcite/internal/logging"
)

func (a *app) newLabelCmd() *cobra.Command {
	var (
		out        string
		predicates []string
		filter     bool
	)
	cmd := &cobra.Command{
		Use:   "label <documents.jsonl>",
		Short: "Parse tables and record predicate outcomes",
		Long: `Parse every table of every document and write one record per table.

By default every label predicate is computed and stored. With --filter the
predicates are applied in order instead and tables failing one are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			p := tabcite.Open(args[0]).Predicates(a.labelPredicates(cmd, predicates)...)
			if filter {
				p = p.FilterMode()
			}
			recs, warnings, err := p.Label()
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
	cmd.Flags().StringSliceVar(&predicates, "predicates", nil, "Predicates to compute (default from config)")
	cmd.Flags().BoolVar(&filter, "filter", false, "Drop tables failing any predicate instead of labeling")
	return cmd
}

func (a *app) labelPredicates(cmd *cobra.Command, names []string) []string {
	if flagChanged(cmd, "predicates") {
		return names
	}
	return a.cfg.LabelPredicates
}
