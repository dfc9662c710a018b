package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabcite"
	"github.com/tsawler/tabcite/internal/logging"
	"github.com/tsawler/tabcite/quality"
)

const fullTextFlag = "rows_no_missing_full_texts"

func (a *app) newCurateCmd() *cobra.Command {
	var (
		out    string
		preset string
		flags  []string
		where  string
	)
	cmd := &cobra.Command{
		Use:   "curate <assembled.jsonl>",
		Short: "Apply quality filters to assembled tables",
		Long: `Apply an ordered list of quality filters to assembled records and write
the survivors. The list comes from --flags or a named --preset; it is also
written beside the output as <out>_filters.json.

Run 'tabcite presets' to see the available presets and filters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			resolved, err := a.resolveFlags(cmd, preset, flags)
			if err != nil {
				return err
			}

			p := tabcite.Open(args[0])
			if where != "" {
				p = p.Where(where)
			}
			p, err = a.withAllowList(cmd.Context(), p, resolved)
			if err != nil {
				return err
			}

			recs, stats, err := p.Curate(resolved...)
			if err != nil {
				return err
			}
			if err := writeLines(out, recs); err != nil {
				return err
			}
			if err := quality.WriteFlags(out, resolved); err != nil {
				return err
			}
			logging.Logger().Info("wrote records", "path", out, "records", len(recs), "rejected", stats.Rejected)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	cmd.Flags().StringVar(&preset, "preset", "default", "Named flag list")
	cmd.Flags().StringSliceVar(&flags, "flags", nil, "Ordered filter flags (overrides --preset)")
	cmd.Flags().StringVar(&where, "where", "", "jq expression records must satisfy before filtering")
	return cmd
}

// resolveFlags returns --flags when given, else the flags of the preset.
func (a *app) resolveFlags(cmd *cobra.Command, preset string, flags []string) ([]string, error) {
	if flagChanged(cmd, "flags") {
		return flags, nil
	}
	return a.cfg.Preset(preset)
}

// withAllowList loads the full-text allow-list from the store when the
// flags need it.
func (a *app) withAllowList(ctx context.Context, p *tabcite.Processor, flags []string) (*tabcite.Processor, error) {
	if !slices.Contains(flags, fullTextFlag) {
		return p, nil
	}
	store, err := a.openStore(true)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ids, err := store.FullTexts(ctx)
	if err != nil {
		return nil, err
	}
	return p.AllowList(quality.IDSet(ids)), nil
}
