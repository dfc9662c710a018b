package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabcite"
	"github.com/tsawler/tabcite/internal/logging"
)

func (a *app) newExportCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export <curated.jsonl>",
		Short: "Write the tables and papers datasets",
		Long: `Reshape curated records into two files under --out-dir:

  tables.jsonl  one entry per table, keyed by the resolved rows
  papers.jsonl  one entry per cited paper with the tables citing it`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, papers, err := tabcite.Open(args[0]).Export()
			if err != nil {
				return err
			}
			if err := writeLines(filepath.Join(outDir, "tables.jsonl"), entries); err != nil {
				return err
			}
			if err := writeLines(filepath.Join(outDir, "papers.jsonl"), papers); err != nil {
				return err
			}
			logging.Logger().Info("exported dataset", "dir", outDir, "tables", len(entries), "papers", len(papers))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Output directory")
	return cmd
}
