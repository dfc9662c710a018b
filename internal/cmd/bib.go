package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabcite/bibstore"
	"github.com/tsawler/tabcite/internal/logging"
)

func (a *app) newBibCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bib",
		Short: "Manage the bibliographic store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <entries.jsonl>",
		Short: "Import bibliographic entries",
		Long: `Import JSON lines of the form
  {"key": "...", "corpus_id": 123, "title": "...", "abstract": "..."}
into the store given by --bib-db. Existing keys are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importInto(cmd.Context(), args[0], "bibliographic entries", (*bibstore.Store).ImportBib)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show store counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(true)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, fullTexts, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), []map[string]int{{"entries": entries, "full_texts": fullTexts}})
		},
	})
	return cmd
}

func (a *app) newFullTextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fulltext",
		Short: "Manage the full-text allow-list",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <ids.jsonl>",
		Short: "Import corpus ids that have a full text",
		Long: `Import JSON lines of the form {"corpusId": 123} into the store given by
--bib-db. The ids back the rows_no_missing_full_texts filter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importInto(cmd.Context(), args[0], "full texts", (*bibstore.Store).ImportFullTexts)
		},
	})
	return cmd
}

func (a *app) importInto(ctx context.Context, path, what string, imp func(*bibstore.Store, context.Context, io.Reader) (int, error)) error {
	store, err := a.openStore(true)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := imp(store, ctx, f)
	if err != nil {
		return err
	}
	logging.Logger().Info("imported "+what, "path", path, "count", n, "db", a.cfg.BibDB)
	return nil
}
