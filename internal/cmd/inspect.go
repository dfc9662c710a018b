package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabcite"
	"github.com/tsawler/tabcite/internal/query"
	"github.com/tsawler/tabcite/model"
)

func (a *app) newInspectCmd() *cobra.Command {
	var (
		expr   string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <records.jsonl>",
		Short: "Show records as tables or JSON",
		Long: `Print records from any stage. On a terminal each reconstructed table is
drawn as a markdown grid; otherwise, or with --json, records are written as
JSON lines. --query runs a jq expression over each record and prints its
outputs instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := tabcite.Open(args[0]).Records()
			if err != nil {
				return err
			}
			if limit > 0 && len(recs) > limit {
				recs = recs[:limit]
			}

			w := cmd.OutOrStdout()
			if expr != "" {
				q, err := query.Compile(expr)
				if err != nil {
					return err
				}
				return printQuery(w, q, recs)
			}
			if asJSON || !isTerminal(w) {
				return printJSON(w, recs)
			}
			printGrids(w, recs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "query", "q", "", "jq expression evaluated per record")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n records (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON even on a terminal")
	return cmd
}

func printJSON[T any](w io.Writer, values []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func printQuery(w io.Writer, q *query.Query, recs []*model.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range recs {
		v, err := query.Normalize(rec)
		if err != nil {
			return err
		}
		out, err := q.Run(v)
		if err != nil {
			return fmt.Errorf("table %s: %w", rec.TableHash, err)
		}
		for _, o := range out {
			if err := enc.Encode(o); err != nil {
				return err
			}
		}
	}
	return nil
}

// printGrids draws each record's column table, or notes that the record has
// not been assembled yet.
func printGrids(w io.Writer, recs []*model.Record) {
	for i, rec := range recs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "## %s / %s\n", rec.PaperID, rec.TableHash)
		if rec.HasCaption() {
			fmt.Fprintln(w, *rec.Caption)
		}
		fmt.Fprintln(w)
		if rec.TableJSON == nil {
			fmt.Fprintf(w, "(not assembled; %d labels, len %d)\n", len(rec.Labels), rec.Length)
			continue
		}
		fmt.Fprint(w, rec.TableJSON.TableDict.Grid().ToMarkdown())
	}
}
