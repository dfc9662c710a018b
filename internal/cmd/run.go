package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/tabcite"
	"github.com/tsawler/tabcite/internal/logging"
	"github.com/tsawler/tabcite/model"
	"github.com/tsawler/tabcite/quality"
)

// Stage directories under the run output directory.
const (
	labeledDir   = "labeled"
	assembledDir = "assembled"
	curatedDir   = "curated"
)

// fileResult counts what one input file produced.
type fileResult struct {
	Path      string
	Labeled   int
	Assembled int
	Curated   int
	Warnings  int

	// assembled holds the records awaiting curation; nil until the file
	// made it through assembly.
	assembled []*model.Record
}

func (a *app) newRunCmd() *cobra.Command {
	var (
		preset  string
		flags   []string
		where   string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "run <input-dir> <output-dir>",
		Short: "Run label, assemble and curate over a directory of files",
		Long: `Process every document file of a directory through all three stages.
Label and assemble run one file per worker; curation then runs file by file
in name order. Each stage writes <output-dir>/<stage>/<name>.jsonl, and the
flags of every curated file are recorded in curated/<name>_filters.json.

Files named in the config's skip_files are ignored. A failing file is
reported and does not stop the others. Duplicate detection (no_dup) is
shared across all files of the run, so a table repeated in several files is
kept in the first of them by name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := a.resolveFlags(cmd, preset, flags)
			if err != nil {
				return err
			}
			if !flagChanged(cmd, "workers") {
				workers = a.cfg.Workers
			}
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1")
			}

			files, err := a.inputFiles(args[0])
			if err != nil {
				return err
			}

			// The template carries everything shared by the files of the run.
			tmpl := tabcite.FromRecords(nil).
				Predicates(a.cfg.LabelPredicates...).
				AssembleFilters(a.cfg.AssemblePredicates...).
				Signatures(quality.NewSignatureSet())
			if where != "" {
				if tmpl = tmpl.Where(where); tmpl.Err() != nil {
					return tmpl.Err()
				}
			}
			tmpl, err = a.withAllowList(cmd.Context(), tmpl, resolved)
			if err != nil {
				return err
			}
			store, err := a.openStore(false)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				tmpl = tmpl.Resolver(store)
			}

			out := args[1]
			logging.Logger().Info("starting run", "input", args[0], "files", len(files), "workers", workers)
			results, runErr := runFiles(cmd.Context(), tmpl, files, out, resolved, workers)

			total := fileResult{}
			for _, r := range results {
				total.Labeled += r.Labeled
				total.Assembled += r.Assembled
				total.Curated += r.Curated
				total.Warnings += r.Warnings
			}
			logging.Logger().Info("finished run",
				"files", len(files),
				"labeled", total.Labeled,
				"assembled", total.Assembled,
				"curated", total.Curated,
				"warnings", total.Warnings)
			return runErr
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "default", "Named flag list")
	cmd.Flags().StringSliceVar(&flags, "flags", nil, "Ordered filter flags (overrides --preset)")
	cmd.Flags().StringVar(&where, "where", "", "jq expression records must satisfy before filtering")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel files (default from config)")
	return cmd
}

// inputFiles lists the regular files of dir in name order, minus hidden
// and skipped files.
func (a *app) inputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || a.cfg.Skip(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// processFiles runs fn over paths with at most workers in flight. A failing
// file does not cancel the others; all failures are joined.
func processFiles(ctx context.Context, paths []string, workers int, fn func(context.Context, string) (fileResult, error)) ([]fileResult, error) {
	results := make([]fileResult, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			r, err := fn(ctx, path)
			results[i] = r
			if err != nil {
				logging.Logger().Error("file failed", "path", path, "err", err)
				errs[i] = fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// runFiles labels and assembles paths in parallel, then curates the
// assembled files one at a time in the order of paths. Curating in order
// keeps the outcome of a shared no_dup set independent of scheduling.
func runFiles(ctx context.Context, tmpl *tabcite.Processor, paths []string, out string, flags []string, workers int) ([]fileResult, error) {
	results, err := processFiles(ctx, paths, workers, func(ctx context.Context, path string) (fileResult, error) {
		return prepareFile(ctx, tmpl, path, out)
	})
	errs := []error{err}
	for i := range results {
		if results[i].assembled == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := curateFile(tmpl, &results[i], out, flags); err != nil {
			logging.Logger().Error("file failed", "path", results[i].Path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", results[i].Path, err))
		}
		results[i].assembled = nil
	}
	return results, errors.Join(errs...)
}

// prepareFile runs the label and assemble stages over one document file.
func prepareFile(ctx context.Context, tmpl *tabcite.Processor, path, out string) (fileResult, error) {
	res := fileResult{Path: path}
	name := stem(path) + ".jsonl"
	logging.Logger().Info("processing file", "path", path)

	labeled, lw, err := tmpl.File(path).Label()
	if err != nil {
		return res, err
	}
	res.Labeled = len(labeled)
	if err := writeLines(filepath.Join(out, labeledDir, name), labeled); err != nil {
		return res, err
	}

	assembled, aw, err := tmpl.WithRecords(labeled).Assemble(ctx)
	if err != nil {
		return res, err
	}
	res.Assembled = len(assembled)
	res.Warnings = len(lw) + len(aw)
	if err := writeLines(filepath.Join(out, assembledDir, name), assembled); err != nil {
		return res, err
	}
	res.assembled = append(make([]*model.Record, 0, len(assembled)), assembled...)
	return res, nil
}

// curateFile filters the assembled records of res and records the flags
// next to the curated output.
func curateFile(tmpl *tabcite.Processor, res *fileResult, out string, flags []string) error {
	path := filepath.Join(out, curatedDir, stem(res.Path)+".jsonl")
	curated, _, err := tmpl.WithRecords(res.assembled).Curate(flags...)
	if err != nil {
		return err
	}
	res.Curated = len(curated)
	if err := writeLines(path, curated); err != nil {
		return err
	}
	if err := quality.WriteFlags(path, flags); err != nil {
		return err
	}
	logging.Logger().Info("processed file", "path", res.Path, "labeled", res.Labeled, "assembled", res.Assembled, "curated", res.Curated)
	return nil
}
