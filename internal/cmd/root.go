// Package cmd implements the tabcite command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tsawler/tabcite/internal/config"
	"github.com/tsawler/tabcite/internal/logging"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configFile string
	logLevel   string
	logFormat  string
	bibDB      string

	cfg   *config.Config
	runID string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tabcite",
		Short: "Build citation-linked table datasets from scientific papers",
		Long: `tabcite turns the tables of parsed scientific papers into a dataset of
tables whose rows are linked to the works they cite.

The pipeline has three stages, each reading and writing JSON lines
(optionally gzip compressed):

  label     parse every table and record predicate outcomes
  assemble  reconstruct tables, map rows to citations, resolve metadata
  curate    apply an ordered list of quality filters

Environment Variables:
  TABCITE_BIB_DB     Bibliographic store path
  TABCITE_WORKERS    Worker count for run
  TABCITE_LOG_LEVEL  Log level (debug|info|warn|error)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("tabcite version %s (commit: %s, built: %s)\n", version, commit, date))

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: ~/.config/tabcite/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format (auto|text|json)")
	root.PersistentFlags().StringVar(&a.bibDB, "bib-db", "", "Bibliographic store (env: TABCITE_BIB_DB)")

	root.AddCommand(
		a.newLabelCmd(),
		a.newAssembleCmd(),
		a.newCurateCmd(),
		a.newRunCmd(),
		a.newExportCmd(),
		a.newInspectCmd(),
		a.newBibCmd(),
		a.newFullTextCmd(),
		a.newPresetsCmd(),
	)
	return root
}

// setup loads the configuration and installs the run logger.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configFile
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if flagChanged(cmd, "log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flagChanged(cmd, "log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flagChanged(cmd, "bib-db") {
		cfg.BibDB = a.bibDB
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.runID = uuid.NewString()
	logging.SetLogger(logger.With(slog.String("run", a.runID)))
	return nil
}

// Execute runs the root command
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
