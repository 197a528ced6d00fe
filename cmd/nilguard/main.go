package main

import (
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/nilguard"
	"github.com/unbound-force/nilguard/internal/config"
	"github.com/unbound-force/nilguard/internal/gen"
	"github.com/unbound-force/nilguard/internal/report"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "nilguard",
		Short: "nilguard: nil-argument test cases for Go packages",
		Long: `nilguard enumerates every function, method and constructor of a
Go package that takes a nil-able parameter, and generates the test
that calls each one with that parameter nil and expects an error
naming it.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(charmlog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log every exclusion at debug level")

	root.AddCommand(newListCmd())
	root.AddCommand(newGenCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

// loadConfig reads the config file at path, or .nilguard.yaml in the
// working directory when path is empty. A positive maxDepth overrides
// specimens.max_depth; -1 keeps the configured value.
func loadConfig(path string, maxDepth int) (*config.Config, error) {
	if path == "" {
		path = config.FileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if maxDepth > 0 {
		cfg.Specimens.MaxDepth = maxDepth
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// listParams holds the parsed flags for the list command.
type listParams struct {
	pkgPath     string
	format      string
	configPath  string
	maxDepth    int
	exported    bool
	plugins     bool
	interactive bool
	stdout      io.Writer
	stderr      io.Writer
}

// runList is the extracted, testable body of the list command.
func runList(p listParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	cfg, err := loadConfig(p.configPath, p.maxDepth)
	if err != nil {
		return err
	}
	if p.exported {
		cfg.Binding.Unexported = false
	}

	opts := []nilguard.Option{
		nilguard.WithConfig(cfg),
		nilguard.WithLogger(logger),
	}
	if p.plugins {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		opts = append(opts, nilguard.WithPlugins(root))
	}

	logger.Info("listing candidates", "pkg", p.pkgPath)
	f, err := nilguard.Load(p.pkgPath, nil, opts...)
	if err != nil {
		return err
	}
	entries := report.FromCandidates(f.Candidates())
	logger.Info("listing complete", "cases", len(entries))

	pkg := f.Assembly().Path
	if p.interactive {
		return runInteractiveList(pkg, entries)
	}

	switch p.format {
	case "json":
		return report.WriteJSON(p.stdout, pkg, entries, version)
	default:
		return report.WriteText(p.stdout, pkg, entries)
	}
}

func newListCmd() *cobra.Command {
	var (
		format      string
		configPath  string
		maxDepth    int
		exported    bool
		plugins     bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "list [package]",
		Short: "List the nil-argument cases of a Go package",
		Long: `List every (member, nil parameter) pair of a Go package that
survives the filter pipeline. Each pair becomes one test case once the
package's symbols are bound (see 'nilguard gen').`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(listParams{
				pkgPath:     args[0],
				format:      format,
				configPath:  configPath,
				maxDepth:    maxDepth,
				exported:    exported,
				plugins:     plugins,
				interactive: interactive,
				stdout:      os.Stdout,
				stderr:      os.Stderr,
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().StringVar(&configPath, "config", "",
		"path to config file (default: .nilguard.yaml)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", -1,
		"override specimens.max_depth")
	cmd.Flags().BoolVar(&exported, "exported-only", false,
		"skip unexported members")
	cmd.Flags().BoolVar(&plugins, "plugins", false,
		"load filter plugins from the configured plugin directory")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing cases")

	return cmd
}

// genParams holds the parsed flags for the gen command.
type genParams struct {
	pkgPath    string
	configPath string
	force      bool
	stdout     io.Writer
}

// runGen is the extracted, testable body of the gen command.
func runGen(p genParams) error {
	cfg, err := loadConfig(p.configPath, -1)
	if err != nil {
		return err
	}

	logger.Info("generating symbols", "pkg", p.pkgPath)
	f, err := gen.Run(gen.Options{
		Pattern: p.pkgPath,
		Config:  cfg,
		Force:   p.force,
		Version: version,
		Stdout:  p.stdout,
	})
	if err != nil {
		return err
	}
	if len(f.Open) > 0 {
		logger.Warn("generic declarations left unbound", "count", len(f.Open))
	}
	return nil
}

func newGenCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "gen [package]",
		Short: "Generate the symbol table and test for a Go package",
		Long: `Write ` + gen.FileName + ` into the package directory: a
symbol table binding the package's functions, types and generic
instantiations, and a TestNilArguments test running every case.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg := "."
			if len(args) == 1 {
				pkg = args[0]
			}
			return runGen(genParams{
				pkgPath:    pkg,
				configPath: configPath,
				force:      force,
				stdout:     os.Stdout,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "",
		"path to config file (default: .nilguard.yaml)")
	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite an existing "+gen.FileName)

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for nilguard list output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of nilguard list --format=json output. Useful for
validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}
