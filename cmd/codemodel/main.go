package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/config"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/extract"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(&app{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

// app carries the state shared by every subcommand once the persistent
// flags are parsed.
type app struct {
	projectRoot string
	verbose     bool

	cfg    *config.ProjectConfig
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "codemodel",
		Short: "Build and query semantic models of source files",
		Long: `codemodel parses a source file and builds its semantic model: the
libraries it imports, its informations (constants, magic numbers, variables),
its treatments (functions), their control structures and its comments.

Models can be printed, exported as JSON or Mermaid, persisted to a graph
database, kept fresh while files change, or served to agents over MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.projectRoot, "project-root", ".", "directory holding codemodel.yml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		analyzeCmd(a),
		exportCmd(a),
		persistCmd(a),
		statusCmd(a),
		watchCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return root
}

// init loads the project configuration and builds the logger.
func (a *app) init() error {
	cfg, err := config.Load(a.projectRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.verbose || cfg.Verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// analyzer returns an Analyzer restricted to the configured languages.
func (a *app) analyzer() (*analyze.Analyzer, error) {
	langs, err := a.cfg.LanguageList()
	if err != nil {
		return nil, err
	}
	return analyze.New(extract.NewTreeSitterParser(),
		analyze.WithLogger(a.logger),
		analyze.WithLanguages(langs...),
	), nil
}

// graphPath resolves the graph database path against the project root.
func (a *app) graphPath(override string) string {
	p := override
	if p == "" {
		p = a.cfg.GraphDB()
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.projectRoot, p)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
