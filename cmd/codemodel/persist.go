package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/graph"
)

func persistCmd(a *app) *cobra.Command {
	var (
		dbPath string
		jobs   int
	)
	cmd := &cobra.Command{
		Use:   "persist <file>...",
		Short: "Analyse source files and save their models to the graph database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			paths, err := absPaths(args)
			if err != nil {
				return err
			}
			results, err := analyzer.AnalyzeAll(cmd.Context(), paths, jobs, func(ev analyze.ProgressEvent) {
				a.logger.Debug("analysis progress",
					zap.String("file", ev.Path),
					zap.String("status", string(ev.Status)),
					zap.String("message", ev.Message),
				)
			})
			if err != nil {
				return err
			}

			store, err := a.openStore(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			for _, res := range results {
				id, err := graph.SaveByPath(cmd.Context(), store, res.Code.Snapshot())
				if err != nil {
					return fmt.Errorf("persist %s: %w", res.Path, err)
				}
				fmt.Fprintf(w, "%s  %s\n", id, res.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "graph database directory (default from codemodel.yml)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files analysed at once (0 for no limit)")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the models saved in the graph database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.graphPath(dbPath)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no graph found at %s\nRun 'codemodel persist <file>...' first", path)
			}
			store, err := a.openStore(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			codes, err := store.ListCodes(cmd.Context())
			if err != nil {
				return err
			}
			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), codes, st)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "graph database directory (default from codemodel.yml)")
	return cmd
}

// openStore opens the file-backed graph and makes sure its schema exists.
func (a *app) openStore(ctx context.Context, override string) (graph.Store, error) {
	store, err := graph.NewKuzuFileStore(a.graphPath(override))
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("init graph schema: %w", err)
	}
	return store, nil
}

func printStatus(w io.Writer, codes []graph.CodeSummary, st *graph.GraphStats) {
	if len(codes) == 0 {
		fmt.Fprintln(w, "No models persisted.")
		return
	}
	for _, c := range codes {
		marker := "  "
		if _, err := os.Stat(c.Path); err != nil {
			marker = "!!"
		}
		fmt.Fprintf(w, "%s %-40s %3d informations %3d treatments %3d structures %3d comments\n",
			marker, c.Path, c.Informations, c.Treatments, c.Structures, c.Comments)
	}
	fmt.Fprintf(w, "\n%d files, %d libraries, %d edges\n", st.CodeCount, st.LibraryCount, st.EdgeCount)
}

// absPaths makes paths absolute so a file keeps one model whatever the
// working directory it is persisted from.
func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}
