package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/graph"
)

func watchCmd(a *app) *cobra.Command {
	var (
		persist bool
		dbPath  string
	)
	cmd := &cobra.Command{
		Use:   "watch <path>...",
		Short: "Re-analyse source files as they change",
		Long: `watch follows files and directories and rebuilds the model of every
supported file written under them. Directories are followed recursively.
With --persist every fresh model replaces the previous one in the graph.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var store graph.Store
			if persist {
				s, err := a.openStore(ctx, dbPath)
				if err != nil {
					return err
				}
				defer s.Close()
				store = s
			}

			w, err := a.newWatcher(ctx, args, cmd.OutOrStdout(), store, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %d paths, press Ctrl-C to stop\n", len(w.Watched()))
			w.Start(ctx)

			<-ctx.Done()
			return w.Stop()
		},
	}
	cmd.Flags().BoolVar(&persist, "persist", false, "save every fresh model to the graph database")
	cmd.Flags().StringVar(&dbPath, "db", "", "graph database directory (default from codemodel.yml)")
	return cmd
}

// modelSink receives watcher results. The MCP model registry implements it.
type modelSink interface {
	Put(res *analyze.Result)
	Remove(path string)
}

// newWatcher builds a Watcher reporting each change to out, saving fresh
// models to store and handing them to sink when those are set.
func (a *app) newWatcher(ctx context.Context, paths []string, out io.Writer, store graph.Store, sink modelSink) (*analyze.Watcher, error) {
	analyzer, err := a.analyzer()
	if err != nil {
		return nil, err
	}
	debounce, err := a.cfg.Debounce()
	if err != nil {
		return nil, err
	}

	report := func(format string, args ...any) {
		if out != nil {
			fmt.Fprintf(out, format, args...)
		}
	}

	return analyze.NewWatcher(analyzer, paths,
		analyze.WithDebounce(debounce),
		analyze.WithOnResult(func(res *analyze.Result) {
			st := res.Code.Stats()
			report("%s: %d informations, %d treatments, %d structures, %d comments\n",
				res.Path, st.Informations, st.Treatments, st.Structures, st.Comments)
			if sink != nil {
				sink.Put(res)
			}
			if store != nil {
				if _, err := graph.SaveByPath(ctx, store, res.Code.Snapshot()); err != nil {
					a.logger.Warn("persist snapshot failed", zap.String("file", res.Path), zap.Error(err))
				}
			}
		}),
		analyze.WithOnRemove(func(path string) {
			report("%s: removed\n", path)
			if sink != nil {
				sink.Remove(path)
			}
		}),
		analyze.WithOnError(func(err error) {
			report("error: %v\n", err)
		}),
	)
}
