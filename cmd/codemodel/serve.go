package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/mcptools"
)

type serveFlags struct {
	addr    string
	stdio   bool
	persist bool
	dbPath  string
	watch   []string
}

func serveCmd(a *app) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the code model tools over MCP",
		Long: `serve-mcp exposes analyze_file and the model query tools to MCP
clients, over streamable HTTP by default or over stdio with --stdio.
Paths given with --watch are re-analysed and refreshed in the server's
registry as they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			opts := []mcptools.ServiceOption{mcptools.WithLogger(a.logger)}
			if flags.persist {
				store, err := a.openStore(ctx, flags.dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, mcptools.WithStore(store))
			}
			svc := mcptools.NewModelService(analyzer, opts...)

			if len(flags.watch) > 0 {
				// stdout belongs to the protocol in stdio mode.
				w, err := a.newWatcher(ctx, flags.watch, nil, nil, svc)
				if err != nil {
					return err
				}
				w.Start(ctx)
				defer w.Stop()
			}

			if flags.stdio {
				return mcptools.RunMCPServerStdio(ctx, svc)
			}
			addr := flags.addr
			if addr == "" {
				addr = a.cfg.Addr()
			}
			a.logger.Info("serving MCP over HTTP", zap.String("addr", addr))
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on %s\n", addr)
			return mcptools.RunMCPServer(ctx, svc, addr)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address (default from codemodel.yml)")
	cmd.Flags().BoolVar(&flags.stdio, "stdio", false, "serve over stdin/stdout instead of HTTP")
	cmd.Flags().BoolVar(&flags.persist, "persist", false, "save every analysed model to the graph database")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "graph database directory (default from codemodel.yml)")
	cmd.Flags().StringSliceVar(&flags.watch, "watch", nil, "files or directories to keep analysed")
	return cmd
}
