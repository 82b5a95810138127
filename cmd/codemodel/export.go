package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/export"
)

func exportCmd(a *app) *cobra.Command {
	var (
		format       string
		informations bool
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the model of a source file as JSON or a Mermaid diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			res, err := analyzer.AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snap := res.Code.Snapshot()
			w := cmd.OutOrStdout()

			switch format {
			case "json":
				if err := export.WriteJSON(w, export.ExportModel(snap, time.Now())); err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				return nil
			case "mermaid":
				var opts []export.MermaidOption
				if informations {
					opts = append(opts, export.WithInformations())
				}
				_, err := io.WriteString(w, export.GenerateMermaid(snap, opts...))
				return err
			}
			return fmt.Errorf("unknown format %q (want json or mermaid)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or mermaid")
	cmd.Flags().BoolVar(&informations, "informations", false, "include informations and their data flow in Mermaid output")
	return cmd
}
