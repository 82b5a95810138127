package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

type analyzeFlags struct {
	infoFilter      string
	treatmentFilter string
	commentFilter   string
	sort            string
}

func analyzeCmd(a *app) *cobra.Command {
	var flags analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Print the semantic model of source files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, flags, args)
		},
	}
	cmd.Flags().StringVar(&flags.infoFilter, "informations", "all", "information filter: all, const, magic, var, simpleVar, composedVar, accu, count, index")
	cmd.Flags().StringVar(&flags.treatmentFilter, "treatments", "all", "treatment filter: all, simple, composed, in, out, calc")
	cmd.Flags().StringVar(&flags.commentFilter, "comments", "all", "comment filter: all, code, information, traitement")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "listing order: appearanceOrder or alphabetical (default from codemodel.yml)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, flags analyzeFlags, paths []string) error {
	infoFilter, err := codemodel.ParseInfoFilter(flags.infoFilter)
	if err != nil {
		return err
	}
	treatmentFilter, err := codemodel.ParseTreatmentFilter(flags.treatmentFilter)
	if err != nil {
		return err
	}
	commentFilter, err := codemodel.ParseCommentFilter(flags.commentFilter)
	if err != nil {
		return err
	}
	order, err := a.order(flags.sort)
	if err != nil {
		return err
	}

	analyzer, err := a.analyzer()
	if err != nil {
		return err
	}
	results, err := analyzer.AnalyzeAll(cmd.Context(), paths, 0, nil)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printModel(w, res, infoFilter, treatmentFilter, commentFilter, order)
	}
	return nil
}

// order prefers the flag value and falls back to the configured order.
func (a *app) order(flag string) (codemodel.SortOrder, error) {
	if flag != "" {
		return codemodel.ParseSortOrder(flag)
	}
	return a.cfg.Order()
}

func printModel(
	w io.Writer,
	res *analyze.Result,
	infoFilter codemodel.InfoFilter,
	treatmentFilter codemodel.TreatmentFilter,
	commentFilter codemodel.CommentFilter,
	order codemodel.SortOrder,
) {
	code := res.Code
	fmt.Fprintf(w, "%s (%s, %d lines)\n", res.Path, res.Language, res.LOC)
	if header, ok := code.HeaderComment(); ok {
		fmt.Fprintf(w, "  %s\n", header.Text)
	}

	libs := code.Libraries(order)
	names := make([]string, 0, len(libs))
	for _, l := range libs {
		names = append(names, l.Name)
	}
	fmt.Fprintf(w, "\nLibraries: %s\n", orNone(strings.Join(names, ", ")))

	infos := code.Informations(infoFilter, order)
	fmt.Fprintf(w, "\nInformations (%d):\n", len(infos))
	for _, info := range infos {
		node := codemodel.NewInformationNode(info)
		line := fmt.Sprintf("  %-20s %-18s %-12s %s", node.Name, node.Kind, orNone(node.Type), node.Convention)
		if node.Value != nil {
			line += fmt.Sprintf(" = %v", node.Value)
		}
		if len(node.Roles) > 0 {
			line += " [" + strings.Join(node.Roles, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}

	treatments := code.Treatments(treatmentFilter, order)
	fmt.Fprintf(w, "\nTreatments (%d):\n", len(treatments))
	for _, t := range treatments {
		fmt.Fprintf(w, "  %-20s %-12s %s\n", t.Name, t.Role, t.Composition())
		printNames(w, "data", infoNames(code.Data(t.ID)))
		printNames(w, "results", infoNames(code.Results(t.ID)))
		printNames(w, "after", treatmentNames(code.ExecutesAfter(t.ID)))
		printNames(w, "calls", treatmentNames(code.SubTreatments(t.ID)))
		for _, cs := range code.Structures(t.ID) {
			printStructure(w, code, cs, 2)
		}
	}

	comments := code.Comments(commentFilter)
	fmt.Fprintf(w, "\nComments (%d):\n", len(comments))
	for _, cm := range comments {
		target := codemodel.TargetName(cm.Target)
		if target == "" {
			target = "orphan"
		}
		fmt.Fprintf(w, "  %-12s %s\n", target, firstLine(cm.Text))
	}

	for _, d := range code.Diagnostics() {
		fmt.Fprintf(w, "warning: %s\n", d.Error())
	}
}

func printNames(w io.Writer, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(w, "    %-8s %s\n", label+":", strings.Join(names, ", "))
}

func printStructure(w io.Writer, code *codemodel.Code, cs codemodel.ControlStructure, depth int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), shapeLabel(cs.Shape))
	for _, child := range code.Children(cs.ID) {
		printStructure(w, code, child, depth+1)
	}
}

func shapeLabel(s codemodel.ControlShape) string {
	switch {
	case s.Condition != "":
		return fmt.Sprintf("%s(%s)", s.Kind, s.Condition)
	case s.Branches > 0:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Branches)
	}
	return string(s.Kind)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func treatmentNames(ts []codemodel.Treatment) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func infoNames(infos []codemodel.Information) []string {
	out := make([]string, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.Name)
	}
	return out
}
