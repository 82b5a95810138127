package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// MermaidOption configures GenerateMermaid.
type MermaidOption func(*mermaidConfig)

type mermaidConfig struct {
	informations bool
}

// WithInformations adds information nodes and their data and result edges.
func WithInformations() MermaidOption {
	return func(c *mermaidConfig) { c.informations = true }
}

// GenerateMermaid produces a Mermaid graph TD diagram of a model. Treatments
// are grouped in one subgraph named after the file; composition edges are
// solid arrows and sequencing edges dotted ones. Comments are omitted.
func GenerateMermaid(snap codemodel.Snapshot, opts ...MermaidOption) string {
	var cfg mermaidConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	fmt.Fprintf(&sb, "  subgraph code[\"%s\"]\n", label(shortPath(snap.Path)))
	for _, t := range snap.Treatments {
		fmt.Fprintf(&sb, "    T%d[\"%s (%s)\"]\n", t.ID, label(t.Name), t.Role)
	}
	sb.WriteString("  end\n")

	if cfg.informations {
		for _, i := range snap.Informations {
			fmt.Fprintf(&sb, "  I%d([\"%s: %s\"])\n", i.ID, label(i.Name), i.Kind)
		}
	}

	for _, e := range snap.Edges {
		switch e.Kind {
		case codemodel.EdgeSubTreatment:
			fmt.Fprintf(&sb, "  T%d --> T%d\n", e.From, e.To)
		case codemodel.EdgeExecutesAfter:
			fmt.Fprintf(&sb, "  T%d -.-> T%d\n", e.From, e.To)
		case codemodel.EdgeUsesAsData:
			if cfg.informations {
				fmt.Fprintf(&sb, "  I%d -->|data| T%d\n", e.To, e.From)
			}
		case codemodel.EdgeProduces:
			if cfg.informations {
				fmt.Fprintf(&sb, "  T%d -->|result| I%d\n", e.From, e.To)
			}
		case codemodel.EdgeComponent:
			if cfg.informations {
				fmt.Fprintf(&sb, "  I%d --- I%d\n", e.From, e.To)
			}
		}
	}
	return sb.String()
}

// label escapes double quotes for Mermaid string labels.
func label(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
