package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// ModelExport is the top-level JSON export structure: the model snapshot
// plus the export time.
type ModelExport struct {
	ExportedAt string `json:"exportedAt"`
	codemodel.Snapshot
}

// ExportModel wraps snap for export at the given time.
func ExportModel(snap codemodel.Snapshot, at time.Time) *ModelExport {
	return &ModelExport{
		ExportedAt: at.UTC().Format(time.RFC3339),
		Snapshot:   snap,
	}
}

// WriteJSON writes exp as indented JSON.
func WriteJSON(w io.Writer, exp *ModelExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exp); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}
