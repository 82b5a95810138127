package mcptools

import "github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// AnalyzeFileInput is the input for the analyze_file MCP tool.
type AnalyzeFileInput struct {
	Path string `json:"path" jsonschema:"path of the source file to analyse (.go, .py, .rs, .ts, .tsx)"`
}

// AnalyzeFileOutput is the result of the analyze_file MCP tool.
type AnalyzeFileOutput struct {
	Path        string          `json:"path"`
	ID          string          `json:"id"`
	Language    string          `json:"language"`
	LOC         int             `json:"loc"`
	Stats       codemodel.Stats `json:"stats"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
	Unresolved  []string        `json:"unresolved,omitempty"`
	Persisted   bool            `json:"persisted"`
}

// ListInformationsInput is the input for the list_informations MCP tool.
type ListInformationsInput struct {
	Path   string `json:"path" jsonschema:"path of an analysed file"`
	Filter string `json:"filter,omitempty" jsonschema:"all, const, magic, var, simpleVar, composedVar, accu, count or index (default: all)"`
	Sort   string `json:"sort,omitempty" jsonschema:"appearanceOrder or alphabetical (default: appearanceOrder)"`
}

// ListInformationsOutput is the result of the list_informations MCP tool.
type ListInformationsOutput struct {
	Informations []codemodel.InformationNode `json:"informations"`
	Total        int                         `json:"total"`
}

// ListTreatmentsInput is the input for the list_treatments MCP tool.
type ListTreatmentsInput struct {
	Path   string `json:"path" jsonschema:"path of an analysed file"`
	Filter string `json:"filter,omitempty" jsonschema:"all, simple, composed, in, out or calc (default: all)"`
	Sort   string `json:"sort,omitempty" jsonschema:"appearanceOrder or alphabetical (default: appearanceOrder)"`
}

// TreatmentView is a treatment with the names of what it is linked to.
type TreatmentView struct {
	ID            codemodel.TreatmentID `json:"id"`
	Name          string                `json:"name"`
	Role          string                `json:"role"`
	Composition   string                `json:"composition"`
	SubTreatments []string              `json:"subTreatments,omitempty"`
	ExecutesAfter []string              `json:"executesAfter,omitempty"`
	Data          []string              `json:"data,omitempty"`
	Results       []string              `json:"results,omitempty"`
	Comment       string                `json:"comment,omitempty"`
}

// ListTreatmentsOutput is the result of the list_treatments MCP tool.
type ListTreatmentsOutput struct {
	Treatments []TreatmentView `json:"treatments"`
	Total      int             `json:"total"`
}

// ListCommentsInput is the input for the list_comments MCP tool.
type ListCommentsInput struct {
	Path   string `json:"path" jsonschema:"path of an analysed file"`
	Filter string `json:"filter,omitempty" jsonschema:"all, code, information or traitement (default: all)"`
}

// ListCommentsOutput is the result of the list_comments MCP tool.
type ListCommentsOutput struct {
	Comments []codemodel.CommentNode `json:"comments"`
	Total    int                     `json:"total"`
}

// ListLibrariesInput is the input for the list_libraries MCP tool.
type ListLibrariesInput struct {
	Path string `json:"path" jsonschema:"path of an analysed file"`
	Sort string `json:"sort,omitempty" jsonschema:"appearanceOrder or alphabetical (default: appearanceOrder)"`
}

// ListLibrariesOutput is the result of the list_libraries MCP tool.
type ListLibrariesOutput struct {
	Libraries []codemodel.Library `json:"libraries"`
	Total     int                 `json:"total"`
}

// NestedStructuresInput is the input for the nested_structures MCP tool.
type NestedStructuresInput struct {
	Path  string `json:"path" jsonschema:"path of an analysed file"`
	Outer string `json:"outer,omitempty" jsonschema:"enclosing structure: any, conditional, iterative or a shape kind such as if, switch, knownCount, unknownCount (default: any)"`
	Inner string `json:"inner,omitempty" jsonschema:"nested structure, same values as outer (default: any)"`
}

// NestedStructuresOutput is the result of the nested_structures MCP tool.
type NestedStructuresOutput struct {
	Structures []codemodel.ControlStructure `json:"structures"`
	Total      int                          `json:"total"`
}

// ModelStatsInput is the input for the model_stats MCP tool.
type ModelStatsInput struct {
	Path string `json:"path" jsonschema:"path of an analysed file"`
}

// ModelStatsOutput is the result of the model_stats MCP tool.
type ModelStatsOutput struct {
	Stats codemodel.Stats `json:"stats"`
}
