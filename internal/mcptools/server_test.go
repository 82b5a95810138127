//go:build cgo

package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/extract"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/graph"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fixturePath returns the absolute path of a codemodel fixture. Tests run
// from internal/mcptools/.
func fixturePath(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("../../testdata/fixtures/codemodel", name))
	require.NoError(t, err)
	return abs
}

func newService(opts ...ServiceOption) *ModelService {
	return NewModelService(analyze.New(extract.NewTreeSitterParser()), opts...)
}

// setupServerClient wires an MCP server and client together using in-memory
// transports.
func setupServerClient(t *testing.T, svc *ModelService) *mcp.ClientSession {
	t.Helper()

	server := NewModelMCPServer(svc)
	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})
	return session
}

// callTool calls a tool and decodes its structured output into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args, out any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	if out != nil && !result.IsError {
		require.NotNil(t, result.StructuredContent, "expected structured content from %s", name)
		raw, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return result
}

// ---------------------------------------------------------------------------
// Server-level tests
// ---------------------------------------------------------------------------

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t, newService())

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 7, "expected 7 registered tools")

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	expected := []string{
		"analyze_file",
		"list_comments",
		"list_informations",
		"list_libraries",
		"list_treatments",
		"model_stats",
		"nested_structures",
	}
	assert.Equal(t, expected, names)
}

func TestMCPAnalyzeAndQuery(t *testing.T) {
	store := graph.NewMemStore()
	session := setupServerClient(t, newService(WithStore(store)))
	path := fixturePath(t, "average.go")

	var analyzed AnalyzeFileOutput
	res := callTool(t, session, "analyze_file", AnalyzeFileInput{Path: path}, &analyzed)
	require.False(t, res.IsError, "analyze_file should succeed")
	assert.Equal(t, "go", analyzed.Language)
	assert.Equal(t, 3, analyzed.Stats.Treatments)
	assert.Empty(t, analyzed.Unresolved)
	assert.True(t, analyzed.Persisted)

	snap, err := store.GetSnapshot(context.Background(), analyzed.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, path, snap.Path)

	var again AnalyzeFileOutput
	callTool(t, session, "analyze_file", AnalyzeFileInput{Path: path}, &again)
	assert.Equal(t, analyzed.ID, again.ID, "re-analysing a file keeps its persisted id")
	codes, err := store.ListCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, codes, 1)

	t.Run("list_informations", func(t *testing.T) {
		var out ListInformationsOutput
		callTool(t, session, "list_informations", ListInformationsInput{Path: path, Filter: "accu"}, &out)
		require.Equal(t, 1, out.Total)
		assert.Equal(t, "sum", out.Informations[0].Name)
		assert.Equal(t, []string{"accumulator"}, out.Informations[0].Roles)

		callTool(t, session, "list_informations", ListInformationsInput{Path: path, Filter: "const", Sort: "alphabetique"}, &out)
		require.Equal(t, 1, out.Total)
		assert.Equal(t, "maxGrade", out.Informations[0].Name)
	})

	t.Run("list_treatments", func(t *testing.T) {
		var out ListTreatmentsOutput
		callTool(t, session, "list_treatments", ListTreatmentsInput{Path: path, Sort: "alphabetical"}, &out)
		require.Equal(t, 3, out.Total)
		names := []string{out.Treatments[0].Name, out.Treatments[1].Name, out.Treatments[2].Name}
		assert.Equal(t, []string{"average", "printAverage", "readGrades"}, names)

		printAverage := out.Treatments[1]
		assert.Equal(t, "output", printAverage.Role)
		assert.Equal(t, []string{"readGrades", "average"}, printAverage.ExecutesAfter)
		assert.Equal(t, "printAverage shows the result scaled to a thirty point range.", printAverage.Comment)

		callTool(t, session, "list_treatments", ListTreatmentsInput{Path: path, Filter: "in"}, &out)
		require.Equal(t, 1, out.Total)
		assert.Equal(t, []string{"grades"}, out.Treatments[0].Results)
	})

	t.Run("list_comments", func(t *testing.T) {
		var out ListCommentsOutput
		callTool(t, session, "list_comments", ListCommentsInput{Path: path, Filter: "code"}, &out)
		require.Equal(t, 1, out.Total)
		assert.Equal(t, "Package main computes the average of a list of grades.", out.Comments[0].Text)
		assert.Equal(t, "code", out.Comments[0].Target)

		callTool(t, session, "list_comments", ListCommentsInput{Path: path, Filter: "traitement"}, &out)
		assert.Equal(t, 2, out.Total)
	})

	t.Run("list_libraries", func(t *testing.T) {
		var out ListLibrariesOutput
		callTool(t, session, "list_libraries", ListLibrariesInput{Path: path}, &out)
		require.Equal(t, 2, out.Total)
		assert.Equal(t, "fmt", out.Libraries[0].Name)
		assert.Equal(t, "os", out.Libraries[1].Name)
	})

	t.Run("nested_structures", func(t *testing.T) {
		var out NestedStructuresOutput
		callTool(t, session, "nested_structures", NestedStructuresInput{Path: path, Outer: "iterative", Inner: "conditional"}, &out)
		require.Equal(t, 1, out.Total)
		assert.Equal(t, codemodel.ElseIfChain(2), out.Structures[0].Shape)

		callTool(t, session, "nested_structures", NestedStructuresInput{Path: path, Outer: "if", Inner: "any"}, &out)
		assert.Zero(t, out.Total)
	})

	t.Run("model_stats", func(t *testing.T) {
		var out ModelStatsOutput
		callTool(t, session, "model_stats", ModelStatsInput{Path: path}, &out)
		assert.Equal(t, 9, out.Stats.Informations)
		assert.Equal(t, 1, out.Stats.MagicNumbers)
		assert.Equal(t, 2, out.Stats.Libraries)
	})
}

func TestMCPToolErrors(t *testing.T) {
	session := setupServerClient(t, newService())

	res := callTool(t, session, "list_informations", ListInformationsInput{Path: fixturePath(t, "average.go")}, nil)
	assert.True(t, res.IsError, "querying before analyze_file is an error")

	res = callTool(t, session, "analyze_file", AnalyzeFileInput{Path: "notes.txt"}, nil)
	assert.True(t, res.IsError, "unsupported language is an error")

	path := fixturePath(t, "grades.py")
	res = callTool(t, session, "analyze_file", AnalyzeFileInput{Path: path}, nil)
	require.False(t, res.IsError)

	res = callTool(t, session, "list_informations", ListInformationsInput{Path: path, Filter: "bogus"}, nil)
	assert.True(t, res.IsError, "unknown filter is an error")

	res = callTool(t, session, "nested_structures", NestedStructuresInput{Path: path, Outer: "loop"}, nil)
	assert.True(t, res.IsError, "unknown selector is an error")
}

// ---------------------------------------------------------------------------
// Service-level tests
// ---------------------------------------------------------------------------

func TestModelService_Registry(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Code("")
	assert.Error(t, err)

	_, err = svc.Code("average.go")
	assert.ErrorIs(t, err, ErrNotAnalyzed)

	res, err := analyze.New(extract.NewTreeSitterParser()).AnalyzeFile(ctx, "../../testdata/fixtures/codemodel/stats.rs")
	require.NoError(t, err)
	svc.Put(res)

	code, err := svc.Code(fixturePath(t, "stats.rs"))
	require.NoError(t, err, "relative and absolute paths share a key")
	assert.Same(t, res.Code, code)

	svc.Remove("../../testdata/fixtures/codemodel/stats.rs")
	_, err = svc.Code(fixturePath(t, "stats.rs"))
	assert.ErrorIs(t, err, ErrNotAnalyzed)
}

func TestParsePredicate(t *testing.T) {
	loop := codemodel.ControlStructure{Shape: codemodel.KnownCount()}
	branch := codemodel.ControlStructure{Shape: codemodel.IfElse()}

	tests := []struct {
		selector   string
		loop, cond bool
	}{
		{"", true, true},
		{"any", true, true},
		{"iterative", true, false},
		{"conditional", false, true},
		{"knownCount", true, false},
		{"ifElse", false, true},
		{"if", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			pred, err := ParsePredicate(tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.loop, pred(loop))
			assert.Equal(t, tt.cond, pred(branch))
		})
	}

	_, err := ParsePredicate("loop")
	assert.Error(t, err)
}
