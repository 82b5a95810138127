//go:build e2e

package e2e

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/export"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/extract"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/graph"
)

// fixtures lists one source file per supported language.
var fixtures = []string{"average.go", "cart.ts", "grades.py", "stats.rs"}

func fixtureDir() string {
	return filepath.Join("..", "..", "testdata", "fixtures", "codemodel")
}

// analyzeFixtures builds the model of every fixture in one batch.
func analyzeFixtures(t *testing.T) []*analyze.Result {
	t.Helper()

	paths := make([]string, len(fixtures))
	for i, f := range fixtures {
		paths[i] = filepath.Join(fixtureDir(), f)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a := analyze.New(extract.NewTreeSitterParser())
	results, err := a.AnalyzeAll(ctx, paths, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, len(fixtures))
	return results
}

// TestPipeline_E2E_AnalyzePersistExport runs every fixture through analysis,
// the Kuzu graph and both exporters, and checks that each stage agrees with
// the model it started from.
func TestPipeline_E2E_AnalyzePersistExport(t *testing.T) {
	results := analyzeFixtures(t)

	store, err := graph.NewKuzuStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	require.NoError(t, store.InitSchema(ctx))

	for _, res := range results {
		t.Run(filepath.Base(res.Path), func(t *testing.T) {
			snap := res.Code.Snapshot()

			// --- Model invariants ---

			assert.Equal(t, res.Code.Stats(), snap.Stats)
			assert.Len(t, snap.Informations, snap.Stats.Informations)
			assert.Len(t, snap.Treatments, snap.Stats.Treatments)
			assert.Len(t, snap.Structures, snap.Stats.Structures)
			assert.Len(t, snap.Comments, snap.Stats.Comments)
			assert.NotEmpty(t, snap.Treatments, "every fixture declares treatments")
			assert.Equal(t,
				snap.Stats.ConditionalStructures+snap.Stats.IterativeStructures,
				snap.Stats.Structures,
				"every structure is conditional or iterative")

			// --- Graph round trip ---

			id, err := graph.SaveByPath(ctx, store, snap)
			require.NoError(t, err)
			got, err := store.GetSnapshot(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, got)

			if diff := cmp.Diff(snap.Treatments, got.Treatments, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("treatments (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(snap.Structures, got.Structures, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("structures (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(snap.Comments, got.Comments, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("comments (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(snap.Edges, got.Edges, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("edges (-want +got):\n%s", diff)
			}

			// --- Exports ---

			mermaid := export.GenerateMermaid(snap, export.WithInformations())
			require.True(t, strings.HasPrefix(mermaid, "graph TD\n"))
			for _, tr := range snap.Treatments {
				assert.Contains(t, mermaid, tr.Name+" ("+string(tr.Role)+")")
			}

			var sb strings.Builder
			require.NoError(t, export.WriteJSON(&sb, export.ExportModel(snap, time.Now())))
			assert.Contains(t, sb.String(), `"path": "`+res.Path+`"`)
		})
	}

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fixtures), st.CodeCount)
}

// TestPipeline_E2E_ReanalysisReplaces persists the same fixture twice and
// checks the graph keeps a single model for it.
func TestPipeline_E2E_ReanalysisReplaces(t *testing.T) {
	store := graph.NewMemStore()
	ctx := context.Background()

	for range 2 {
		results := analyzeFixtures(t)
		for _, res := range results {
			_, err := graph.SaveByPath(ctx, store, res.Code.Snapshot())
			require.NoError(t, err)
		}
	}

	codes, err := store.ListCodes(ctx)
	require.NoError(t, err)
	assert.Len(t, codes, len(fixtures))
}

// TestPipeline_E2E_LanguagesAgree checks the extractors agree on the
// categories every fixture exercises.
func TestPipeline_E2E_LanguagesAgree(t *testing.T) {
	for _, res := range analyzeFixtures(t) {
		t.Run(filepath.Base(res.Path), func(t *testing.T) {
			code := res.Code
			assert.Positive(t, code.InformationCount(codemodel.InfoAll))
			assert.Positive(t, code.CountStructures(codemodel.ControlStructure.IsIterative),
				"every fixture loops over its data")
			assert.Positive(t, code.CommentCount(codemodel.CommentsAll))
		})
	}
}
