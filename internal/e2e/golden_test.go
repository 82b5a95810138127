//go:build e2e

package e2e

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/export"
)

var update = flag.Bool("update", false, "update golden files")

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return filepath.Join("..", "..", "testdata", "golden")
}

// goldenName maps a fixture to its golden Mermaid file.
func goldenName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_" + strings.TrimPrefix(filepath.Ext(base), ".") + ".mmd"
}

func renderMermaid(res *analyze.Result) string {
	return export.GenerateMermaid(res.Code.Snapshot(), export.WithInformations())
}

// TestGolden compares the Mermaid rendering of each fixture against golden
// files. If golden files do not exist, the test is skipped with a message to
// run with -update.
func TestGolden(t *testing.T) {
	for _, res := range analyzeFixtures(t) {
		name := goldenName(res.Path)
		t.Run(name, func(t *testing.T) {
			golden, err := os.ReadFile(filepath.Join(goldenDir(), name))
			if os.IsNotExist(err) {
				t.Skipf("golden file %s not found; run with -update to generate", name)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, string(golden), renderMermaid(res),
				"diagram for %s does not match golden file", res.Path)
		})
	}
}

// TestUpdateGolden regenerates golden files from the current models.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}

	gDir := goldenDir()
	require.NoError(t, os.MkdirAll(gDir, 0o755))

	for _, res := range analyzeFixtures(t) {
		name := goldenName(res.Path)
		require.NoError(t, os.WriteFile(filepath.Join(gDir, name), []byte(renderMermaid(res)), 0o644))
		t.Logf("updated %s", name)
	}
}
