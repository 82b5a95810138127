//go:build cgo

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/analyze"
)

const average = "../../testdata/fixtures/codemodel/average.go"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--project-root", t.TempDir()}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestAnalyze(t *testing.T) {
	out, err := runCLI(t, "analyze", average)
	require.NoError(t, err)

	assert.Contains(t, out, "(go, ")
	assert.Contains(t, out, "Package main computes the average of a list of grades.")
	assert.Contains(t, out, "Libraries: fmt, os")
	assert.Contains(t, out, "Treatments (3):")
	assert.Contains(t, out, "[accumulator]")
	assert.Contains(t, out, "after:   readGrades, average")
	assert.Contains(t, out, "knownCount")
	assert.Contains(t, out, "elseIfChain(2)")
	assert.Contains(t, out, "Comments (5):")
	assert.Contains(t, out, "orphan")
}

func TestAnalyze_Filters(t *testing.T) {
	out, err := runCLI(t, "analyze", "--informations", "const", "--treatments", "out", "--comments", "code", average)
	require.NoError(t, err)

	assert.Contains(t, out, "Informations (1):")
	assert.Contains(t, out, "maxGrade")
	assert.Contains(t, out, "Treatments (1):")
	assert.Contains(t, out, "printAverage")
	assert.NotContains(t, out, "readGrades  ")
	assert.Contains(t, out, "Comments (1):")

	_, err = runCLI(t, "analyze", "--informations", "bogus", average)
	assert.Error(t, err)
	_, err = runCLI(t, "analyze", "--sort", "random", average)
	assert.Error(t, err)
}

func TestAnalyze_ConfiguredLanguages(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "codemodel.yml"), []byte("languages: [python]\n"), 0o644))

	var stdout, stderr bytes.Buffer
	err := run([]string{"--project-root", root, "analyze", average}, &stdout, &stderr)
	assert.ErrorIs(t, err, analyze.ErrUnsupportedLanguage)
}

func TestExport(t *testing.T) {
	out, err := runCLI(t, "export", "--format", "mermaid", average)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"), "mermaid output starts with the graph header")
	assert.Contains(t, out, "printAverage (output)")
	assert.NotContains(t, out, "|data|")

	out, err = runCLI(t, "export", "--format", "mermaid", "--informations", average)
	require.NoError(t, err)
	assert.Contains(t, out, "|data|")

	out, err = runCLI(t, "export", average)
	require.NoError(t, err)
	var doc struct {
		ExportedAt string `json:"exportedAt"`
		Path       string `json:"path"`
		Treatments []struct {
			Name string `json:"name"`
		} `json:"treatments"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.NotEmpty(t, doc.ExportedAt)
	assert.Equal(t, average, doc.Path)
	assert.Len(t, doc.Treatments, 3)

	_, err = runCLI(t, "export", "--format", "dot", average)
	assert.Error(t, err)
}

func TestPersistAndStatus(t *testing.T) {
	db := filepath.Join(t.TempDir(), "graph")

	_, err := runCLI(t, "status", "--db", db)
	assert.Error(t, err, "status needs an existing graph")

	out, err := runCLI(t, "persist", "--db", db, average, "../../testdata/fixtures/codemodel/grades.py")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	// Persisting again replaces the models in place.
	again, err := runCLI(t, "persist", "--db", db, average)
	require.NoError(t, err)
	assert.Equal(t, lines[0], strings.TrimSpace(again))

	out, err = runCLI(t, "status", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "average.go")
	assert.Contains(t, out, "grades.py")
	assert.Contains(t, out, "2 files")
}
