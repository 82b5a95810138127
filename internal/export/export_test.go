package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

func sampleSnapshot(t *testing.T) codemodel.Snapshot {
	t.Helper()
	c := codemodel.New("src/app/cart.ts", codemodel.WithID("cart"))

	items, err := c.AddInformation("items", "Item[]", codemodel.StructuredVariable{})
	require.NoError(t, err)
	total, err := c.AddInformation("total", "number", codemodel.SimpleVariable{})
	require.NoError(t, err)

	read, err := c.AddTreatment("readItems", codemodel.Input)
	require.NoError(t, err)
	sum, err := c.AddTreatment(`sum "all"`, codemodel.Calculation)
	require.NoError(t, err)
	add, err := c.AddTreatment("add", codemodel.Calculation)
	require.NoError(t, err)

	require.NoError(t, c.AddSubTreatment(sum, add))
	require.NoError(t, c.AddSequence(read, sum))
	require.NoError(t, c.AddResult(read, items))
	require.NoError(t, c.AddData(sum, items))
	require.NoError(t, c.AddResult(sum, total))
	_, err = c.AddComment("cart totals", codemodel.AboutCode{})
	require.NoError(t, err)
	return c.Snapshot()
}

func TestGenerateMermaid(t *testing.T) {
	got := GenerateMermaid(sampleSnapshot(t))
	want := `graph TD
  subgraph code["app/cart.ts"]
    T0["readItems (input)"]
    T1["sum #quot;all#quot; (calculation)"]
    T2["add (calculation)"]
  end
  T0 -.-> T1
  T1 --> T2
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mermaid (-want +got):\n%s", diff)
	}
	assert.NotContains(t, got, "cart totals", "comments are omitted")
}

func TestGenerateMermaid_WithInformations(t *testing.T) {
	got := GenerateMermaid(sampleSnapshot(t), WithInformations())

	assert.Contains(t, got, `  I0(["items: structuredVariable"])`)
	assert.Contains(t, got, `  I1(["total: simpleVariable"])`)
	assert.Contains(t, got, "  I0 -->|data| T1\n")
	assert.Contains(t, got, "  T0 -->|result| I0\n")
	assert.Contains(t, got, "  T1 -->|result| I1\n")
}

func TestWriteJSON(t *testing.T) {
	snap := sampleSnapshot(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, ExportModel(snap, at)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2026-03-01T11:00:00Z", decoded["exportedAt"])
	assert.Equal(t, "cart", decoded["id"])
	assert.Equal(t, "src/app/cart.ts", decoded["path"])
	assert.Len(t, decoded["treatments"], 3)
	assert.Len(t, decoded["edges"], 5)
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "main.go", shortPath("main.go"))
	assert.Equal(t, "a/b.go", shortPath("a/b.go"))
	assert.Equal(t, "b/c.go", shortPath("x/a/b/c.go"))
}
