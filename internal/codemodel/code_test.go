package codemodel

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// names extracts the Name field so ordered results can be diffed.
func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func infoNames(infos []Information) []string {
	return names(infos, func(i Information) string { return i.Name })
}

func treatmentNames(ts []Treatment) []string {
	return names(ts, func(t Treatment) string { return t.Name })
}

func mustInfo(t *testing.T, c *Code, name, typeName string, kind InformationKind) InfoID {
	t.Helper()
	id, err := c.AddInformation(name, typeName, kind)
	require.NoError(t, err)
	return id
}

func mustTreatment(t *testing.T, c *Code, name string, role TreatmentRole) TreatmentID {
	t.Helper()
	id, err := c.AddTreatment(name, role)
	require.NoError(t, err)
	return id
}

// ---------------------------------------------------------------------------
// Informations
// ---------------------------------------------------------------------------

func TestCode_InformationOrdering(t *testing.T) {
	c := New("main.go")
	for _, n := range []string{"zeta", "alpha", "Beta", "alpha", "gamma"} {
		mustInfo(t, c, n, "int", SimpleVariable{})
	}

	t.Run("appearance order is insertion order", func(t *testing.T) {
		got := infoNames(c.Informations(InfoAll, AppearanceOrder))
		want := []string{"zeta", "alpha", "Beta", "alpha", "gamma"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("appearance order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("alphabetical is case-sensitive and stable", func(t *testing.T) {
		got := c.Informations(InfoAll, Alphabetical)
		want := []string{"Beta", "alpha", "alpha", "gamma", "zeta"}
		if diff := cmp.Diff(want, infoNames(got)); diff != "" {
			t.Errorf("alphabetical order mismatch (-want +got):\n%s", diff)
		}
		// The two "alpha" keep their appearance order.
		assert.Less(t, got[1].ID, got[2].ID)
	})
}

func TestCode_InformationFilters(t *testing.T) {
	c := New("main.go")
	mustInfo(t, c, "MAX", "int", Constant{Value: 10})
	mustInfo(t, c, "3.14", "double", MagicNumber{Value: 3.14})
	sum := mustInfo(t, c, "sum", "int", SimpleVariable{Initialized: true, InitialValue: 0})
	i := mustInfo(t, c, "i", "int", SimpleVariable{})
	mustInfo(t, c, "point", "Point", StructuredVariable{})

	require.NoError(t, c.SetRole(sum, Accumulator))
	require.NoError(t, c.SetRole(i, LoopIndex))
	require.NoError(t, c.SetRole(i, Counter))

	tests := []struct {
		filter InfoFilter
		want   []string
	}{
		{InfoAll, []string{"MAX", "3.14", "sum", "i", "point"}},
		{InfoConstants, []string{"MAX"}},
		{InfoMagicNumbers, []string{"3.14"}},
		{InfoVariables, []string{"sum", "i", "point"}},
		{InfoSimpleVariables, []string{"sum", "i"}},
		{InfoStructuredVariables, []string{"point"}},
		{InfoAccumulators, []string{"sum"}},
		{InfoCounters, []string{"i"}},
		{InfoLoopIndexes, []string{"i"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			assert.Equal(t, tt.want, infoNames(c.Informations(tt.filter, AppearanceOrder)))
			assert.Equal(t, len(tt.want), c.InformationCount(tt.filter))
		})
	}
}

func TestCode_SetRole_NotApplicable(t *testing.T) {
	c := New("main.go")
	k := mustInfo(t, c, "K", "int", Constant{Value: 1})
	m := mustInfo(t, c, "42", "int", MagicNumber{Value: 42})

	assert.ErrorIs(t, c.SetRole(k, Counter), ErrRoleNotApplicable)
	assert.ErrorIs(t, c.SetRole(m, Accumulator), ErrRoleNotApplicable)
	assert.ErrorIs(t, c.SetRole(InfoID(99), Counter), ErrNotFound)
}

func TestCode_RolesAreIndependent(t *testing.T) {
	c := New("main.go")
	v := mustInfo(t, c, "n", "int", SimpleVariable{})
	require.NoError(t, c.SetRole(v, Accumulator|Counter|LoopIndex))
	require.NoError(t, c.ClearRole(v, Counter))

	info, ok := c.Information(v)
	require.True(t, ok)
	assert.True(t, info.IsAccumulator())
	assert.False(t, info.IsCounter())
	assert.True(t, info.IsLoopIndex())
	assert.Equal(t, []string{"accumulator", "loopIndex"}, info.Roles.Names())
}

func TestCode_TypeIndex(t *testing.T) {
	c := New("main.go")
	a := mustInfo(t, c, "a", "int", SimpleVariable{})
	mustInfo(t, c, "s", "string", SimpleVariable{})
	b := mustInfo(t, c, "b", "int", SimpleVariable{})

	assert.Equal(t, []string{"a", "b"}, infoNames(c.InformationsOfType("int")))

	require.NoError(t, c.SetType(a, "string"))
	assert.Equal(t, []string{"b"}, infoNames(c.InformationsOfType("int")))
	assert.Equal(t, []string{"s", "a"}, infoNames(c.InformationsOfType("string")))

	require.NoError(t, c.RemoveInformation(b))
	want := []Type{{Name: "string", Informations: []InfoID{1, 0}}}
	if diff := cmp.Diff(want, c.Types()); diff != "" {
		t.Errorf("type registry mismatch (-want +got):\n%s", diff)
	}
}

func TestCode_RenameReclassifies(t *testing.T) {
	c := New("main.go")
	id := mustInfo(t, c, "total_count", "int", SimpleVariable{})
	require.NoError(t, c.RenameInformation(id, "totalCount"))

	info, _ := c.Information(id)
	assert.Equal(t, "totalCount", info.Name)
	assert.Equal(t, CamelCase, info.Convention)
}

func TestCode_Components(t *testing.T) {
	c := New("main.go")
	x := mustInfo(t, c, "x", "int", SimpleVariable{})
	y := mustInfo(t, c, "y", "int", SimpleVariable{})
	p := mustInfo(t, c, "point", "Point", StructuredVariable{Components: []InfoID{x}})

	require.NoError(t, c.AddComponent(p, y))
	assert.Equal(t, []string{"x", "y"}, infoNames(c.Components(p)))

	t.Run("scalar containers are rejected", func(t *testing.T) {
		assert.ErrorIs(t, c.AddComponent(x, y), ErrInvalidFact)
	})

	t.Run("self containment is a cycle", func(t *testing.T) {
		outer := mustInfo(t, c, "outer", "Box", StructuredVariable{Components: []InfoID{p}})
		assert.ErrorIs(t, c.AddComponent(p, outer), ErrCycleDetected)
		assert.ErrorIs(t, c.AddComponent(p, p), ErrCycleDetected)
	})

	t.Run("removing a component updates the container", func(t *testing.T) {
		require.NoError(t, c.RemoveInformation(x))
		assert.Equal(t, []string{"y"}, infoNames(c.Components(p)))
		info, _ := c.Information(p)
		assert.Equal(t, StructuredVariable{Components: []InfoID{y}}, info.Kind)
	})

	t.Run("unknown component at declaration", func(t *testing.T) {
		_, err := c.AddInformation("bad", "T", StructuredVariable{Components: []InfoID{99}})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// Cascades and idempotence
// ---------------------------------------------------------------------------

func TestCode_RemoveInformation_Cascades(t *testing.T) {
	c := New("main.go")
	i := mustInfo(t, c, "radius", "double", SimpleVariable{})
	other := mustInfo(t, c, "area", "double", SimpleVariable{})
	t1 := mustTreatment(t, c, "compute", Calculation)
	t2 := mustTreatment(t, c, "show", Output)

	require.NoError(t, c.AddData(t1, i))
	require.NoError(t, c.AddResult(t1, other))
	require.NoError(t, c.AddResult(t2, i))
	cm, err := c.AddComment("the radius", AboutInformation{ID: i})
	require.NoError(t, err)

	require.NoError(t, c.RemoveInformation(i))

	for _, tid := range []TreatmentID{t1, t2} {
		assert.NotContains(t, infoNames(c.Data(tid)), "radius")
		assert.NotContains(t, infoNames(c.Results(tid)), "radius")
	}
	assert.Empty(t, c.UsedAsDataBy(i))
	assert.Empty(t, c.ProducedBy(i))
	assert.Equal(t, []string{"area"}, infoNames(c.Results(t1)))

	got, ok := c.Comment(cm)
	require.True(t, ok, "the comment survives its target")
	assert.False(t, got.Attached())
	_, ok = c.InformationComment(i)
	assert.False(t, ok)
	require.NoError(t, c.Validate())
}

func TestCode_RemoveTwice(t *testing.T) {
	c := New("main.go")
	i := mustInfo(t, c, "a", "int", SimpleVariable{})
	tr := mustTreatment(t, c, "f", "")
	lib, err := c.AddLibrary("fmt")
	require.NoError(t, err)
	cm, err := c.AddComment("header", AboutCode{})
	require.NoError(t, err)
	s, err := c.AddStructure(tr, If())
	require.NoError(t, err)

	require.NoError(t, c.RemoveInformation(i))
	require.NoError(t, c.RemoveTreatment(tr))
	require.NoError(t, c.RemoveLibrary(lib))
	require.NoError(t, c.RemoveComment(cm))
	after := c.Snapshot()

	assert.ErrorIs(t, c.RemoveInformation(i), ErrNotFound)
	assert.ErrorIs(t, c.RemoveTreatment(tr), ErrNotFound)
	assert.ErrorIs(t, c.RemoveLibrary(lib), ErrNotFound)
	assert.ErrorIs(t, c.RemoveComment(cm), ErrNotFound)
	assert.ErrorIs(t, c.RemoveStructure(s), ErrNotFound, "removed with its treatment")

	if diff := cmp.Diff(after, c.Snapshot()); diff != "" {
		t.Errorf("second removal changed the model (-first +second):\n%s", diff)
	}
}

func TestCode_RemoveTreatment_Cascades(t *testing.T) {
	c := New("main.go")
	main := mustTreatment(t, c, "main", Calculation)
	read := mustTreatment(t, c, "readInput", Input)
	parse := mustTreatment(t, c, "parseLine", Input)
	show := mustTreatment(t, c, "show", Output)
	v := mustInfo(t, c, "line", "string", SimpleVariable{})

	require.NoError(t, c.AddSubTreatment(main, read))
	require.NoError(t, c.AddSubTreatment(read, parse))
	require.NoError(t, c.AddSequence(main, read))
	require.NoError(t, c.AddSequence(read, show))
	require.NoError(t, c.AddSequence(show, read))
	require.NoError(t, c.AddResult(read, v))
	require.NoError(t, c.AddData(show, v))
	outer, err := c.AddStructure(read, UnknownCount(ConditionStart))
	require.NoError(t, err)
	_, err = c.AddNestedStructure(outer, If())
	require.NoError(t, err)
	cm, err := c.AddComment("reads a line", AboutTreatment{ID: read})
	require.NoError(t, err)

	require.NoError(t, c.RemoveTreatment(read))

	assert.Empty(t, c.SubTreatments(main))
	m, _ := c.Treatment(main)
	assert.True(t, m.IsSimple())

	_, hasParent := c.ParentOf(parse)
	assert.False(t, hasParent, "sub-treatments of a removed treatment become top-level")

	assert.Empty(t, c.ExecutesAfter(main))
	assert.Empty(t, c.ExecutesAfter(show))
	assert.Empty(t, c.Predecessors(show))
	assert.Empty(t, c.ProducedBy(v))
	assert.Equal(t, []string{"show"}, treatmentNames(c.UsedAsDataBy(v)))

	assert.Zero(t, c.CountStructures(nil))
	got, ok := c.Comment(cm)
	require.True(t, ok)
	assert.Nil(t, got.Target)
	require.NoError(t, c.Validate())
}

// ---------------------------------------------------------------------------
// Treatments
// ---------------------------------------------------------------------------

func TestCode_Composition(t *testing.T) {
	c := New("main.go")
	a := mustTreatment(t, c, "a", "")
	b := mustTreatment(t, c, "b", "")
	d := mustTreatment(t, c, "d", "")

	require.NoError(t, c.AddSubTreatment(a, b))
	require.NoError(t, c.AddSubTreatment(b, d))

	t.Run("reverse edge is a cycle", func(t *testing.T) {
		assert.ErrorIs(t, c.AddSubTreatment(b, a), ErrCycleDetected)
		assert.ErrorIs(t, c.AddSubTreatment(d, a), ErrCycleDetected)
		assert.ErrorIs(t, c.AddSubTreatment(a, a), ErrCycleDetected)
	})

	t.Run("rejected edge leaves the model unchanged", func(t *testing.T) {
		assert.Equal(t, []string{"b"}, treatmentNames(c.SubTreatments(a)))
		assert.Empty(t, c.SubTreatments(d))
		require.NoError(t, c.Validate())
	})

	t.Run("a second parent is rejected", func(t *testing.T) {
		e := mustTreatment(t, c, "e", "")
		assert.ErrorIs(t, c.AddSubTreatment(e, d), ErrAlreadyComposed)
		assert.NoError(t, c.AddSubTreatment(b, d), "same parent again is a no-op")
		assert.Len(t, c.SubTreatments(b), 1)
	})

	t.Run("composition axis is derived", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, treatmentNames(c.Treatments(TreatmentsComposed, AppearanceOrder)))
		assert.Equal(t, []string{"d", "e"}, treatmentNames(c.Treatments(TreatmentsSimple, AppearanceOrder)))
	})

	t.Run("detach", func(t *testing.T) {
		require.NoError(t, c.RemoveSubTreatment(b, d))
		assert.ErrorIs(t, c.RemoveSubTreatment(b, d), ErrNotFound)
		_, ok := c.ParentOf(d)
		assert.False(t, ok)
	})
}

func TestCode_SequencingAllowsCycles(t *testing.T) {
	c := New("main.go")
	a := mustTreatment(t, c, "a", "")
	b := mustTreatment(t, c, "b", "")

	require.NoError(t, c.AddSequence(a, b))
	require.NoError(t, c.AddSequence(b, a))
	require.NoError(t, c.AddSequence(a, a))

	assert.Equal(t, []string{"b", "a"}, treatmentNames(c.ExecutesAfter(a)))
	assert.Equal(t, []string{"a"}, treatmentNames(c.ExecutesAfter(b)))
	assert.Equal(t, []string{"b", "a"}, treatmentNames(c.Predecessors(a)))

	require.NoError(t, c.RemoveSequence(a, a))
	assert.ErrorIs(t, c.RemoveSequence(a, a), ErrNotFound)
	require.NoError(t, c.Validate())
}

func TestCode_TreatmentRoles(t *testing.T) {
	c := New("main.go")
	mustTreatment(t, c, "read", Input)
	mustTreatment(t, c, "write", Output)
	calc := mustTreatment(t, c, "sum", "")

	tr, _ := c.Treatment(calc)
	assert.Equal(t, Calculation, tr.Role, "role defaults to calculation")
	assert.Equal(t, 1, c.TreatmentCount(TreatmentsInput))
	assert.Equal(t, 1, c.TreatmentCount(TreatmentsOutput))
	assert.Equal(t, 1, c.TreatmentCount(TreatmentsCalculation))

	require.NoError(t, c.SetTreatmentRole(calc, Output))
	assert.Equal(t, 2, c.TreatmentCount(TreatmentsOutput))

	_, err := c.AddTreatment("bad", "sideways")
	assert.ErrorIs(t, err, ErrInvalidFact)
}

func TestCode_EdgesAreSymmetric(t *testing.T) {
	c := New("main.go")
	tr := mustTreatment(t, c, "f", "")
	a := mustInfo(t, c, "a", "int", SimpleVariable{})
	b := mustInfo(t, c, "b", "int", SimpleVariable{})

	require.NoError(t, c.AddData(tr, a))
	require.NoError(t, c.AddData(tr, a))
	require.NoError(t, c.AddResult(tr, b))
	require.NoError(t, c.AddData(tr, b))

	assert.Equal(t, []string{"a", "b"}, infoNames(c.Data(tr)))
	assert.Equal(t, []string{"b"}, infoNames(c.Results(tr)))
	assert.Equal(t, []string{"f"}, treatmentNames(c.UsedAsDataBy(a)))
	assert.Equal(t, []string{"f"}, treatmentNames(c.ProducedBy(b)))

	require.NoError(t, c.RemoveData(tr, b))
	assert.Empty(t, c.UsedAsDataBy(b))
	assert.ErrorIs(t, c.RemoveResult(tr, a), ErrNotFound)
	assert.ErrorIs(t, c.AddData(tr, InfoID(42)), ErrNotFound)
	assert.ErrorIs(t, c.Link(tr, a, Usage("both")), ErrInvalidFact)
	require.NoError(t, c.Validate())
}

// ---------------------------------------------------------------------------
// Libraries
// ---------------------------------------------------------------------------

func TestCode_Libraries(t *testing.T) {
	c := New("main.go")
	for _, n := range []string{"os", "fmt", "math"} {
		_, err := c.AddLibrary(n)
		require.NoError(t, err)
	}
	_, err := c.AddLibrary("")
	assert.ErrorIs(t, err, ErrInvalidFact)

	assert.Equal(t, 3, c.LibraryCount())
	assert.Equal(t, []string{"os", "fmt", "math"},
		names(c.Libraries(AppearanceOrder), func(l Library) string { return l.Name }))
	assert.Equal(t, []string{"fmt", "math", "os"},
		names(c.Libraries(Alphabetical), func(l Library) string { return l.Name }))
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestCode_ConcurrentReaders(t *testing.T) {
	c := New("main.go")
	tr := mustTreatment(t, c, "f", "")
	for _, n := range []string{"a", "b", "c"} {
		id := mustInfo(t, c, n, "int", SimpleVariable{})
		require.NoError(t, c.AddData(tr, id))
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = c.Informations(InfoAll, Alphabetical)
				_ = c.Data(tr)
				_ = c.Stats()
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				id, err := c.AddInformation("tmp", "int", SimpleVariable{})
				if err != nil {
					return
				}
				_ = c.AddResult(tr, id)
				_ = c.RemoveInformation(id)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, c.InformationCount(InfoAll))
	assert.Empty(t, c.Results(tr))
	require.NoError(t, c.Validate())
}

func TestCode_QueriesReturnCopies(t *testing.T) {
	c := New("main.go")
	a := mustTreatment(t, c, "a", "")
	b := mustTreatment(t, c, "b", "")
	require.NoError(t, c.AddSubTreatment(a, b))

	tr, _ := c.Treatment(a)
	tr.SubTreatments[0] = TreatmentID(99)

	again, _ := c.Treatment(a)
	assert.Equal(t, []TreatmentID{b}, again.SubTreatments)
}
