package codemodel

import (
	"fmt"
	"slices"
	"strings"
)

// --- Information kinds ---

// InformationKind is the closed set of information variants: Constant,
// MagicNumber, SimpleVariable and StructuredVariable.
type InformationKind interface {
	kindName() string
}

// Constant is a named value that never changes.
type Constant struct {
	Value any `json:"value,omitempty"`
}

// MagicNumber is a literal value written directly in the code.
type MagicNumber struct {
	Value any `json:"value,omitempty"`
}

// SimpleVariable is a scalar variable (integer, character, boolean...).
type SimpleVariable struct {
	Initialized  bool `json:"initialized"`
	InitialValue any  `json:"initialValue,omitempty"`
}

// StructuredVariable is an array, record or object made of other
// informations, kept in declaration order.
type StructuredVariable struct {
	Components []InfoID `json:"components,omitempty"`
}

func (Constant) kindName() string           { return "constant" }
func (MagicNumber) kindName() string        { return "magicNumber" }
func (SimpleVariable) kindName() string     { return "simpleVariable" }
func (StructuredVariable) kindName() string { return "structuredVariable" }

// KindName returns the stable name of k, or "" for nil.
func KindName(k InformationKind) string {
	if k == nil {
		return ""
	}
	return k.kindName()
}

// Type is an entry of the type registry: a type name and the informations
// declared with it, in appearance order.
type Type struct {
	Name         string   `json:"name"`
	Informations []InfoID `json:"informations"`
}

// Information is a read-only copy of a declared piece of data.
type Information struct {
	ID         InfoID           `json:"id"`
	Name       string           `json:"name"`
	Convention NamingConvention `json:"convention"`
	TypeName   string           `json:"type"`
	Kind       InformationKind  `json:"kind"`
	Roles      Role             `json:"roles"`
}

func (i Information) IsConstant() bool {
	_, ok := i.Kind.(Constant)
	return ok
}

func (i Information) IsMagicNumber() bool {
	_, ok := i.Kind.(MagicNumber)
	return ok
}

func (i Information) IsSimpleVariable() bool {
	_, ok := i.Kind.(SimpleVariable)
	return ok
}

func (i Information) IsStructuredVariable() bool {
	_, ok := i.Kind.(StructuredVariable)
	return ok
}

// IsVariable reports whether i is a simple or structured variable.
func (i Information) IsVariable() bool {
	switch i.Kind.(type) {
	case SimpleVariable, StructuredVariable:
		return true
	case Constant, MagicNumber:
		return false
	default:
		panic(fmt.Sprintf("codemodel: unhandled information kind %T", i.Kind))
	}
}

func (i Information) IsAccumulator() bool { return i.Roles.Has(Accumulator) }
func (i Information) IsCounter() bool     { return i.Roles.Has(Counter) }
func (i Information) IsLoopIndex() bool   { return i.Roles.Has(LoopIndex) }

// Matches reports whether i belongs to the category f.
func (i Information) Matches(f InfoFilter) bool {
	switch f {
	case InfoAll:
		return true
	case InfoConstants:
		return i.IsConstant()
	case InfoMagicNumbers:
		return i.IsMagicNumber()
	case InfoVariables:
		return i.IsVariable()
	case InfoSimpleVariables:
		return i.IsSimpleVariable()
	case InfoStructuredVariables:
		return i.IsStructuredVariable()
	case InfoAccumulators:
		return i.IsAccumulator()
	case InfoCounters:
		return i.IsCounter()
	case InfoLoopIndexes:
		return i.IsLoopIndex()
	}
	return false
}

// --- Store ---

type infoRecord struct {
	name       string
	convention NamingConvention
	typeName   string
	kind       InformationKind
	components []InfoID // only for StructuredVariable
	roles      Role
}

// informationStore owns every Information of a Code and the reverse index
// from type names to informations.
type informationStore struct {
	arena     []*infoRecord
	live      int
	byType    map[string][]InfoID
	typeOrder []string
}

func newInformationStore() informationStore {
	return informationStore{byType: make(map[string][]InfoID)}
}

func (s *informationStore) add(name, typeName string, kind InformationKind) InfoID {
	rec := &infoRecord{
		name:       name,
		convention: Classify(name),
		typeName:   typeName,
		kind:       kind,
	}
	if sv, ok := kind.(StructuredVariable); ok {
		rec.components = slices.Clone(sv.Components)
		rec.kind = StructuredVariable{}
	}
	id := InfoID(len(s.arena))
	s.arena = append(s.arena, rec)
	s.live++
	s.indexType(id, typeName)
	return id
}

func (s *informationStore) get(id InfoID) (*infoRecord, bool) {
	if id < 0 || int(id) >= len(s.arena) || s.arena[id] == nil {
		return nil, false
	}
	return s.arena[id], true
}

// remove drops id from the arena, the type index and every structured
// variable that lists it as a component.
func (s *informationStore) remove(id InfoID) bool {
	rec, ok := s.get(id)
	if !ok {
		return false
	}
	s.unindexType(id, rec.typeName)
	s.arena[id] = nil
	s.live--
	for _, other := range s.arena {
		if other == nil {
			continue
		}
		if i := slices.Index(other.components, id); i >= 0 {
			other.components = slices.Delete(other.components, i, i+1)
		}
	}
	return true
}

func (s *informationStore) indexType(id InfoID, typeName string) {
	if _, ok := s.byType[typeName]; !ok {
		s.typeOrder = append(s.typeOrder, typeName)
	}
	s.byType[typeName] = append(s.byType[typeName], id)
}

func (s *informationStore) unindexType(id InfoID, typeName string) {
	ids := s.byType[typeName]
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) > 0 {
		s.byType[typeName] = ids
		return
	}
	delete(s.byType, typeName)
	if i := slices.Index(s.typeOrder, typeName); i >= 0 {
		s.typeOrder = slices.Delete(s.typeOrder, i, i+1)
	}
}

func (s *informationStore) setType(id InfoID, typeName string) bool {
	rec, ok := s.get(id)
	if !ok {
		return false
	}
	if rec.typeName == typeName {
		return true
	}
	s.unindexType(id, rec.typeName)
	rec.typeName = typeName
	s.indexType(id, typeName)
	return true
}

func (s *informationStore) rename(id InfoID, name string) bool {
	rec, ok := s.get(id)
	if !ok {
		return false
	}
	rec.name = name
	rec.convention = Classify(name)
	return true
}

// addComponent appends component to container. The container must be a
// structured variable and must not end up inside its own component tree.
func (s *informationStore) addComponent(container, component InfoID) error {
	rec, ok := s.get(container)
	if !ok {
		return notFound("information", int(container))
	}
	if _, ok := s.get(component); !ok {
		return notFound("information", int(component))
	}
	if _, ok := rec.kind.(StructuredVariable); !ok {
		return fmt.Errorf("information %d is a %s, not a structured variable: %w",
			container, rec.kind.kindName(), ErrInvalidFact)
	}
	if container == component || s.contains(component, container) {
		return fmt.Errorf("component %d of %d: %w", component, container, ErrCycleDetected)
	}
	if slices.Contains(rec.components, component) {
		return nil
	}
	rec.components = append(rec.components, component)
	return nil
}

func (s *informationStore) removeComponent(container, component InfoID) error {
	rec, ok := s.get(container)
	if !ok {
		return notFound("information", int(container))
	}
	i := slices.Index(rec.components, component)
	if i < 0 {
		return fmt.Errorf("component %d of %d: %w", component, container, ErrNotFound)
	}
	rec.components = slices.Delete(rec.components, i, i+1)
	return nil
}

// contains reports whether target is reachable from root through
// component lists.
func (s *informationStore) contains(root, target InfoID) bool {
	rec, ok := s.get(root)
	if !ok {
		return false
	}
	for _, c := range rec.components {
		if c == target || s.contains(c, target) {
			return true
		}
	}
	return false
}

func (s *informationStore) snapshot(id InfoID) Information {
	rec := s.arena[id]
	kind := rec.kind
	if _, ok := kind.(StructuredVariable); ok {
		kind = StructuredVariable{Components: slices.Clone(rec.components)}
	}
	return Information{
		ID:         id,
		Name:       rec.name,
		Convention: rec.convention,
		TypeName:   rec.typeName,
		Kind:       kind,
		Roles:      rec.roles,
	}
}

func (s *informationStore) each(fn func(Information)) {
	for id, rec := range s.arena {
		if rec != nil {
			fn(s.snapshot(InfoID(id)))
		}
	}
}

func (s *informationStore) list(f InfoFilter, order SortOrder) []Information {
	out := []Information{}
	s.each(func(info Information) {
		if info.Matches(f) {
			out = append(out, info)
		}
	})
	if order == Alphabetical {
		sortByName(out, func(i Information) string { return i.Name })
	}
	return out
}

func (s *informationStore) count(f InfoFilter) int {
	if f == InfoAll {
		return s.live
	}
	n := 0
	s.each(func(info Information) {
		if info.Matches(f) {
			n++
		}
	})
	return n
}

func (s *informationStore) pick(ids []InfoID) []Information {
	out := make([]Information, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.get(id); ok {
			out = append(out, s.snapshot(id))
		}
	}
	return out
}

func (s *informationStore) types() []Type {
	out := make([]Type, 0, len(s.typeOrder))
	for _, name := range s.typeOrder {
		out = append(out, Type{Name: name, Informations: slices.Clone(s.byType[name])})
	}
	return out
}

// sortByName orders items by name, case-sensitive ascending. The sort is
// stable so items that share a name keep their appearance order.
func sortByName[T any](items []T, name func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		return strings.Compare(name(a), name(b))
	})
}
