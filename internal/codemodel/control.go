package codemodel

import (
	"fmt"
	"slices"
)

// ShapeKind is the closed set of control-flow shapes.
type ShapeKind string

const (
	ShapeIf                  ShapeKind = "if"
	ShapeIfElse              ShapeKind = "ifElse"
	ShapeElseIfChain         ShapeKind = "elseIfChain"
	ShapeElseIfChainWithElse ShapeKind = "elseIfChainWithElse"
	ShapeSwitch              ShapeKind = "switch"
	ShapeKnownCount          ShapeKind = "knownCount"
	ShapeUnknownCount        ShapeKind = "unknownCount"
)

// ConditionPosition locates the continuation or exit condition of a loop
// whose repetition count is unknown.
type ConditionPosition string

const (
	ConditionStart    ConditionPosition = "start"
	ConditionEnd      ConditionPosition = "end"
	ConditionMiddle   ConditionPosition = "middle"
	ConditionMultiple ConditionPosition = "multiple"
)

// ControlShape describes one control structure. Condition is set only for
// ShapeUnknownCount; Branches only for the else-if chains, where it counts
// the if and else-if branches (the trailing else excluded).
type ControlShape struct {
	Kind      ShapeKind         `json:"kind"`
	Condition ConditionPosition `json:"condition,omitempty"`
	Branches  int               `json:"branches,omitempty"`
}

func If() ControlShape     { return ControlShape{Kind: ShapeIf} }
func IfElse() ControlShape { return ControlShape{Kind: ShapeIfElse} }
func Switch() ControlShape { return ControlShape{Kind: ShapeSwitch} }

func ElseIfChain(branches int) ControlShape {
	return ControlShape{Kind: ShapeElseIfChain, Branches: branches}
}

func ElseIfChainWithElse(branches int) ControlShape {
	return ControlShape{Kind: ShapeElseIfChainWithElse, Branches: branches}
}

func KnownCount() ControlShape { return ControlShape{Kind: ShapeKnownCount} }

func UnknownCount(pos ConditionPosition) ControlShape {
	return ControlShape{Kind: ShapeUnknownCount, Condition: pos}
}

type shapeFamily int

const (
	familyInvalid shapeFamily = iota
	familyConditional
	familyIterative
)

// family is the single match every predicate goes through. A new ShapeKind
// must be added here or Validate rejects it.
func (s ControlShape) family() shapeFamily {
	switch s.Kind {
	case ShapeIf, ShapeIfElse, ShapeElseIfChain, ShapeElseIfChainWithElse, ShapeSwitch:
		return familyConditional
	case ShapeKnownCount, ShapeUnknownCount:
		return familyIterative
	}
	return familyInvalid
}

// Validate checks that the shape is known and that its payload fits it.
func (s ControlShape) Validate() error {
	if s.family() == familyInvalid {
		return fmt.Errorf("unknown control shape %q: %w", s.Kind, ErrInvalidFact)
	}
	if s.Kind == ShapeUnknownCount {
		switch s.Condition {
		case ConditionStart, ConditionEnd, ConditionMiddle, ConditionMultiple:
		default:
			return fmt.Errorf("unknown-count loop needs a condition position, got %q: %w", s.Condition, ErrInvalidFact)
		}
	} else if s.Condition != "" {
		return fmt.Errorf("%s carries a condition position: %w", s.Kind, ErrInvalidFact)
	}
	switch s.Kind {
	case ShapeElseIfChain, ShapeElseIfChainWithElse:
		if s.Branches < 2 {
			return fmt.Errorf("%s needs at least two branches, got %d: %w", s.Kind, s.Branches, ErrInvalidFact)
		}
	default:
		if s.Branches != 0 {
			return fmt.Errorf("%s carries a branch count: %w", s.Kind, ErrInvalidFact)
		}
	}
	return nil
}

func (s ControlShape) IsConditional() bool { return s.family() == familyConditional }
func (s ControlShape) IsIterative() bool   { return s.family() == familyIterative }

func (s ControlShape) IsIf() bool                  { return s.Kind == ShapeIf }
func (s ControlShape) IsIfElse() bool              { return s.Kind == ShapeIfElse }
func (s ControlShape) IsElseIfChain() bool         { return s.Kind == ShapeElseIfChain }
func (s ControlShape) IsElseIfChainWithElse() bool { return s.Kind == ShapeElseIfChainWithElse }
func (s ControlShape) IsSwitch() bool              { return s.Kind == ShapeSwitch }
func (s ControlShape) IsKnownCount() bool          { return s.Kind == ShapeKnownCount }
func (s ControlShape) IsUnknownCount() bool        { return s.Kind == ShapeUnknownCount }

func (s ControlShape) ConditionAtStart() bool {
	return s.IsUnknownCount() && s.Condition == ConditionStart
}

func (s ControlShape) ConditionAtEnd() bool {
	return s.IsUnknownCount() && s.Condition == ConditionEnd
}

func (s ControlShape) ConditionInMiddle() bool {
	return s.IsUnknownCount() && s.Condition == ConditionMiddle
}

func (s ControlShape) MultipleConditions() bool {
	return s.IsUnknownCount() && s.Condition == ConditionMultiple
}

// ControlStructure is a read-only copy of a control structure and the
// direct children nested in it.
type ControlStructure struct {
	ID        StructureID   `json:"id"`
	Treatment TreatmentID   `json:"treatment"`
	Shape     ControlShape  `json:"shape"`
	Children  []StructureID `json:"children,omitempty"`
}

// IsNested reports whether other structures are nested in cs.
func (cs ControlStructure) IsNested() bool { return len(cs.Children) > 0 }

func (cs ControlStructure) IsConditional() bool { return cs.Shape.IsConditional() }
func (cs ControlStructure) IsIterative() bool   { return cs.Shape.IsIterative() }

// StructurePredicate selects control structures. Method expressions such as
// ControlStructure.IsIterative satisfy it.
type StructurePredicate func(ControlStructure) bool

// OfKind returns a predicate matching one shape kind.
func OfKind(kind ShapeKind) StructurePredicate {
	return func(cs ControlStructure) bool { return cs.Shape.Kind == kind }
}

type structureRecord struct {
	shape     ControlShape
	treatment TreatmentID
	parent    StructureID
	hasParent bool
	children  []StructureID
}

// structureStore owns the control structures of every treatment as a
// forest: one list of roots per treatment, children below.
type structureStore struct {
	arena []*structureRecord
	live  int
	roots map[TreatmentID][]StructureID
}

func newStructureStore() structureStore {
	return structureStore{roots: make(map[TreatmentID][]StructureID)}
}

func (s *structureStore) get(id StructureID) (*structureRecord, bool) {
	if id < 0 || int(id) >= len(s.arena) || s.arena[id] == nil {
		return nil, false
	}
	return s.arena[id], true
}

func (s *structureStore) addRoot(t TreatmentID, shape ControlShape) StructureID {
	id := StructureID(len(s.arena))
	s.arena = append(s.arena, &structureRecord{shape: shape, treatment: t})
	s.live++
	s.roots[t] = append(s.roots[t], id)
	return id
}

func (s *structureStore) addUnder(parent StructureID, shape ControlShape) StructureID {
	p := s.arena[parent]
	id := StructureID(len(s.arena))
	s.arena = append(s.arena, &structureRecord{
		shape:     shape,
		treatment: p.treatment,
		parent:    parent,
		hasParent: true,
	})
	s.live++
	p.children = append(p.children, id)
	return id
}

// isAncestor reports whether candidate is id or sits above it.
func (s *structureStore) isAncestor(candidate, id StructureID) bool {
	for cur := id; ; {
		if cur == candidate {
			return true
		}
		rec, ok := s.get(cur)
		if !ok || !rec.hasParent {
			return false
		}
		cur = rec.parent
	}
}

// move nests an existing top-level structure under parent.
func (s *structureStore) move(parent, child StructureID) error {
	p, ok := s.get(parent)
	if !ok {
		return notFound("structure", int(parent))
	}
	c, ok := s.get(child)
	if !ok {
		return notFound("structure", int(child))
	}
	if s.isAncestor(child, parent) {
		return fmt.Errorf("nest structure %d under %d: %w", child, parent, ErrCycleDetected)
	}
	if c.hasParent {
		if c.parent == parent {
			return nil
		}
		return fmt.Errorf("structure %d: %w", child, ErrAlreadyComposed)
	}
	if c.treatment != p.treatment {
		return fmt.Errorf("structure %d belongs to treatment %d, parent %d to treatment %d: %w",
			child, c.treatment, parent, p.treatment, ErrInvalidFact)
	}
	roots := s.roots[c.treatment]
	if i := slices.Index(roots, child); i >= 0 {
		s.roots[c.treatment] = slices.Delete(roots, i, i+1)
	}
	p.children = append(p.children, child)
	c.parent = parent
	c.hasParent = true
	return nil
}

// removeSubtree destroys id and everything nested in it.
func (s *structureStore) removeSubtree(id StructureID) bool {
	rec, ok := s.get(id)
	if !ok {
		return false
	}
	if rec.hasParent {
		p := s.arena[rec.parent]
		if i := slices.Index(p.children, id); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
	} else {
		roots := s.roots[rec.treatment]
		if i := slices.Index(roots, id); i >= 0 {
			s.roots[rec.treatment] = slices.Delete(roots, i, i+1)
		}
		if len(s.roots[rec.treatment]) == 0 {
			delete(s.roots, rec.treatment)
		}
	}
	s.destroy(id)
	return true
}

func (s *structureStore) destroy(id StructureID) {
	rec := s.arena[id]
	for _, child := range rec.children {
		s.destroy(child)
	}
	s.arena[id] = nil
	s.live--
}

func (s *structureStore) removeTreatment(t TreatmentID) {
	for _, root := range slices.Clone(s.roots[t]) {
		s.removeSubtree(root)
	}
}

func (s *structureStore) depth(id StructureID) int {
	d := 0
	for rec := s.arena[id]; rec.hasParent; rec = s.arena[rec.parent] {
		d++
	}
	return d
}

func (s *structureStore) snapshot(id StructureID) ControlStructure {
	rec := s.arena[id]
	return ControlStructure{
		ID:        id,
		Treatment: rec.treatment,
		Shape:     rec.shape,
		Children:  slices.Clone(rec.children),
	}
}

func (s *structureStore) each(fn func(ControlStructure)) {
	for id, rec := range s.arena {
		if rec != nil {
			fn(s.snapshot(StructureID(id)))
		}
	}
}

func (s *structureStore) pick(ids []StructureID) []ControlStructure {
	out := make([]ControlStructure, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.get(id); ok {
			out = append(out, s.snapshot(id))
		}
	}
	return out
}

// nestedWithin returns, in appearance order, the structures matching inner
// that have at least one strict ancestor matching outer.
func (s *structureStore) nestedWithin(outer, inner StructurePredicate) []ControlStructure {
	out := []ControlStructure{}
	s.each(func(cs ControlStructure) {
		if !inner(cs) {
			return
		}
		for rec := s.arena[cs.ID]; rec.hasParent; rec = s.arena[rec.parent] {
			if outer(s.snapshot(rec.parent)) {
				out = append(out, cs)
				return
			}
		}
	})
	return out
}
