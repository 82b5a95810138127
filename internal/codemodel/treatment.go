package codemodel

import "slices"

// Composition is the composition axis of a treatment. It is derived from
// the structure: a treatment with sub-treatments is Composed.
type Composition string

const (
	Simple   Composition = "simple"
	Composed Composition = "composed"
)

// Treatment is a read-only copy of a named unit of computation.
type Treatment struct {
	ID            TreatmentID   `json:"id"`
	Name          string        `json:"name"`
	Role          TreatmentRole `json:"role"`
	SubTreatments []TreatmentID `json:"subTreatments,omitempty"`
}

// Composition reports whether t is a leaf or has sub-treatments.
func (t Treatment) Composition() Composition {
	if len(t.SubTreatments) > 0 {
		return Composed
	}
	return Simple
}

func (t Treatment) IsSimple() bool   { return t.Composition() == Simple }
func (t Treatment) IsComposed() bool { return t.Composition() == Composed }

// Matches reports whether t belongs to the category f.
func (t Treatment) Matches(f TreatmentFilter) bool {
	switch f {
	case TreatmentsAll:
		return true
	case TreatmentsSimple:
		return t.IsSimple()
	case TreatmentsComposed:
		return t.IsComposed()
	case TreatmentsInput:
		return t.Role == Input
	case TreatmentsOutput:
		return t.Role == Output
	case TreatmentsCalculation:
		return t.Role == Calculation
	}
	return false
}

type treatmentRecord struct {
	name      string
	role      TreatmentRole
	parent    TreatmentID
	hasParent bool
	children  []TreatmentID
}

// treatmentStore owns the treatments of a Code, their composition tree and
// the sequencing graph. Sequencing may contain cycles; composition may not.
type treatmentStore struct {
	arena []*treatmentRecord
	live  int
	// after holds a->b when b executes after a.
	after relation[TreatmentID, TreatmentID]
}

func newTreatmentStore() treatmentStore {
	return treatmentStore{after: newRelation[TreatmentID, TreatmentID]()}
}

func (s *treatmentStore) add(name string, role TreatmentRole) TreatmentID {
	id := TreatmentID(len(s.arena))
	s.arena = append(s.arena, &treatmentRecord{name: name, role: role})
	s.live++
	return id
}

func (s *treatmentStore) get(id TreatmentID) (*treatmentRecord, bool) {
	if id < 0 || int(id) >= len(s.arena) || s.arena[id] == nil {
		return nil, false
	}
	return s.arena[id], true
}

// remove detaches id from its parent, promotes its sub-treatments to top
// level and drops every sequencing edge touching it.
func (s *treatmentStore) remove(id TreatmentID) bool {
	rec, ok := s.get(id)
	if !ok {
		return false
	}
	if rec.hasParent {
		s.detach(rec.parent, id)
	}
	for _, child := range rec.children {
		if c, ok := s.get(child); ok {
			c.hasParent = false
		}
	}
	s.after.dropLeft(id)
	s.after.dropRight(id)
	s.arena[id] = nil
	s.live--
	return true
}

// isAncestor reports whether candidate sits on the parent chain of id,
// id itself included.
func (s *treatmentStore) isAncestor(candidate, id TreatmentID) bool {
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

func (s *treatmentStore) attach(parent, child TreatmentID) {
	p := s.arena[parent]
	c := s.arena[child]
	p.children = append(p.children, child)
	c.parent = parent
	c.hasParent = true
}

func (s *treatmentStore) detach(parent, child TreatmentID) bool {
	p, ok := s.get(parent)
	if !ok {
		return false
	}
	i := slices.Index(p.children, child)
	if i < 0 {
		return false
	}
	p.children = slices.Delete(p.children, i, i+1)
	if c, ok := s.get(child); ok {
		c.hasParent = false
	}
	return true
}

func (s *treatmentStore) snapshot(id TreatmentID) Treatment {
	rec := s.arena[id]
	return Treatment{
		ID:            id,
		Name:          rec.name,
		Role:          rec.role,
		SubTreatments: slices.Clone(rec.children),
	}
}

func (s *treatmentStore) each(fn func(Treatment)) {
	for id, rec := range s.arena {
		if rec != nil {
			fn(s.snapshot(TreatmentID(id)))
		}
	}
}

func (s *treatmentStore) list(f TreatmentFilter, order SortOrder) []Treatment {
	out := []Treatment{}
	s.each(func(t Treatment) {
		if t.Matches(f) {
			out = append(out, t)
		}
	})
	if order == Alphabetical {
		sortByName(out, func(t Treatment) string { return t.Name })
	}
	return out
}

func (s *treatmentStore) count(f TreatmentFilter) int {
	if f == TreatmentsAll {
		return s.live
	}
	n := 0
	s.each(func(t Treatment) {
		if t.Matches(f) {
			n++
		}
	})
	return n
}

func (s *treatmentStore) pick(ids []TreatmentID) []Treatment {
	out := make([]Treatment, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.get(id); ok {
			out = append(out, s.snapshot(id))
		}
	}
	return out
}
