package codemodel

import "slices"

// Every query takes the read lock and returns copies. Collections are never
// nil: an empty slice means "none". A missing single relation is reported
// through the boolean of a (value, ok) pair.

// --- Libraries ---

// Libraries lists the libraries in the requested order.
func (c *Code) Libraries(order SortOrder) []Library {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.libraries.list(order)
}

// LibraryCount returns the number of libraries.
func (c *Code) LibraryCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.libraries.live
}

// --- Informations ---

// Information returns the information id, if it is registered.
func (c *Code) Information(id InfoID) (Information, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.informations.get(id); !ok {
		return Information{}, false
	}
	return c.informations.snapshot(id), true
}

// Informations lists the informations matching f in the requested order.
func (c *Code) Informations(f InfoFilter, order SortOrder) []Information {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.informations.list(f, order)
}

// InformationCount counts the informations matching f.
func (c *Code) InformationCount(f InfoFilter) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.informations.count(f)
}

// Components returns the members of a structured variable in declaration
// order. Other kinds have none.
func (c *Code) Components(id InfoID) []Information {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.informations.get(id)
	if !ok {
		return []Information{}
	}
	return c.informations.pick(rec.components)
}

// Types lists the type registry in order of first use.
func (c *Code) Types() []Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.informations.types()
}

// InformationsOfType lists the informations declared with typeName.
func (c *Code) InformationsOfType(typeName string) []Information {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.informations.pick(c.informations.byType[typeName])
}

// --- Treatments ---

// Treatment returns the treatment id, if it is registered.
func (c *Code) Treatment(id TreatmentID) (Treatment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.treatments.get(id); !ok {
		return Treatment{}, false
	}
	return c.treatments.snapshot(id), true
}

// Treatments lists the treatments matching f in the requested order.
func (c *Code) Treatments(f TreatmentFilter, order SortOrder) []Treatment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treatments.list(f, order)
}

// TreatmentCount counts the treatments matching f.
func (c *Code) TreatmentCount(f TreatmentFilter) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treatments.count(f)
}

// SubTreatments lists the direct sub-treatments of id in insertion order.
func (c *Code) SubTreatments(id TreatmentID) []Treatment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.treatments.get(id)
	if !ok {
		return []Treatment{}
	}
	return c.treatments.pick(rec.children)
}

// ParentOf returns the treatment id is a sub-treatment of.
func (c *Code) ParentOf(id TreatmentID) (Treatment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.treatments.get(id)
	if !ok || !rec.hasParent {
		return Treatment{}, false
	}
	return c.treatments.snapshot(rec.parent), true
}

// ExecutesAfter lists the treatments recorded as executing after id.
func (c *Code) ExecutesAfter(id TreatmentID) []Treatment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treatments.pick(c.treatments.after.right(id))
}

// Predecessors lists the treatments id is recorded to execute after.
func (c *Code) Predecessors(id TreatmentID) []Treatment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treatments.pick(c.treatments.after.left(id))
}

// --- Edges ---

// Data lists the informations t reads.
func (c *Code) Data(t TreatmentID) []Information {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.informations.pick(c.data.right(t))
}

// Results lists the informations t computes or writes.
func (c *Code) Results(t TreatmentID) []Information {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.informations.pick(c.results.right(t))
}

// UsedAsDataBy lists the treatments that read i.
func (c *Code) UsedAsDataBy(i InfoID) []Treatment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treatments.pick(c.data.left(i))
}

// ProducedBy lists the treatments that compute or write i.
func (c *Code) ProducedBy(i InfoID) []Treatment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treatments.pick(c.results.left(i))
}

// --- Control structures ---

// Structure returns the control structure id, if it is registered.
func (c *Code) Structure(id StructureID) (ControlStructure, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.structures.get(id); !ok {
		return ControlStructure{}, false
	}
	return c.structures.snapshot(id), true
}

// Structures lists the top-level control structures of t.
func (c *Code) Structures(t TreatmentID) []ControlStructure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.structures.pick(c.structures.roots[t])
}

// AllStructures lists every control structure of the file in appearance
// order, nested ones included.
func (c *Code) AllStructures() []ControlStructure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ControlStructure, 0, c.structures.live)
	c.structures.each(func(cs ControlStructure) { out = append(out, cs) })
	return out
}

// Children lists the structures nested directly in id.
func (c *Code) Children(id StructureID) []ControlStructure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.structures.get(id)
	if !ok {
		return []ControlStructure{}
	}
	return c.structures.pick(rec.children)
}

// ParentStructure returns the structure id is nested in.
func (c *Code) ParentStructure(id StructureID) (ControlStructure, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.structures.get(id)
	if !ok || !rec.hasParent {
		return ControlStructure{}, false
	}
	return c.structures.snapshot(rec.parent), true
}

// IsNested reports whether other structures are nested in id.
func (c *Code) IsNested(id StructureID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.structures.get(id)
	return ok && len(rec.children) > 0
}

// Depth returns the nesting depth of id; top-level structures are at 0.
func (c *Code) Depth(id StructureID) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.structures.get(id); !ok {
		return 0, notFound("structure", int(id))
	}
	return c.structures.depth(id), nil
}

// CountStructures counts the structures matching pred. A nil pred counts
// them all.
func (c *Code) CountStructures(pred StructurePredicate) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if pred == nil {
		return c.structures.live
	}
	n := 0
	c.structures.each(func(cs ControlStructure) {
		if pred(cs) {
			n++
		}
	})
	return n
}

// NestedWithin lists the structures matching inner that are strictly
// nested, at any depth, in a structure matching outer.
func (c *Code) NestedWithin(outer, inner StructurePredicate) []ControlStructure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.structures.nestedWithin(outer, inner)
}

// --- Comments ---

// Comment returns the comment id, if it is registered.
func (c *Code) Comment(id CommentID) (Comment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.comments.get(id); !ok {
		return Comment{}, false
	}
	return c.comments.snapshot(id), true
}

// Comments lists the comments matching f in appearance order.
func (c *Code) Comments(f CommentFilter) []Comment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.comments.list(f)
}

// CommentCount counts the comments matching f.
func (c *Code) CommentCount(f CommentFilter) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.comments.count(f)
}

// HeaderComment returns the comment about the file as a whole.
func (c *Code) HeaderComment() (Comment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.comments.hasHeader {
		return Comment{}, false
	}
	return c.comments.snapshot(c.comments.header), true
}

// InformationComment returns the comment attached to id.
func (c *Code) InformationComment(id InfoID) (Comment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cid, ok := c.comments.onInfo[id]
	if !ok {
		return Comment{}, false
	}
	return c.comments.snapshot(cid), true
}

// TreatmentComment returns the comment attached to id.
func (c *Code) TreatmentComment(id TreatmentID) (Comment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cid, ok := c.comments.onTreatment[id]
	if !ok {
		return Comment{}, false
	}
	return c.comments.snapshot(cid), true
}

// --- Diagnostics and statistics ---

// Diagnostics returns every diagnostic recorded by Ingest, oldest first.
func (c *Code) Diagnostics() []Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.diagnostics)
}

// Unresolved lists the references that facts used but no fact declared.
// While it is non-empty the model is a partial result.
func (c *Code) Unresolved() []Ref {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refs.unresolved()
}

// Stats holds per-category counts of a Code.
type Stats struct {
	Libraries             int `json:"libraries"`
	Informations          int `json:"informations"`
	Constants             int `json:"constants"`
	MagicNumbers          int `json:"magicNumbers"`
	SimpleVariables       int `json:"simpleVariables"`
	StructuredVariables   int `json:"structuredVariables"`
	Accumulators          int `json:"accumulators"`
	Counters              int `json:"counters"`
	LoopIndexes           int `json:"loopIndexes"`
	Treatments            int `json:"treatments"`
	SimpleTreatments      int `json:"simpleTreatments"`
	ComposedTreatments    int `json:"composedTreatments"`
	InputTreatments       int `json:"inputTreatments"`
	OutputTreatments      int `json:"outputTreatments"`
	CalculationTreatments int `json:"calculationTreatments"`
	Structures            int `json:"structures"`
	ConditionalStructures int `json:"conditionalStructures"`
	IterativeStructures   int `json:"iterativeStructures"`
	Comments              int `json:"comments"`
	OrphanedComments      int `json:"orphanedComments"`
	DataEdges             int `json:"dataEdges"`
	ResultEdges           int `json:"resultEdges"`
	SequencingEdges       int `json:"sequencingEdges"`
	Diagnostics           int `json:"diagnostics"`
}

// Stats counts every category in one pass under the read lock.
func (c *Code) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats()
}

func (c *Code) stats() Stats {
	s := Stats{
		Libraries:       c.libraries.live,
		Informations:    c.informations.live,
		Treatments:      c.treatments.live,
		Structures:      c.structures.live,
		Comments:        c.comments.live,
		DataEdges:       c.data.size(),
		ResultEdges:     c.results.size(),
		SequencingEdges: c.treatments.after.size(),
		Diagnostics:     len(c.diagnostics),
	}
	c.informations.each(func(i Information) {
		switch i.Kind.(type) {
		case Constant:
			s.Constants++
		case MagicNumber:
			s.MagicNumbers++
		case SimpleVariable:
			s.SimpleVariables++
		case StructuredVariable:
			s.StructuredVariables++
		}
		if i.IsAccumulator() {
			s.Accumulators++
		}
		if i.IsCounter() {
			s.Counters++
		}
		if i.IsLoopIndex() {
			s.LoopIndexes++
		}
	})
	c.treatments.each(func(t Treatment) {
		if t.IsComposed() {
			s.ComposedTreatments++
		} else {
			s.SimpleTreatments++
		}
		switch t.Role {
		case Input:
			s.InputTreatments++
		case Output:
			s.OutputTreatments++
		case Calculation:
			s.CalculationTreatments++
		}
	})
	c.structures.each(func(cs ControlStructure) {
		if cs.IsConditional() {
			s.ConditionalStructures++
		} else {
			s.IterativeStructures++
		}
	})
	c.comments.each(func(cm Comment) {
		if !cm.Attached() {
			s.OrphanedComments++
		}
	})
	return s
}
