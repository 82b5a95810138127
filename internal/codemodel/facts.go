package codemodel

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"
)

// Ref is a key chosen by the extractor to name an entity across facts.
// Informations, treatments and structures live in separate key spaces, so a
// treatment and a variable may both be called "total".
type Ref string

// Fact is one observation delivered by an extractor, in source order.
type Fact interface {
	fact() string
}

func factName(f Fact) string {
	if f == nil {
		return "nil"
	}
	return f.fact()
}

// LibraryDeclared records an import.
type LibraryDeclared struct {
	Name string
}

// InformationDeclared declares a constant, magic number or variable. Ref may
// be empty when no later fact refers to it.
type InformationDeclared struct {
	Ref  Ref
	Name string
	Type string
	Kind InformationKind
}

// InformationRoleObserved tags a variable as accumulator, counter or loop
// index.
type InformationRoleObserved struct {
	Info Ref
	Role Role
}

// ComponentObserved records that Component is a member of the structured
// variable Container.
type ComponentObserved struct {
	Container Ref
	Component Ref
}

// TreatmentDeclared declares a treatment. An empty Role means Calculation.
type TreatmentDeclared struct {
	Ref  Ref
	Name string
	Role TreatmentRole
}

// TreatmentComposed records that Child is a sub-treatment of Parent.
type TreatmentComposed struct {
	Parent Ref
	Child  Ref
}

// TreatmentSequenced records that After executes after Before.
type TreatmentSequenced struct {
	Before Ref
	After  Ref
}

// InformationUsedBy records that Treatment reads (AsData) or writes
// (AsResult) Info.
type InformationUsedBy struct {
	Treatment Ref
	Info      Ref
	Usage     Usage
}

// ControlStructureObserved records a control structure in the body of
// Treatment, nested in Parent when Parent is set. When Parent is set the
// structure inherits the parent's treatment and Treatment may be empty.
type ControlStructureObserved struct {
	Ref       Ref
	Treatment Ref
	Parent    Ref
	Shape     ControlShape
}

// TargetKind says what a CommentObserved fact is about. TargetNone records
// a free-standing comment that stays unattached.
type TargetKind string

const (
	TargetNone        TargetKind = ""
	TargetCode        TargetKind = "code"
	TargetInformation TargetKind = "information"
	TargetTreatment   TargetKind = "treatment"
)

// TargetRef is the unresolved form of a Target.
type TargetRef struct {
	Kind TargetKind
	Ref  Ref
}

func OnCode() TargetRef             { return TargetRef{Kind: TargetCode} }
func OnInformation(r Ref) TargetRef { return TargetRef{Kind: TargetInformation, Ref: r} }
func OnTreatment(r Ref) TargetRef   { return TargetRef{Kind: TargetTreatment, Ref: r} }

func (t TargetRef) String() string { return fmt.Sprintf("%s(%s)", t.Kind, t.Ref) }

func (t TargetRef) isKnownKind() bool {
	switch t.Kind {
	case TargetNone, TargetCode, TargetInformation, TargetTreatment:
		return true
	}
	return false
}

// CommentObserved records a comment and what it is about. The comment is
// created at once so comments keep source order; only its attachment waits
// for a forward reference to resolve.
type CommentObserved struct {
	Text   string
	Target TargetRef
}

func (LibraryDeclared) fact() string          { return "LibraryDeclared" }
func (InformationDeclared) fact() string      { return "InformationDeclared" }
func (InformationRoleObserved) fact() string  { return "InformationRoleObserved" }
func (ComponentObserved) fact() string        { return "ComponentObserved" }
func (TreatmentDeclared) fact() string        { return "TreatmentDeclared" }
func (TreatmentComposed) fact() string        { return "TreatmentComposed" }
func (TreatmentSequenced) fact() string       { return "TreatmentSequenced" }
func (InformationUsedBy) fact() string        { return "InformationUsedBy" }
func (ControlStructureObserved) fact() string { return "ControlStructureObserved" }
func (CommentObserved) fact() string          { return "CommentObserved" }

// Report summarises one Ingest call.
type Report struct {
	// Applied counts facts that changed the model, replayed ones included.
	Applied int `json:"applied"`
	// Deferred counts facts that waited at least once for a forward
	// reference.
	Deferred int `json:"deferred"`
	// Skipped counts facts that were malformed or never resolved.
	Skipped     int          `json:"skipped"`
	Diagnostics []Diagnostic `json:"-"`
}

// Err joins the diagnostics, or returns nil when there are none.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		errs = append(errs, d)
	}
	return errors.Join(errs...)
}

// --- Reference table ---

type namespace uint8

const (
	nsInformation namespace = iota
	nsTreatment
	nsStructure
)

func (n namespace) String() string {
	switch n {
	case nsInformation:
		return "information"
	case nsTreatment:
		return "treatment"
	default:
		return "structure"
	}
}

type refKey struct {
	ns  namespace
	ref Ref
}

type parkedFact struct {
	index    int
	fact     Fact
	deferred bool
	// comment is the id created for a CommentObserved fact on first sight.
	comment    CommentID
	hasComment bool
	// reported is set once the fact has an unresolved-reference diagnostic.
	reported bool
}

// unresolvedError is the diagnostic of a fact still waiting for key when an
// Ingest ends.
type unresolvedError struct {
	key refKey
}

func (e unresolvedError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.key.ns, e.key.ref, ErrUnresolvedReference)
}

func (e unresolvedError) Unwrap() error { return ErrUnresolvedReference }

type refTable struct {
	infos      map[Ref]InfoID
	treatments map[Ref]TreatmentID
	structures map[Ref]StructureID

	parked    map[refKey][]parkedFact
	parkOrder []refKey
	missing   []refKey
}

func newRefTable() *refTable {
	return &refTable{
		infos:      make(map[Ref]InfoID),
		treatments: make(map[Ref]TreatmentID),
		structures: make(map[Ref]StructureID),
		parked:     make(map[refKey][]parkedFact),
	}
}

func (t *refTable) park(k refKey, p parkedFact) {
	if _, ok := t.parked[k]; !ok {
		t.parkOrder = append(t.parkOrder, k)
	}
	t.parked[k] = append(t.parked[k], p)
}

// release removes and returns the facts waiting for k, and reports whether
// k was listed as unresolved by an earlier Ingest.
func (t *refTable) release(k refKey) ([]parkedFact, bool) {
	waiting := t.parked[k]
	delete(t.parked, k)
	if i := slices.Index(t.parkOrder, k); i >= 0 {
		t.parkOrder = slices.Delete(t.parkOrder, i, i+1)
	}
	i := slices.Index(t.missing, k)
	if i >= 0 {
		t.missing = slices.Delete(t.missing, i, i+1)
	}
	return waiting, i >= 0
}

func (t *refTable) unresolved() []Ref {
	out := make([]Ref, 0, len(t.missing))
	for _, k := range t.missing {
		out = append(out, k.ref)
	}
	return out
}

// --- Ingestion ---

// Ingest consumes facts once, in order, and applies each of them under the
// write lock. Malformed facts are skipped with a diagnostic; facts naming a
// reference that is not declared yet wait until it is, and become
// ErrUnresolvedReference diagnostics if it never is. Ingest never aborts.
func (c *Code) Ingest(facts iter.Seq[Fact]) Report {
	var rep Report
	index := 0
	for f := range facts {
		c.mu.Lock()
		c.ingest(&rep, parkedFact{index: index, fact: f})
		c.mu.Unlock()
		index++
	}

	c.mu.Lock()
	c.flushParked(&rep)
	path := c.path
	c.mu.Unlock()

	c.logger.Debug("ingested facts",
		zap.String("path", path),
		zap.Int("facts", index),
		zap.Int("applied", rep.Applied),
		zap.Int("deferred", rep.Deferred),
		zap.Int("skipped", rep.Skipped),
	)
	return rep
}

func (c *Code) ingest(rep *Report, first parkedFact) {
	queue := []parkedFact{first}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		declared, blocked, err := c.apply(&p)
		switch {
		case blocked != nil:
			if !p.deferred {
				p.deferred = true
				rep.Deferred++
			}
			p.reported = false
			c.refs.park(*blocked, p)
			c.logger.Debug("fact waits for a reference",
				zap.Int("index", p.index),
				zap.String("fact", factName(p.fact)),
				zap.Stringer("namespace", blocked.ns),
				zap.String("ref", string(blocked.ref)),
			)
		case err != nil && !errors.Is(err, ErrDuplicateAttachment):
			rep.Skipped++
			c.diagnose(rep, p, err)
			c.logger.Debug("fact skipped",
				zap.Int("index", p.index),
				zap.String("fact", factName(p.fact)),
				zap.Error(err),
			)
		default:
			rep.Applied++
			if err != nil {
				c.diagnose(rep, p, err)
			}
			if declared != nil {
				waiting, wasMissing := c.refs.release(*declared)
				if wasMissing {
					c.dropUnresolved(*declared)
				}
				queue = append(queue, waiting...)
			}
		}
	}
}

// flushParked gives every fact still waiting an unresolved-reference
// diagnostic, once. The facts stay parked: a later Ingest declaring the
// reference replays them. Comments created for them stay orphaned until
// then.
func (c *Code) flushParked(rep *Report) {
	var leftover []Diagnostic
	for _, k := range c.refs.parkOrder {
		waiting := c.refs.parked[k]
		fresh := 0
		for i := range waiting {
			if waiting[i].reported {
				continue
			}
			waiting[i].reported = true
			fresh++
			rep.Skipped++
			leftover = append(leftover, Diagnostic{
				Index: waiting[i].index,
				Fact:  waiting[i].fact,
				Err:   unresolvedError{key: k},
			})
		}
		if !slices.Contains(c.refs.missing, k) {
			c.refs.missing = append(c.refs.missing, k)
		}
		if fresh > 0 {
			c.logger.Warn("unresolved reference",
				zap.String("path", c.path),
				zap.Stringer("namespace", k.ns),
				zap.String("ref", string(k.ref)),
				zap.Int("facts", fresh),
			)
		}
	}

	slices.SortStableFunc(leftover, func(a, b Diagnostic) int { return a.Index - b.Index })
	rep.Diagnostics = append(rep.Diagnostics, leftover...)
	c.diagnostics = append(c.diagnostics, leftover...)
}

// dropUnresolved removes the diagnostics of facts that waited for k, now
// that k is declared.
func (c *Code) dropUnresolved(k refKey) {
	c.diagnostics = slices.DeleteFunc(c.diagnostics, func(d Diagnostic) bool {
		var ue unresolvedError
		return errors.As(d.Err, &ue) && ue.key == k
	})
}

func (c *Code) diagnose(rep *Report, p parkedFact, err error) {
	d := Diagnostic{Index: p.index, Fact: p.fact, Err: err}
	rep.Diagnostics = append(rep.Diagnostics, d)
	c.diagnostics = append(c.diagnostics, d)
}

// apply applies one fact. It returns the key the fact declared, if any, or
// the key it is blocked on.
func (c *Code) apply(p *parkedFact) (declared, blocked *refKey, err error) {
	switch f := p.fact.(type) {
	case LibraryDeclared:
		if f.Name == "" {
			return nil, nil, fmt.Errorf("library without a name: %w", ErrInvalidFact)
		}
		c.libraries.add(f.Name)
		return nil, nil, nil

	case InformationDeclared:
		if f.Ref != "" {
			if _, dup := c.refs.infos[f.Ref]; dup {
				return nil, nil, fmt.Errorf("information %q declared twice: %w", f.Ref, ErrInvalidFact)
			}
		}
		id, err := c.addInformation(f.Name, f.Type, f.Kind)
		if err != nil {
			return nil, nil, err
		}
		if f.Ref == "" {
			return nil, nil, nil
		}
		c.refs.infos[f.Ref] = id
		return &refKey{nsInformation, f.Ref}, nil, nil

	case InformationRoleObserved:
		if f.Role == 0 {
			return nil, nil, fmt.Errorf("empty role: %w", ErrInvalidFact)
		}
		id, blocked, err := c.lookupInfo(f.Info)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		return nil, nil, c.setRole(id, f.Role)

	case ComponentObserved:
		container, blocked, err := c.lookupInfo(f.Container)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		component, blocked, err := c.lookupInfo(f.Component)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		return nil, nil, c.informations.addComponent(container, component)

	case TreatmentDeclared:
		if f.Ref != "" {
			if _, dup := c.refs.treatments[f.Ref]; dup {
				return nil, nil, fmt.Errorf("treatment %q declared twice: %w", f.Ref, ErrInvalidFact)
			}
		}
		id, err := c.addTreatment(f.Name, f.Role)
		if err != nil {
			return nil, nil, err
		}
		if f.Ref == "" {
			return nil, nil, nil
		}
		c.refs.treatments[f.Ref] = id
		return &refKey{nsTreatment, f.Ref}, nil, nil

	case TreatmentComposed:
		parent, blocked, err := c.lookupTreatment(f.Parent)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		child, blocked, err := c.lookupTreatment(f.Child)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		return nil, nil, c.addSubTreatment(parent, child)

	case TreatmentSequenced:
		before, blocked, err := c.lookupTreatment(f.Before)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		after, blocked, err := c.lookupTreatment(f.After)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		return nil, nil, c.addSequence(before, after)

	case InformationUsedBy:
		t, blocked, err := c.lookupTreatment(f.Treatment)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		i, blocked, err := c.lookupInfo(f.Info)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		return nil, nil, c.link(t, i, f.Usage)

	case ControlStructureObserved:
		return c.applyStructure(f)

	case CommentObserved:
		return c.applyComment(p, f)

	case nil:
		return nil, nil, fmt.Errorf("nil fact: %w", ErrInvalidFact)
	}
	return nil, nil, fmt.Errorf("unknown fact %T: %w", p.fact, ErrInvalidFact)
}

func (c *Code) applyStructure(f ControlStructureObserved) (declared, blocked *refKey, err error) {
	if f.Ref != "" {
		if _, dup := c.refs.structures[f.Ref]; dup {
			return nil, nil, fmt.Errorf("structure %q declared twice: %w", f.Ref, ErrInvalidFact)
		}
	}
	if err := f.Shape.Validate(); err != nil {
		return nil, nil, err
	}

	var id StructureID
	if f.Parent != "" {
		parent, ok := c.refs.structures[f.Parent]
		if !ok {
			return nil, &refKey{nsStructure, f.Parent}, nil
		}
		if id, err = c.addNestedStructure(parent, f.Shape); err != nil {
			return nil, nil, err
		}
	} else {
		t, blocked, err := c.lookupTreatment(f.Treatment)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		if id, err = c.addStructure(t, f.Shape); err != nil {
			return nil, nil, err
		}
	}
	if f.Ref == "" {
		return nil, nil, nil
	}
	c.refs.structures[f.Ref] = id
	return &refKey{nsStructure, f.Ref}, nil, nil
}

func (c *Code) applyComment(p *parkedFact, f CommentObserved) (declared, blocked *refKey, err error) {
	if !f.Target.isKnownKind() {
		return nil, nil, fmt.Errorf("comment target %q: %w", f.Target.Kind, ErrInvalidFact)
	}
	if !p.hasComment {
		p.comment = c.comments.add(f.Text)
		p.hasComment = true
	}

	var target Target
	switch f.Target.Kind {
	case TargetNone:
		return nil, nil, nil
	case TargetCode:
		target = AboutCode{}
	case TargetInformation:
		id, blocked, err := c.lookupInfo(f.Target.Ref)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		target = AboutInformation{ID: id}
	case TargetTreatment:
		id, blocked, err := c.lookupTreatment(f.Target.Ref)
		if blocked != nil || err != nil {
			return nil, blocked, err
		}
		target = AboutTreatment{ID: id}
	}

	displaced, err := c.retarget(p.comment, target)
	if err != nil {
		return nil, nil, err
	}
	if displaced {
		return nil, nil, fmt.Errorf("comment on %s replaced an earlier one: %w", f.Target, ErrDuplicateAttachment)
	}
	return nil, nil, nil
}

func (c *Code) lookupInfo(r Ref) (InfoID, *refKey, error) {
	if r == "" {
		return 0, nil, fmt.Errorf("empty information reference: %w", ErrInvalidFact)
	}
	id, ok := c.refs.infos[r]
	if !ok {
		return 0, &refKey{nsInformation, r}, nil
	}
	return id, nil, nil
}

func (c *Code) lookupTreatment(r Ref) (TreatmentID, *refKey, error) {
	if r == "" {
		return 0, nil, fmt.Errorf("empty treatment reference: %w", ErrInvalidFact)
	}
	id, ok := c.refs.treatments[r]
	if !ok {
		return 0, &refKey{nsTreatment, r}, nil
	}
	return id, nil, nil
}

// Facts adapts a slice to the single-pass sequence Ingest consumes.
func Facts(facts ...Fact) iter.Seq[Fact] {
	return slices.Values(facts)
}
