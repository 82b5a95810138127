// Package codemodel holds the semantic model of one source file: the
// informations it declares, the treatments it performs, the control
// structures inside them, comments and libraries.
//
// A Code owns every entity reachable from it. Entities are addressed by
// arena indexes; relations between them are index lookups kept by the Code,
// and every relation with two ends is updated on both ends at once.
//
// # Concurrency
//
// Code is single-writer/multiple-reader. Queries take a read lock and return
// copies, so they may run in parallel. Mutations, including each fact applied
// by Ingest, take the write lock.
package codemodel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Code is the root aggregate for one source file.
type Code struct {
	mu     sync.RWMutex
	id     string
	path   string
	logger *zap.Logger

	libraries    libraryStore
	informations informationStore
	treatments   treatmentStore
	structures   structureStore
	comments     commentStore

	// data holds t->i when treatment t reads information i, results when t
	// computes or writes it.
	data    relation[TreatmentID, InfoID]
	results relation[TreatmentID, InfoID]

	refs        *refTable
	diagnostics []Diagnostic
}

// Option configures a Code.
type Option func(*Code)

// WithLogger sets the logger used during ingestion.
func WithLogger(l *zap.Logger) Option {
	return func(c *Code) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(c *Code) { c.id = id }
}

// New returns an empty model for the file at path.
func New(path string, opts ...Option) *Code {
	c := &Code{
		id:           uuid.NewString(),
		path:         path,
		logger:       zap.NewNop(),
		informations: newInformationStore(),
		treatments:   newTreatmentStore(),
		structures:   newStructureStore(),
		comments:     newCommentStore(),
		data:         newRelation[TreatmentID, InfoID](),
		results:      newRelation[TreatmentID, InfoID](),
		refs:         newRefTable(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the opaque identifier of this model.
func (c *Code) ID() string { return c.id }

// Path returns the path of the analysed file.
func (c *Code) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// SetPath changes the path carried by the model.
func (c *Code) SetPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
}

// --- Libraries ---

// AddLibrary registers an imported library.
func (c *Code) AddLibrary(name string) (LibraryID, error) {
	if name == "" {
		return 0, fmt.Errorf("library without a name: %w", ErrInvalidFact)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.libraries.add(name), nil
}

// RemoveLibrary removes a library. Removing it twice yields ErrNotFound.
func (c *Code) RemoveLibrary(id LibraryID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.libraries.remove(id) {
		return notFound("library", int(id))
	}
	return nil
}

// --- Informations ---

// AddInformation declares a piece of data. Its naming convention is derived
// from name and it is registered under typeName in the type index.
func (c *Code) AddInformation(name, typeName string, kind InformationKind) (InfoID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addInformation(name, typeName, kind)
}

func (c *Code) addInformation(name, typeName string, kind InformationKind) (InfoID, error) {
	if name == "" {
		return 0, fmt.Errorf("information without a name: %w", ErrInvalidFact)
	}
	if kind == nil {
		return 0, fmt.Errorf("information %q without a kind: %w", name, ErrInvalidFact)
	}
	if sv, ok := kind.(StructuredVariable); ok {
		for _, comp := range sv.Components {
			if _, ok := c.informations.get(comp); !ok {
				return 0, notFound("information", int(comp))
			}
		}
	}
	return c.informations.add(name, typeName, kind), nil
}

// RemoveInformation removes an information and cascades: every data and
// result edge touching it is dropped, it leaves every structured variable
// listing it, and the comment about it is orphaned (kept, target cleared).
func (c *Code) RemoveInformation(id InfoID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.informations.get(id); !ok {
		return notFound("information", int(id))
	}
	c.data.dropRight(id)
	c.results.dropRight(id)
	c.comments.orphanInformation(id)
	c.informations.remove(id)
	return nil
}

// RenameInformation changes the name and re-classifies its convention.
func (c *Code) RenameInformation(id InfoID, name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrInvalidFact)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.informations.rename(id, name) {
		return notFound("information", int(id))
	}
	return nil
}

// SetType moves the information to another entry of the type index.
func (c *Code) SetType(id InfoID, typeName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.informations.setType(id, typeName) {
		return notFound("information", int(id))
	}
	return nil
}

// SetRole adds role to a variable. Roles are independent flags.
func (c *Code) SetRole(id InfoID, role Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setRole(id, role)
}

func (c *Code) setRole(id InfoID, role Role) error {
	rec, ok := c.informations.get(id)
	if !ok {
		return notFound("information", int(id))
	}
	switch rec.kind.(type) {
	case SimpleVariable, StructuredVariable:
		rec.roles |= role
		return nil
	case Constant, MagicNumber:
		return fmt.Errorf("information %d (%s): %w", id, rec.kind.kindName(), ErrRoleNotApplicable)
	default:
		panic(fmt.Sprintf("codemodel: unhandled information kind %T", rec.kind))
	}
}

// ClearRole removes role from an information.
func (c *Code) ClearRole(id InfoID, role Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.informations.get(id)
	if !ok {
		return notFound("information", int(id))
	}
	rec.roles &^= role
	return nil
}

// AddComponent appends component to the structured variable container.
func (c *Code) AddComponent(container, component InfoID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.informations.addComponent(container, component)
}

// RemoveComponent removes component from the structured variable container.
// The component itself stays in the model.
func (c *Code) RemoveComponent(container, component InfoID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.informations.removeComponent(container, component)
}

// --- Treatments ---

// AddTreatment declares a named unit of computation. An empty role defaults
// to Calculation.
func (c *Code) AddTreatment(name string, role TreatmentRole) (TreatmentID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addTreatment(name, role)
}

func (c *Code) addTreatment(name string, role TreatmentRole) (TreatmentID, error) {
	if name == "" {
		return 0, fmt.Errorf("treatment without a name: %w", ErrInvalidFact)
	}
	r, err := ParseTreatmentRole(string(role))
	if err != nil {
		return 0, fmt.Errorf("treatment %q: %v: %w", name, err, ErrInvalidFact)
	}
	return c.treatments.add(name, r), nil
}

// RemoveTreatment removes a treatment and cascades: its data and result
// edges, its place in its parent's sub-treatments, every sequencing edge
// touching it and its control structures disappear; its own sub-treatments
// become top-level and the comment about it is orphaned.
func (c *Code) RemoveTreatment(id TreatmentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.treatments.get(id); !ok {
		return notFound("treatment", int(id))
	}
	c.data.dropLeft(id)
	c.results.dropLeft(id)
	c.comments.orphanTreatment(id)
	c.structures.removeTreatment(id)
	c.treatments.remove(id)
	return nil
}

// RenameTreatment changes the name of a treatment.
func (c *Code) RenameTreatment(id TreatmentID, name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrInvalidFact)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.treatments.get(id)
	if !ok {
		return notFound("treatment", int(id))
	}
	rec.name = name
	return nil
}

// SetTreatmentRole changes the role of a treatment.
func (c *Code) SetTreatmentRole(id TreatmentID, role TreatmentRole) error {
	r, err := ParseTreatmentRole(string(role))
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidFact)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.treatments.get(id)
	if !ok {
		return notFound("treatment", int(id))
	}
	rec.role = r
	return nil
}

// AddSubTreatment makes child a sub-treatment of parent. It fails with
// ErrCycleDetected if child is parent or one of its ancestors, and with
// ErrAlreadyComposed if child already belongs to another parent.
func (c *Code) AddSubTreatment(parent, child TreatmentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addSubTreatment(parent, child)
}

func (c *Code) addSubTreatment(parent, child TreatmentID) error {
	if _, ok := c.treatments.get(parent); !ok {
		return notFound("treatment", int(parent))
	}
	rec, ok := c.treatments.get(child)
	if !ok {
		return notFound("treatment", int(child))
	}
	if c.treatments.isAncestor(child, parent) {
		return fmt.Errorf("compose %d under %d: %w", child, parent, ErrCycleDetected)
	}
	if rec.hasParent {
		if rec.parent == parent {
			return nil
		}
		return fmt.Errorf("treatment %d is a sub-treatment of %d: %w", child, rec.parent, ErrAlreadyComposed)
	}
	c.treatments.attach(parent, child)
	return nil
}

// RemoveSubTreatment detaches child from parent; child becomes top-level.
func (c *Code) RemoveSubTreatment(parent, child TreatmentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.treatments.detach(parent, child) {
		return fmt.Errorf("sub-treatment %d of %d: %w", child, parent, ErrNotFound)
	}
	return nil
}

// AddSequence records that after executes after before. No acyclicity check
// is applied: a->b->a is a valid sequencing.
func (c *Code) AddSequence(before, after TreatmentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addSequence(before, after)
}

func (c *Code) addSequence(before, after TreatmentID) error {
	if _, ok := c.treatments.get(before); !ok {
		return notFound("treatment", int(before))
	}
	if _, ok := c.treatments.get(after); !ok {
		return notFound("treatment", int(after))
	}
	c.treatments.after.link(before, after)
	return nil
}

// RemoveSequence drops the sequencing edge before->after.
func (c *Code) RemoveSequence(before, after TreatmentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.treatments.after.unlink(before, after) {
		return fmt.Errorf("sequence %d->%d: %w", before, after, ErrNotFound)
	}
	return nil
}

// --- Information <-> Treatment edges ---

// Link records that treatment t uses information i as data or as result.
// Both ends are updated together; linking twice is a no-op.
func (c *Code) Link(t TreatmentID, i InfoID, usage Usage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link(t, i, usage)
}

func (c *Code) link(t TreatmentID, i InfoID, usage Usage) error {
	rel, err := c.edges(usage)
	if err != nil {
		return err
	}
	if _, ok := c.treatments.get(t); !ok {
		return notFound("treatment", int(t))
	}
	if _, ok := c.informations.get(i); !ok {
		return notFound("information", int(i))
	}
	rel.link(t, i)
	return nil
}

// Unlink removes the edge recorded by Link.
func (c *Code) Unlink(t TreatmentID, i InfoID, usage Usage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rel, err := c.edges(usage)
	if err != nil {
		return err
	}
	if !rel.unlink(t, i) {
		return fmt.Errorf("%s edge %d->%d: %w", usage, t, i, ErrNotFound)
	}
	return nil
}

func (c *Code) edges(usage Usage) (*relation[TreatmentID, InfoID], error) {
	switch usage {
	case AsData:
		return &c.data, nil
	case AsResult:
		return &c.results, nil
	}
	return nil, fmt.Errorf("unknown usage %q: %w", usage, ErrInvalidFact)
}

// AddData records that t reads i.
func (c *Code) AddData(t TreatmentID, i InfoID) error { return c.Link(t, i, AsData) }

// AddResult records that t computes or writes i.
func (c *Code) AddResult(t TreatmentID, i InfoID) error { return c.Link(t, i, AsResult) }

// RemoveData removes the data edge t->i.
func (c *Code) RemoveData(t TreatmentID, i InfoID) error { return c.Unlink(t, i, AsData) }

// RemoveResult removes the result edge t->i.
func (c *Code) RemoveResult(t TreatmentID, i InfoID) error { return c.Unlink(t, i, AsResult) }

// --- Control structures ---

// AddStructure adds a top-level control structure to the body of t.
func (c *Code) AddStructure(t TreatmentID, shape ControlShape) (StructureID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addStructure(t, shape)
}

func (c *Code) addStructure(t TreatmentID, shape ControlShape) (StructureID, error) {
	if err := shape.Validate(); err != nil {
		return 0, err
	}
	if _, ok := c.treatments.get(t); !ok {
		return 0, notFound("treatment", int(t))
	}
	return c.structures.addRoot(t, shape), nil
}

// AddNestedStructure adds a control structure nested in parent, in the same
// treatment.
func (c *Code) AddNestedStructure(parent StructureID, shape ControlShape) (StructureID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addNestedStructure(parent, shape)
}

func (c *Code) addNestedStructure(parent StructureID, shape ControlShape) (StructureID, error) {
	if err := shape.Validate(); err != nil {
		return 0, err
	}
	if _, ok := c.structures.get(parent); !ok {
		return 0, notFound("structure", int(parent))
	}
	return c.structures.addUnder(parent, shape), nil
}

// AddChild nests an existing top-level structure under parent. Both must
// belong to the same treatment and the nesting must stay a tree.
func (c *Code) AddChild(parent, child StructureID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.structures.move(parent, child)
}

// RemoveChild destroys child, which must be nested directly in parent,
// together with everything nested in it.
func (c *Code) RemoveChild(parent, child StructureID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.structures.get(child)
	if !ok || !rec.hasParent || rec.parent != parent {
		return fmt.Errorf("child structure %d of %d: %w", child, parent, ErrNotFound)
	}
	c.structures.removeSubtree(child)
	return nil
}

// RemoveStructure destroys a structure and everything nested in it.
func (c *Code) RemoveStructure(id StructureID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.structures.removeSubtree(id) {
		return notFound("structure", int(id))
	}
	return nil
}

// --- Comments ---

// AddComment creates a comment attached to target. If the target already
// carries a comment, the older one is orphaned (last write wins). A second
// AboutCode comment therefore replaces the header comment.
func (c *Code) AddComment(text string, target Target) (CommentID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkTarget(target); err != nil {
		return 0, err
	}
	id := c.comments.add(text)
	c.comments.attach(id, target)
	return id, c.comments.consistent(id)
}

// Retarget moves a comment to a new target, atomically clearing the old
// target's back-reference.
func (c *Code) Retarget(id CommentID, target Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.retarget(id, target)
	return err
}

func (c *Code) retarget(id CommentID, target Target) (displaced bool, err error) {
	if _, ok := c.comments.get(id); !ok {
		return false, notFound("comment", int(id))
	}
	if err := c.checkTarget(target); err != nil {
		return false, err
	}
	prev, replaced := c.comments.attach(id, target)
	displaced = replaced && prev != id
	return displaced, c.comments.consistent(id)
}

func (c *Code) checkTarget(target Target) error {
	switch t := target.(type) {
	case nil:
		return fmt.Errorf("comment without a target: %w", ErrInvalidFact)
	case AboutCode:
		return nil
	case AboutInformation:
		if _, ok := c.informations.get(t.ID); !ok {
			return notFound("information", int(t.ID))
		}
	case AboutTreatment:
		if _, ok := c.treatments.get(t.ID); !ok {
			return notFound("treatment", int(t.ID))
		}
	}
	return nil
}

// RemoveComment deletes a comment and its back-reference.
func (c *Code) RemoveComment(id CommentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.comments.remove(id) {
		return notFound("comment", int(id))
	}
	return nil
}

// --- Consistency ---

// Validate checks every cross-store invariant: both indexes of each
// relation agree and reference live entities, comment targets and
// back-references agree, and composition and nesting are trees.
func (c *Code) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for name, rel := range map[string]*relation[TreatmentID, InfoID]{"data": &c.data, "result": &c.results} {
		if !rel.symmetric() {
			errs = append(errs, fmt.Errorf("%s edges are one-sided", name))
		}
		for t, infos := range rel.fwd {
			if _, ok := c.treatments.get(t); !ok {
				errs = append(errs, fmt.Errorf("%s edge from removed treatment %d", name, t))
			}
			for _, i := range infos {
				if _, ok := c.informations.get(i); !ok {
					errs = append(errs, fmt.Errorf("%s edge to removed information %d", name, i))
				}
			}
		}
	}
	if !c.treatments.after.symmetric() {
		errs = append(errs, errors.New("sequencing edges are one-sided"))
	}
	for a, bs := range c.treatments.after.fwd {
		for _, b := range bs {
			if _, ok := c.treatments.get(a); !ok {
				errs = append(errs, fmt.Errorf("sequencing edge from removed treatment %d", a))
			}
			if _, ok := c.treatments.get(b); !ok {
				errs = append(errs, fmt.Errorf("sequencing edge to removed treatment %d", b))
			}
		}
	}

	for id := range c.comments.arena {
		if c.comments.arena[id] == nil {
			continue
		}
		if err := c.comments.consistent(CommentID(id)); err != nil {
			errs = append(errs, err)
		}
		if err := c.checkTarget(c.comments.arena[id].target); err != nil && c.comments.arena[id].target != nil {
			errs = append(errs, fmt.Errorf("comment %d: %w", id, err))
		}
	}

	for id, rec := range c.treatments.arena {
		if rec == nil {
			continue
		}
		if rec.hasParent {
			p, ok := c.treatments.get(rec.parent)
			if !ok || !containsID(p.children, TreatmentID(id)) {
				errs = append(errs, fmt.Errorf("treatment %d has a dangling parent %d", id, rec.parent))
			}
		}
		steps := 0
		for cur := rec; cur != nil && cur.hasParent; cur, _ = c.treatments.get(cur.parent) {
			if steps++; steps > len(c.treatments.arena) {
				errs = append(errs, fmt.Errorf("treatment %d: composition %w", id, ErrCycleDetected))
				break
			}
		}
	}

	for id, rec := range c.structures.arena {
		if rec == nil {
			continue
		}
		if _, ok := c.treatments.get(rec.treatment); !ok {
			errs = append(errs, fmt.Errorf("structure %d belongs to removed treatment %d", id, rec.treatment))
		}
		if rec.hasParent {
			p, ok := c.structures.get(rec.parent)
			if !ok || !containsID(p.children, StructureID(id)) {
				errs = append(errs, fmt.Errorf("structure %d has a dangling parent %d", id, rec.parent))
			}
		} else if !containsID(c.structures.roots[rec.treatment], StructureID(id)) {
			errs = append(errs, fmt.Errorf("top-level structure %d missing from treatment %d", id, rec.treatment))
		}
	}
	return errors.Join(errs...)
}

func containsID[T comparable](ids []T, id T) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
