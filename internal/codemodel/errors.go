package codemodel

import (
	"errors"
	"fmt"
)

// Sentinel errors for model operations. None of them is fatal: callers
// match them with errors.Is and carry on.
var (
	// ErrNotFound is returned when an operation names an entity that is not
	// (or no longer) registered in the Code.
	ErrNotFound = errors.New("not found")

	// ErrCycleDetected is returned when a composition edge would close a
	// cycle. The model is left unchanged.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrDuplicateAttachment reports that attaching a comment displaced the
	// comment previously attached to the same target. The displaced comment
	// is orphaned, the new one wins.
	ErrDuplicateAttachment = errors.New("duplicate attachment")

	// ErrUnresolvedReference reports a fact that references a key never
	// declared during ingestion.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrAlreadyComposed is returned when a treatment or structure that
	// already has a parent is given a second one.
	ErrAlreadyComposed = errors.New("already has a parent")

	// ErrRoleNotApplicable is returned when a variable role is set on a
	// constant or magic number.
	ErrRoleNotApplicable = errors.New("role applies to variables only")

	// ErrInvalidFact is returned for malformed facts (empty names, unknown
	// shapes, duplicate declarations).
	ErrInvalidFact = errors.New("invalid fact")
)

// Diagnostic records a fact that ingestion could not apply as-is.
type Diagnostic struct {
	// Index is the position of the fact in the ingested sequence.
	Index int
	Fact  Fact
	Err   error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("fact %d (%s): %v", d.Index, factName(d.Fact), d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

func notFound(what string, id int) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}
