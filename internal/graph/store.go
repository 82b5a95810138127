// Package graph persists code model snapshots into a graph backend so that
// several analysed files can be queried together.
package graph

import (
	"context"
	"errors"
	"io"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// ErrEmptyID is returned when saving a snapshot without an identity.
var ErrEmptyID = errors.New("graph: snapshot has no id")

// Store is the interface for the snapshot graph backend.
// Implementations: KuzuStore (production), MemStore (testing).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// SaveSnapshot stores snap, replacing any snapshot with the same ID.
	SaveSnapshot(ctx context.Context, snap codemodel.Snapshot) error

	// GetSnapshot returns the snapshot with the given ID, or nil if absent.
	GetSnapshot(ctx context.Context, id string) (*codemodel.Snapshot, error)

	// ListCodes returns a summary of every stored snapshot, sorted by path
	// then ID.
	ListCodes(ctx context.Context) ([]CodeSummary, error)

	Stats(ctx context.Context) (*GraphStats, error)
}

// summarize builds the listing entry of snap.
func summarize(snap codemodel.Snapshot) CodeSummary {
	return CodeSummary{
		ID:           snap.ID,
		Path:         snap.Path,
		Informations: len(snap.Informations),
		Treatments:   len(snap.Treatments),
		Structures:   len(snap.Structures),
		Comments:     len(snap.Comments),
	}
}

// snapshotEdges counts every relationship a snapshot contributes besides
// the HAS_* ownership links: model edges, nesting and comment targets.
func snapshotEdges(snap codemodel.Snapshot) int {
	n := len(snap.Edges)
	for _, cs := range snap.Structures {
		n += len(cs.Children)
	}
	for _, cm := range snap.Comments {
		if cm.TargetID != nil {
			n++
		}
	}
	return n
}

// SaveByPath stores snap under the ID already persisted for its path, so
// re-analysing a file replaces its previous model instead of adding a
// second one. It returns the ID the snapshot was saved under.
func SaveByPath(ctx context.Context, s Store, snap codemodel.Snapshot) (string, error) {
	codes, err := s.ListCodes(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range codes {
		if c.Path == snap.Path {
			snap.ID = c.ID
			break
		}
	}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		return "", err
	}
	return snap.ID, nil
}
