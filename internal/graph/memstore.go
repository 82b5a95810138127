package graph

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu    sync.RWMutex
	codes map[string]codemodel.Snapshot
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{codes: make(map[string]codemodel.Snapshot)}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// SaveSnapshot stores a copy of snap keyed by its ID.
func (m *MemStore) SaveSnapshot(_ context.Context, snap codemodel.Snapshot) error {
	if snap.ID == "" {
		return ErrEmptyID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[snap.ID] = cloneSnapshot(snap)
	return nil
}

// GetSnapshot returns a copy of the stored snapshot, or nil if not found.
func (m *MemStore) GetSnapshot(_ context.Context, id string) (*codemodel.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.codes[id]
	if !ok {
		return nil, nil
	}
	out := cloneSnapshot(snap)
	return &out, nil
}

// ListCodes returns one summary per stored snapshot.
func (m *MemStore) ListCodes(_ context.Context) ([]CodeSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CodeSummary, 0, len(m.codes))
	for _, snap := range m.codes {
		out = append(out, summarize(snap))
	}
	sortSummaries(out)
	return out, nil
}

// Stats returns aggregate counts over every stored snapshot.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &GraphStats{CodeCount: len(m.codes)}
	for _, snap := range m.codes {
		st.LibraryCount += len(snap.Libraries)
		st.InformationCount += len(snap.Informations)
		st.TreatmentCount += len(snap.Treatments)
		st.StructureCount += len(snap.Structures)
		st.CommentCount += len(snap.Comments)
		st.EdgeCount += snapshotEdges(snap)
	}
	return st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

func sortSummaries(s []CodeSummary) {
	slices.SortFunc(s, func(a, b CodeSummary) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.ID, b.ID))
	})
}

// cloneSnapshot copies every slice of snap so the stored value does not
// alias the caller's.
func cloneSnapshot(snap codemodel.Snapshot) codemodel.Snapshot {
	out := snap
	out.Libraries = slices.Clone(snap.Libraries)
	out.Types = make([]codemodel.Type, len(snap.Types))
	for i, t := range snap.Types {
		t.Informations = slices.Clone(t.Informations)
		out.Types[i] = t
	}
	out.Informations = make([]codemodel.InformationNode, len(snap.Informations))
	for i, n := range snap.Informations {
		n.Roles = slices.Clone(n.Roles)
		out.Informations[i] = n
	}
	out.Treatments = make([]codemodel.Treatment, len(snap.Treatments))
	for i, t := range snap.Treatments {
		t.SubTreatments = slices.Clone(t.SubTreatments)
		out.Treatments[i] = t
	}
	out.Structures = make([]codemodel.ControlStructure, len(snap.Structures))
	for i, cs := range snap.Structures {
		cs.Children = slices.Clone(cs.Children)
		out.Structures[i] = cs
	}
	out.Comments = make([]codemodel.CommentNode, len(snap.Comments))
	for i, cm := range snap.Comments {
		if cm.TargetID != nil {
			id := *cm.TargetID
			cm.TargetID = &id
		}
		out.Comments[i] = cm
	}
	out.Edges = slices.Clone(snap.Edges)
	return out
}
