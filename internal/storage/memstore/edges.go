package memstore

import (
	"context"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// InsertEdge implements storage.EdgeRows.
func (t *tx) InsertEdge(ctx context.Context, e xtypes.Edge) (int64, error) {
	b := t.backend
	b.mu.Lock()
	b.edgeSeq++
	id := b.edgeSeq
	b.mu.Unlock()

	e.ID = id
	t.pendingEdges = append(t.pendingEdges, e)
	return id, nil
}

// InsertEdgeMetadata implements storage.EdgeRows.
func (t *tx) InsertEdgeMetadata(ctx context.Context, v xtypes.EdgeMetadataVersion) error {
	t.pendingEdgeMeta = append(t.pendingEdgeMeta, v)
	return nil
}

// TombstoneEdgeMetadata implements storage.EdgeRows.
func (t *tx) TombstoneEdgeMetadata(ctx context.Context, edgeID int64, xid xtypes.XID) error {
	if t.edgeMetaTombstones == nil {
		t.edgeMetaTombstones = make(map[int64]xtypes.XID)
	}
	t.edgeMetaTombstones[edgeID] = xid
	return nil
}

// TombstoneEdge implements storage.EdgeRows.
func (t *tx) TombstoneEdge(ctx context.Context, id int64, xid xtypes.XID) error {
	if t.edgeTombstones == nil {
		t.edgeTombstones = make(map[int64]xtypes.XID)
	}
	t.edgeTombstones[id] = xid
	return nil
}

// GetEdgeRow implements storage.EdgeRows.
func (t *tx) GetEdgeRow(ctx context.Context, id int64) (xtypes.Edge, bool, error) {
	for i := len(t.pendingEdges) - 1; i >= 0; i-- {
		if t.pendingEdges[i].ID == id {
			return t.pendingEdges[i], true, nil
		}
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.edges[id]
	return e, ok, nil
}

// GetEdgeMetadataVersions implements storage.EdgeRows.
func (t *tx) GetEdgeMetadataVersions(ctx context.Context, edgeID int64) ([]xtypes.EdgeMetadataVersion, error) {
	b := t.backend
	b.mu.Lock()
	versions := append([]xtypes.EdgeMetadataVersion(nil), b.edgeMeta[edgeID]...)
	b.mu.Unlock()

	for _, v := range t.pendingEdgeMeta {
		if v.EdgeID == edgeID {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// LiveEdgesFrom implements storage.EdgeRows.
func (t *tx) LiveEdgesFrom(ctx context.Context, fromID int64) ([]xtypes.Edge, error) {
	b := t.backend
	b.mu.Lock()
	var out []xtypes.Edge
	for _, e := range b.edges {
		if e.FromID == fromID {
			out = append(out, e)
		}
	}
	b.mu.Unlock()
	for _, e := range t.pendingEdges {
		if e.FromID == fromID {
			out = append(out, e)
		}
	}
	return out, nil
}

// EdgesReferencing implements storage.EdgeRows.
func (t *tx) EdgesReferencing(ctx context.Context, objectID int64) ([]xtypes.Edge, error) {
	b := t.backend
	b.mu.Lock()
	var out []xtypes.Edge
	for _, e := range b.edges {
		if e.FromID == objectID || e.ToID == objectID {
			out = append(out, e)
		}
	}
	b.mu.Unlock()
	for _, e := range t.pendingEdges {
		if e.FromID == objectID || e.ToID == objectID {
			out = append(out, e)
		}
	}
	return out, nil
}
