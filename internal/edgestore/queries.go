package edgestore

import (
	"context"
	"sort"

	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// GetEdge returns the unique live edge from objectID via relation visible
// at snap, along with its target object. When more than one matches, the
// edge with the smallest id wins (spec §9, Open Question OQ-2); callers
// wanting every match use GetEdges.
func (s *Store) GetEdge(ctx context.Context, tx storage.Tx, objectID int64, relation string, snap xtypes.Snapshot) (xtypes.Edge, xtypes.Object, error) {
	matches, err := liveRelationEdges(ctx, tx, objectID, relation, snap)
	if err != nil {
		return xtypes.Edge{}, xtypes.Object{}, err
	}
	if len(matches) == 0 {
		return xtypes.Edge{}, xtypes.Object{}, xtypes.NotFound("no live edge from %d via relation %q", objectID, relation)
	}

	best := matches[0]
	for _, e := range matches[1:] {
		if e.ID < best.ID {
			best = e
		}
	}

	target, err := loadTargetObject(ctx, tx, best, snap)
	if err != nil {
		return xtypes.Edge{}, xtypes.Object{}, err
	}
	return hydrateEdge(ctx, tx, best, snap), target, nil
}

// GetEdges returns every target object reachable in one hop via
// relation, ascending by edge id. An empty result is not an error.
func (s *Store) GetEdges(ctx context.Context, tx storage.Tx, objectID int64, relation string, snap xtypes.Snapshot) ([]xtypes.Object, error) {
	matches, err := liveRelationEdges(ctx, tx, objectID, relation, snap)
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	targets := make([]xtypes.Object, 0, len(matches))
	for _, e := range matches {
		obj, err := loadTargetObject(ctx, tx, e, snap)
		if err != nil {
			return nil, err
		}
		targets = append(targets, obj)
	}
	return targets, nil
}

// UpdateEdge re-validates that both endpoint objects still exist with the
// types recorded on the live edge (spec §9, Open Question OQ-3: mandatory
// recheck), allocates an xid, and supersedes the metadata version.
// newMetadata is stored as given; edge metadata is not schema-validated.
func (s *Store) UpdateEdge(ctx context.Context, tx storage.Tx, edgeID int64, newMetadataJSON string) (xtypes.Edge, string, error) {
	row, found, err := tx.GetEdgeRow(ctx, edgeID)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if !found || !row.Live(snap) {
		return xtypes.Edge{}, "", xtypes.NotFound("edge %d not visible", edgeID)
	}

	fromObj, found, err := tx.GetObjectRow(ctx, row.FromID)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if !found || fromObj.Type != row.FromType {
		return xtypes.Edge{}, "", xtypes.New(xtypes.CodeTypeMismatch, "from object %d no longer has type %q", row.FromID, row.FromType)
	}
	toObj, found, err := tx.GetObjectRow(ctx, row.ToID)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if !found || toObj.Type != row.ToType {
		return xtypes.Edge{}, "", xtypes.New(xtypes.CodeTypeMismatch, "to object %d no longer has type %q", row.ToID, row.ToType)
	}

	xid, commitSnap, err := tx.Allocate(ctx, "")
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if err := tx.TombstoneEdgeMetadata(ctx, edgeID, xid); err != nil {
		return xtypes.Edge{}, "", err
	}
	if err := tx.InsertEdgeMetadata(ctx, xtypes.EdgeMetadataVersion{
		EdgeID:    edgeID,
		Metadata:  newMetadataJSON,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}); err != nil {
		return xtypes.Edge{}, "", err
	}

	row.Metadata = newMetadataJSON
	return row, s.Oracle.EncodeSnapshot(commitSnap), nil
}

// DeleteEdge tombstones the edge and its live metadata version.
func (s *Store) DeleteEdge(ctx context.Context, tx storage.Tx, edgeID int64) (string, error) {
	row, found, err := tx.GetEdgeRow(ctx, edgeID)
	if err != nil {
		return "", err
	}
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if !found || !row.Live(snap) {
		return "", xtypes.NotFound("edge %d not visible", edgeID)
	}

	xid, commitSnap, err := tx.Allocate(ctx, "")
	if err != nil {
		return "", err
	}
	if err := tx.TombstoneEdge(ctx, edgeID, xid); err != nil {
		return "", err
	}
	if err := tx.TombstoneEdgeMetadata(ctx, edgeID, xid); err != nil {
		return "", err
	}
	return s.Oracle.EncodeSnapshot(commitSnap), nil
}

func liveRelationEdges(ctx context.Context, tx storage.Tx, objectID int64, relation string, snap xtypes.Snapshot) ([]xtypes.Edge, error) {
	all, err := tx.LiveEdgesFrom(ctx, objectID)
	if err != nil {
		return nil, err
	}
	var out []xtypes.Edge
	for _, e := range all {
		if e.Relation == relation && e.Live(snap) {
			out = append(out, e)
		}
	}
	return out, nil
}

func loadTargetObject(ctx context.Context, tx storage.Tx, e xtypes.Edge, snap xtypes.Snapshot) (xtypes.Object, error) {
	obj, found, err := tx.GetObjectRow(ctx, e.ToID)
	if err != nil {
		return xtypes.Object{}, err
	}
	if !found || !obj.Live(snap) {
		return xtypes.Object{}, xtypes.New(xtypes.CodeInternal, "edge %d targets a non-visible object %d", e.ID, e.ToID)
	}
	versions, err := tx.GetObjectMetadataVersions(ctx, e.ToID)
	if err != nil {
		return xtypes.Object{}, err
	}
	for _, v := range versions {
		if v.Live(snap) {
			obj.Metadata = v.Metadata
			return obj, nil
		}
	}
	return obj, nil
}

func hydrateEdge(ctx context.Context, tx storage.Tx, e xtypes.Edge, snap xtypes.Snapshot) xtypes.Edge {
	versions, err := tx.GetEdgeMetadataVersions(ctx, e.ID)
	if err != nil {
		return e
	}
	for _, v := range versions {
		if v.Live(snap) {
			e.Metadata = v.Metadata
			return e
		}
	}
	return e
}
