// Package edgestore implements the Edge Store (C5): MVCC-versioned
// directed edges (triples) with metadata history, enforcing the DAG
// invariant with a BFS cycle check bounded by the live subgraph reachable
// from the edge's target.
package edgestore

import (
	"context"

	"github.com/ligaturedb/ligature/internal/oracle"
	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// Store implements the edge operations of the Graph API. Unlike the
// object store, edge operations never validate against the Schema
// Registry (edge metadata carries no registered type), so Store holds
// only the Oracle it needs to mint zookies.
type Store struct {
	Oracle *oracle.Oracle
}

// New constructs a Store bound to the given oracle.
func New(orc *oracle.Oracle) *Store {
	return &Store{Oracle: orc}
}

// CreateEdge resolves both endpoints at the current snapshot, rejects a
// type mismatch, performs the DAG cycle check, and inserts the edge plus
// its initial metadata version. See spec §4.5.
func (s *Store) CreateEdge(ctx context.Context, tx storage.Tx, userID, fromType string, fromID int64, relation, toType string, toID int64, metadataJSON string) (xtypes.Edge, string, error) {
	if metadataJSON == "" {
		metadataJSON = "{}"
	}

	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return xtypes.Edge{}, "", err
	}

	fromObj, found, err := tx.GetObjectRow(ctx, fromID)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if !found || !fromObj.Live(snap) {
		return xtypes.Edge{}, "", xtypes.NotFound("from object %d not visible", fromID)
	}
	if fromObj.Type != fromType {
		return xtypes.Edge{}, "", xtypes.New(xtypes.CodeTypeMismatch, "from object %d has type %q, not %q", fromID, fromObj.Type, fromType)
	}

	toObj, found, err := tx.GetObjectRow(ctx, toID)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if !found || !toObj.Live(snap) {
		return xtypes.Edge{}, "", xtypes.NotFound("to object %d not visible", toID)
	}
	if toObj.Type != toType {
		return xtypes.Edge{}, "", xtypes.New(xtypes.CodeTypeMismatch, "to object %d has type %q, not %q", toID, toObj.Type, toType)
	}

	duplicate, err := hasLiveTriple(ctx, tx, fromID, relation, toID, snap)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if duplicate {
		return xtypes.Edge{}, "", xtypes.New(xtypes.CodeAlreadyExists, "edge %d-[%s]->%d already exists", fromID, relation, toID)
	}

	cyclic, err := wouldCreateCycle(ctx, tx, snap, fromID, toID)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	if cyclic {
		return xtypes.Edge{}, "", xtypes.New(xtypes.CodeCycle, "edge %d-[%s]->%d would close a cycle", fromID, relation, toID)
	}

	xid, commitSnap, err := tx.Allocate(ctx, "")
	if err != nil {
		return xtypes.Edge{}, "", err
	}

	edge := xtypes.Edge{
		UserID:    userID,
		FromType:  fromType,
		FromID:    fromID,
		Relation:  relation,
		ToType:    toType,
		ToID:      toID,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}
	id, err := tx.InsertEdge(ctx, edge)
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	edge.ID = id

	if err := tx.InsertEdgeMetadata(ctx, xtypes.EdgeMetadataVersion{
		EdgeID:    id,
		Metadata:  metadataJSON,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}); err != nil {
		return xtypes.Edge{}, "", err
	}

	edge.Metadata = metadataJSON
	return edge, s.Oracle.EncodeSnapshot(commitSnap), nil
}

// hasLiveTriple reports whether a live edge with the exact (fromID,
// relation, toID) triple already exists at snap, per spec §3 Invariant 2
// ("for any (from, relation, to) triple at any snapshot, at most one
// live edge exists").
func hasLiveTriple(ctx context.Context, tx storage.Tx, fromID int64, relation string, toID int64, snap xtypes.Snapshot) (bool, error) {
	matches, err := liveRelationEdges(ctx, tx, fromID, relation, snap)
	if err != nil {
		return false, err
	}
	for _, e := range matches {
		if e.ToID == toID {
			return true, nil
		}
	}
	return false, nil
}

// wouldCreateCycle runs a BFS from toID over edges live at snap (the
// "snapshot before x": the edge being created does not exist yet). If the
// search reaches fromID, inserting fromID->toID would close a cycle.
// Bounded by O(E_live + V_live) on the subgraph reachable from toID.
func wouldCreateCycle(ctx context.Context, tx storage.Tx, snap xtypes.Snapshot, fromID, toID int64) (bool, error) {
	if fromID == toID {
		return true, nil
	}

	visited := map[int64]bool{toID: true}
	queue := []int64{toID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == fromID {
			return true, nil
		}

		outgoing, err := tx.LiveEdgesFrom(ctx, cur)
		if err != nil {
			return false, err
		}
		for _, e := range outgoing {
			if !e.Live(snap) {
				continue
			}
			if visited[e.ToID] {
				continue
			}
			visited[e.ToID] = true
			queue = append(queue, e.ToID)
		}
	}
	return false, nil
}
