package pgstore

import (
	"context"
	"database/sql"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// InsertEdge implements storage.EdgeRows.
func (t *tx) InsertEdge(ctx context.Context, e xtypes.Edge) (int64, error) {
	var id int64
	err := t.sqlTx.QueryRowContext(ctx,
		`INSERT INTO ligature_edges (user_id, from_type, from_id, relation, to_type, to_id, created_xid, deleted_xid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		e.UserID, e.FromType, e.FromID, e.Relation, e.ToType, e.ToID, e.CreatedXID, e.DeletedXID,
	).Scan(&id)
	return id, err
}

// InsertEdgeMetadata implements storage.EdgeRows.
func (t *tx) InsertEdgeMetadata(ctx context.Context, v xtypes.EdgeMetadataVersion) error {
	_, err := t.sqlTx.ExecContext(ctx,
		`INSERT INTO ligature_edge_metadata (edge_id, metadata, created_xid, deleted_xid)
		 VALUES ($1, $2, $3, $4)`,
		v.EdgeID, v.Metadata, v.CreatedXID, v.DeletedXID,
	)
	return err
}

// TombstoneEdgeMetadata implements storage.EdgeRows.
func (t *tx) TombstoneEdgeMetadata(ctx context.Context, edgeID int64, xid xtypes.XID) error {
	_, err := t.sqlTx.ExecContext(ctx,
		`UPDATE ligature_edge_metadata SET deleted_xid = $1
		 WHERE edge_id = $2 AND deleted_xid = $3`,
		xid, edgeID, xtypes.XIDInf,
	)
	return err
}

// TombstoneEdge implements storage.EdgeRows.
func (t *tx) TombstoneEdge(ctx context.Context, id int64, xid xtypes.XID) error {
	_, err := t.sqlTx.ExecContext(ctx,
		`UPDATE ligature_edges SET deleted_xid = $1 WHERE id = $2`, xid, id)
	return err
}

// GetEdgeRow implements storage.EdgeRows.
func (t *tx) GetEdgeRow(ctx context.Context, id int64) (xtypes.Edge, bool, error) {
	e := xtypes.Edge{ID: id}
	err := t.sqlTx.QueryRowContext(ctx,
		`SELECT user_id, from_type, from_id, relation, to_type, to_id, created_xid, deleted_xid
		 FROM ligature_edges WHERE id = $1`, id,
	).Scan(&e.UserID, &e.FromType, &e.FromID, &e.Relation, &e.ToType, &e.ToID, &e.CreatedXID, &e.DeletedXID)
	if err == sql.ErrNoRows {
		return xtypes.Edge{}, false, nil
	}
	if err != nil {
		return xtypes.Edge{}, false, err
	}
	return e, true, nil
}

// GetEdgeMetadataVersions implements storage.EdgeRows.
func (t *tx) GetEdgeMetadataVersions(ctx context.Context, edgeID int64) ([]xtypes.EdgeMetadataVersion, error) {
	rows, err := t.sqlTx.QueryContext(ctx,
		`SELECT metadata, created_xid, deleted_xid FROM ligature_edge_metadata WHERE edge_id = $1`, edgeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []xtypes.EdgeMetadataVersion
	for rows.Next() {
		v := xtypes.EdgeMetadataVersion{EdgeID: edgeID}
		if err := rows.Scan(&v.Metadata, &v.CreatedXID, &v.DeletedXID); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LiveEdgesFrom implements storage.EdgeRows. Callers filter by snapshot
// visibility; this returns every row regardless of tombstone state.
func (t *tx) LiveEdgesFrom(ctx context.Context, fromID int64) ([]xtypes.Edge, error) {
	return t.queryEdges(ctx, `WHERE from_id = $1`, fromID)
}

// EdgesReferencing implements storage.EdgeRows.
func (t *tx) EdgesReferencing(ctx context.Context, objectID int64) ([]xtypes.Edge, error) {
	return t.queryEdges(ctx, `WHERE from_id = $1 OR to_id = $1`, objectID)
}

func (t *tx) queryEdges(ctx context.Context, where string, arg int64) ([]xtypes.Edge, error) {
	rows, err := t.sqlTx.QueryContext(ctx,
		`SELECT id, user_id, from_type, from_id, relation, to_type, to_id, created_xid, deleted_xid
		 FROM ligature_edges `+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []xtypes.Edge
	for rows.Next() {
		var e xtypes.Edge
		if err := rows.Scan(&e.ID, &e.UserID, &e.FromType, &e.FromID, &e.Relation, &e.ToType, &e.ToID, &e.CreatedXID, &e.DeletedXID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
