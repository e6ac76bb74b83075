package pgstore

import (
	"context"
	"database/sql"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// InsertObject implements storage.ObjectRows.
func (t *tx) InsertObject(ctx context.Context, o xtypes.Object) (int64, error) {
	var id int64
	err := t.sqlTx.QueryRowContext(ctx,
		`INSERT INTO ligature_objects (user_id, type_name, created_xid, deleted_xid)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		o.UserID, o.Type, o.CreatedXID, o.DeletedXID,
	).Scan(&id)
	return id, err
}

// InsertObjectMetadata implements storage.ObjectRows.
func (t *tx) InsertObjectMetadata(ctx context.Context, v xtypes.ObjectMetadataVersion) error {
	_, err := t.sqlTx.ExecContext(ctx,
		`INSERT INTO ligature_object_metadata (object_id, metadata, created_xid, deleted_xid)
		 VALUES ($1, $2, $3, $4)`,
		v.ObjectID, v.Metadata, v.CreatedXID, v.DeletedXID,
	)
	return err
}

// TombstoneObjectMetadata implements storage.ObjectRows: stamps
// deleted_xid on the metadata row that is currently live.
func (t *tx) TombstoneObjectMetadata(ctx context.Context, objectID int64, xid xtypes.XID) error {
	_, err := t.sqlTx.ExecContext(ctx,
		`UPDATE ligature_object_metadata SET deleted_xid = $1
		 WHERE object_id = $2 AND deleted_xid = $3`,
		xid, objectID, xtypes.XIDInf,
	)
	return err
}

// TombstoneObject implements storage.ObjectRows.
func (t *tx) TombstoneObject(ctx context.Context, id int64, xid xtypes.XID) error {
	_, err := t.sqlTx.ExecContext(ctx,
		`UPDATE ligature_objects SET deleted_xid = $1 WHERE id = $2`, xid, id)
	return err
}

// GetObjectRow implements storage.ObjectRows.
func (t *tx) GetObjectRow(ctx context.Context, id int64) (xtypes.Object, bool, error) {
	var o xtypes.Object
	o.ID = id
	err := t.sqlTx.QueryRowContext(ctx,
		`SELECT user_id, type_name, created_xid, deleted_xid FROM ligature_objects WHERE id = $1`, id,
	).Scan(&o.UserID, &o.Type, &o.CreatedXID, &o.DeletedXID)
	if err == sql.ErrNoRows {
		return xtypes.Object{}, false, nil
	}
	if err != nil {
		return xtypes.Object{}, false, err
	}
	return o, true, nil
}

// GetObjectMetadataVersions implements storage.ObjectRows.
func (t *tx) GetObjectMetadataVersions(ctx context.Context, objectID int64) ([]xtypes.ObjectMetadataVersion, error) {
	rows, err := t.sqlTx.QueryContext(ctx,
		`SELECT metadata, created_xid, deleted_xid FROM ligature_object_metadata WHERE object_id = $1`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []xtypes.ObjectMetadataVersion
	for rows.Next() {
		v := xtypes.ObjectMetadataVersion{ObjectID: objectID}
		if err := rows.Scan(&v.Metadata, &v.CreatedXID, &v.DeletedXID); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
