package pgstore

import (
	"context"
	"database/sql"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// InsertSchema implements storage.SchemaStore.
func (t *tx) InsertSchema(ctx context.Context, rec xtypes.SchemaRecord) (int64, error) {
	var id int64
	err := t.sqlTx.QueryRowContext(ctx,
		`INSERT INTO ligature_schemas (type_name, schema_raw) VALUES ($1, $2) RETURNING schema_id`,
		rec.TypeName, rec.SchemaRaw,
	).Scan(&id)
	return id, err
}

// GetSchemaByType implements storage.SchemaStore.
func (t *tx) GetSchemaByType(ctx context.Context, typeName string) (xtypes.SchemaRecord, bool, error) {
	var rec xtypes.SchemaRecord
	rec.TypeName = typeName
	err := t.sqlTx.QueryRowContext(ctx,
		`SELECT schema_id, schema_raw, created_at, updated_at FROM ligature_schemas WHERE type_name = $1`,
		typeName,
	).Scan(&rec.SchemaID, &rec.SchemaRaw, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return xtypes.SchemaRecord{}, false, nil
	}
	if err != nil {
		return xtypes.SchemaRecord{}, false, err
	}
	return rec, true, nil
}
