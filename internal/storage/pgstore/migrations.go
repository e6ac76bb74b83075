package pgstore

import (
	"context"
	"database/sql"
)

// schemaDDL creates every table pgstore needs if it does not already
// exist, following the teacher's sqlite migrations' one-statement-per-
// concern style rather than a numbered migration chain: this package has
// no prior schema versions to migrate from.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS ligature_xid_counter (
	id       SMALLINT PRIMARY KEY,
	next_xid BIGINT NOT NULL
);
INSERT INTO ligature_xid_counter (id, next_xid)
	VALUES (1, 1) ON CONFLICT (id) DO NOTHING;

CREATE TABLE IF NOT EXISTS ligature_transactions (
	xid       BIGINT PRIMARY KEY,
	status    TEXT NOT NULL,
	wall      TIMESTAMPTZ NOT NULL,
	metadata  TEXT NOT NULL DEFAULT '',
	in_flight TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS ligature_transactions_status_idx
	ON ligature_transactions (status);

CREATE TABLE IF NOT EXISTS ligature_schemas (
	schema_id  BIGSERIAL PRIMARY KEY,
	type_name  TEXT NOT NULL UNIQUE,
	schema_raw TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ligature_objects (
	id          BIGSERIAL PRIMARY KEY,
	user_id     TEXT NOT NULL,
	type_name   TEXT NOT NULL,
	created_xid BIGINT NOT NULL,
	deleted_xid BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS ligature_object_metadata (
	object_id   BIGINT NOT NULL REFERENCES ligature_objects (id),
	metadata    TEXT NOT NULL,
	created_xid BIGINT NOT NULL,
	deleted_xid BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS ligature_object_metadata_object_id_idx
	ON ligature_object_metadata (object_id);

CREATE TABLE IF NOT EXISTS ligature_edges (
	id          BIGSERIAL PRIMARY KEY,
	user_id     TEXT NOT NULL,
	from_type   TEXT NOT NULL,
	from_id     BIGINT NOT NULL,
	relation    TEXT NOT NULL,
	to_type     TEXT NOT NULL,
	to_id       BIGINT NOT NULL,
	created_xid BIGINT NOT NULL,
	deleted_xid BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS ligature_edges_from_id_idx ON ligature_edges (from_id);
CREATE INDEX IF NOT EXISTS ligature_edges_to_id_idx ON ligature_edges (to_id);

CREATE TABLE IF NOT EXISTS ligature_edge_metadata (
	edge_id     BIGINT NOT NULL REFERENCES ligature_edges (id),
	metadata    TEXT NOT NULL,
	created_xid BIGINT NOT NULL,
	deleted_xid BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS ligature_edge_metadata_edge_id_idx
	ON ligature_edge_metadata (edge_id);
`

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}
