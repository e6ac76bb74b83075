// Package storage defines the storage-agnostic transaction abstraction
// (C1): allocating xids, reading the current snapshot, and the versioned
// read/write operations every backend must provide with serializable or
// snapshot isolation.
package storage

import (
	"context"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// Backend opens transactions against a concrete storage engine (a
// PostgreSQL database, an in-memory map, or any future implementation).
// A Backend is safe for concurrent use; each call to Begin starts an
// independent transaction.
type Backend interface {
	// Begin starts a transaction with serializable (or equivalent
	// snapshot-isolation) semantics. The caller must Commit or Rollback.
	Begin(ctx context.Context) (Tx, error)

	// CurrentSnapshot returns the latest committed snapshot without
	// allocating an xid, outside any transaction. The engine packages
	// read snapshots through Tx.Snapshot instead.
	CurrentSnapshot(ctx context.Context) (xtypes.Snapshot, error)

	// Close releases any resources (connection pools, file handles)
	// held by the backend.
	Close() error
}

// Tx is the set of operations available inside one transaction. All
// reads and writes made through a Tx are atomic: either every effect is
// observed together at commit, or none are (on Rollback).
type Tx interface {
	// Allocate assigns the next xid under serializable semantics and
	// immediately persists a TransactionRecord for it, returning the xid
	// and the snapshot at commit: the snapshot in which xid itself is
	// visible (Xmax = xid+1). This is the snapshot a write's zookie
	// encodes; cycle checks read Snapshot, taken before allocation.
	Allocate(ctx context.Context, metadata string) (xtypes.XID, xtypes.Snapshot, error)

	// Snapshot returns the transaction's current read snapshot without
	// allocating an xid.
	Snapshot(ctx context.Context) (xtypes.Snapshot, error)

	// ResolveTransaction looks up the TransactionRecord persisted for
	// xid, used to decode at_least_as_fresh/exactly_at zookies that name
	// an xid rather than a literal snapshot.
	ResolveTransaction(ctx context.Context, xid xtypes.XID) (xtypes.TransactionRecord, error)

	SchemaStore
	ObjectRows
	EdgeRows

	// Commit finalizes the transaction, making its writes visible to
	// future snapshots whose Xmax is above the allocated xid(s).
	Commit(ctx context.Context) error

	// Rollback aborts the transaction; no effect persists.
	Rollback(ctx context.Context) error
}

// SchemaStore is the subset of Tx used by the Schema Registry (C3).
type SchemaStore interface {
	InsertSchema(ctx context.Context, rec xtypes.SchemaRecord) (int64, error)
	GetSchemaByType(ctx context.Context, typeName string) (xtypes.SchemaRecord, bool, error)
}

// ObjectRows is the subset of Tx used by the Object Store (C4).
type ObjectRows interface {
	InsertObject(ctx context.Context, o xtypes.Object) (int64, error)
	InsertObjectMetadata(ctx context.Context, v xtypes.ObjectMetadataVersion) error
	// TombstoneObjectMetadata stamps deleted_xid = xid on the metadata
	// version of objectID that is currently live (deleted_xid = XIDInf).
	TombstoneObjectMetadata(ctx context.Context, objectID int64, xid xtypes.XID) error
	GetObjectRow(ctx context.Context, id int64) (xtypes.Object, bool, error)
	GetObjectMetadataVersions(ctx context.Context, objectID int64) ([]xtypes.ObjectMetadataVersion, error)
	TombstoneObject(ctx context.Context, id int64, xid xtypes.XID) error
}

// EdgeRows is the subset of Tx used by the Edge Store (C5).
type EdgeRows interface {
	InsertEdge(ctx context.Context, e xtypes.Edge) (int64, error)
	InsertEdgeMetadata(ctx context.Context, v xtypes.EdgeMetadataVersion) error
	// TombstoneEdgeMetadata stamps deleted_xid = xid on the metadata
	// version of edgeID that is currently live.
	TombstoneEdgeMetadata(ctx context.Context, edgeID int64, xid xtypes.XID) error
	GetEdgeRow(ctx context.Context, id int64) (xtypes.Edge, bool, error)
	GetEdgeMetadataVersions(ctx context.Context, edgeID int64) ([]xtypes.EdgeMetadataVersion, error)
	// LiveEdgesFrom returns every edge row (live or historic) whose
	// FromID matches id; callers filter by snapshot visibility.
	LiveEdgesFrom(ctx context.Context, fromID int64) ([]xtypes.Edge, error)
	// EdgesReferencing returns every edge row touching objectID as
	// either endpoint, used for cascade tombstoning on DeleteObject.
	EdgesReferencing(ctx context.Context, objectID int64) ([]xtypes.Edge, error)
	TombstoneEdge(ctx context.Context, id int64, xid xtypes.XID) error
}
