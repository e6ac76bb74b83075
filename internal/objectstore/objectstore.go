// Package objectstore implements the Object Store (C4): MVCC-versioned
// object rows with a metadata-history chain, gated by the Schema
// Registry on every create and update.
package objectstore

import (
	"context"

	"github.com/ligaturedb/ligature/internal/oracle"
	"github.com/ligaturedb/ligature/internal/schema"
	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// Store composes the Schema Registry with the storage abstraction to
// implement CreateObject/GetObject/UpdateObject/DeleteObject.
type Store struct {
	Registry *schema.Registry
	Oracle   *oracle.Oracle
}

// New constructs a Store bound to the given registry and oracle.
func New(reg *schema.Registry, orc *oracle.Oracle) *Store {
	return &Store{Registry: reg, Oracle: orc}
}

// CreateObject validates metadata against type's registered schema,
// allocates an xid, and inserts the object plus its first metadata
// version. Returns the object (with metadata populated) and a zookie
// encoding the write.
func (s *Store) CreateObject(ctx context.Context, tx storage.Tx, userID, typeName, metadataJSON string) (xtypes.Object, string, error) {
	if err := s.Registry.Validate(ctx, tx, typeName, metadataJSON); err != nil {
		return xtypes.Object{}, "", err
	}

	xid, commitSnap, err := tx.Allocate(ctx, "")
	if err != nil {
		return xtypes.Object{}, "", err
	}

	obj := xtypes.Object{
		UserID:    userID,
		Type:      typeName,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}
	id, err := tx.InsertObject(ctx, obj)
	if err != nil {
		return xtypes.Object{}, "", err
	}
	obj.ID = id

	if err := tx.InsertObjectMetadata(ctx, xtypes.ObjectMetadataVersion{
		ObjectID:  id,
		Metadata:  metadataJSON,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}); err != nil {
		return xtypes.Object{}, "", err
	}

	obj.Metadata = metadataJSON
	return obj, s.Oracle.EncodeSnapshot(commitSnap), nil
}

// GetObject returns the object visible at snap, including its currently
// visible metadata version. NOT_FOUND if the object itself isn't
// visible; INTERNAL if visible but no metadata version is (an invariant
// violation that should be unreachable).
func (s *Store) GetObject(ctx context.Context, tx storage.Tx, objectID int64, snap xtypes.Snapshot) (xtypes.Object, error) {
	row, found, err := tx.GetObjectRow(ctx, objectID)
	if err != nil {
		return xtypes.Object{}, err
	}
	if !found || !row.Live(snap) {
		return xtypes.Object{}, xtypes.NotFound("object %d not visible at requested snapshot", objectID)
	}

	versions, err := tx.GetObjectMetadataVersions(ctx, objectID)
	if err != nil {
		return xtypes.Object{}, err
	}
	for _, v := range versions {
		if v.Live(snap) {
			row.Metadata = v.Metadata
			return row, nil
		}
	}
	return xtypes.Object{}, xtypes.New(xtypes.CodeInternal, "object %d visible but has no visible metadata version", objectID)
}

// UpdateObject validates newMetadata against the object's type schema,
// allocates an xid, supersedes the live metadata version, and inserts a
// new one. The object row itself is never mutated.
func (s *Store) UpdateObject(ctx context.Context, tx storage.Tx, objectID int64, newMetadataJSON string) (xtypes.Object, string, error) {
	current, found, err := tx.GetObjectRow(ctx, objectID)
	if err != nil {
		return xtypes.Object{}, "", err
	}
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return xtypes.Object{}, "", err
	}
	if !found || !current.Live(snap) {
		return xtypes.Object{}, "", xtypes.NotFound("object %d not visible", objectID)
	}

	if err := s.Registry.Validate(ctx, tx, current.Type, newMetadataJSON); err != nil {
		return xtypes.Object{}, "", err
	}

	xid, commitSnap, err := tx.Allocate(ctx, "")
	if err != nil {
		return xtypes.Object{}, "", err
	}

	if err := tx.TombstoneObjectMetadata(ctx, objectID, xid); err != nil {
		return xtypes.Object{}, "", err
	}
	if err := tx.InsertObjectMetadata(ctx, xtypes.ObjectMetadataVersion{
		ObjectID:  objectID,
		Metadata:  newMetadataJSON,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}); err != nil {
		return xtypes.Object{}, "", err
	}

	current.Metadata = newMetadataJSON
	return current, s.Oracle.EncodeSnapshot(commitSnap), nil
}

// DeleteObject tombstones the object, its live metadata version, and
// cascades the tombstone to every edge still referencing it (spec §4.4,
// testable property 8).
func (s *Store) DeleteObject(ctx context.Context, tx storage.Tx, objectID int64, edges storage.EdgeRows) (string, error) {
	current, found, err := tx.GetObjectRow(ctx, objectID)
	if err != nil {
		return "", err
	}
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if !found || !current.Live(snap) {
		return "", xtypes.NotFound("object %d not visible", objectID)
	}

	xid, commitSnap, err := tx.Allocate(ctx, "")
	if err != nil {
		return "", err
	}

	if err := tx.TombstoneObject(ctx, objectID, xid); err != nil {
		return "", err
	}
	if err := tx.TombstoneObjectMetadata(ctx, objectID, xid); err != nil {
		return "", err
	}

	referencing, err := edges.EdgesReferencing(ctx, objectID)
	if err != nil {
		return "", err
	}
	for _, e := range referencing {
		if e.DeletedXID != xtypes.XIDInf {
			continue
		}
		if err := edges.TombstoneEdge(ctx, e.ID, xid); err != nil {
			return "", err
		}
		if err := edges.TombstoneEdgeMetadata(ctx, e.ID, xid); err != nil {
			return "", err
		}
	}

	return s.Oracle.EncodeSnapshot(commitSnap), nil
}
