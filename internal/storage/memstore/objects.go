package memstore

import (
	"context"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// InsertObject implements storage.ObjectRows.
func (t *tx) InsertObject(ctx context.Context, o xtypes.Object) (int64, error) {
	b := t.backend
	b.mu.Lock()
	b.objectSeq++
	id := b.objectSeq
	b.mu.Unlock()

	o.ID = id
	t.pendingObjects = append(t.pendingObjects, o)
	return id, nil
}

// InsertObjectMetadata implements storage.ObjectRows.
func (t *tx) InsertObjectMetadata(ctx context.Context, v xtypes.ObjectMetadataVersion) error {
	t.pendingObjectMeta = append(t.pendingObjectMeta, v)
	return nil
}

// TombstoneObjectMetadata implements storage.ObjectRows.
func (t *tx) TombstoneObjectMetadata(ctx context.Context, objectID int64, xid xtypes.XID) error {
	if t.objectMetaTombstones == nil {
		t.objectMetaTombstones = make(map[int64]xtypes.XID)
	}
	t.objectMetaTombstones[objectID] = xid
	return nil
}

// TombstoneObject implements storage.ObjectRows.
func (t *tx) TombstoneObject(ctx context.Context, id int64, xid xtypes.XID) error {
	if t.objectTombstones == nil {
		t.objectTombstones = make(map[int64]xtypes.XID)
	}
	t.objectTombstones[id] = xid
	return nil
}

// GetObjectRow implements storage.ObjectRows.
func (t *tx) GetObjectRow(ctx context.Context, id int64) (xtypes.Object, bool, error) {
	for i := len(t.pendingObjects) - 1; i >= 0; i-- {
		if t.pendingObjects[i].ID == id {
			return t.pendingObjects[i], true, nil
		}
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.objects[id]
	return o, ok, nil
}

// GetObjectMetadataVersions implements storage.ObjectRows.
func (t *tx) GetObjectMetadataVersions(ctx context.Context, objectID int64) ([]xtypes.ObjectMetadataVersion, error) {
	b := t.backend
	b.mu.Lock()
	versions := append([]xtypes.ObjectMetadataVersion(nil), b.objectMeta[objectID]...)
	b.mu.Unlock()

	for _, v := range t.pendingObjectMeta {
		if v.ObjectID == objectID {
			versions = append(versions, v)
		}
	}
	return versions, nil
}
