package memstore

import (
	"context"
	"time"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// tx stages every write made during the transaction and only applies them
// to the backend's shared maps on Commit, so a Rollback leaves none of
// the transaction's rows behind (spec §7: "no partial persistent effect").
// The xid counter and the row id counters are not rewound on Rollback.
type tx struct {
	backend *Backend
	done    bool

	allocated []xtypes.XID

	pendingTransactions []xtypes.TransactionRecord
	pendingSchemas      []xtypes.SchemaRecord
	pendingObjects      []xtypes.Object
	pendingObjectMeta   []xtypes.ObjectMetadataVersion
	objectTombstones    map[int64]xtypes.XID
	objectMetaTombstones map[int64]xtypes.XID
	pendingEdges        []xtypes.Edge
	pendingEdgeMeta     []xtypes.EdgeMetadataVersion
	edgeTombstones      map[int64]xtypes.XID
	edgeMetaTombstones  map[int64]xtypes.XID

	nextObjectID int64
	nextEdgeID   int64
}

// Allocate implements storage.Tx.
func (t *tx) Allocate(ctx context.Context, metadata string) (xtypes.XID, xtypes.Snapshot, error) {
	b := t.backend
	b.mu.Lock()
	xid := b.nextXID
	b.nextXID++
	b.inFlight[xid] = true
	// snapshot_at_commit: the snapshot this write will have once this
	// transaction resolves, i.e. xid itself is no longer in-flight.
	committedSnap := xtypes.Snapshot{Xmin: 1, Xmax: b.nextXID}
	for other := range b.inFlight {
		if other != xid {
			committedSnap.InFlight = append(committedSnap.InFlight, other)
		}
	}
	b.mu.Unlock()

	t.allocated = append(t.allocated, xid)
	t.pendingTransactions = append(t.pendingTransactions, xtypes.TransactionRecord{
		XID:      xid,
		Snapshot: committedSnap,
		Wall:     time.Now().UTC(),
		Metadata: metadata,
	})
	return xid, committedSnap, nil
}

// Snapshot implements storage.Tx: the current committed-state snapshot,
// used for reads and for the edge store's "snapshot before x" cycle check.
func (t *tx) Snapshot(ctx context.Context) (xtypes.Snapshot, error) {
	return t.backend.CurrentSnapshot(ctx)
}

// ResolveTransaction implements storage.Tx.
func (t *tx) ResolveTransaction(ctx context.Context, xid xtypes.XID) (xtypes.TransactionRecord, error) {
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.transactions[xid]
	if !ok {
		return xtypes.TransactionRecord{}, xtypes.NotFound("no transaction record for xid %d", xid)
	}
	return rec, nil
}

// Commit implements storage.Tx: flushes every staged write atomically and
// releases the allocated xids from the in-flight set.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return xtypes.New(xtypes.CodeInternal, "transaction already resolved")
	}
	t.done = true
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, rec := range t.pendingTransactions {
		b.transactions[rec.XID] = rec
	}
	for _, s := range t.pendingSchemas {
		b.schemasByType[s.TypeName] = s
	}
	for _, o := range t.pendingObjects {
		b.objects[o.ID] = o
	}
	for _, v := range t.pendingObjectMeta {
		b.objectMeta[v.ObjectID] = append(b.objectMeta[v.ObjectID], v)
	}
	for id, xid := range t.objectTombstones {
		if o, ok := b.objects[id]; ok {
			o.DeletedXID = xid
			b.objects[id] = o
		}
	}
	for id, xid := range t.objectMetaTombstones {
		versions := b.objectMeta[id]
		for i, v := range versions {
			if v.DeletedXID == xtypes.XIDInf && v.CreatedXID != xid {
				versions[i].DeletedXID = xid
			}
		}
	}
	for _, e := range t.pendingEdges {
		b.edges[e.ID] = e
	}
	for _, v := range t.pendingEdgeMeta {
		b.edgeMeta[v.EdgeID] = append(b.edgeMeta[v.EdgeID], v)
	}
	for id, xid := range t.edgeTombstones {
		if e, ok := b.edges[id]; ok {
			e.DeletedXID = xid
			b.edges[id] = e
		}
	}
	for id, xid := range t.edgeMetaTombstones {
		versions := b.edgeMeta[id]
		for i, v := range versions {
			if v.DeletedXID == xtypes.XIDInf && v.CreatedXID != xid {
				versions[i].DeletedXID = xid
			}
		}
	}

	for _, xid := range t.allocated {
		delete(b.inFlight, xid)
	}
	return nil
}

// Rollback implements storage.Tx: discards every staged write.
func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, xid := range t.allocated {
		delete(b.inFlight, xid)
	}
	return nil
}
