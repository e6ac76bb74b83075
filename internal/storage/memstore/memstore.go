// Package memstore is a process-local storage.Backend used for tests and
// embedded use, mirroring the shape of the teacher's internal/storage/memory
// package: every row lives in a guarded map rather than a SQL table.
package memstore

import (
	"context"
	"sync"

	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// Backend is an in-memory implementation of storage.Backend. It provides
// the same visibility semantics as a SQL-backed store but keeps every row
// in Go maps guarded by a single mutex; writes only become visible to new
// reads once their owning transaction commits.
type Backend struct {
	mu sync.Mutex

	nextXID  xtypes.XID
	inFlight map[xtypes.XID]bool

	transactions map[xtypes.XID]xtypes.TransactionRecord

	schemaSeq    int64
	schemasByType map[string]xtypes.SchemaRecord

	objectSeq  int64
	objects    map[int64]xtypes.Object
	objectMeta map[int64][]xtypes.ObjectMetadataVersion

	edgeSeq  int64
	edges    map[int64]xtypes.Edge
	edgeMeta map[int64][]xtypes.EdgeMetadataVersion
}

// New creates an empty in-memory backend. The first allocated xid is 1;
// XIDInf is reserved and never issued.
func New() *Backend {
	return &Backend{
		nextXID:       1,
		inFlight:      make(map[xtypes.XID]bool),
		transactions:  make(map[xtypes.XID]xtypes.TransactionRecord),
		schemasByType: make(map[string]xtypes.SchemaRecord),
		objects:       make(map[int64]xtypes.Object),
		objectMeta:    make(map[int64][]xtypes.ObjectMetadataVersion),
		edges:         make(map[int64]xtypes.Edge),
		edgeMeta:      make(map[int64][]xtypes.EdgeMetadataVersion),
	}
}

func (b *Backend) snapshotLocked() xtypes.Snapshot {
	snap := xtypes.Snapshot{Xmin: 1, Xmax: b.nextXID}
	for xid := range b.inFlight {
		snap.InFlight = append(snap.InFlight, xid)
	}
	return snap
}

// CurrentSnapshot implements storage.Backend.
func (b *Backend) CurrentSnapshot(ctx context.Context) (xtypes.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(), nil
}

// Close implements storage.Backend. Memstore holds no external resources.
func (b *Backend) Close() error { return nil }

// Begin implements storage.Backend.
func (b *Backend) Begin(ctx context.Context) (storage.Tx, error) {
	return &tx{backend: b}, nil
}
