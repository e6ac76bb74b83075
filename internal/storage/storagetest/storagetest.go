// Package storagetest holds small fixtures shared across storage-backed
// package tests, mirroring the teacher's setupTestDB-style test helpers
// (internal/storage/sqlite/transaction_test.go) but backend-agnostic.
package storagetest

import (
	"context"
	"testing"

	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// MustInsertObject allocates an xid and inserts a bare object of typeName
// with empty metadata, returning its id. It fails the test on any error.
func MustInsertObject(t *testing.T, ctx context.Context, tx storage.Tx, typeName string) int64 {
	t.Helper()
	xid, _, err := tx.Allocate(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	id, err := tx.InsertObject(ctx, xtypes.Object{
		Type:      typeName,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.InsertObjectMetadata(ctx, xtypes.ObjectMetadataVersion{
		ObjectID:  id,
		Metadata:  "{}",
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}); err != nil {
		t.Fatal(err)
	}
	return id
}
