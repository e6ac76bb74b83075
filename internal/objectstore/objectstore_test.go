package objectstore

import (
	"context"
	"testing"

	"github.com/ligaturedb/ligature/internal/oracle"
	"github.com/ligaturedb/ligature/internal/schema"
	"github.com/ligaturedb/ligature/internal/storage/memstore"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

const personSchema = `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`

func newTestStore(t *testing.T) (*Store, *memstore.Backend, *schema.Registry) {
	t.Helper()
	reg := schema.New()
	orc := oracle.New([]byte("test-secret"))
	return New(reg, orc), memstore.New(), reg
}

func TestCreateAndGetObjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, b, reg := newTestStore(t)

	tx, _ := b.Begin(ctx)
	if _, err := reg.CreateSchema(ctx, tx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	obj, _, err := store.CreateObject(ctx, tx, "alice", "person_1", `{"name":"alice"}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, _ := b.Begin(ctx)
	snap, _ := tx2.Snapshot(ctx)
	got, err := store.GetObject(ctx, tx2, obj.ID, snap)
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata != `{"name":"alice"}` {
		t.Errorf("got metadata %q, want %q", got.Metadata, `{"name":"alice"}`)
	}
}

func TestCreateObjectUnknownTypeNotFound(t *testing.T) {
	ctx := context.Background()
	store, b, _ := newTestStore(t)
	tx, _ := b.Begin(ctx)
	defer tx.Rollback(ctx)

	_, _, err := store.CreateObject(ctx, tx, "alice", "unknown_42", `{}`)
	if xtypes.CodeOf(err) != xtypes.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for an unregistered type, got %v", err)
	}
}

func TestCreateObjectValidationFailed(t *testing.T) {
	ctx := context.Background()
	store, b, reg := newTestStore(t)
	tx, _ := b.Begin(ctx)
	defer tx.Rollback(ctx)

	if _, err := reg.CreateSchema(ctx, tx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	_, _, err := store.CreateObject(ctx, tx, "alice", "person_1", `{"name":42}`)
	if xtypes.CodeOf(err) != xtypes.CodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
	ferr, ok := err.(*xtypes.Error)
	if !ok || len(ferr.Violations) == 0 {
		t.Fatal("expected at least one reported violation")
	}
}

func TestUpdateObjectPreservesHistoricVersions(t *testing.T) {
	ctx := context.Background()
	store, b, reg := newTestStore(t)
	tx, _ := b.Begin(ctx)
	if _, err := reg.CreateSchema(ctx, tx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	obj, z1, err := store.CreateObject(ctx, tx, "alice", "person_1", `{"name":"alice"}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	orc := oracle.New([]byte("test-secret"))
	snap1, err := oracleDecode(ctx, orc, b, z1)
	if err != nil {
		t.Fatal(err)
	}

	tx2, _ := b.Begin(ctx)
	_, _, err = store.UpdateObject(ctx, tx2, obj.ID, `{"name":"alice2"}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx2.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx3, _ := b.Begin(ctx)
	historic, err := store.GetObject(ctx, tx3, obj.ID, snap1)
	if err != nil {
		t.Fatal(err)
	}
	if historic.Metadata != `{"name":"alice"}` {
		t.Errorf("reading at the original zookie should still see the original metadata, got %q", historic.Metadata)
	}

	current, err := store.GetObject(ctx, tx3, obj.ID, mustSnapshot(ctx, t, tx3))
	if err != nil {
		t.Fatal(err)
	}
	if current.Metadata != `{"name":"alice2"}` {
		t.Errorf("reading at the current snapshot should see the updated metadata, got %q", current.Metadata)
	}
}

func oracleDecode(ctx context.Context, orc *oracle.Oracle, b *memstore.Backend, zookie string) (xtypes.Snapshot, error) {
	tx, err := b.Begin(ctx)
	if err != nil {
		return xtypes.Snapshot{}, err
	}
	defer tx.Rollback(ctx)
	return oracle.Decode(ctx, orc, tx, zookie)
}

func mustSnapshot(ctx context.Context, t *testing.T, tx interface {
	Snapshot(ctx context.Context) (xtypes.Snapshot, error)
}) xtypes.Snapshot {
	t.Helper()
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestDeleteObjectCascadesToEdges(t *testing.T) {
	ctx := context.Background()
	reg := schema.New()
	orc := oracle.New([]byte("test-secret"))
	store := New(reg, orc)
	b := memstore.New()

	tx, _ := b.Begin(ctx)
	if _, err := reg.CreateSchema(ctx, tx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	a, _, err := store.CreateObject(ctx, tx, "u", "person_1", `{"name":"a"}`)
	if err != nil {
		t.Fatal(err)
	}
	bObj, _, err := store.CreateObject(ctx, tx, "u", "person_1", `{"name":"b"}`)
	if err != nil {
		t.Fatal(err)
	}
	xid, _, err := tx.Allocate(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	edge := xtypes.Edge{
		FromType: "person_1", FromID: a.ID, Relation: "follows",
		ToType: "person_1", ToID: bObj.ID,
		Versioned: xtypes.Versioned{CreatedXID: xid, DeletedXID: xtypes.XIDInf},
	}
	edgeID, err := tx.InsertEdge(ctx, edge)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, _ := b.Begin(ctx)
	if _, err := store.DeleteObject(ctx, tx2, a.ID, tx2); err != nil {
		t.Fatal(err)
	}
	if err := tx2.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx3, _ := b.Begin(ctx)
	row, found, err := tx3.GetEdgeRow(ctx, edgeID)
	if err != nil {
		t.Fatal(err)
	}
	snap, _ := tx3.Snapshot(ctx)
	if !found || row.Live(snap) {
		t.Error("edge touching a deleted object should be tombstoned by the cascade")
	}
}
