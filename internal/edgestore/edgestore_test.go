package edgestore

import (
	"context"
	"testing"

	"github.com/ligaturedb/ligature/internal/oracle"
	"github.com/ligaturedb/ligature/internal/schema"
	"github.com/ligaturedb/ligature/internal/storage/memstore"
	"github.com/ligaturedb/ligature/internal/storage/storagetest"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

const personSchema = `{"type":"object","properties":{"name":{"type":"string"}}}`

func setup(t *testing.T) (*Store, *memstore.Backend, int64, int64) {
	t.Helper()
	ctx := context.Background()
	reg := schema.New()
	orc := oracle.New([]byte("test-secret"))
	store := New(orc)
	b := memstore.New()

	tx, _ := b.Begin(ctx)
	if _, err := reg.CreateSchema(ctx, tx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	a := storagetest.MustInsertObject(t, ctx, tx, "person_1")
	bObj := storagetest.MustInsertObject(t, ctx, tx, "person_1")
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	return store, b, a, bObj
}

func TestCreateEdgeAndGetEdge(t *testing.T) {
	ctx := context.Background()
	store, b, a, bObj := setup(t)

	tx, _ := b.Begin(ctx)
	edge, _, err := store.CreateEdge(ctx, tx, "u", "person_1", a, "follows", "person_1", bObj, `{}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, _ := b.Begin(ctx)
	snap, _ := tx2.Snapshot(ctx)
	got, target, err := store.GetEdge(ctx, tx2, a, "follows", snap)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != edge.ID {
		t.Errorf("got edge %d, want %d", got.ID, edge.ID)
	}
	if target.ID != bObj {
		t.Errorf("got target %d, want %d", target.ID, bObj)
	}
}

func TestCreateEdgeTypeMismatch(t *testing.T) {
	ctx := context.Background()
	store, b, a, bObj := setup(t)

	tx, _ := b.Begin(ctx)
	defer tx.Rollback(ctx)
	_, _, err := store.CreateEdge(ctx, tx, "u", "wrong_type", a, "follows", "person_1", bObj, `{}`)
	if xtypes.CodeOf(err) != xtypes.CodeTypeMismatch {
		t.Fatalf("expected TYPE_MISMATCH, got %v", err)
	}
}

func TestCreateEdgeRejectsCycle(t *testing.T) {
	ctx := context.Background()
	store, b, a, bObj := setup(t)

	tx, _ := b.Begin(ctx)
	if _, _, err := store.CreateEdge(ctx, tx, "u", "person_1", a, "follows", "person_1", bObj, `{}`); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, _ := b.Begin(ctx)
	defer tx2.Rollback(ctx)
	_, _, err := store.CreateEdge(ctx, tx2, "u", "person_1", bObj, "follows", "person_1", a, `{}`)
	if xtypes.CodeOf(err) != xtypes.CodeCycle {
		t.Fatalf("expected CYCLE when closing a -> b -> a, got %v", err)
	}
}

func TestCreateEdgeRejectsDuplicateTriple(t *testing.T) {
	ctx := context.Background()
	store, b, a, bObj := setup(t)

	tx, _ := b.Begin(ctx)
	if _, _, err := store.CreateEdge(ctx, tx, "u", "person_1", a, "follows", "person_1", bObj, `{}`); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, _ := b.Begin(ctx)
	defer tx2.Rollback(ctx)
	_, _, err := store.CreateEdge(ctx, tx2, "u", "person_1", a, "follows", "person_1", bObj, `{}`)
	if xtypes.CodeOf(err) != xtypes.CodeAlreadyExists {
		t.Fatalf("expected ALREADY_EXISTS for a duplicate (from, relation, to) triple, got %v", err)
	}
}

func TestDeleteEdgeTombstones(t *testing.T) {
	ctx := context.Background()
	store, b, a, bObj := setup(t)

	tx, _ := b.Begin(ctx)
	edge, _, err := store.CreateEdge(ctx, tx, "u", "person_1", a, "follows", "person_1", bObj, `{}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, _ := b.Begin(ctx)
	if _, err := store.DeleteEdge(ctx, tx2, edge.ID); err != nil {
		t.Fatal(err)
	}
	if err := tx2.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx3, _ := b.Begin(ctx)
	snap, _ := tx3.Snapshot(ctx)
	if _, _, err := store.GetEdge(ctx, tx3, a, "follows", snap); xtypes.CodeOf(err) != xtypes.CodeNotFound {
		t.Fatalf("expected NOT_FOUND after delete, got %v", err)
	}
}
