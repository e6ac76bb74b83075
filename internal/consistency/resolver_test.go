package consistency

import (
	"context"
	"testing"
	"time"

	"github.com/ligaturedb/ligature/internal/oracle"
	"github.com/ligaturedb/ligature/internal/storage/memstore"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

func TestResolveFullConsistency(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()
	orc := oracle.New([]byte("test-secret"))
	r := New(orc)

	tx, _ := b.Begin(ctx)
	defer tx.Rollback(ctx)
	snap, zookie, err := r.Resolve(ctx, tx, xtypes.ConsistencyRequirement{Kind: xtypes.FullConsistency}, time.Now().Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if zookie == "" {
		t.Error("expected a non-empty zookie echo")
	}
	want, err := tx.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Xmax != want.Xmax {
		t.Errorf("got snapshot Xmax %d, want %d", snap.Xmax, want.Xmax)
	}
}

func TestResolveExactlyAtReplaysOriginalSnapshot(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()
	orc := oracle.New([]byte("test-secret"))
	r := New(orc)

	tx, _ := b.Begin(ctx)
	_, snapAtAlloc, err := tx.Allocate(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	zookie := orc.EncodeSnapshot(snapAtAlloc)

	tx2, _ := b.Begin(ctx)
	defer tx2.Rollback(ctx)
	// Advance the backend further so exactly_at must ignore newer state.
	if _, _, err := tx2.Allocate(ctx, ""); err != nil {
		t.Fatal(err)
	}

	snap, _, err := r.Resolve(ctx, tx2, xtypes.ConsistencyRequirement{Kind: xtypes.ExactlyAt, Zookie: zookie}, time.Now().Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Xmax != snapAtAlloc.Xmax {
		t.Errorf("exactly_at should replay the original snapshot, got Xmax %d, want %d", snap.Xmax, snapAtAlloc.Xmax)
	}
}

func TestResolveAtLeastAsFreshSatisfiedImmediately(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()
	orc := oracle.New([]byte("test-secret"))
	r := New(orc)

	tx, _ := b.Begin(ctx)
	_, snapAtAlloc, err := tx.Allocate(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	zookie := orc.EncodeSnapshot(snapAtAlloc)

	tx2, _ := b.Begin(ctx)
	defer tx2.Rollback(ctx)
	snap, _, err := r.Resolve(ctx, tx2, xtypes.ConsistencyRequirement{Kind: xtypes.AtLeastAsFresh, Zookie: zookie}, time.Now().Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Dominates(snapAtAlloc) {
		t.Errorf("resolved snapshot should dominate the requested one")
	}
}

// Scenario F (spec §8): at_least_as_fresh for a snapshot this server
// never produced must wait out the deadline and report STALE_UNAVAILABLE.
func TestResolveAtLeastAsFreshNeverSatisfiedIsStale(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()
	orc := oracle.New([]byte("test-secret"))
	r := New(orc)

	future := xtypes.Snapshot{Xmin: 1, Xmax: 1_000_000}
	zookie := orc.EncodeSnapshot(future)

	tx, _ := b.Begin(ctx)
	defer tx.Rollback(ctx)
	_, _, err := r.Resolve(ctx, tx, xtypes.ConsistencyRequirement{Kind: xtypes.AtLeastAsFresh, Zookie: zookie}, time.Now().Add(20*time.Millisecond))
	if xtypes.CodeOf(err) != xtypes.CodeStaleUnavailable {
		t.Fatalf("expected STALE_UNAVAILABLE, got %v", err)
	}
}

func TestResolveInvalidZookieRejected(t *testing.T) {
	ctx := context.Background()
	b := memstore.New()
	orc := oracle.New([]byte("test-secret"))
	r := New(orc)

	tx, _ := b.Begin(ctx)
	defer tx.Rollback(ctx)
	_, _, err := r.Resolve(ctx, tx, xtypes.ConsistencyRequirement{Kind: xtypes.ExactlyAt, Zookie: "not-a-real-zookie"}, time.Now().Add(time.Second))
	if xtypes.CodeOf(err) != xtypes.CodeInvalidZookie {
		t.Fatalf("expected INVALID_ZOOKIE, got %v", err)
	}
}
