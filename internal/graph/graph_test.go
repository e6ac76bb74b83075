package graph

import (
	"context"
	"testing"

	"github.com/ligaturedb/ligature/internal/storage/memstore"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

const personSchema = `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memstore.New(), []byte("test-secret"))
}

func fullConsistency() xtypes.ConsistencyRequirement {
	return xtypes.ConsistencyRequirement{Kind: xtypes.FullConsistency}
}

func exactlyAt(zookie string) xtypes.ConsistencyRequirement {
	return xtypes.ConsistencyRequirement{Kind: xtypes.ExactlyAt, Zookie: zookie}
}

// Scenario A (spec §8): register a schema, create an object against it,
// and read it back at full consistency.
func TestScenarioACreateAndGetObject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CreateSchema(ctx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	o1, _, err := svc.CreateObject(ctx, "alice", "person_1", `{"name":"alice"}`)
	if err != nil {
		t.Fatal(err)
	}

	got, _, err := svc.GetObject(ctx, o1.ID, fullConsistency())
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata != `{"name":"alice"}` {
		t.Errorf("got metadata %q, want %q", got.Metadata, `{"name":"alice"}`)
	}
}

// Scenario B: creating an object against an unregistered type is
// NOT_FOUND and persists nothing.
func TestScenarioBCreateObjectUnknownType(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, _, err := svc.CreateObject(ctx, "alice", "unknown_42", `{}`)
	if xtypes.CodeOf(err) != xtypes.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

// Scenario C: a -> b via "follows" is fine; b -> a via "follows" would
// close a cycle and must be rejected.
func TestScenarioCCreateEdgeRejectsCycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CreateSchema(ctx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	a, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"a"}`)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"b"}`)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.CreateEdge(ctx, "u", a.ID, "person_1", b.ID, "person_1", "follows", `{}`); err != nil {
		t.Fatal(err)
	}
	_, _, err = svc.CreateEdge(ctx, "u", b.ID, "person_1", a.ID, "person_1", "follows", `{}`)
	if xtypes.CodeOf(err) != xtypes.CodeCycle {
		t.Fatalf("expected CYCLE closing b -> a, got %v", err)
	}
}

// Scenario D: UpdateObject installs a new metadata version without
// disturbing what the original zookie observes.
func TestScenarioDUpdatePreservesHistoricZookie(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CreateSchema(ctx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	o1, z1, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"alice"}`)
	if err != nil {
		t.Fatal(err)
	}
	_, z3, err := svc.UpdateObject(ctx, o1.ID, `{"name":"alice2"}`)
	if err != nil {
		t.Fatal(err)
	}

	atCreate, _, err := svc.GetObject(ctx, o1.ID, exactlyAt(z1))
	if err != nil {
		t.Fatal(err)
	}
	if atCreate.Metadata != `{"name":"alice"}` {
		t.Errorf("exactly_at(z1) should see the original metadata, got %q", atCreate.Metadata)
	}

	atUpdate, _, err := svc.GetObject(ctx, o1.ID, exactlyAt(z3))
	if err != nil {
		t.Fatal(err)
	}
	if atUpdate.Metadata != `{"name":"alice2"}` {
		t.Errorf("exactly_at(z3) should see the updated metadata, got %q", atUpdate.Metadata)
	}
}

// Scenario E: metadata failing the registered schema is VALIDATION_FAILED
// with a violation path pointing at the offending field.
func TestScenarioEValidationFailed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CreateSchema(ctx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	_, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":42}`)
	if xtypes.CodeOf(err) != xtypes.CodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
	ferr, ok := err.(*xtypes.Error)
	if !ok || len(ferr.Violations) == 0 {
		t.Fatal("expected at least one reported violation")
	}
	if ferr.Violations[0].Path != "/name" {
		t.Errorf("expected violation path /name, got %q", ferr.Violations[0].Path)
	}
}

// Testable property 8 (cascade): deleting an object tombstones every
// edge that referenced it.
func TestDeleteObjectCascadesToEdges(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CreateSchema(ctx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	a, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"a"}`)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"b"}`)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.CreateEdge(ctx, "u", a.ID, "person_1", b.ID, "person_1", "follows", `{}`); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.DeleteObject(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	_, _, _, err = svc.GetEdge(ctx, a.ID, "follows", fullConsistency())
	if xtypes.CodeOf(err) != xtypes.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for an edge cascaded away, got %v", err)
	}
}

// GetEdges returns every target reachable via a relation in ascending
// edge-id order, and an empty slice is not an error.
func TestGetEdgesOrdersByEdgeID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CreateSchema(ctx, "person_1", personSchema, ""); err != nil {
		t.Fatal(err)
	}
	a, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"a"}`)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"b"}`)
	if err != nil {
		t.Fatal(err)
	}
	c, _, err := svc.CreateObject(ctx, "u", "person_1", `{"name":"c"}`)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.CreateEdge(ctx, "u", a.ID, "person_1", c.ID, "person_1", "follows", `{}`); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.CreateEdge(ctx, "u", a.ID, "person_1", b.ID, "person_1", "follows", `{}`); err != nil {
		t.Fatal(err)
	}

	targets, _, err := svc.GetEdges(ctx, a.ID, "follows", fullConsistency())
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 || targets[0].ID != c.ID || targets[1].ID != b.ID {
		t.Errorf("expected targets in ascending edge-id order [c, b], got %+v", targets)
	}

	none, _, err := svc.GetEdges(ctx, b.ID, "follows", fullConsistency())
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected an empty, non-error result for a relation with no edges, got %+v", none)
	}
}

func TestCreateSchemaIdempotenceAndConflict(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	id1, err := svc.CreateSchema(ctx, "person_1", personSchema, "")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := svc.CreateSchema(ctx, "person_1", personSchema, "")
	if err != nil {
		t.Fatalf("idempotent re-registration should succeed, got %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected the same schema_id, got %d and %d", id1, id2)
	}

	other := `{"type":"object","properties":{"name":{"type":"number"}}}`
	if _, err := svc.CreateSchema(ctx, "person_1", other, ""); xtypes.CodeOf(err) != xtypes.CodeSchemaConflict {
		t.Fatalf("expected SCHEMA_CONFLICT for a conflicting re-registration, got %v", err)
	}
}
