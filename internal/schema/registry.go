// Package schema implements the Schema Registry (C3): per-type JSON Schema
// storage, draft-7 compilation, and a process-wide reader-writer cache
// keyed by type name, mirroring the teacher's internal/registry package
// but guarding with sync.RWMutex instead of a single exclusive lock
// (spec §5: "reader-writer discipline... There is no global lock").
package schema

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

var typeNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const supportedDraft = "http://json-schema.org/draft-07/schema#"

type compiledSchema struct {
	schemaID  int64
	canonical string
	validator *jsonschema.Schema
}

// Registry is the process-wide schema cache. The zero value is not usable;
// construct with New.
type Registry struct {
	mu    sync.RWMutex
	cache map[string]*compiledSchema
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{cache: make(map[string]*compiledSchema)}
}

// CreateSchema registers a new JSON Schema for typeName, or validates an
// idempotent re-registration. See spec §4.3 for the full contract.
func (r *Registry) CreateSchema(ctx context.Context, tx storage.SchemaStore, typeName, schemaJSON, description string) (int64, error) {
	if !typeNameRe.MatchString(typeName) {
		return 0, xtypes.New(xtypes.CodeInvalidArgument, "type_name %q does not match [A-Za-z_][A-Za-z0-9_]*", typeName)
	}

	canonical, draftRef, err := canonicalizeSchema(schemaJSON)
	if err != nil {
		return 0, xtypes.New(xtypes.CodeInvalidArgument, "schema_json is not valid JSON: %v", err)
	}
	if draftRef != "" && draftRef != supportedDraft {
		return 0, xtypes.New(xtypes.CodeSchemaUnsupported, "unsupported JSON Schema draft %q (only draft-07 is supported)", draftRef)
	}

	existing, found, err := tx.GetSchemaByType(ctx, typeName)
	if err != nil {
		return 0, err
	}
	if found {
		if existing.SchemaRaw == canonical {
			return existing.SchemaID, nil
		}
		return 0, xtypes.New(xtypes.CodeSchemaConflict, "type %q already registered with a different schema", typeName)
	}

	validator, err := compile(typeName, canonical)
	if err != nil {
		return 0, xtypes.New(xtypes.CodeSchemaUnsupported, "schema for %q does not compile: %v", typeName, err)
	}

	id, err := tx.InsertSchema(ctx, xtypes.SchemaRecord{TypeName: typeName, SchemaRaw: canonical})
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.cache[typeName] = &compiledSchema{schemaID: id, canonical: canonical, validator: validator}
	r.mu.Unlock()

	return id, nil
}

// Validate checks metadataJSON against the schema registered for
// typeName. A schema cache miss performs one synchronous lookup through
// tx; the negative case (type never registered) is not cached, per spec.
func (r *Registry) Validate(ctx context.Context, tx storage.SchemaStore, typeName, metadataJSON string) error {
	cs, err := r.lookup(ctx, tx, typeName)
	if err != nil {
		return err
	}
	if cs == nil {
		return xtypes.NotFound("type %q is not registered", typeName)
	}

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(metadataJSON))
	if err != nil {
		return xtypes.New(xtypes.CodeInvalidArgument, "metadata is not valid JSON: %v", err)
	}
	if err := cs.validator.Validate(inst); err != nil {
		return xtypes.ValidationFailed(flattenViolations(err))
	}
	return nil
}

func (r *Registry) lookup(ctx context.Context, tx storage.SchemaStore, typeName string) (*compiledSchema, error) {
	r.mu.RLock()
	cs, ok := r.cache[typeName]
	r.mu.RUnlock()
	if ok {
		return cs, nil
	}

	rec, found, err := tx.GetSchemaByType(ctx, typeName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	validator, err := compile(typeName, rec.SchemaRaw)
	if err != nil {
		return nil, xtypes.New(xtypes.CodeInternal, "cached schema for %q no longer compiles: %v", typeName, err)
	}
	cs = &compiledSchema{schemaID: rec.SchemaID, canonical: rec.SchemaRaw, validator: validator}

	r.mu.Lock()
	r.cache[typeName] = cs
	r.mu.Unlock()
	return cs, nil
}

// Invalidate drops the cached validator for typeName, so the next
// Validate reloads it through storage. CreateSchema does not call it; it
// updates the cache directly.
func (r *Registry) Invalidate(typeName string) {
	r.mu.Lock()
	delete(r.cache, typeName)
	r.mu.Unlock()
}

func compile(typeName, canonical string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(canonical))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	url := "mem://ligature/" + typeName
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// canonicalizeSchema parses schemaJSON, verifies it is a JSON object, and
// returns its canonical (stable key order) form plus the declared
// $schema draft reference, if any.
func canonicalizeSchema(schemaJSON string) (canonical string, draftRef string, err error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return "", "", err
	}
	if ref, ok := doc["$schema"].(string); ok {
		draftRef = ref
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", "", err
	}
	return string(out), draftRef, nil
}

// flattenViolations walks a jsonschema.ValidationError tree into the flat
// violation list spec §4.3 requires ("structured list of schema
// violations").
func flattenViolations(err error) []xtypes.Violation {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []xtypes.Violation{{Path: "/", Message: err.Error()}}
	}
	var out []xtypes.Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := "/" + strings.Join(e.InstanceLocation, "/")
			out = append(out, xtypes.Violation{Path: path, Message: e.Error()})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return out
}
