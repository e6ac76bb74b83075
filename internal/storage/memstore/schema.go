package memstore

import (
	"context"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// InsertSchema implements storage.SchemaStore.
func (t *tx) InsertSchema(ctx context.Context, rec xtypes.SchemaRecord) (int64, error) {
	b := t.backend
	b.mu.Lock()
	b.schemaSeq++
	id := b.schemaSeq
	b.mu.Unlock()

	rec.SchemaID = id
	t.pendingSchemas = append(t.pendingSchemas, rec)
	return id, nil
}

// GetSchemaByType implements storage.SchemaStore. It also consults this
// transaction's own pending writes so a CreateSchema followed by a read
// within the same request observes its own insert.
func (t *tx) GetSchemaByType(ctx context.Context, typeName string) (xtypes.SchemaRecord, bool, error) {
	for i := len(t.pendingSchemas) - 1; i >= 0; i-- {
		if t.pendingSchemas[i].TypeName == typeName {
			return t.pendingSchemas[i], true, nil
		}
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.schemasByType[typeName]
	return rec, ok, nil
}
