// Package factory selects and opens a storage.Backend from a connection
// string, mirroring the teacher's internal/storage/factory registry
// pattern (RegisterBackend/New) but scoped to the two backends this
// system ships: an in-memory store for embedded/test use and PostgreSQL
// for production (spec §9, Open Question OQ-1).
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/storage/memstore"
	"github.com/ligaturedb/ligature/internal/storage/pgstore"
)

const (
	schemeMemory   = "memory://"
	schemePostgres = "postgres://"
)

// Open parses dsn's scheme and opens the matching backend:
//   - "memory://" (any suffix, ignored) opens a fresh in-memory backend.
//   - "postgres://..." opens a PostgreSQL backend at that DSN.
func Open(ctx context.Context, dsn string) (storage.Backend, error) {
	switch {
	case dsn == "" || strings.HasPrefix(dsn, schemeMemory):
		return memstore.New(), nil
	case strings.HasPrefix(dsn, schemePostgres):
		return pgstore.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage backend DSN %q (expected memory:// or postgres://)", dsn)
	}
}
