package pgstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

// tx wraps one serializable *sql.Tx. Unlike memstore, writes go straight
// to the database rows as they happen; PostgreSQL's own transaction
// isolation is what makes Rollback discard them, including the
// ligature_transactions row an Allocate call inserts.
type tx struct {
	backend *Backend
	sqlTx   *sql.Tx
	done    bool

	allocated []xtypes.XID
}

// Allocate implements storage.Tx. The counter row is locked with
// SELECT ... FOR UPDATE so concurrent Allocate calls from other
// transactions block until this one resolves, giving the serializable
// semantics spec §4.1 requires. The in-flight set is captured and
// persisted into the new TransactionRecord at allocation time, per spec
// §4.2 ("Immediately after allocation within the same transaction,
// persists a TransactionRecord") — ResolveTransaction later replays this
// stored set rather than reconstructing it from live transaction status.
func (t *tx) Allocate(ctx context.Context, metadata string) (xtypes.XID, xtypes.Snapshot, error) {
	var xid xtypes.XID
	if err := t.sqlTx.QueryRowContext(ctx,
		`SELECT next_xid FROM ligature_xid_counter WHERE id = 1 FOR UPDATE`,
	).Scan(&xid); err != nil {
		return 0, xtypes.Snapshot{}, err
	}
	if _, err := t.sqlTx.ExecContext(ctx,
		`UPDATE ligature_xid_counter SET next_xid = next_xid + 1 WHERE id = 1`,
	); err != nil {
		return 0, xtypes.Snapshot{}, err
	}

	preSnap, err := readSnapshot(ctx, t.sqlTx)
	if err != nil {
		return 0, xtypes.Snapshot{}, err
	}
	inFlight := preSnap.InFlight

	if _, err := t.sqlTx.ExecContext(ctx,
		`INSERT INTO ligature_transactions (xid, status, wall, metadata, in_flight) VALUES ($1, 'in_progress', $2, $3, $4)`,
		xid, time.Now().UTC(), metadata, encodeInFlight(inFlight),
	); err != nil {
		return 0, xtypes.Snapshot{}, err
	}

	t.allocated = append(t.allocated, xid)

	// snapshot_at_commit: the snapshot this write will have once the
	// transaction resolves, i.e. xid itself is no longer in-flight.
	commitSnap := xtypes.Snapshot{Xmin: 1, Xmax: xid + 1, InFlight: inFlight}
	return xid, commitSnap, nil
}

// Snapshot implements storage.Tx.
func (t *tx) Snapshot(ctx context.Context) (xtypes.Snapshot, error) {
	return readSnapshot(ctx, t.sqlTx)
}

// ResolveTransaction implements storage.Tx: replays the TransactionRecord
// persisted by Allocate, including its in-flight set, rather than
// re-deriving visibility from current transaction status.
func (t *tx) ResolveTransaction(ctx context.Context, xid xtypes.XID) (xtypes.TransactionRecord, error) {
	var rec xtypes.TransactionRecord
	rec.XID = xid
	var inFlightRaw string
	row := t.sqlTx.QueryRowContext(ctx,
		`SELECT wall, metadata, in_flight FROM ligature_transactions WHERE xid = $1`, xid)
	if err := row.Scan(&rec.Wall, &rec.Metadata, &inFlightRaw); err != nil {
		if err == sql.ErrNoRows {
			return xtypes.TransactionRecord{}, xtypes.NotFound("no transaction record for xid %d", xid)
		}
		return xtypes.TransactionRecord{}, err
	}
	inFlight, err := decodeInFlight(inFlightRaw)
	if err != nil {
		return xtypes.TransactionRecord{}, xtypes.New(xtypes.CodeInternal, "corrupt in_flight column for xid %d: %v", xid, err)
	}
	rec.Snapshot = xtypes.Snapshot{Xmin: 1, Xmax: xid + 1, InFlight: inFlight}
	return rec, nil
}

// encodeInFlight renders an in-flight xid set as a comma-separated list
// for storage in the in_flight text column.
func encodeInFlight(xids []xtypes.XID) string {
	if len(xids) == 0 {
		return ""
	}
	parts := make([]string, len(xids))
	for i, xid := range xids {
		parts[i] = strconv.FormatUint(uint64(xid), 10)
	}
	return strings.Join(parts, ",")
}

// decodeInFlight parses the comma-separated form encodeInFlight produces.
func decodeInFlight(raw string) ([]xtypes.XID, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]xtypes.XID, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = xtypes.XID(v)
	}
	return out, nil
}

// Commit implements storage.Tx: marks every xid this transaction
// allocated as committed, then commits the underlying SQL transaction.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return xtypes.New(xtypes.CodeInternal, "transaction already resolved")
	}
	t.done = true
	for _, xid := range t.allocated {
		if _, err := t.sqlTx.ExecContext(ctx,
			`UPDATE ligature_transactions SET status = 'committed' WHERE xid = $1`, xid,
		); err != nil {
			_ = t.sqlTx.Rollback()
			return err
		}
	}
	return t.sqlTx.Commit()
}

// Rollback implements storage.Tx.
func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.sqlTx.Rollback()
}
