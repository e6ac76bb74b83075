// Package consistency implements the Consistency Resolver (C6): turning a
// ConsistencyRequirement into a concrete read snapshot.
package consistency

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ligaturedb/ligature/internal/oracle"
	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// Resolver turns each of the four ConsistencyRequirement variants (spec
// §4.6) into a concrete Snapshot, plus the zookie encoding of that
// snapshot so callers can chain further reads.
type Resolver struct {
	orc *oracle.Oracle

	mu           sync.Mutex
	lastObserved xtypes.Snapshot
	hasObserved  bool
}

// New constructs a Resolver bound to the given Oracle.
func New(orc *oracle.Oracle) *Resolver {
	return &Resolver{orc: orc}
}

// Resolve returns the snapshot to read at, and its zookie encoding, for
// req. tx provides the current snapshot and resolves AtXid zookies.
// deadline bounds how long at_least_as_fresh may wait for the backend to
// catch up; it must be non-zero.
func (r *Resolver) Resolve(ctx context.Context, tx storage.Tx, req xtypes.ConsistencyRequirement, deadline time.Time) (xtypes.Snapshot, string, error) {
	var snap xtypes.Snapshot
	var err error

	switch req.Kind {
	case xtypes.FullConsistency:
		snap, err = tx.Snapshot(ctx)
		if err != nil {
			return xtypes.Snapshot{}, "", err
		}

	case xtypes.ExactlyAt:
		snap, err = oracle.Decode(ctx, r.orc, tx, req.Zookie)
		if err != nil {
			return xtypes.Snapshot{}, "", err
		}

	case xtypes.AtLeastAsFresh:
		want, decErr := oracle.Decode(ctx, r.orc, tx, req.Zookie)
		if decErr != nil {
			return xtypes.Snapshot{}, "", decErr
		}
		snap, err = r.waitForFreshness(ctx, tx, want, deadline)
		if err != nil {
			return xtypes.Snapshot{}, "", err
		}

	case xtypes.MinimizeLatency:
		snap = r.cached()
		if snap.Xmax == 0 {
			snap, err = tx.Snapshot(ctx)
			if err != nil {
				return xtypes.Snapshot{}, "", err
			}
		}

	default:
		return xtypes.Snapshot{}, "", xtypes.New(xtypes.CodeInvalidArgument, "unknown consistency requirement variant")
	}

	r.observe(snap)
	return snap, r.orc.EncodeSnapshot(snap), nil
}

// waitForFreshness polls tx's current snapshot until it dominates want or
// deadline passes, in which case it returns STALE_UNAVAILABLE rather than
// a context-cancellation error (spec §5).
func (r *Resolver) waitForFreshness(ctx context.Context, tx storage.Tx, want xtypes.Snapshot, deadline time.Time) (xtypes.Snapshot, error) {
	var chosen xtypes.Snapshot

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Millisecond
	bo.MaxInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = time.Until(deadline)
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = time.Millisecond
	}

	op := func() error {
		cur, err := tx.Snapshot(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if cur.Dominates(want) {
			chosen = cur
			return nil
		}
		return xtypes.New(xtypes.CodeStaleUnavailable, "backend has not yet advanced to the requested snapshot")
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if perm, ok := err.(*xtypes.Error); ok && perm.Code != xtypes.CodeStaleUnavailable {
			return xtypes.Snapshot{}, perm
		}
		return xtypes.Snapshot{}, xtypes.New(xtypes.CodeStaleUnavailable, "at_least_as_fresh deadline exceeded before the backend advanced")
	}
	return chosen, nil
}

func (r *Resolver) observe(snap xtypes.Snapshot) {
	r.mu.Lock()
	r.lastObserved = snap
	r.hasObserved = true
	r.mu.Unlock()
}

func (r *Resolver) cached() xtypes.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasObserved {
		return xtypes.Snapshot{}
	}
	return r.lastObserved
}
