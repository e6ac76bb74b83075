// Package graph implements the Graph API (C7): the externally visible
// operation set from spec §6, composing the Schema Registry, Object
// Store, Edge Store, and Consistency Resolver into single backend
// transactions. This is the boundary a transport layer (gRPC, DRPC, or
// otherwise — out of scope here) calls into; see SPEC_FULL.md §4.7.
package graph

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ligaturedb/ligature/internal/consistency"
	"github.com/ligaturedb/ligature/internal/edgestore"
	"github.com/ligaturedb/ligature/internal/objectstore"
	"github.com/ligaturedb/ligature/internal/oracle"
	"github.com/ligaturedb/ligature/internal/schema"
	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// tracer and retryCount follow the global-delegating-provider pattern:
// usable immediately, forwarding to a real exporter only once obs.Init
// has installed one.
var tracer = otel.Tracer("github.com/ligaturedb/ligature/internal/graph")

var retryCount metric.Int64Counter

func init() {
	m := otel.Meter("github.com/ligaturedb/ligature/internal/graph")
	retryCount, _ = m.Int64Counter("ligature.tx.retry_count",
		metric.WithDescription("backend transactions retried after a transient error"),
		metric.WithUnit("{retry}"),
	)
}

// defaultDeadline bounds at_least_as_fresh waits when the caller's
// context carries no deadline of its own. The withTx retry loop is
// bounded by maxRetries, not by this deadline.
const defaultDeadline = 2 * time.Second

const maxRetries = 5

// Service is the Graph API. All mutating operations attach the zookie of
// their own write to the response, per spec §4.7.
type Service struct {
	Backend  storage.Backend
	Registry *schema.Registry
	Oracle   *oracle.Oracle
	Objects  *objectstore.Store
	Edges    *edgestore.Store
	Resolver *consistency.Resolver
}

// NewService wires a Service from its constituent components, following
// the same one-backend/one-registry/one-oracle composition the process
// entrypoint (cmd/ligd) assembles at startup.
func NewService(backend storage.Backend, secret []byte) *Service {
	orc := oracle.New(secret)
	reg := schema.New()
	return &Service{
		Backend:  backend,
		Registry: reg,
		Oracle:   orc,
		Objects:  objectstore.New(reg, orc),
		Edges:    edgestore.New(orc),
		Resolver: consistency.New(orc),
	}
}

func deadlineFrom(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(defaultDeadline)
}

// withTx runs fn inside one backend transaction, committing on success
// and rolling back on any error; transient backend errors are retried
// with exponential backoff up to maxRetries, per spec §7. NOT_FOUND,
// VALIDATION_FAILED, TYPE_MISMATCH, CYCLE, SCHEMA_CONFLICT, and
// ALREADY_EXISTS are never retried.
func withTx[T any](ctx context.Context, backend storage.Backend, fn func(tx storage.Tx) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "graph.withTx", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	var zero T
	var result T

	attempt := 0
	op := func() error {
		attempt++
		tx, err := backend.Begin(ctx)
		if err != nil {
			return err
		}

		result, err = fn(tx)
		if err != nil {
			_ = tx.Rollback(ctx)
			if !xtypes.Retryable(err) || attempt >= maxRetries {
				return backoff.Permanent(err)
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			if !xtypes.Retryable(err) || attempt >= maxRetries {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries-1)
	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	if attempt > 1 {
		retryCount.Add(ctx, int64(attempt-1))
		span.SetAttributes(attribute.Int("ligature.tx.attempts", attempt))
	}
	if err != nil {
		var final error = err
		if perm, ok := err.(*backoff.PermanentError); ok {
			final = perm.Err
		}
		span.RecordError(final)
		span.SetStatus(codes.Error, final.Error())
		return zero, final
	}
	return result, nil
}
