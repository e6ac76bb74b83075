// Package obs wires the OpenTelemetry SDK into the process: a
// TracerProvider and MeterProvider registered as OTel's global providers,
// the same global-delegating-provider pattern the teacher uses ("a no-op
// until telemetry.Init() has been called", internal/storage/dolt/store.go)
// so packages can grab a Tracer/Meter at init time before Init runs.
package obs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Shutdown flushes and releases the providers Init installed.
type Shutdown func(ctx context.Context) error

// Init installs a TracerProvider and MeterProvider tagged with
// serviceName as OTel's global providers. Neither is wired to a concrete
// exporter here — this process exports no spans or metrics out of the
// box — but every instrument and span created against the global
// providers becomes live the moment a caller adds a real exporter via
// sdktrace.WithSpanProcessor / sdkmetric.WithReader.
func Init(serviceName string) (Shutdown, error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return mp.Shutdown(ctx)
	}, nil
}
