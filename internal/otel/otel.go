// Package otel wires OpenTelemetry tracing to the executor's event stream.
package otel

import (
	"context"
	"sync"
	"time"

	eventbus "github.com/hanpama/graphlet/internal/eventbus"
	events "github.com/hanpama/graphlet/internal/events"
	reqid "github.com/hanpama/graphlet/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("graphlet")}
	sub.register()

	return tp.Shutdown, nil
}

// subscriber maps executor events to spans. Operation spans are kept open
// across the start/finish pair, keyed by the request ID; field spans are
// recorded at finish time with a back-dated start, so no per-field state is
// held while resolvers run.
type subscriber struct {
	tracer  trace.Tracer
	opSpans sync.Map // rid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.OperationStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "graphql.execute")
		span.SetAttributes(
			attribute.String("graphql.operation.name", e.OperationName),
			attribute.String("graphql.operation.type", e.OperationType),
		)
		s.opSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.OperationFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.opSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("graphql.error.count", e.ErrorCount))
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.FieldFinish) {
		rid, _ := reqid.FromContext(ctx)
		parent := ctx
		if v, ok := s.opSpans.Load(rid); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "graphql.resolve",
			trace.WithTimestamp(time.Now().Add(-e.Duration)))
		span.SetAttributes(
			attribute.String("graphql.field.parent", e.ParentType),
			attribute.String("graphql.field.name", e.Field),
			attribute.String("graphql.field.path", e.Path),
		)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SubscriptionEvent) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.opSpans.Load(rid); ok {
			v.(trace.Span).AddEvent("graphql.subscription.event",
				trace.WithAttributes(attribute.Int("graphql.subscription.seq", e.Seq)))
		}
	})
}
