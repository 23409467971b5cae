package graphlet

import (
	"context"

	"github.com/hanpama/graphlet/internal/eventbus"
	"github.com/hanpama/graphlet/internal/otel"
)

// SetupTracing activates the execution event stream and, when endpoint is
// non-empty, exports spans for it to the given OTLP gRPC collector under the
// given service name. Until it is called, engines publish no events.
//
// Each operation becomes one span, with a child span per resolved field; the
// operation spans of a process share a single tracer provider, so SetupTracing
// is called once, not per engine. The returned shutdown flushes buffered
// spans.
func SetupTracing(endpoint, service string) (shutdown func(context.Context) error, err error) {
	eventbus.Use(eventbus.New())
	return otel.Setup(endpoint, service)
}
