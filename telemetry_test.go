package graphlet

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphlet/internal/eventbus"
	"github.com/hanpama/graphlet/internal/events"
	"github.com/hanpama/graphlet/internal/reqid"
)

func TestSetupTracing_ActivatesExecutionEvents(t *testing.T) {
	shutdown, err := SetupTracing("", "graphlet-test")
	require.NoError(t, err)
	defer eventbus.Use(nil)

	var (
		mu       sync.Mutex
		starts   []events.OperationStart
		fields   []events.FieldStart
		finishes []events.FieldFinish
		opIDs    []int64
	)
	defer eventbus.Subscribe(func(ctx context.Context, e events.OperationStart) {
		id, ok := reqid.FromContext(ctx)
		require.True(t, ok, "operation events must carry a request id")
		mu.Lock()
		starts = append(starts, e)
		opIDs = append(opIDs, id)
		mu.Unlock()
	})()
	defer eventbus.Subscribe(func(ctx context.Context, e events.FieldStart) {
		mu.Lock()
		fields = append(fields, e)
		mu.Unlock()
	})()
	defer eventbus.Subscribe(func(ctx context.Context, e events.FieldFinish) {
		id, ok := reqid.FromContext(ctx)
		require.True(t, ok)
		mu.Lock()
		finishes = append(finishes, e)
		opIDs = append(opIDs, id)
		mu.Unlock()
	})()

	engine := newTestEngine(t, &Resolvers{
		Fields: map[string]FieldResolver{
			"Query.hello": func(ctx context.Context, source any, args map[string]any) (any, error) {
				return "world", nil
			},
		},
	})
	resp := engine.Do(context.Background(), Request{Query: "query Greet { hello }"})
	require.Empty(t, resp.Errors)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []events.OperationStart{{OperationName: "Greet", OperationType: "query"}}, starts)

	require.Len(t, fields, 1)
	require.Equal(t, "Query", fields[0].ParentType)
	require.Equal(t, "hello", fields[0].Field)

	require.Len(t, finishes, 1)
	require.Equal(t, "hello", finishes[0].Field)
	require.Equal(t, "hello", finishes[0].Path)
	require.NoError(t, finishes[0].Err)

	// the same request id correlates the operation with its fields
	require.Len(t, opIDs, 2)
	require.Equal(t, opIDs[0], opIDs[1])

	require.NoError(t, shutdown(context.Background()))
}

func TestExecutionEvents_SilentWithoutSetup(t *testing.T) {
	eventbus.Use(nil)

	called := false
	defer eventbus.Subscribe(func(ctx context.Context, e events.OperationStart) {
		called = true
	})()

	engine := newTestEngine(t, &Resolvers{
		Fields: map[string]FieldResolver{
			"Query.hello": func(ctx context.Context, source any, args map[string]any) (any, error) {
				return "world", nil
			},
		},
	})
	resp := engine.Do(context.Background(), Request{Query: "{ hello }"})
	require.Empty(t, resp.Errors)
	require.False(t, called)
}
