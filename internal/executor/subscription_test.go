package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/graphlet/internal/schema"
)

var (
	errEven         = errors.New("even tick")
	errBrokenStream = errors.New("stream unavailable")
)

func subscriptionSchema() *schema.Schema {
	sch := schema.NewSchema("")
	sch.SetSubscriptionType("Subscription")
	sch.AddType(newObjectType("Subscription",
		&schema.Field{Name: "tick", Type: schema.NamedType("Int")},
		&schema.Field{Name: "tock", Type: schema.NamedType("Int")},
	))
	return sch
}

func collectResults(t *testing.T, ch <-chan *ExecutionResult, n int) []*ExecutionResult {
	t.Helper()
	var out []*ExecutionResult
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case r, ok := <-ch:
			if !ok {
				t.Fatalf("result channel closed after %d of %d results", len(out), n)
			}
			out = append(out, r)
		case <-timeout:
			t.Fatalf("timed out after %d of %d results", len(out), n)
		}
	}
	return out
}

func TestSubscribe_OneResultPerSourceEvent(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Subscription.tick": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return source, nil
		},
	})
	rt.SetSubscriber("Subscription", "tick", func(ctx context.Context, source any, args map[string]any) (<-chan any, error) {
		ch := make(chan any, 2)
		ch <- 1
		ch <- 2
		close(ch)
		return ch, nil
	})
	exec := NewExecutor(rt, subscriptionSchema())
	doc := mustParseQuery(t, "subscription { tick }")

	results := exec.Subscribe(context.Background(), doc, "", nil, nil)

	got := collectResults(t, results, 2)
	want := []*ExecutionResult{
		{Data: om("tick", 1), Errors: []GraphQLError{}},
		{Data: om("tick", 2), Errors: []GraphQLError{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	if _, ok := <-results; ok {
		t.Fatal("result channel should close when the source stream ends")
	}
}

func TestSubscribe_EventErrors_StayPerResult(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Subscription.tick": func(ctx context.Context, source any, args map[string]any) (any, error) {
			if n := source.(int); n%2 == 0 {
				return nil, errEven
			}
			return source, nil
		},
	})
	rt.SetSubscriber("Subscription", "tick", func(ctx context.Context, source any, args map[string]any) (<-chan any, error) {
		ch := make(chan any, 2)
		ch <- 1
		ch <- 2
		close(ch)
		return ch, nil
	})
	exec := NewExecutor(rt, subscriptionSchema())
	doc := mustParseQuery(t, "subscription { tick }")

	results := exec.Subscribe(context.Background(), doc, "", nil, nil)

	got := collectResults(t, results, 2)
	want := []*ExecutionResult{
		{Data: om("tick", 1), Errors: []GraphQLError{}},
		{Data: om("tick", nil), Errors: []GraphQLError{{Message: "even tick", Path: Path{"tick"}}}},
	}
	if diff := cmp.Diff(want, got, ignoreLocations); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe_NonSubscriptionOperation_Fails(t *testing.T) {
	sch := subscriptionSchema()
	sch.SetQueryType("Query")
	sch.AddType(newObjectType("Query", &schema.Field{Name: "a", Type: schema.NamedType("String")}))
	exec := NewExecutor(NewMockRuntime(nil), sch)
	doc := mustParseQuery(t, "{ a }")

	results := exec.Subscribe(context.Background(), doc, "", nil, nil)

	got := collectResults(t, results, 1)
	want := []*ExecutionResult{
		{Errors: []GraphQLError{{Message: "operation is not a subscription"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe_MultipleRootFields_Fails(t *testing.T) {
	exec := NewExecutor(NewMockRuntime(nil), subscriptionSchema())
	doc := mustParseQuery(t, "subscription { tick tock }")

	results := exec.Subscribe(context.Background(), doc, "", nil, nil)

	got := collectResults(t, results, 1)
	want := []*ExecutionResult{
		{Errors: []GraphQLError{{Message: "subscription operations must select exactly one root field"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe_SubscriberFailure_Fails(t *testing.T) {
	rt := NewMockRuntime(nil)
	rt.SetSubscriber("Subscription", "tick", func(ctx context.Context, source any, args map[string]any) (<-chan any, error) {
		return nil, errBrokenStream
	})
	exec := NewExecutor(rt, subscriptionSchema())
	doc := mustParseQuery(t, "subscription { tick }")

	results := exec.Subscribe(context.Background(), doc, "", nil, nil)

	got := collectResults(t, results, 1)
	want := []*ExecutionResult{
		{Errors: []GraphQLError{{Message: "stream unavailable", Path: Path{"tick"}}}},
	}
	if diff := cmp.Diff(want, got, ignoreLocations); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe_CancelledContext_ClosesResultChannel(t *testing.T) {
	rt := NewMockRuntime(nil)
	rt.SetSubscriber("Subscription", "tick", func(ctx context.Context, source any, args map[string]any) (<-chan any, error) {
		return make(chan any), nil
	})
	exec := NewExecutor(rt, subscriptionSchema())
	doc := mustParseQuery(t, "subscription { tick }")

	ctx, cancel := context.WithCancel(context.Background())
	results := exec.Subscribe(ctx, doc, "", nil, nil)
	cancel()

	select {
	case _, ok := <-results:
		if ok {
			t.Fatal("expected no results after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("result channel did not close after cancellation")
	}
}
