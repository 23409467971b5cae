package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/graphlet/internal/schema"
)

func TestCollect_SkipAndInclude_EvaluateAgainstVariables(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		&schema.Field{Name: "a", Type: schema.NamedType("String")},
		&schema.Field{Name: "b", Type: schema.NamedType("String")},
		&schema.Field{Name: "c", Type: schema.NamedType("String")},
		&schema.Field{Name: "d", Type: schema.NamedType("String")},
	))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
		"Query.c": NewMockValueResolver("C"),
		"Query.d": NewMockValueResolver("D"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, `query ($yes: Boolean!, $no: Boolean!) {
		a @include(if: $yes)
		b @skip(if: $yes)
		c @include(if: $no)
		d
	}`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"yes": true, "no": false}, nil)

	wantRes := &ExecutionResult{Data: om("a", "A", "d", "D"), Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []Call{
		{ParentType: "Query", Field: "a", Source: nil, Args: map[string]any{}},
		{ParentType: "Query", Field: "d", Source: nil, Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, rt.SortedCalls()); diff != "" {
		t.Fatalf("runtime calls mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_FragmentSpread_AppliesOncePerResponse(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		&schema.Field{Name: "a", Type: schema.NamedType("String")},
	))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ ...F ...F } fragment F on Query { a }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{Data: om("a", "A"), Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	if n := len(rt.GetCalls()); n != 1 {
		t.Fatalf("expected a single resolver call, got %d", n)
	}
}

func TestCollect_InlineFragment_TypeConditionMustMatch(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", &schema.Field{Name: "obj", Type: schema.NamedType("Obj")}),
		newObjectType("Obj",
			&schema.Field{Name: "x", Type: schema.NamedType("String")},
		),
		newObjectType("Other",
			&schema.Field{Name: "y", Type: schema.NamedType("String")},
		),
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.obj": NewMockValueResolver(map[string]any{}),
		"Obj.x":     NewMockValueResolver("X"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ obj { ... on Obj { x } ... on Other { y } } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{Data: om("obj", om("x", "X")), Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_InterfaceFragment_CollectsOnImplementingType(t *testing.T) {
	iface := schema.NewType("Named", schema.TypeKindInterface, "")
	iface.AddField(&schema.Field{Name: "name", Type: schema.NamedType("String")})
	iface.AddPossibleType("Obj")

	obj := newObjectType("Obj",
		&schema.Field{Name: "name", Type: schema.NamedType("String")},
		&schema.Field{Name: "extra", Type: schema.NamedType("String")},
	)
	obj.AddInterface("Named")

	sch := newSchemaWithQueryType(
		newObjectType("Query", &schema.Field{Name: "obj", Type: schema.NamedType("Obj")}),
		iface, obj,
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.obj": NewMockValueResolver(map[string]any{}),
		"Obj.name":  NewMockValueResolver("N"),
		"Obj.extra": NewMockValueResolver("E"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ obj { ... on Named { name } extra } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{Data: om("obj", om("name", "N", "extra", "E")), Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_Typename_ResolvesWithoutRuntime(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		&schema.Field{Name: "a", Type: schema.NamedType("String")},
	))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ __typename a }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{Data: om("__typename", "Query", "a", "A"), Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	if n := len(rt.GetCalls()); n != 1 {
		t.Fatalf("expected a single resolver call, got %d", n)
	}
}
