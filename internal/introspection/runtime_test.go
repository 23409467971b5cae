package introspection

import (
	"context"
	"testing"

	executor "github.com/hanpama/graphlet/internal/executor"
	language "github.com/hanpama/graphlet/internal/language"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// noopRuntime implements executor.Runtime with no behaviour.
type noopRuntime struct{}

func (noopRuntime) ResolveField(context.Context, *executor.ResolveInfo, any, map[string]any) (any, error) {
	return nil, nil
}

func (noopRuntime) SubscribeField(context.Context, *executor.ResolveInfo, any, map[string]any) (<-chan any, error) {
	return nil, nil
}

func (noopRuntime) ResolveType(context.Context, string, any) (string, error) {
	return "", executor.ErrNoTypeResolver
}

func (noopRuntime) IsTypeOf(context.Context, string, any) bool { return false }

func (noopRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func (noopRuntime) ParseLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

const testSDL = `
type Query {
  hero(limit: Int = 3): Character
}

interface Character {
  name: String!
}

type Human implements Character {
  name: String!
  home: String
}

type Droid implements Character {
  name: String!
  primaryFunction: String @deprecated(reason: "renamed")
}
`

func buildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	src, err := language.LoadSchema("test.graphql", testSDL)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return schema.FromAST(src)
}

func execute(t *testing.T, query string) *executor.ExecutionResult {
	t.Helper()
	wrapper := Wrap(noopRuntime{}, buildSchema(t))
	exec := executor.NewExecutor(wrapper.Runtime, wrapper.Schema)
	doc, err := language.ParseQuery(query)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	return res
}

func field(t *testing.T, v any, key string) any {
	t.Helper()
	m, ok := v.(*executor.OrderedMap)
	if !ok {
		t.Fatalf("expected object at %q, got %T", key, v)
	}
	out, ok := m.Get(key)
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	return out
}

func TestSchemaField_RootTypes(t *testing.T) {
	res := execute(t, "{ __schema { queryType { name kind } mutationType { name } } }")

	schemaData := field(t, res.Data, "__schema")
	queryType := field(t, schemaData, "queryType")
	if got := field(t, queryType, "name"); got != "Query" {
		t.Fatalf("queryType.name = %v", got)
	}
	if got := field(t, queryType, "kind"); got != "OBJECT" {
		t.Fatalf("queryType.kind = %v", got)
	}
	if got := field(t, schemaData, "mutationType"); got != nil {
		t.Fatalf("mutationType = %v, want null", got)
	}
}

func TestTypeField_ObjectShape(t *testing.T) {
	res := execute(t, `{ __type(name: "Human") {
		kind name
		fields { name type { kind name ofType { name } } }
		interfaces { name }
	} }`)

	typ := field(t, res.Data, "__type")
	if got := field(t, typ, "kind"); got != "OBJECT" {
		t.Fatalf("kind = %v", got)
	}
	if got := field(t, typ, "name"); got != "Human" {
		t.Fatalf("name = %v", got)
	}

	fields := field(t, typ, "fields").([]any)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	nameField := fields[0]
	if got := field(t, nameField, "name"); got != "name" {
		t.Fatalf("fields[0].name = %v", got)
	}
	nameType := field(t, nameField, "type")
	if got := field(t, nameType, "kind"); got != "NON_NULL" {
		t.Fatalf("fields[0].type.kind = %v", got)
	}
	inner := field(t, nameType, "ofType")
	if got := field(t, inner, "name"); got != "String" {
		t.Fatalf("fields[0].type.ofType.name = %v", got)
	}

	interfaces := field(t, typ, "interfaces").([]any)
	if len(interfaces) != 1 {
		t.Fatalf("expected 1 interface, got %d", len(interfaces))
	}
	if got := field(t, interfaces[0], "name"); got != "Character" {
		t.Fatalf("interfaces[0].name = %v", got)
	}
}

func TestTypeField_InterfacePossibleTypes(t *testing.T) {
	res := execute(t, `{ __type(name: "Character") { possibleTypes { name } } }`)

	typ := field(t, res.Data, "__type")
	possible := field(t, typ, "possibleTypes").([]any)
	var names []string
	for _, p := range possible {
		names = append(names, field(t, p, "name").(string))
	}
	if len(names) != 2 || names[0] != "Human" || names[1] != "Droid" {
		t.Fatalf("possibleTypes = %v", names)
	}
}

func TestTypeField_DeprecatedFieldsAreFilteredByDefault(t *testing.T) {
	res := execute(t, `{ __type(name: "Droid") {
		visible: fields { name }
		all: fields(includeDeprecated: true) { name deprecationReason }
	} }`)

	typ := field(t, res.Data, "__type")
	visible := field(t, typ, "visible").([]any)
	if len(visible) != 1 {
		t.Fatalf("expected 1 non-deprecated field, got %d", len(visible))
	}
	all := field(t, typ, "all").([]any)
	if len(all) != 2 {
		t.Fatalf("expected 2 fields with deprecated included, got %d", len(all))
	}
	if got := field(t, all[1], "deprecationReason"); got != "renamed" {
		t.Fatalf("deprecationReason = %v", got)
	}
}

func TestTypeField_ArgumentDefaults(t *testing.T) {
	res := execute(t, `{ __type(name: "Query") {
		fields { name args { name defaultValue } }
	} }`)

	typ := field(t, res.Data, "__type")
	fields := field(t, typ, "fields").([]any)
	args := field(t, fields[0], "args").([]any)
	if len(args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(args))
	}
	if got := field(t, args[0], "defaultValue"); got != "3" {
		t.Fatalf("defaultValue = %v", got)
	}
}

func TestTypeField_UnknownTypeIsNull(t *testing.T) {
	res := execute(t, `{ __type(name: "Nope") { name } }`)

	if got := field(t, res.Data, "__type"); got != nil {
		t.Fatalf("__type = %v, want null", got)
	}
}

func TestSchemaField_DirectivesIncludeBuiltins(t *testing.T) {
	res := execute(t, `{ __schema { directives { name } } }`)

	schemaData := field(t, res.Data, "__schema")
	directives := field(t, schemaData, "directives").([]any)
	found := map[string]bool{}
	for _, d := range directives {
		found[field(t, d, "name").(string)] = true
	}
	for _, name := range []string{"skip", "include", "deprecated"} {
		if !found[name] {
			t.Fatalf("builtin directive %q missing from __schema.directives", name)
		}
	}
}

func TestNonIntrospectionFields_DelegateToBaseRuntime(t *testing.T) {
	res := execute(t, `{ hero { __typename } }`)

	// noopRuntime resolves hero to nil
	if got := field(t, res.Data, "hero"); got != nil {
		t.Fatalf("hero = %v, want null", got)
	}
}
