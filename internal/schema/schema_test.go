package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphlet/internal/language"
)

const testSDL = `
"Service schema"
schema {
  query: Query
  mutation: Mutation
}

type Query {
  node(id: ID!): Node
  pets: [Pet!]
  search(filter: Filter = {limit: 10}): [Node!]
}

type Mutation {
  touch(id: ID!): Node
}

interface Node {
  id: ID!
}

interface Pet implements Node {
  id: ID!
  name: String!
}

type Dog implements Pet & Node {
  id: ID!
  name: String!
  barks: Boolean!
}

type Cat implements Pet & Node {
  id: ID!
  name: String!
  purrs: Boolean!
}

union Companion = Dog | Cat

enum Mood {
  HAPPY
  GRUMPY @deprecated(reason: "no grumpy pets")
}

input Filter @oneOf {
  limit: Int
  name: String
}

scalar Instant @specifiedBy(url: "https://example.com/instant")
`

func mustBuildSchema(t *testing.T, sdl string) *Schema {
	t.Helper()
	src, err := language.LoadSchema("schema.graphql", sdl)
	require.NoError(t, err, "failed to load SDL")
	return FromAST(src)
}

func TestFromAST_RootTypesAndKinds(t *testing.T) {
	sch := mustBuildSchema(t, testSDL)

	require.Equal(t, "Query", sch.QueryType)
	require.Equal(t, "Mutation", sch.MutationType)
	require.Empty(t, sch.SubscriptionType)

	kinds := map[string]TypeKind{
		"Dog":       TypeKindObject,
		"Pet":       TypeKindInterface,
		"Companion": TypeKindUnion,
		"Mood":      TypeKindEnum,
		"Filter":    TypeKindInputObject,
		"Instant":   TypeKindScalar,
		"String":    TypeKindScalar,
	}
	for name, kind := range kinds {
		typ := sch.Types[name]
		require.NotNil(t, typ, "type %s missing", name)
		require.Equal(t, kind, typ.Kind, "type %s", name)
	}
}

func TestFromAST_FieldAndArgumentShapes(t *testing.T) {
	sch := mustBuildSchema(t, testSDL)

	node := sch.Types["Query"].Field("node")
	require.NotNil(t, node)
	require.Equal(t, "Node", node.Type.String())
	id := node.Argument("id")
	require.NotNil(t, id)
	require.Equal(t, "ID!", id.Type.String())

	pets := sch.Types["Query"].Field("pets")
	require.NotNil(t, pets)
	require.Equal(t, "[Pet!]", pets.Type.String())

	search := sch.Types["Query"].Field("search")
	require.NotNil(t, search)
	filter := search.Argument("filter")
	require.NotNil(t, filter)
	require.True(t, filter.HasDefault)
	require.Equal(t, map[string]any{"limit": int64(10)}, filter.DefaultValue)
}

func TestFromAST_DeprecationAndDirectiveMetadata(t *testing.T) {
	sch := mustBuildSchema(t, testSDL)

	mood := sch.Types["Mood"]
	require.True(t, mood.HasEnumValue("HAPPY"))
	require.True(t, mood.HasEnumValue("GRUMPY"))
	for _, ev := range mood.EnumValues {
		if ev.Name == "GRUMPY" {
			require.True(t, ev.IsDeprecated)
			require.Equal(t, "no grumpy pets", ev.DeprecationReason)
		}
	}

	filter := sch.Types["Filter"]
	require.True(t, filter.OneOf)

	instant := sch.Types["Instant"]
	require.NotNil(t, instant.SpecifiedByURL)
	require.Equal(t, "https://example.com/instant", *instant.SpecifiedByURL)
}

func TestPossibleTypes_DeclarationOrder(t *testing.T) {
	sch := mustBuildSchema(t, testSDL)

	if diff := cmp.Diff([]string{"Dog", "Cat"}, sch.PossibleTypes("Pet")); diff != "" {
		t.Fatalf("interface possible types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Dog", "Cat"}, sch.PossibleTypes("Companion")); diff != "" {
		t.Fatalf("union possible types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Dog"}, sch.PossibleTypes("Dog")); diff != "" {
		t.Fatalf("object possible types mismatch (-want +got):\n%s", diff)
	}
}

func TestSatisfies_ObjectInterfaceAndUnionConditions(t *testing.T) {
	sch := mustBuildSchema(t, testSDL)

	require.True(t, sch.Satisfies("Dog", "Dog"))
	require.True(t, sch.Satisfies("Dog", "Pet"))
	require.True(t, sch.Satisfies("Dog", "Node"))
	require.True(t, sch.Satisfies("Cat", "Companion"))
	require.False(t, sch.Satisfies("Dog", "Cat"))
	require.False(t, sch.Satisfies("Dog", "Mood"))
}

func TestNewSchema_CarriesBuiltins(t *testing.T) {
	sch := NewSchema("")

	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		typ := sch.Types[name]
		require.NotNil(t, typ, "builtin scalar %s missing", name)
		require.Equal(t, TypeKindScalar, typ.Kind)
	}
	for _, name := range []string{"skip", "include", "deprecated", "defer", "stream"} {
		require.NotNil(t, sch.Directives[name], "builtin directive %s missing", name)
	}
}

func TestClone_IsolatesTypeRegistration(t *testing.T) {
	sch := mustBuildSchema(t, testSDL)
	clone := sch.Clone()

	clone.AddType(NewType("Extra", TypeKindObject, ""))

	require.NotNil(t, clone.Types["Extra"])
	require.Nil(t, sch.Types["Extra"])

	if diff := cmp.Diff(sch.PossibleTypes("Pet"), clone.PossibleTypes("Pet")); diff != "" {
		t.Fatalf("clone possible types mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeRef_StringNotation(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("Int"))))
	require.Equal(t, "[Int!]!", ref.String())
	require.True(t, IsNonNull(ref))
	require.True(t, IsList(ref))
	require.Equal(t, "Int", GetNamedType(ref))
	require.Equal(t, "[Int!]", Unwrap(ref).String())
}
