package executor

import (
	"context"
	"errors"

	language "github.com/hanpama/graphlet/internal/language"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// ErrNoTypeResolver is returned by Runtime.ResolveType when the runtime has no
// resolver for the abstract type. The executor then falls back to its default
// strategy: a "__typename" discriminator on map values, then Runtime.IsTypeOf
// probes over the possible types in schema declaration order.
var ErrNoTypeResolver = errors.New("no type resolver configured")

// Runtime is the host integration surface the executor drives.
//
// General contract
//   - ResolveField is invoked once per collected field group, possibly from
//     many goroutines at once (bounded by the executor's resolver limiter).
//     Implementations must be safe for concurrent use and must not mutate
//     source or args.
//   - A resolver may return its value directly, or return a Thunk to signal
//     that the value is produced asynchronously; the executor calls the thunk
//     from the field's own goroutine so sibling fields never wait on it.
//   - Errors returned from any method are converted into located GraphQL
//     errors. If the field's return type is Non-Null, the executor propagates
//     the resulting null to the nearest nullable ancestor.
//   - List-valued fields may resolve to a slice, an array, or a receive-only
//     channel. A channel is drained to completion and its elements become the
//     list items in arrival order.
//
// Leaf values
//   - SerializeLeafValue turns a resolved scalar/enum value into a JSON-safe
//     Go value. For enums, return the symbolic name as a string.
//   - ParseLeafValue is the inverse direction, applied to custom scalar
//     variable and argument input. Builtin scalars are coerced by the executor
//     itself and never reach ParseLeafValue.
type Runtime interface {
	// ResolveField produces the raw value for one field from its parent value.
	// Return (nil, nil) for a GraphQL null on nullable fields.
	ResolveField(ctx context.Context, info *ResolveInfo, source any, args map[string]any) (any, error)

	// SubscribeField resolves the root subscription field to its source event
	// stream. The returned channel is drained until it closes or the
	// subscription context is cancelled.
	SubscribeField(ctx context.Context, info *ResolveInfo, source any, args map[string]any) (<-chan any, error)

	// ResolveType determines the concrete object type name for a value of an
	// abstract type. Return ErrNoTypeResolver to use the default strategy.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// IsTypeOf reports whether value is an instance of the given object type.
	// Consulted by the default abstract-type strategy, in schema declaration
	// order, when no type resolver is configured.
	IsTypeOf(ctx context.Context, objectType string, value any) bool

	// SerializeLeafValue serializes a scalar or enum value for the response.
	SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error)

	// ParseLeafValue coerces raw custom-scalar input into its internal value.
	ParseLeafValue(ctx context.Context, typeName string, value any) (any, error)
}

// Thunk defers a resolver's value. Returning one from ResolveField lets the
// resolver start work and hand the pending result to the executor.
type Thunk func() (any, error)

// ResolveInfo is the read-only per-field snapshot passed to resolvers. It is
// rebuilt for every field invocation and never shared between fields.
type ResolveInfo struct {
	FieldName      string
	Fields         []*language.Field // all AST nodes merged into this field group
	ParentType     string
	ReturnType     *schema.TypeRef
	Path           Path
	Schema         *schema.Schema
	Fragments      map[string]*language.FragmentDefinition
	Operation      *language.OperationDefinition
	VariableValues map[string]any
	RootValue      any
}
