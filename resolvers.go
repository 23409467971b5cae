package graphlet

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	executor "github.com/hanpama/graphlet/internal/executor"
)

// FieldResolver produces the value of one field from its parent value.
// Returning a executor.Thunk defers the value without holding a resolver slot.
type FieldResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// SubscriptionResolver resolves a subscription root field to its source event
// stream.
type SubscriptionResolver func(ctx context.Context, source any, args map[string]any) (<-chan any, error)

// TypeResolver names the concrete object type of an abstract type's value.
// Returning "" falls back to the engine's default strategy.
type TypeResolver func(value any) string

// ScalarCodec customizes a scalar's serialization and input parsing.
type ScalarCodec struct {
	Serialize func(value any) (any, error)
	Parse     func(value any) (any, error)
}

// Resolvers is a map-based executor.Runtime. Field resolvers are keyed
// "Type.field"; fields without one fall back to the reflection resolver,
// which reads map keys, struct fields and niladic methods by name.
// Subscription root fields without a field resolver pass the source event
// through unchanged.
type Resolvers struct {
	Fields        map[string]FieldResolver
	Subscriptions map[string]SubscriptionResolver
	Types         map[string]TypeResolver
	IsTypeOfFuncs map[string]func(value any) bool
	Scalars       map[string]ScalarCodec
}

var _ executor.Runtime = (*Resolvers)(nil)

func (r *Resolvers) ResolveField(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (any, error) {
	if f := r.Fields[info.ParentType+"."+info.FieldName]; f != nil {
		return f(ctx, source, args)
	}
	if info.Schema.SubscriptionType != "" && info.ParentType == info.Schema.SubscriptionType {
		// per-event execution: the event is the field value
		return source, nil
	}
	return resolveByReflection(info.FieldName, source)
}

func (r *Resolvers) SubscribeField(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (<-chan any, error) {
	if f := r.Subscriptions[info.ParentType+"."+info.FieldName]; f != nil {
		return f(ctx, source, args)
	}
	return nil, fmt.Errorf("no subscription resolver for %s.%s", info.ParentType, info.FieldName)
}

func (r *Resolvers) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	f := r.Types[abstractType]
	if f == nil {
		return "", executor.ErrNoTypeResolver
	}
	if name := f(value); name != "" {
		return name, nil
	}
	return "", executor.ErrNoTypeResolver
}

func (r *Resolvers) IsTypeOf(ctx context.Context, objectType string, value any) bool {
	if f := r.IsTypeOfFuncs[objectType]; f != nil {
		return f(value)
	}
	return false
}

func (r *Resolvers) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if codec, ok := r.Scalars[typeName]; ok && codec.Serialize != nil {
		return codec.Serialize(value)
	}
	return defaultSerialize(value), nil
}

func (r *Resolvers) ParseLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if codec, ok := r.Scalars[typeName]; ok && codec.Parse != nil {
		return codec.Parse(value)
	}
	return value, nil
}

// defaultSerialize flattens pointers so leaf values coming from struct fields
// marshal as their element value.
func defaultSerialize(value any) any {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// resolveByReflection reads a field off the source value: map index first,
// then an exported method, then an exported struct field, matched
// case-insensitively against the GraphQL field name.
func resolveByReflection(fieldName string, source any) (any, error) {
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[fieldName], nil
	}

	rv := reflect.ValueOf(source)
	if mv := findMethod(rv, fieldName); mv.IsValid() {
		return callResolverMethod(mv)
	}
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		v := rv.MapIndex(reflect.ValueOf(fieldName))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	}
	if rv.Kind() == reflect.Struct {
		if fv := findStructField(rv, fieldName); fv.IsValid() {
			return fv.Interface(), nil
		}
		return nil, fmt.Errorf("no field or method %q on %s", fieldName, rv.Type())
	}
	return nil, fmt.Errorf("cannot resolve field %q on value of type %T", fieldName, source)
}

func findMethod(rv reflect.Value, fieldName string) reflect.Value {
	t := rv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		if strings.EqualFold(t.Method(i).Name, fieldName) {
			return rv.Method(i)
		}
	}
	return reflect.Value{}
}

func findStructField(rv reflect.Value, fieldName string) reflect.Value {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if strings.EqualFold(f.Name, fieldName) {
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}

// callResolverMethod invokes a niladic method returning (value) or
// (value, error).
func callResolverMethod(mv reflect.Value) (any, error) {
	t := mv.Type()
	if t.NumIn() != 0 || t.NumOut() < 1 || t.NumOut() > 2 {
		return nil, fmt.Errorf("resolver method must take no arguments and return (value) or (value, error)")
	}
	out := mv.Call(nil)
	if len(out) == 2 {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}
