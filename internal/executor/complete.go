package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	language "github.com/hanpama/graphlet/internal/language"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// completeValue converts a raw resolved value into its final place in the
// response tree, walking the type wrappers from the outside in. The only
// error it returns is the Non-Null bubble; every real failure is recorded at
// its own path and becomes a null contribution.
func (s *executionState) completeValue(
	ctx context.Context,
	fieldType *schema.TypeRef,
	fields []*language.Field,
	result any,
	path Path,
	stream *streamSpec,
) (any, error) {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			s.appendError(completionError(
				fmt.Sprintf("cannot return null for non-nullable field %s", pathToString(path)),
				path, fields[0].Position))
			return nil, errNullBubble
		}
		completed, err := s.completeValue(ctx, schema.Unwrap(fieldType), fields, result, path, stream)
		if err != nil {
			return nil, err
		}
		if isNullish(completed) {
			// The failure was recorded where it happened; only the null
			// travels further up.
			return nil, errNullBubble
		}
		return completed, nil
	}

	if isNullish(result) {
		return nil, nil
	}

	if fieldType.IsList() {
		return s.completeListValue(ctx, fieldType, fields, result, path, stream)
	}

	namedType := s.schema.Types[schema.GetNamedType(fieldType)]
	if namedType == nil {
		s.appendError(completionError(fmt.Sprintf("unknown type: %s", schema.GetNamedType(fieldType)), path, fields[0].Position))
		return nil, nil
	}

	switch namedType.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		return s.completeLeafValue(ctx, namedType, fields, result, path)
	case schema.TypeKindObject:
		return s.completeObjectValue(ctx, namedType, fields, result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return s.completeAbstractValue(ctx, namedType, fields, result, path)
	default:
		s.appendError(completionError(fmt.Sprintf("cannot complete value of unexpected type kind: %s", namedType.Kind), path, fields[0].Position))
		return nil, nil
	}
}

// completeListValue completes each item independently against the item type
// at an index-extended path. Items complete concurrently into index-addressed
// slots, so output order follows the resolved list, not settlement order. A
// failed Non-Null item nulls the whole list.
func (s *executionState) completeListValue(
	ctx context.Context,
	listType *schema.TypeRef,
	fields []*language.Field,
	result any,
	path Path,
	stream *streamSpec,
) (any, error) {
	items, ok := normalizeList(result)
	if !ok {
		s.appendError(completionError(fmt.Sprintf("expected a list value, got %T", result), path, fields[0].Position))
		return nil, nil
	}

	itemType := schema.Unwrap(listType)

	count := len(items)
	if stream != nil && stream.InitialCount < count {
		// Items past initialCount become independent streamed units.
		for i := stream.InitialCount; i < count; i++ {
			s.registerStream(itemType, fields, items[i], appendPath(path, i), stream.Label)
		}
		count = stream.InitialCount
	}

	completed := make([]any, count)
	bubbles := make([]error, count)
	if count > 1 {
		var wg sync.WaitGroup
		wg.Add(count)
		for i := 0; i < count; i++ {
			go func(i int) {
				defer wg.Done()
				completed[i], bubbles[i] = s.completeValue(ctx, itemType, fields, items[i], appendPath(path, i), nil)
			}(i)
		}
		wg.Wait()
	} else {
		for i := 0; i < count; i++ {
			completed[i], bubbles[i] = s.completeValue(ctx, itemType, fields, items[i], appendPath(path, i), nil)
		}
	}

	for _, bubble := range bubbles {
		if bubble != nil {
			return nil, nil
		}
	}
	return completed, nil
}

// normalizeList accepts slices, arrays and channels. A channel is the async
// sequence form: it is drained to completion and its elements keep arrival
// order.
func normalizeList(result any) ([]any, bool) {
	if direct, ok := result.([]any); ok {
		return direct, true
	}
	if ch, ok := result.(<-chan any); ok {
		return drainChannel(reflect.ValueOf(ch)), true
	}
	rv := reflect.ValueOf(result)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	case reflect.Chan:
		return drainChannel(rv), true
	default:
		return nil, false
	}
}

func drainChannel(rv reflect.Value) []any {
	var items []any
	for {
		v, ok := rv.Recv()
		if !ok {
			return items
		}
		items = append(items, v.Interface())
	}
}

func (s *executionState) completeLeafValue(
	ctx context.Context,
	leafType *schema.Type,
	fields []*language.Field,
	result any,
	path Path,
) (any, error) {
	serialized, err := s.runtime.SerializeLeafValue(ctx, leafType.Name, result)
	if err != nil {
		s.appendError(completionError(err.Error(), path, fields[0].Position))
		return nil, nil
	}
	return serialized, nil
}

// completeObjectValue recurses into the merged sub-selection. A bubble from a
// Non-Null child is absorbed here when this position is nullable; the
// enclosing Non-Null wrapper, if any, picks it back up from the null.
func (s *executionState) completeObjectValue(
	ctx context.Context,
	objectType *schema.Type,
	fields []*language.Field,
	result any,
	path Path,
) (any, error) {
	sub := mergeSelectionSets(fields)
	completed, err := s.executeSelectionSet(ctx, objectType, sub, result, path, false)
	if err != nil {
		return nil, nil
	}
	return completed, nil
}

// completeAbstractValue determines the concrete runtime type for an
// interface or union value, then completes it as that object type.
func (s *executionState) completeAbstractValue(
	ctx context.Context,
	abstractType *schema.Type,
	fields []*language.Field,
	result any,
	path Path,
) (any, error) {
	typeName, err := s.runtime.ResolveType(ctx, abstractType.Name, result)
	if errors.Is(err, ErrNoTypeResolver) {
		typeName, err = s.defaultResolveType(ctx, abstractType, result)
	}
	if err != nil {
		s.appendError(completionError(err.Error(), path, fields[0].Position))
		return nil, nil
	}

	objectType := s.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		s.appendError(completionError(
			fmt.Sprintf("abstract type %s must resolve to an object type at runtime, got %q", abstractType.Name, typeName),
			path, fields[0].Position))
		return nil, nil
	}
	if !s.schema.Satisfies(typeName, abstractType.Name) {
		s.appendError(completionError(
			fmt.Sprintf("runtime type %q is not a possible type of %s", typeName, abstractType.Name),
			path, fields[0].Position))
		return nil, nil
	}
	return s.completeObjectValue(ctx, objectType, fields, result, path)
}

// defaultResolveType is the fallback strategy: a "__typename" discriminator
// on map values, then IsTypeOf probes over the possible types in schema
// declaration order, first match wins.
func (s *executionState) defaultResolveType(ctx context.Context, abstractType *schema.Type, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if typename, ok := m["__typename"].(string); ok {
			return typename, nil
		}
	}
	for _, candidate := range s.schema.PossibleTypes(abstractType.Name) {
		if s.runtime.IsTypeOf(ctx, candidate, value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not determine the concrete type of abstract type %s", abstractType.Name)
}
