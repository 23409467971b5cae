package executor

import (
	"bytes"
	"encoding/json"
	"reflect"

	language "github.com/hanpama/graphlet/internal/language"
)

// GraphQLError is the one error shape produced during execution, whatever its
// origin. Builders below tag the origin in Extensions.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location points into the original query source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (e GraphQLError) Error() string { return e.Message }

func locationsOf(pos *language.Position) []Location {
	if pos == nil {
		return nil
	}
	return []Location{{Line: pos.Line, Column: pos.Column}}
}

// resolverError wraps a failure returned (or panicked) by a field resolver.
func resolverError(err error, path Path, pos *language.Position) GraphQLError {
	return GraphQLError{Message: err.Error(), Locations: locationsOf(pos), Path: path}
}

// completionError reports a failure while completing a resolved value: bad
// leaf serialization, an unresolvable abstract type, a non-list value for a
// list type, or a null for a Non-Null type.
func completionError(message string, path Path, pos *language.Position) GraphQLError {
	return GraphQLError{Message: message, Locations: locationsOf(pos), Path: path}
}

// coercionError reports invalid variable or argument input. Variable errors
// carry no path; argument errors are attributed to their field.
func coercionError(message string, path Path, pos *language.Position) GraphQLError {
	return GraphQLError{Message: message, Locations: locationsOf(pos), Path: path}
}

// cancellationError substitutes for a field whose resolution was abandoned
// after the context was cancelled.
func cancellationError(err error, path Path) GraphQLError {
	return GraphQLError{Message: err.Error(), Path: path}
}

// requestError is a fatal error that prevented establishing an execution
// context; no field execution happened and the result carries no data key.
func requestError(message string) GraphQLError {
	return GraphQLError{Message: message}
}

// ExecutionResult is the response tree for one operation (or one subscription
// event). Data is an *OrderedMap mirroring the selection shape, a typed nil
// *OrderedMap when a Non-Null failure bubbled to the root, or untyped nil for
// request-level failures where no execution took place.
type ExecutionResult struct {
	Data       any            `json:"data"`
	Errors     []GraphQLError `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
	HasNext    bool           `json:"hasNext,omitempty"`
}

// MarshalJSON renders the GraphQL response format. The data key is omitted
// entirely, rather than null, when execution never started.
func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r.Data != nil {
		buf.WriteString(`"data":`)
		data, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	if len(r.Errors) > 0 {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"errors":`)
		errs, err := json.Marshal(r.Errors)
		if err != nil {
			return nil, err
		}
		buf.Write(errs)
	}
	if len(r.Extensions) > 0 {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"extensions":`)
		ext, err := json.Marshal(r.Extensions)
		if err != nil {
			return nil, err
		}
		buf.Write(ext)
	}
	if r.HasNext {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"hasNext":true`)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IncrementalPayload is one deferred or streamed unit of the response,
// delivered after the initial payload.
type IncrementalPayload struct {
	Label  string         `json:"label,omitempty"`
	Path   Path           `json:"path"`
	Data   any            `json:"data,omitempty"`
	Items  []any          `json:"items,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// OrderedMap is a response object whose keys marshal in insertion order,
// matching the query's selection order regardless of which field settled
// first.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set stores v under key, keeping the key's first-insertion position.
func (m *OrderedMap) Set(key string, v any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the response keys in insertion order.
func (m *OrderedMap) Keys() []string { return m.keys }

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Equal makes OrderedMap comparable by go-cmp in tests.
func (m *OrderedMap) Equal(o *OrderedMap) bool {
	if m == nil || o == nil {
		return m.Len() == 0 && o.Len() == 0 && (m == nil) == (o == nil)
	}
	return reflect.DeepEqual(m.keys, o.keys) && reflect.DeepEqual(m.values, o.values)
}
