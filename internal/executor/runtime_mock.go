package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MockResolver resolves a single field; MockRuntime dispatches to it by
// "ParentType.field" key.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// MockSubscriber produces a source event stream for a subscription root field.
type MockSubscriber func(ctx context.Context, source any, args map[string]any) (<-chan any, error)

// NewMockValueResolver returns a MockResolver that always returns the provided value.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always returns the provided error.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// NewMockThunkResolver returns a MockResolver that defers the value behind a
// Thunk, exercising the async resolver path.
func NewMockThunkResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return Thunk(func() (any, error) { return val, nil }), nil
	}
}

// Call records a single ResolveField invocation.
type Call struct {
	ParentType string
	Field      string
	Source     any
	Args       map[string]any
}

// MockRuntime implements Runtime with a resolver registry and a call log.
// Sibling fields resolve concurrently, so the raw log order is only
// deterministic for serial execution; concurrent tests should assert against
// SortedCalls.
type MockRuntime struct {
	mu          sync.Mutex
	resolvers   map[string]MockResolver
	subscribers map[string]MockSubscriber
	calls       []Call

	typeResolver func(value any) (string, error)
	isTypeOf     func(objectType string, value any) bool
	serializer   func(typeName string, value any) (any, error)
	parser       func(typeName string, value any) (any, error)
}

// NewMockRuntime creates a MockRuntime with the provided resolvers.
// The resolvers map keys are of the form "ParentType.field".
func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{
		resolvers:   make(map[string]MockResolver, len(resolvers)),
		subscribers: make(map[string]MockSubscriber),
	}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

// SetResolver registers or replaces a resolver for the given type and field.
func (m *MockRuntime) SetResolver(parentType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[parentType+"."+field] = resolver
}

// SetSubscriber registers a source stream factory for a subscription field.
func (m *MockRuntime) SetSubscriber(parentType, field string, sub MockSubscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[parentType+"."+field] = sub
}

// SetTypeResolver installs an abstract type resolver. Without one, ResolveType
// reports ErrNoTypeResolver so the executor falls back to its default strategy.
func (m *MockRuntime) SetTypeResolver(f func(value any) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeResolver = f
}

// SetIsTypeOf installs the probe consulted by the default abstract type strategy.
func (m *MockRuntime) SetIsTypeOf(f func(objectType string, value any) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isTypeOf = f
}

// SetSerializer replaces the default pass-through leaf serializer.
func (m *MockRuntime) SetSerializer(f func(typeName string, value any) (any, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serializer = f
}

// SetParser replaces the default pass-through custom scalar parser.
func (m *MockRuntime) SetParser(f func(typeName string, value any) (any, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parser = f
}

// GetCalls returns a copy of the call log in invocation order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// SortedCalls returns the call log ordered by "ParentType.field" key, for
// assertions over concurrently resolved siblings.
func (m *MockRuntime) SortedCalls() []Call {
	calls := m.GetCalls()
	sort.SliceStable(calls, func(i, j int) bool {
		ki := calls[i].ParentType + "." + calls[i].Field
		kj := calls[j].ParentType + "." + calls[j].Field
		return ki < kj
	})
	return calls
}

func (m *MockRuntime) ResolveField(ctx context.Context, info *ResolveInfo, source any, args map[string]any) (any, error) {
	key := info.ParentType + "." + info.FieldName

	m.mu.Lock()
	r := m.resolvers[key]
	m.calls = append(m.calls, Call{
		ParentType: info.ParentType,
		Field:      info.FieldName,
		Source:     source,
		Args:       args,
	})
	m.mu.Unlock()

	if r == nil {
		return nil, nil
	}
	return r(ctx, source, args)
}

func (m *MockRuntime) SubscribeField(ctx context.Context, info *ResolveInfo, source any, args map[string]any) (<-chan any, error) {
	key := info.ParentType + "." + info.FieldName

	m.mu.Lock()
	sub := m.subscribers[key]
	m.mu.Unlock()

	if sub == nil {
		return nil, fmt.Errorf("no subscriber registered for %s", key)
	}
	return sub(ctx, source, args)
}

func (m *MockRuntime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	m.mu.Lock()
	f := m.typeResolver
	m.mu.Unlock()
	if f == nil {
		return "", ErrNoTypeResolver
	}
	return f(value)
}

func (m *MockRuntime) IsTypeOf(ctx context.Context, objectType string, value any) bool {
	m.mu.Lock()
	f := m.isTypeOf
	m.mu.Unlock()
	if f == nil {
		return false
	}
	return f(objectType, value)
}

func (m *MockRuntime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.serializer
	m.mu.Unlock()
	if f == nil {
		return value, nil
	}
	return f(typeName, value)
}

func (m *MockRuntime) ParseLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.parser
	m.mu.Unlock()
	if f == nil {
		return value, nil
	}
	return f(typeName, value)
}
