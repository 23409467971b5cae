package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	eventbus "github.com/hanpama/graphlet/internal/eventbus"
	events "github.com/hanpama/graphlet/internal/events"
	language "github.com/hanpama/graphlet/internal/language"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// defaultMaxParallelism bounds how many resolvers run at once when the caller
// does not configure a limit.
const defaultMaxParallelism = 10

// Executor runs validated GraphQL documents against a schema and a Runtime.
type Executor struct {
	runtime        Runtime
	schema         *schema.Schema
	maxParallelism int
}

type Option func(*Executor)

// WithMaxParallelism bounds the number of concurrently running resolvers.
func WithMaxParallelism(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxParallelism = n
		}
	}
}

func NewExecutor(runtime Runtime, sch *schema.Schema, opts ...Option) *Executor {
	e := &Executor{runtime: runtime, schema: sch, maxParallelism: defaultMaxParallelism}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// executionState is the per-request bundle: everything is fixed at
// construction except the error list and the incremental work queue, which
// are the only mutable shared state and are guarded by mu.
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	operation      *language.OperationDefinition
	rootType       *schema.Type
	fragments      map[string]*language.FragmentDefinition
	variableValues map[string]any
	rootValue      any
	limiter        chan struct{}
	incremental    bool

	mu       sync.Mutex
	errors   []GraphQLError
	deferred []*incrementalUnit
}

// errNullBubble signals that a Non-Null position resolved to null. It
// propagates upward until a nullable position absorbs it, nulling that
// subtree. It never carries a message of its own: the originating error was
// already recorded at the failing field's path.
var errNullBubble = errors.New("non-null field resolved to null")

// ExecuteRequest executes one operation of a validated document and returns
// the assembled response once all field work has settled. Mutation root
// fields run serially in document order; everything else runs concurrently.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) *ExecutionResult {
	state, errResult := e.prepare(ctx, document, operationName, variableValues, rootValue, false)
	if errResult != nil {
		return errResult
	}
	return state.executeOperation(ctx)
}

// prepare establishes the execution context. A nil state with a non-nil
// result reports a request-level failure: no field execution took place and
// the result carries errors only.
func (e *Executor) prepare(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
	incremental bool,
) (*executionState, *ExecutionResult) {
	operation, err := getOperation(document, operationName)
	if err != nil {
		return nil, &ExecutionResult{Errors: []GraphQLError{requestError(err.Error())}}
	}

	var rootTypeName string
	switch operation.Operation {
	case language.Query:
		rootTypeName = e.schema.QueryType
	case language.Mutation:
		rootTypeName = e.schema.MutationType
	case language.Subscription:
		rootTypeName = e.schema.SubscriptionType
	default:
		return nil, &ExecutionResult{Errors: []GraphQLError{requestError(fmt.Sprintf("unsupported operation type: %s", operation.Operation))}}
	}
	rootType := e.schema.Types[rootTypeName]
	if rootType == nil {
		return nil, &ExecutionResult{Errors: []GraphQLError{requestError(fmt.Sprintf("schema does not define a root type for %s operations", operation.Operation))}}
	}

	coerced, coercionErrs := coerceVariableValues(ctx, e.schema, e.runtime, operation, variableValues)
	if len(coercionErrs) > 0 {
		return nil, &ExecutionResult{Errors: coercionErrs}
	}

	fragments := make(map[string]*language.FragmentDefinition, len(document.Fragments))
	for _, f := range document.Fragments {
		fragments[f.Name] = f
	}

	return &executionState{
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		operation:      operation,
		rootType:       rootType,
		fragments:      fragments,
		variableValues: coerced,
		rootValue:      rootValue,
		limiter:        make(chan struct{}, e.maxParallelism),
		incremental:    incremental,
		errors:         []GraphQLError{},
	}, nil
}

func (s *executionState) executeOperation(ctx context.Context) *ExecutionResult {
	start := time.Now()
	eventbus.Publish(ctx, events.OperationStart{
		OperationName: s.operation.Name,
		OperationType: string(s.operation.Operation),
	})

	serial := s.operation.Operation == language.Mutation
	data, bubble := s.executeSelectionSet(ctx, s.rootType, s.operation.SelectionSet, s.rootValue, Path{}, serial)

	result := &ExecutionResult{Errors: s.drainErrors()}
	if bubble != nil {
		// A Non-Null chain failed all the way up: data is null, not absent.
		result.Data = (*OrderedMap)(nil)
	} else {
		result.Data = data
	}

	eventbus.Publish(ctx, events.OperationFinish{
		OperationName: s.operation.Name,
		OperationType: string(s.operation.Operation),
		ErrorCount:    len(result.Errors),
		Duration:      time.Since(start),
	})
	return result
}

// executeSelectionSet collects the selection against the runtime object type
// and executes every field group. Concurrent mode starts all groups without
// waiting on each other and joins before assembling, writing each result into
// its pre-allocated slot so response keys keep selection order no matter
// which field settled first.
func (s *executionState) executeSelectionSet(
	ctx context.Context,
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	source any,
	path Path,
	serial bool,
) (*OrderedMap, error) {
	grouped, deferredGroups := s.collectFields(objectType, selectionSet)
	groups := grouped.orderedFields()

	results := make([]any, len(groups))
	bubbles := make([]error, len(groups))

	if serial || len(groups) < 2 {
		for i, cf := range groups {
			results[i], bubbles[i] = s.executeFieldGroup(ctx, objectType, source, cf.Fields, appendPath(path, cf.ResponseName))
			// A Non-Null failure reaching the serial root nulls the whole
			// response, so the remaining root fields must not run their
			// side effects.
			if serial && bubbles[i] != nil {
				break
			}
		}
	} else {
		var wg sync.WaitGroup
		wg.Add(len(groups))
		for i, cf := range groups {
			go func(i int, cf collectedField) {
				defer wg.Done()
				results[i], bubbles[i] = s.executeFieldGroup(ctx, objectType, source, cf.Fields, appendPath(path, cf.ResponseName))
			}(i, cf)
		}
		wg.Wait()
	}

	for _, dg := range deferredGroups {
		s.registerDeferred(objectType, dg.Selections, source, path, dg.Label)
	}

	out := NewOrderedMap()
	for i, cf := range groups {
		if bubbles[i] != nil {
			return nil, bubbles[i]
		}
		out.Set(cf.ResponseName, results[i])
	}
	return out, nil
}

// executeFieldGroup resolves one response key: argument coercion, resolver
// invocation and value completion. Failures are contained here: they are
// recorded once, the contribution becomes null and the error return is only
// the Non-Null bubble signal.
func (s *executionState) executeFieldGroup(
	ctx context.Context,
	objectType *schema.Type,
	source any,
	fields []*language.Field,
	path Path,
) (result any, bubble error) {
	field := fields[0]

	if field.Name == "__typename" {
		return objectType.Name, nil
	}

	fieldDef := getFieldDefinition(objectType, field.Name)
	if fieldDef == nil {
		// Validation guarantees this cannot happen for documents that went
		// through Validate; contain it instead of crashing.
		s.appendError(completionError(fmt.Sprintf("cannot query field %q on type %q", field.Name, objectType.Name), path, field.Position))
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.appendError(resolverError(fmt.Errorf("panic occurred: %v", r), path, field.Position))
			result = nil
			bubble = nil
			if schema.IsNonNull(fieldDef.Type) {
				bubble = errNullBubble
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		// In-flight work is not preempted, but no new resolution starts once
		// the request is cancelled.
		s.appendError(cancellationError(err, path))
		return s.nullOrBubble(fieldDef.Type)
	}

	args, ok := s.coerceArgumentValues(ctx, fieldDef, field, path)
	if !ok {
		return s.nullOrBubble(fieldDef.Type)
	}

	info := &ResolveInfo{
		FieldName:      field.Name,
		Fields:         fields,
		ParentType:     objectType.Name,
		ReturnType:     fieldDef.Type,
		Path:           path,
		Schema:         s.schema,
		Fragments:      s.fragments,
		Operation:      s.operation,
		VariableValues: s.variableValues,
		RootValue:      s.rootValue,
	}

	resolved, err := s.resolveField(ctx, info, source, args)
	if err != nil {
		s.appendError(resolverError(err, path, field.Position))
		return s.nullOrBubble(fieldDef.Type)
	}

	return s.completeValue(ctx, fieldDef.Type, fields, resolved, path, s.streamOf(field))
}

// resolveField invokes the runtime resolver under the parallelism limiter.
// The limiter is held only for the synchronous part of the call; a returned
// thunk is awaited after release so a suspended resolver never blocks a
// limiter slot.
func (s *executionState) resolveField(ctx context.Context, info *ResolveInfo, source any, args map[string]any) (value any, err error) {
	start := time.Now()
	eventbus.Publish(ctx, events.FieldStart{
		ParentType: info.ParentType,
		Field:      info.FieldName,
		Path:       pathToString(info.Path),
	})
	defer func() {
		eventbus.Publish(ctx, events.FieldFinish{
			ParentType: info.ParentType,
			Field:      info.FieldName,
			Path:       pathToString(info.Path),
			Duration:   time.Since(start),
			Err:        err,
		})
	}()

	value, err = func() (v any, err error) {
		defer recoverToError(&err)
		s.limiter <- struct{}{}
		defer func() { <-s.limiter }()
		return s.runtime.ResolveField(ctx, info, source, args)
	}()
	if err != nil {
		return nil, err
	}

	switch pending := value.(type) {
	case Thunk:
		return awaitThunk(pending)
	case func() (any, error):
		return awaitThunk(pending)
	}
	return value, nil
}

func awaitThunk(thunk func() (any, error)) (v any, err error) {
	defer recoverToError(&err)
	return thunk()
}

func recoverToError(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic occurred: %v", r)
	}
}

// nullOrBubble is the null contribution of a failed field: plain null for
// nullable types, a bubble for Non-Null ones.
func (s *executionState) nullOrBubble(t *schema.TypeRef) (any, error) {
	if schema.IsNonNull(t) {
		return nil, errNullBubble
	}
	return nil, nil
}

func (s *executionState) appendError(err GraphQLError) {
	s.mu.Lock()
	s.errors = append(s.errors, err)
	s.mu.Unlock()
}

func (s *executionState) appendErrors(errs []GraphQLError) {
	s.mu.Lock()
	s.errors = append(s.errors, errs...)
	s.mu.Unlock()
}

func (s *executionState) drainErrors() []GraphQLError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}

// getOperation selects the operation to execute. An empty name is only valid
// when the document holds exactly one operation.
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0], nil
		}
		return nil, fmt.Errorf("operation name is required when the document defines %d operations", len(document.Operations))
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op, nil
		}
	}
	return nil, fmt.Errorf("operation %q not found", operationName)
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr,
// interface, func, chan).
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
