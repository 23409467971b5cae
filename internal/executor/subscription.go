package executor

import (
	"context"
	"errors"
	"fmt"

	eventbus "github.com/hanpama/graphlet/internal/eventbus"
	events "github.com/hanpama/graphlet/internal/events"
	language "github.com/hanpama/graphlet/internal/language"
)

// errNilSourceStream reports a subscription resolver that returned neither a
// stream nor an error.
var errNilSourceStream = errors.New("subscription resolver returned a nil source stream")

// Subscribe resolves the subscription's single root field to its source event
// stream and returns a channel of execution results, one per source event.
// Each event runs through the same execution as a query, with the event as
// the root field's source value. The result channel closes when the source
// stream closes or ctx is cancelled; setup failures yield a single
// request-level error result.
func (e *Executor) Subscribe(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) <-chan *ExecutionResult {
	out := make(chan *ExecutionResult, 1)

	fail := func(result *ExecutionResult) <-chan *ExecutionResult {
		out <- result
		close(out)
		return out
	}

	state, errResult := e.prepare(ctx, document, operationName, variableValues, rootValue, false)
	if errResult != nil {
		return fail(errResult)
	}
	if state.operation.Operation != language.Subscription {
		return fail(&ExecutionResult{Errors: []GraphQLError{requestError("operation is not a subscription")}})
	}

	stream, errResult := state.createSourceStream(ctx)
	if errResult != nil {
		return fail(errResult)
	}

	go func() {
		defer close(out)
		seq := 0
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-stream:
				if !ok {
					return
				}
				seq++
				eventbus.Publish(ctx, events.SubscriptionEvent{
					OperationName: state.operation.Name,
					Seq:           seq,
				})
				result := state.forEvent(event).executeOperation(ctx)
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// createSourceStream resolves the root subscription field via
// Runtime.SubscribeField. This is stream setup, not field execution: errors
// here are request-level, and no response tree is produced.
func (s *executionState) createSourceStream(ctx context.Context) (<-chan any, *ExecutionResult) {
	grouped, _ := s.collectFields(s.rootType, s.operation.SelectionSet)
	groups := grouped.orderedFields()
	if len(groups) != 1 {
		return nil, &ExecutionResult{Errors: []GraphQLError{requestError("subscription operations must select exactly one root field")}}
	}

	cf := groups[0]
	field := cf.Fields[0]
	path := Path{cf.ResponseName}

	fieldDef := getFieldDefinition(s.rootType, field.Name)
	if fieldDef == nil {
		return nil, &ExecutionResult{Errors: []GraphQLError{
			completionError(fmt.Sprintf("cannot subscribe to field %q on type %q", field.Name, s.rootType.Name), path, field.Position),
		}}
	}

	args, ok := s.coerceArgumentValues(ctx, fieldDef, field, path)
	if !ok {
		return nil, &ExecutionResult{Errors: s.drainErrors()}
	}

	info := &ResolveInfo{
		FieldName:      field.Name,
		Fields:         cf.Fields,
		ParentType:     s.rootType.Name,
		ReturnType:     fieldDef.Type,
		Path:           path,
		Schema:         s.schema,
		Fragments:      s.fragments,
		Operation:      s.operation,
		VariableValues: s.variableValues,
		RootValue:      s.rootValue,
	}

	stream, err := func() (v <-chan any, err error) {
		defer recoverToError(&err)
		return s.runtime.SubscribeField(ctx, info, s.rootValue, args)
	}()
	if err != nil {
		return nil, &ExecutionResult{Errors: []GraphQLError{resolverError(err, path, field.Position)}}
	}
	if stream == nil {
		return nil, &ExecutionResult{Errors: []GraphQLError{resolverError(
			errNilSourceStream, path, field.Position)}}
	}
	return stream, nil
}

// forEvent derives the per-event state: fresh error list, the event as root
// value, everything else shared.
func (s *executionState) forEvent(event any) *executionState {
	st := s.child()
	st.incremental = false
	st.rootValue = event
	return st
}
