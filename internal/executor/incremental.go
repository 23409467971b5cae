package executor

import (
	"context"
	"sync"

	language "github.com/hanpama/graphlet/internal/language"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// incrementalUnit is one deferred fragment or streamed list item. Units are
// spawned when their boundary is collected, execute independently of sibling
// resolution, and may register further nested units of their own.
type incrementalUnit struct {
	run func(ctx context.Context) (*IncrementalPayload, []*incrementalUnit)
}

// ExecuteIncremental executes like ExecuteRequest but honors @defer and
// @stream boundaries, returning the initial payload plus a channel of
// incremental payloads. The channel is unbuffered: the consumer's read pace
// is the backpressure, with at most one completed payload in flight per unit.
// The channel closes when all units have delivered or ctx is cancelled.
func (e *Executor) ExecuteIncremental(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) (*ExecutionResult, <-chan *IncrementalPayload) {
	payloads := make(chan *IncrementalPayload)

	state, errResult := e.prepare(ctx, document, operationName, variableValues, rootValue, true)
	if errResult != nil {
		close(payloads)
		return errResult, payloads
	}

	initial := state.executeOperation(ctx)
	units := state.takeDeferred()
	if len(units) == 0 {
		close(payloads)
		return initial, payloads
	}
	initial.HasNext = true

	var wg sync.WaitGroup
	emit := func(p *IncrementalPayload) bool {
		select {
		case payloads <- p:
			return true
		case <-ctx.Done():
			return false
		}
	}
	var runUnit func(u *incrementalUnit)
	runUnit = func(u *incrementalUnit) {
		defer wg.Done()
		payload, nested := u.run(ctx)
		if !emit(payload) {
			return
		}
		for _, n := range nested {
			wg.Add(1)
			go runUnit(n)
		}
	}
	for _, u := range units {
		wg.Add(1)
		go runUnit(u)
	}
	go func() {
		wg.Wait()
		close(payloads)
	}()

	return initial, payloads
}

// child derives a state for one incremental unit: shared schema, runtime,
// variables and limiter, but its own error list and nested-unit queue so the
// payload reports exactly the errors of its own subtree.
func (s *executionState) child() *executionState {
	return &executionState{
		runtime:        s.runtime,
		schema:         s.schema,
		document:       s.document,
		operation:      s.operation,
		rootType:       s.rootType,
		fragments:      s.fragments,
		variableValues: s.variableValues,
		rootValue:      s.rootValue,
		limiter:        s.limiter,
		incremental:    true,
		errors:         []GraphQLError{},
	}
}

func (s *executionState) registerDeferred(
	objectType *schema.Type,
	selections language.SelectionSet,
	source any,
	path Path,
	label string,
) {
	unit := &incrementalUnit{
		run: func(ctx context.Context) (*IncrementalPayload, []*incrementalUnit) {
			st := s.child()
			data, bubble := st.executeSelectionSet(ctx, objectType, selections, source, path, false)
			payload := &IncrementalPayload{
				Label:  label,
				Path:   path,
				Errors: st.drainErrors(),
			}
			if bubble != nil {
				payload.Data = (*OrderedMap)(nil)
			} else {
				payload.Data = data
			}
			return payload, st.takeDeferred()
		},
	}
	s.addUnit(unit)
}

func (s *executionState) registerStream(
	itemType *schema.TypeRef,
	fields []*language.Field,
	item any,
	path Path,
	label string,
) {
	unit := &incrementalUnit{
		run: func(ctx context.Context) (*IncrementalPayload, []*incrementalUnit) {
			st := s.child()
			completed, bubble := st.completeValue(ctx, itemType, fields, item, path, nil)
			if bubble != nil {
				completed = nil
			}
			payload := &IncrementalPayload{
				Label:  label,
				Path:   path,
				Items:  []any{completed},
				Errors: st.drainErrors(),
			}
			return payload, st.takeDeferred()
		},
	}
	s.addUnit(unit)
}

func (s *executionState) addUnit(u *incrementalUnit) {
	s.mu.Lock()
	s.deferred = append(s.deferred, u)
	s.mu.Unlock()
}

func (s *executionState) takeDeferred() []*incrementalUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	units := s.deferred
	s.deferred = nil
	return units
}
