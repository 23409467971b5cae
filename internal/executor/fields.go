package executor

import (
	language "github.com/hanpama/graphlet/internal/language"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// collectedFieldMap groups field nodes by response key, preserving the key
// order of the original query. Repeated keys append to the existing group so
// that sub-selections of duplicated fields merge into one evaluation.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: make(map[string]int)}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
	} else {
		cfm.index[responseName] = len(cfm.fields)
		cfm.fields = append(cfm.fields, collectedField{
			ResponseName: responseName,
			Fields:       []*language.Field{field},
		})
	}
}

func (cfm *collectedFieldMap) orderedFields() []collectedField {
	return cfm.fields
}

// deferredGroup is a fragment whose fields were split off behind @defer. Its
// selections execute after the initial payload, against the same runtime type
// and source value.
type deferredGroup struct {
	Label      string
	Selections language.SelectionSet
}

// collectFields walks a selection set in document order, expanding fragment
// spreads and inline fragments whose type condition the runtime type
// satisfies, and honoring @skip/@include against the coerced variables.
// Fragments guarded by @defer are returned separately when incremental
// delivery is on; otherwise they collect inline like plain fragments.
// Fragment cycles are assumed to have been rejected by validation.
func (s *executionState) collectFields(objectType *schema.Type, selectionSet language.SelectionSet) (*collectedFieldMap, []deferredGroup) {
	grouped := newCollectedFieldMap()
	var deferred []deferredGroup
	visited := make(map[string]bool)
	s.collectFieldsImpl(objectType, selectionSet, grouped, &deferred, visited)
	return grouped, deferred
}

func (s *executionState) collectFieldsImpl(
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	grouped *collectedFieldMap,
	deferred *[]deferredGroup,
	visited map[string]bool,
) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !s.shouldIncludeNode(sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			grouped.add(responseName, sel)

		case *language.InlineFragment:
			if !s.shouldIncludeNode(sel.Directives) {
				continue
			}
			if sel.TypeCondition != "" && !s.schema.Satisfies(objectType.Name, sel.TypeCondition) {
				continue
			}
			if label, ok := s.deferLabel(sel.Directives); ok {
				*deferred = append(*deferred, deferredGroup{Label: label, Selections: sel.SelectionSet})
				continue
			}
			s.collectFieldsImpl(objectType, sel.SelectionSet, grouped, deferred, visited)

		case *language.FragmentSpread:
			if !s.shouldIncludeNode(sel.Directives) {
				continue
			}
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true

			fragment := s.fragments[sel.Name]
			if fragment == nil {
				continue
			}
			if fragment.TypeCondition != "" && !s.schema.Satisfies(objectType.Name, fragment.TypeCondition) {
				continue
			}
			if label, ok := s.deferLabel(sel.Directives); ok {
				*deferred = append(*deferred, deferredGroup{Label: label, Selections: fragment.SelectionSet})
				continue
			}
			s.collectFieldsImpl(objectType, fragment.SelectionSet, grouped, deferred, visited)
		}
	}
}

// shouldIncludeNode evaluates @skip and @include against coerced variables.
func (s *executionState) shouldIncludeNode(directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if cond, ok := s.directiveArgument(skip, "if").(bool); ok && cond {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if cond, ok := s.directiveArgument(include, "if").(bool); ok && !cond {
			return false
		}
	}
	return true
}

// deferLabel reports whether the node is an active @defer boundary. Deferral
// only applies when the caller asked for incremental delivery; otherwise the
// fragment collects inline.
func (s *executionState) deferLabel(directives language.DirectiveList) (string, bool) {
	if !s.incremental {
		return "", false
	}
	d := directives.ForName("defer")
	if d == nil {
		return "", false
	}
	if cond, ok := s.directiveArgument(d, "if").(bool); ok && !cond {
		return "", false
	}
	label, _ := s.directiveArgument(d, "label").(string)
	return label, true
}

// streamSpec describes an active @stream directive on a list field.
type streamSpec struct {
	Label        string
	InitialCount int
}

// streamOf reports whether the field carries an active @stream directive.
func (s *executionState) streamOf(field *language.Field) *streamSpec {
	if !s.incremental {
		return nil
	}
	d := field.Directives.ForName("stream")
	if d == nil {
		return nil
	}
	if cond, ok := s.directiveArgument(d, "if").(bool); ok && !cond {
		return nil
	}
	spec := &streamSpec{}
	spec.Label, _ = s.directiveArgument(d, "label").(string)
	switch n := s.directiveArgument(d, "initialCount").(type) {
	case int64:
		spec.InitialCount = int(n)
	case int:
		spec.InitialCount = n
	case float64:
		spec.InitialCount = int(n)
	}
	if spec.InitialCount < 0 {
		spec.InitialCount = 0
	}
	return spec
}

func (s *executionState) directiveArgument(directive *language.Directive, name string) any {
	for _, arg := range directive.Arguments {
		if arg.Name == name {
			return language.ValueToGo(arg.Value, s.variableValues)
		}
	}
	return nil
}

// mergeSelectionSets concatenates the sub-selections of every node merged
// into one field group; the union executes as a single selection set.
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	if len(fields) == 1 {
		return fields[0].SelectionSet
	}
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

func getFieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	return objectType.Field(fieldName)
}
