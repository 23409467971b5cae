// Package introspection layers the __schema and __type entry points and the
// __Schema type family on top of a runtime. The wrapper serves introspection
// fields itself and forwards everything else to the wrapped runtime.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	executor "github.com/hanpama/graphlet/internal/executor"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// Wrapper bundles the wrapping runtime with the extended schema. The executor
// must be constructed with Wrapper.Schema so that the introspection fields
// validate and collect like any other fields.
type Wrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap extends sch with the introspection type family and returns a runtime
// that answers introspection fields from the original schema.
func Wrap(base executor.Runtime, sch *schema.Schema) *Wrapper {
	extended := extendSchema(sch)
	return &Wrapper{
		Runtime: &runtime{base: base, original: sch, queryType: extended.QueryType},
		Schema:  extended,
	}
}

type runtime struct {
	base      executor.Runtime
	original  *schema.Schema
	queryType string
}

func (r *runtime) ResolveField(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *schema.Schema:
		if v, ok := resolveSchemaField(src, info.FieldName); ok {
			return v, nil
		}
	case *schema.Type:
		if v, ok := resolveTypeField(r.original, src, info.FieldName, args); ok {
			return v, nil
		}
	case *schema.TypeRef:
		return resolveTypeRefField(r.original, src, info.FieldName, args), nil
	case *schema.Field:
		if v, ok := resolveFieldField(src, info.FieldName, args); ok {
			return v, nil
		}
	case *schema.InputValue:
		if v, ok := resolveInputValueField(src, info.FieldName); ok {
			return v, nil
		}
	case *schema.EnumValue:
		if v, ok := resolveEnumValueField(src, info.FieldName); ok {
			return v, nil
		}
	case *schema.Directive:
		if v, ok := resolveDirectiveField(src, info.FieldName, args); ok {
			return v, nil
		}
	}

	if info.ParentType == r.queryType {
		switch info.FieldName {
		case "__schema":
			return r.original, nil
		case "__type":
			return r.lookupType(args), nil
		}
	}

	return r.base.ResolveField(ctx, info, source, args)
}

func (r *runtime) SubscribeField(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (<-chan any, error) {
	return r.base.SubscribeField(ctx, info, source, args)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) IsTypeOf(ctx context.Context, objectType string, value any) bool {
	return r.base.IsTypeOf(ctx, objectType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	return r.base.SerializeLeafValue(ctx, typeName, value)
}

func (r *runtime) ParseLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	return r.base.ParseLeafValue(ctx, typeName, value)
}

// --- helpers ---

func (r *runtime) lookupType(args map[string]any) any {
	name, _ := args["name"].(string)
	if t := r.original.Types[name]; t != nil {
		return t
	}
	return nil
}

func resolveSchemaTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveSchemaDirectives(sch *schema.Schema) []*schema.Directive {
	out := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeFields(t *schema.Type, args map[string]any) []*schema.Field {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []*schema.Field{}
	for _, f := range t.Fields {
		if !includeDeprecated && f.IsDeprecated {
			continue
		}
		out = append(out, f)
	}
	return out
}

func resolveTypeInterfaces(sch *schema.Schema, t *schema.Type) []*schema.Type {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	out := []*schema.Type{}
	for _, name := range t.Interfaces {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	return out
}

func resolveTypePossibleTypes(sch *schema.Schema, t *schema.Type) []*schema.Type {
	if !t.IsAbstract() {
		return nil
	}
	out := []*schema.Type{}
	for _, name := range sch.PossibleTypes(t.Name) {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	return out
}

func resolveTypeEnumValues(t *schema.Type, args map[string]any) []*schema.EnumValue {
	if t.Kind != schema.TypeKindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []*schema.EnumValue{}
	for _, ev := range t.EnumValues {
		if !includeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func resolveTypeInputFields(t *schema.Type, args map[string]any) []*schema.InputValue {
	if t.Kind != schema.TypeKindInputObject {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []*schema.InputValue{}
	for _, iv := range t.InputFields {
		if !includeDeprecated && iv.IsDeprecated {
			continue
		}
		out = append(out, iv)
	}
	return out
}

func resolveArgs(arguments []*schema.InputValue, args map[string]any) []*schema.InputValue {
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []*schema.InputValue{}
	for _, a := range arguments {
		if !includeDeprecated && a.IsDeprecated {
			continue
		}
		out = append(out, a)
	}
	return out
}

func deprecationReason(isDeprecated bool, reason string) any {
	if isDeprecated {
		return reason
	}
	return nil
}

func resolveInputValueDefault(a *schema.InputValue) any {
	if !a.HasDefault {
		return nil
	}
	return renderLiteral(a.DefaultValue)
}

// renderLiteral formats a coerced default value back into GraphQL literal
// notation for the __InputValue.defaultValue string.
func renderLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(val)
	case []any:
		out := "["
		for i, item := range val {
			if i > 0 {
				out += ", "
			}
			out += renderLiteral(item)
		}
		return out + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ", "
			}
			out += k + ": " + renderLiteral(val[k])
		}
		return out + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "description":
		return sch.Description, true
	case "types":
		return resolveSchemaTypes(sch), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		return nilIfMissing(sch.GetMutationType()), true
	case "subscriptionType":
		return nilIfMissing(sch.GetSubscriptionType()), true
	case "directives":
		return resolveSchemaDirectives(sch), true
	}
	return nil, false
}

func nilIfMissing(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}

func resolveTypeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return t.Description, true
	case "specifiedByURL":
		return t.SpecifiedByURL, true
	case "fields":
		return resolveTypeFields(t, args), true
	case "interfaces":
		return resolveTypeInterfaces(sch, t), true
	case "possibleTypes":
		return resolveTypePossibleTypes(sch, t), true
	case "enumValues":
		return resolveTypeEnumValues(t, args), true
	case "inputFields":
		return resolveTypeInputFields(t, args), true
	case "isOneOf":
		return t.OneOf, true
	case "ofType":
		// Wrapper kinds are represented as TypeRef nodes, so a named type
		// never exposes ofType.
		return nil, true
	}
	return nil, false
}

func resolveTypeRefField(sch *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) any {
	switch tr.Kind {
	case schema.TypeRefKindNonNull, schema.TypeRefKindList:
		switch field {
		case "kind":
			return string(tr.Kind)
		case "ofType":
			return tr.OfType
		}
		return nil
	default:
		if def := sch.Types[tr.Named]; def != nil {
			v, _ := resolveTypeField(sch, def, field, args)
			return v
		}
		return nil
	}
}

func resolveFieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return f.Description, true
	case "args":
		return resolveArgs(f.Arguments, args), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return a.Description, true
	case "type":
		return a.Type, true
	case "defaultValue":
		return resolveInputValueDefault(a), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return ev.Description, true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return d.Description, true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return append([]string(nil), d.Locations...), true
	case "args":
		return resolveArgs(d.Arguments, args), true
	}
	return nil, false
}

func boolArg(args map[string]any, name string) bool {
	if args == nil {
		return false
	}
	b, _ := args[name].(bool)
	return b
}
