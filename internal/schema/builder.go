package schema

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/graphlet/internal/language"
)

// FromAST builds the executable type-system surface from a validated gqlparser
// schema. The gqlparser schema stays authoritative for document validation;
// this model is what the executor reads at run time.
func FromAST(src *ast.Schema) *Schema {
	s := NewSchema(src.Description)
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	if src.Subscription != nil {
		s.SetSubscriptionType(src.Subscription.Name)
	}

	for name, def := range src.Types {
		if strings.HasPrefix(name, "__") {
			continue
		}
		if _, builtin := s.Types[name]; builtin {
			continue
		}
		s.AddType(buildDefinition(src, def))
	}
	for name, dir := range src.Directives {
		if _, builtin := s.Directives[name]; builtin {
			continue
		}
		s.AddDirective(buildDirective(dir))
	}
	return s
}

func buildDefinition(src *ast.Schema, def *language.Definition) *Type {
	t := NewType(def.Name, kindOf(def.Kind), def.Description)
	switch def.Kind {
	case language.Object, language.Interface:
		for _, iface := range def.Interfaces {
			t.AddInterface(iface)
		}
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			t.AddField(buildField(f))
		}
		if def.Kind == language.Interface {
			// gqlparser tracks possible types in declaration order.
			for _, pt := range src.PossibleTypes[def.Name] {
				t.AddPossibleType(pt.Name)
			}
		}
	case language.Union:
		for _, member := range def.Types {
			t.AddPossibleType(member)
		}
	case language.Enum:
		for _, v := range def.EnumValues {
			ev := &EnumValue{Name: v.Name, Description: v.Description}
			ev.IsDeprecated, ev.DeprecationReason = deprecationOf(v.Directives)
			t.AddEnumValue(ev)
		}
	case language.InputObject:
		for _, f := range def.Fields {
			t.AddInputField(buildInputField(f))
		}
		t.OneOf = def.Directives.ForName("oneOf") != nil
	case language.Scalar:
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
	}
	return t
}

func buildField(def *language.FieldDefinition) *Field {
	f := &Field{
		Name:        def.Name,
		Description: def.Description,
		Type:        TypeRefFromAST(def.Type),
	}
	f.IsDeprecated, f.DeprecationReason = deprecationOf(def.Directives)
	for _, arg := range def.Arguments {
		f.Arguments = append(f.Arguments, buildArgument(arg))
	}
	return f
}

func buildArgument(def *language.ArgumentDefinition) *InputValue {
	iv := &InputValue{
		Name:        def.Name,
		Description: def.Description,
		Type:        TypeRefFromAST(def.Type),
	}
	if def.DefaultValue != nil {
		iv.DefaultValue = language.ValueToGo(def.DefaultValue, nil)
		iv.HasDefault = true
	}
	iv.IsDeprecated, iv.DeprecationReason = deprecationOf(def.Directives)
	return iv
}

func buildInputField(def *language.FieldDefinition) *InputValue {
	iv := &InputValue{
		Name:        def.Name,
		Description: def.Description,
		Type:        TypeRefFromAST(def.Type),
	}
	if def.DefaultValue != nil {
		iv.DefaultValue = language.ValueToGo(def.DefaultValue, nil)
		iv.HasDefault = true
	}
	iv.IsDeprecated, iv.DeprecationReason = deprecationOf(def.Directives)
	return iv
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	d := &Directive{
		Name:         def.Name,
		Description:  def.Description,
		IsRepeatable: def.IsRepeatable,
	}
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.Arguments = append(d.Arguments, buildArgument(arg))
	}
	return d
}

// TypeRefFromAST converts a gqlparser type reference into the executor's
// wrapper representation.
func TypeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(TypeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(TypeRefFromAST(t.Elem))
	}
	return nil
}

func kindOf(k language.DefinitionKind) TypeKind {
	switch k {
	case language.Object:
		return TypeKindObject
	case language.Interface:
		return TypeKindInterface
	case language.Union:
		return TypeKindUnion
	case language.Enum:
		return TypeKindEnum
	case language.InputObject:
		return TypeKindInputObject
	default:
		return TypeKindScalar
	}
}

func deprecationOf(directives language.DirectiveList) (bool, string) {
	d := directives.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	reason := "No longer supported"
	if arg := d.Arguments.ForName("reason"); arg != nil {
		reason = arg.Value.Raw
	}
	return true, reason
}
