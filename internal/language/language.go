package language

import (
	"strconv"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// ParseQuery parses an executable GraphQL document.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates an SDL document, producing the gqlparser
// schema used both for document validation and for building the executable
// type-system surface.
func LoadSchema(name, source string) (*ast.Schema, error) {
	sch, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Validate runs gqlparser's validation rules over doc. The executor assumes a
// validated document: unknown fields on concrete types, undefined fragments
// and fragment cycles are all rejected here, before execution begins.
func Validate(sch *ast.Schema, doc *QueryDocument) gqlerror.List {
	return validator.Validate(sch, doc)
}

// ValueToGo converts an AST value node into a plain Go value. Variables are
// looked up in vars; an absent variable becomes nil.
func ValueToGo(value *Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case Variable:
		if v, ok := vars[value.Raw]; ok {
			return v
		}
		return nil
	case IntValue:
		iv, _ := strconv.ParseInt(value.Raw, 10, 64)
		return iv
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue:
		return value.Raw
	case BooleanValue:
		return value.Raw == "true"
	case NullValue:
		return nil
	case EnumValue:
		return value.Raw
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = ValueToGo(c.Value, vars)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = ValueToGo(f.Value, vars)
		}
		return m
	default:
		return nil
	}
}
