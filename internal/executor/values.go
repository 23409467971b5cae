package executor

import (
	"context"
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/graphlet/internal/language"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// maxCoercionErrors caps how many invalid-input errors are collected before
// coercion gives up. The cap is a tuning constant, not observable behavior:
// it only matters for pathological requests with dozens of bad variables.
const maxCoercionErrors = 50

// coercer accumulates input-coercion errors for one batch of values (all
// variables of an operation, or all arguments of one field).
type coercer struct {
	ctx     context.Context
	schema  *schema.Schema
	runtime Runtime
	path    Path
	pos     *language.Position
	errs    []GraphQLError
}

func (c *coercer) addError(format string, args ...any) {
	if len(c.errs) >= maxCoercionErrors {
		return
	}
	c.errs = append(c.errs, coercionError(fmt.Sprintf(format, args...), c.path, c.pos))
}

// coerceVariableValues applies defaults and coerces raw variable input
// against the operation's variable definitions. Any error here is fatal:
// execution must not start with a partially coerced variable map.
func coerceVariableValues(
	ctx context.Context,
	sch *schema.Schema,
	runtime Runtime,
	operation *language.OperationDefinition,
	raw map[string]any,
) (map[string]any, []GraphQLError) {
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	var errs []GraphQLError
	for _, varDef := range operation.VariableDefinitions {
		if len(errs) >= maxCoercionErrors {
			break
		}
		// One coercer per variable so each error carries the definition's
		// source location.
		c := &coercer{ctx: ctx, schema: sch, runtime: runtime, pos: varDef.Position}
		name := varDef.Variable
		varType := schema.TypeRefFromAST(varDef.Type)

		value, provided := raw[name]
		if !provided {
			if varDef.DefaultValue != nil {
				value = language.ValueToGo(varDef.DefaultValue, nil)
			} else if schema.IsNonNull(varType) {
				c.addError("variable $%s of required type %s was not provided", name, varType)
				errs = append(errs, c.errs...)
				continue
			} else {
				continue
			}
		}

		cv, ok := c.coerce(value, varType, "$"+name)
		if len(c.errs) > 0 {
			errs = append(errs, c.errs...)
			continue
		}
		if ok {
			coerced[name] = cv
		}
	}
	if len(errs) > maxCoercionErrors {
		errs = errs[:maxCoercionErrors]
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return coerced, nil
}

// coerceArgumentValues computes one field's argument map from its AST
// arguments, the argument definitions and the coerced variables. Errors are
// recorded against the field's path; the bool result reports whether the
// field can be resolved at all.
func (s *executionState) coerceArgumentValues(
	ctx context.Context,
	fieldDef *schema.Field,
	field *language.Field,
	path Path,
) (map[string]any, bool) {
	c := &coercer{ctx: ctx, schema: s.schema, runtime: s.runtime, path: path, pos: field.Position}
	coerced := make(map[string]any, len(fieldDef.Arguments))

	for _, argDef := range fieldDef.Arguments {
		argNode := field.Arguments.ForName(argDef.Name)

		var value any
		var hasValue bool
		if argNode != nil {
			if argNode.Value != nil && argNode.Value.Kind == language.Variable {
				value, hasValue = s.variableValues[argNode.Value.Raw]
			} else {
				value = language.ValueToGo(argNode.Value, s.variableValues)
				hasValue = true
			}
		}

		if !hasValue {
			if argDef.HasDefault {
				coerced[argDef.Name] = argDef.DefaultValue
			} else if schema.IsNonNull(argDef.Type) {
				c.addError("argument %q of required type %s was not provided", argDef.Name, argDef.Type)
			}
			continue
		}

		if cv, ok := c.coerce(value, argDef.Type, argDef.Name); ok {
			coerced[argDef.Name] = cv
		}
	}

	if len(c.errs) > 0 {
		s.appendErrors(c.errs)
		return nil, false
	}
	return coerced, true
}

// coerce converts value to the target input type, walking wrappers from the
// outside in: Non-Null, List, then the named type's own coercion.
func (c *coercer) coerce(value any, t *schema.TypeRef, at string) (any, bool) {
	if schema.IsNonNull(t) {
		if value == nil {
			c.addError("%s: cannot provide null for non-null type %s", at, t)
			return nil, false
		}
		return c.coerce(value, schema.Unwrap(t), at)
	}
	if value == nil {
		return nil, true
	}
	if t.IsList() {
		return c.coerceList(value, t, at)
	}

	named := c.schema.Types[schema.GetNamedType(t)]
	if named == nil {
		c.addError("%s: unknown input type %s", at, schema.GetNamedType(t))
		return nil, false
	}
	switch named.Kind {
	case schema.TypeKindScalar:
		return c.coerceScalar(value, named.Name, at)
	case schema.TypeKindEnum:
		return c.coerceEnum(value, named, at)
	case schema.TypeKindInputObject:
		return c.coerceInputObject(value, named, at)
	default:
		c.addError("%s: type %s is not an input type", at, named.Name)
		return nil, false
	}
}

// coerceList applies per-item coercion. A non-list value coerces to a
// single-item list per the input coercion rules.
func (c *coercer) coerceList(value any, listType *schema.TypeRef, at string) (any, bool) {
	itemType := schema.Unwrap(listType)

	items, isList := value.([]any)
	if !isList {
		cv, ok := c.coerce(value, itemType, at)
		if !ok {
			return nil, false
		}
		return []any{cv}, true
	}
	out := make([]any, len(items))
	ok := true
	for i, item := range items {
		cv, itemOK := c.coerce(item, itemType, fmt.Sprintf("%s[%d]", at, i))
		if !itemOK {
			ok = false
			continue
		}
		out[i] = cv
	}
	if !ok {
		return nil, false
	}
	return out, true
}

// coerceInputObject coerces per-field, applying nested defaults and
// rejecting unknown fields.
func (c *coercer) coerceInputObject(value any, t *schema.Type, at string) (any, bool) {
	obj, isMap := value.(map[string]any)
	if !isMap {
		c.addError("%s: expected input object of type %s, got %T", at, t.Name, value)
		return nil, false
	}
	out := make(map[string]any, len(t.InputFields))
	ok := true
	for _, fieldDef := range t.InputFields {
		fv, provided := obj[fieldDef.Name]
		if !provided {
			if fieldDef.HasDefault {
				out[fieldDef.Name] = fieldDef.DefaultValue
			} else if schema.IsNonNull(fieldDef.Type) {
				c.addError("%s.%s: field of required type %s was not provided", at, fieldDef.Name, fieldDef.Type)
				ok = false
			}
			continue
		}
		cv, fieldOK := c.coerce(fv, fieldDef.Type, at+"."+fieldDef.Name)
		if !fieldOK {
			ok = false
			continue
		}
		out[fieldDef.Name] = cv
	}
	for name := range obj {
		if t.InputField(name) == nil {
			c.addError("%s: field %q is not defined by input type %s", at, name, t.Name)
			ok = false
		}
	}
	if t.OneOf && (len(out) != 1) {
		c.addError("%s: exactly one field must be provided for oneOf input type %s", at, t.Name)
		ok = false
	}
	if !ok {
		return nil, false
	}
	return out, true
}

func (c *coercer) coerceEnum(value any, t *schema.Type, at string) (any, bool) {
	name, isString := value.(string)
	if !isString {
		c.addError("%s: enum %s cannot represent non-string value %v", at, t.Name, value)
		return nil, false
	}
	if !t.HasEnumValue(name) {
		c.addError("%s: value %q does not exist in enum %s", at, name, t.Name)
		return nil, false
	}
	return name, true
}

// coerceScalar handles the builtin scalars directly; anything else goes
// through the runtime's custom-scalar parser.
func (c *coercer) coerceScalar(value any, name, at string) (any, bool) {
	var coerced any
	var err error
	switch name {
	case "Int":
		coerced, err = coerceToInt(value)
	case "Float":
		coerced, err = coerceToFloat(value)
	case "String":
		coerced, err = coerceToString(value)
	case "Boolean":
		coerced, err = coerceToBoolean(value)
	case "ID":
		coerced, err = coerceToID(value)
	default:
		coerced, err = c.runtime.ParseLeafValue(c.ctx, name, value)
	}
	if err != nil {
		c.addError("%s: %v", at, err)
		return nil, false
	}
	return coerced, true
}

// coerceToInt accepts integral numeric input within 32-bit range, per the
// GraphQL Int contract.
func coerceToInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("Int cannot represent non-integer value %v", v)
		}
		n = int64(v)
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return nil, fmt.Errorf("Int cannot represent non-integer value %v", v)
		}
		n = int64(v)
	default:
		return nil, fmt.Errorf("Int cannot represent value of type %T", value)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent value outside 32-bit range: %d", n)
	}
	return n, nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("Float cannot represent value of type %T", value)
	}
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("String cannot represent value of type %T", value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent value of type %T", value)
}

// coerceToID accepts strings and integers, normalizing to string.
func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return nil, fmt.Errorf("ID cannot represent non-integer numeric value %v", v)
	default:
		return nil, fmt.Errorf("ID cannot represent value of type %T", value)
	}
}
