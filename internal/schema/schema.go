package schema

// Schema is the read-only type-system surface consumed by the executor.
// It is fully built before execution starts and never mutated afterwards.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	// possibleTypes maps interface and union names to their concrete object
	// types in schema declaration order. Declaration order is significant:
	// default abstract-type resolution probes candidates in this order.
	possibleTypes map[string][]string
}

// NewSchema creates an empty schema carrying the builtin scalar types and
// executor-facing directives.
func NewSchema(description string) *Schema {
	s := &Schema{
		Types:         map[string]*Type{},
		Directives:    map[string]*Directive{},
		Description:   description,
		possibleTypes: map[string][]string{},
	}
	for _, t := range builtinScalars {
		s.AddType(t)
	}
	for _, d := range builtinDirectives {
		s.AddDirective(d)
	}
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

// AddType registers t and indexes its membership relations. An abstract type
// carrying an explicit PossibleTypes list fixes the index to that order;
// otherwise object types accumulate under their interfaces in registration
// order.
func (s *Schema) AddType(t *Type) *Schema {
	s.Types[t.Name] = t
	switch t.Kind {
	case TypeKindUnion, TypeKindInterface:
		if len(t.PossibleTypes) > 0 {
			s.possibleTypes[t.Name] = append([]string(nil), t.PossibleTypes...)
		}
	case TypeKindObject:
		for _, iface := range t.Interfaces {
			if !containsName(s.possibleTypes[iface], t.Name) {
				s.possibleTypes[iface] = append(s.possibleTypes[iface], t.Name)
			}
		}
	}
	return s
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Clone returns a copy of the schema sharing the type and directive
// definitions but with independent maps, so the copy can register additional
// types without mutating the original.
func (s *Schema) Clone() *Schema {
	c := &Schema{
		QueryType:        s.QueryType,
		MutationType:     s.MutationType,
		SubscriptionType: s.SubscriptionType,
		Types:            make(map[string]*Type, len(s.Types)),
		Directives:       make(map[string]*Directive, len(s.Directives)),
		Description:      s.Description,
		possibleTypes:    make(map[string][]string, len(s.possibleTypes)),
	}
	for name, t := range s.Types {
		c.Types[name] = t
	}
	for name, d := range s.Directives {
		c.Directives[name] = d
	}
	for name, pts := range s.possibleTypes {
		c.possibleTypes[name] = append([]string(nil), pts...)
	}
	return c
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	s.Directives[d.Name] = d
	return s
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// PossibleTypes returns the concrete object type names of an interface or
// union in declaration order. For an object type it returns the type itself.
func (s *Schema) PossibleTypes(name string) []string {
	t := s.Types[name]
	if t == nil {
		return nil
	}
	if t.Kind == TypeKindObject {
		return []string{t.Name}
	}
	return s.possibleTypes[name]
}

// Satisfies reports whether the concrete object type typeName satisfies the
// given type condition: an exact match for object conditions, membership for
// interface and union conditions.
func (s *Schema) Satisfies(typeName, condition string) bool {
	if typeName == condition {
		return true
	}
	cond := s.Types[condition]
	if cond == nil {
		return false
	}
	switch cond.Kind {
	case TypeKindInterface, TypeKindUnion:
		for _, pt := range s.possibleTypes[condition] {
			if pt == typeName {
				return true
			}
		}
	}
	return false
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type          { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type   { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(n string) *Type   { t.PossibleTypes = append(t.PossibleTypes, n); return t }
func (t *Type) AddEnumValue(v *EnumValue) *Type  { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type { t.InputFields = append(t.InputFields, v); return t }

// Field returns the field definition with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InputField returns the input field definition with the given name, or nil.
func (t *Type) InputField(name string) *InputValue {
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasEnumValue reports whether name is a declared value of the enum type.
func (t *Type) HasEnumValue(name string) bool {
	for _, v := range t.EnumValues {
		if v.Name == name {
			return true
		}
	}
	return false
}

// IsAbstract reports whether the type requires runtime type resolution.
func (t *Type) IsAbstract() bool {
	return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

// IsLeaf reports whether values of the type are serialized rather than
// selected into.
func (t *Type) IsLeaf() bool {
	return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
}

// Argument returns the argument definition with the given name, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	return t != nil && t.Kind == TypeRefKindList
}

// Unwrap removes one layer of Non-Null or List wrapping.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

// GetNamedType returns the innermost named type of the reference.
func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Int!]!".
func (t *TypeRef) String() string {
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	default:
		return t.Named
	}
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	HasDefault        bool
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the outermost wrapper (after Non-Null) is a list.
func IsList(t *TypeRef) bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindList {
		return true
	}
	return t.Kind == TypeRefKindNonNull && t.OfType != nil && t.OfType.Kind == TypeRefKindList
}

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
