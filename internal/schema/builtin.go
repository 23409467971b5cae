package schema

var builtinScalars = []*Type{
	{
		Name:        "String",
		Kind:        TypeKindScalar,
		Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
	},
	{
		Name:        "Int",
		Kind:        TypeKindScalar,
		Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
	},
	{
		Name:        "Float",
		Kind:        TypeKindScalar,
		Description: "The `Float` scalar type represents signed double-precision fractional values.",
	},
	{
		Name:        "Boolean",
		Kind:        TypeKindScalar,
		Description: "The `Boolean` scalar type represents `true` or `false`.",
	},
	{
		Name:        "ID",
		Kind:        TypeKindScalar,
		Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
	},
}

var builtinDirectives = []*Directive{
	{
		Name:        "include",
		Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
		Arguments: []*InputValue{
			{
				Name:        "if",
				Description: "Included when true.",
				Type:        NonNullType(NamedType("Boolean")),
			},
		},
		Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	},
	{
		Name:        "skip",
		Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
		Arguments: []*InputValue{
			{
				Name:        "if",
				Description: "Skipped when true.",
				Type:        NonNullType(NamedType("Boolean")),
			},
		},
		Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	},
	{
		Name:        "deprecated",
		Description: "Marks an element of a GraphQL schema as no longer supported.",
		Arguments: []*InputValue{
			{
				Name:         "reason",
				Description:  "Explains why this element was deprecated.",
				Type:         NamedType("String"),
				DefaultValue: "No longer supported",
				HasDefault:   true,
			},
		},
		Locations: []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"},
	},
	{
		Name:        "defer",
		Description: "Directs the executor to deliver this fragment as a separate incremental payload.",
		Arguments: []*InputValue{
			{
				Name:         "if",
				Description:  "Deferred when true.",
				Type:         NamedType("Boolean"),
				DefaultValue: true,
				HasDefault:   true,
			},
			{
				Name:        "label",
				Description: "Unique name given to the deferred payload.",
				Type:        NamedType("String"),
			},
		},
		Locations: []string{"FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	},
	{
		Name:        "stream",
		Description: "Directs the executor to deliver list items beyond initialCount as incremental payloads.",
		Arguments: []*InputValue{
			{
				Name:         "if",
				Description:  "Streamed when true.",
				Type:         NamedType("Boolean"),
				DefaultValue: true,
				HasDefault:   true,
			},
			{
				Name:        "label",
				Description: "Unique name given to the streamed payloads.",
				Type:        NamedType("String"),
			},
			{
				Name:         "initialCount",
				Description:  "Number of items delivered in the initial payload.",
				Type:         NamedType("Int"),
				DefaultValue: int64(0),
				HasDefault:   true,
			},
		},
		Locations: []string{"FIELD"},
	},
}
