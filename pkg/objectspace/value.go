package objectspace

// Kind tags the payload a Value carries.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// IsScalar reports whether k is one of the four queryable leaf domains.
func (k Kind) IsScalar() bool {
	switch k {
	case KindInt, KindFloat, KindBool, KindString:
		return true
	default:
		return false
	}
}

// ObjectField is one key/value pair of a canonical Object, kept in the
// order fields were produced (source struct field order, or JSON source
// order), since flatten/deflatten collision rules depend on which field
// was seen first.
type ObjectField struct {
	Key   string
	Value Value
}

// Value is the canonical tagged-union tree every written value is converted
// to before it's stored or indexed: a bool, an int64, a finite float64, a
// string, an array of Value, an ordered object of ObjectField, or null.
// Only one of the payload fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Bool  bool
	Int   int64
	Float float64
	Str   string
	Arr   []Value
	Obj   []ObjectField
}

// Field looks up a direct child field by name; only meaningful on Object
// values.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.Obj {
		if f.Key == name {
			return f.Value, true
		}
	}
	return Value{}, false
}
