package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind identifies which member of the Value union is populated.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "null"
	}
}

// Value is a scalar fact or condition operand: a string, a number, a boolean
// or null. The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts a decoded YAML/JSON scalar into a Value.
// Maps and slices are rejected.
func ValueOf(v interface{}) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(float64(val)), nil
	case int32:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case float32:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	case time.Time:
		return String(val.Format(time.RFC3339)), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return Number(f), nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T: only strings, numbers, booleans and null are allowed", v)
	}
}

// MustValueOf is like ValueOf but panics on unsupported input. It is meant
// for literals in tests and examples.
func MustValueOf(v interface{}) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Kind returns the populated member of the union.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string member and whether the value is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the number member and whether the value is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the boolean member and whether the value is a boolean.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Text returns the string representation used by string and set operators.
// Numbers are formatted without a trailing ".0" so that 1500 and "1500"
// compare equal.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindNull {
		return "null"
	}
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.Text()
}

// AsNumber coerces the value to a number. Strings are trimmed and parsed;
// booleans and null never coerce.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsEmpty reports whether the value counts as empty for the is_empty
// operator: null or a blank string.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	default:
		return false
	}
}

// Equal reports structural equality of two values.
func (v Value) Equal(o Value) bool {
	return v == o
}

// Interface returns the value as a plain Go scalar (nil, string, float64 or
// bool).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON encodes the value as its JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a JSON scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Fact is the order document under evaluation. Field names are case
// sensitive. The engine never mutates a Fact.
type Fact map[string]Value

// NewFact builds a Fact from plain Go scalars.
func NewFact(fields map[string]interface{}) (Fact, error) {
	fact := make(Fact, len(fields))
	for name, raw := range fields {
		val, err := ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fact[name] = val
	}
	return fact, nil
}

// Lookup returns the value of a field. The second result is false when the
// field is absent or null.
func (f Fact) Lookup(field string) (Value, bool) {
	v, ok := f[field]
	if !ok || v.IsNull() {
		return Null(), false
	}
	return v, true
}
