package queryir

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Scalar is a sealed interface over filter and correction values.
// Only String, Int, Float, Bool, Null and List implement it.
type Scalar interface {
	scalar()
	fmt.Stringer
}

// String is a text value.
type String string

func (String) scalar() {}

func (s String) String() string { return string(s) }

// Int is an integral value.
type Int int64

func (Int) scalar() {}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a non-integral numeric value.
type Float float64

func (Float) scalar() {}

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Bool is a boolean value.
type Bool bool

func (Bool) scalar() {}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Null is the absent value.
type Null struct{}

func (Null) scalar() {}

func (Null) String() string { return "null" }

// List is an ordered list of values, used by IN / NOT IN.
type List []Scalar

func (List) scalar() {}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Strings builds a List of String values.
func Strings(vals ...string) List {
	l := make(List, len(vals))
	for i, v := range vals {
		l[i] = String(v)
	}
	return l
}

// CloneScalar deep-copies lists; other scalars are immutable values.
func CloneScalar(v Scalar) Scalar {
	l, ok := v.(List)
	if !ok {
		return v
	}
	cp := make(List, len(l))
	for i, e := range l {
		cp[i] = CloneScalar(e)
	}
	return cp
}

// ScalarOf converts a decoded JSON/YAML value into a Scalar.
// Integral floats become Int so "2010" and 2010.0 compare alike.
func ScalarOf(v any) (Scalar, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Scalar:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return Int(int64(val)), nil
		}
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return Float(f), nil
	case []any:
		l := make(List, len(val))
		for i, e := range val {
			s, err := ScalarOf(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if _, nested := s.(List); nested {
				return nil, fmt.Errorf("[%d]: nested lists are not supported", i)
			}
			l[i] = s
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Native converts a Scalar back to a plain Go value, e.g. for SQL
// parameters or JSON output.
func Native(v Scalar) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Native(e)
		}
		return out
	default:
		return nil
	}
}

// EqualScalar compares two scalars structurally.
func EqualScalar(a, b Scalar) bool {
	la, aList := a.(List)
	lb, bList := b.(List)
	if aList || bList {
		if !aList || !bList {
			return false
		}
		return slices.EqualFunc(la, lb, EqualScalar)
	}
	if a == nil || b == nil {
		_, aNull := a.(Null)
		_, bNull := b.(Null)
		return (a == nil || aNull) && (b == nil || bNull)
	}
	return a == b
}
