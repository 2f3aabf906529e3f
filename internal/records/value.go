package records

import (
	"fmt"
	"strconv"
	"time"
)

// Kind enumerates the value types a record field can hold.
type Kind int

const (
	// KindNull marks an absent value.
	KindNull Kind = iota
	// KindString holds text.
	KindString
	// KindInt holds a signed integer.
	KindInt
	// KindFloat holds a floating point number.
	KindFloat
	// KindBool holds a boolean.
	KindBool
	// KindTime holds a timestamp.
	KindTime
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged union over the field kinds. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// Null returns the absent value.
func Null() Value { return Value{} }

// String wraps text.
func String(value string) Value { return Value{kind: KindString, s: value} }

// Int wraps an integer.
func Int(value int64) Value { return Value{kind: KindInt, i: value} }

// Float wraps a float.
func Float(value float64) Value { return Value{kind: KindFloat, f: value} }

// Bool wraps a boolean.
func Bool(value bool) Value { return Value{kind: KindBool, b: value} }

// Time wraps a timestamp.
func Time(value time.Time) Value { return Value{kind: KindTime, t: value} }

// Kind reports the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the text payload and whether the value is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Int64 returns the integer payload and whether the value is an integer.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInt }

// Float64 returns the value as a float for both numeric kinds.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// Boolean returns the boolean payload and whether the value is a bool.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Timestamp returns the time payload and whether the value is a time.
func (v Value) Timestamp() (time.Time, bool) { return v.t, v.kind == KindTime }

// Text renders the value as plain text. Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// GoString supports %#v in test failures.
func (v Value) GoString() string {
	if v.kind == KindNull {
		return "records.Null()"
	}
	return fmt.Sprintf("records.Value{%s:%q}", v.kind, v.Text())
}

// Equal compares two values. Integers and floats compare numerically.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		left, okLeft := v.Float64()
		right, okRight := other.Float64()
		return okLeft && okRight && left == right
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == other.s
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindTime:
		return v.t.Equal(other.t)
	default:
		return false
	}
}

// IsZero reports whether the value equals its kind's zero value: 0, 0.0, "",
// false or the zero time. Null is not a zero value.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindString:
		return v.s == ""
	case KindInt:
		return v.i == 0
	case KindFloat:
		return v.f == 0
	case KindBool:
		return !v.b
	case KindTime:
		return v.t.IsZero()
	default:
		return false
	}
}
