package records

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// maxExactFloatInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactFloatInt = 1 << 53

// Decode converts a decoded JSON scalar into a value of the given kind.
func Decode(kind Kind, raw any) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	switch kind {
	case KindString:
		if text, ok := raw.(string); ok {
			return String(text), nil
		}
	case KindInt:
		switch number := raw.(type) {
		case float64:
			if number == math.Trunc(number) && math.Abs(number) <= maxExactFloatInt {
				return Int(int64(number)), nil
			}
		case json.Number:
			if parsed, err := number.Int64(); err == nil {
				return Int(parsed), nil
			}
		case int:
			return Int(int64(number)), nil
		case int64:
			return Int(number), nil
		}
	case KindFloat:
		switch number := raw.(type) {
		case float64:
			return Float(number), nil
		case json.Number:
			if parsed, err := number.Float64(); err == nil {
				return Float(parsed), nil
			}
		case int:
			return Float(float64(number)), nil
		case int64:
			return Float(float64(number)), nil
		}
	case KindBool:
		if flag, ok := raw.(bool); ok {
			return Bool(flag), nil
		}
	case KindTime:
		if text, ok := raw.(string); ok {
			parsed, err := time.Parse(time.RFC3339, text)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
			}
			return Time(parsed), nil
		}
	}
	return Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrTypeMismatch, raw, kind)
}

// Encode converts a value into a JSON-friendly scalar.
func Encode(value Value) any {
	switch value.kind {
	case KindString:
		return value.s
	case KindInt:
		return value.i
	case KindFloat:
		return value.f
	case KindBool:
		return value.b
	case KindTime:
		return value.t.Format(time.RFC3339)
	default:
		return nil
	}
}

// MarshalJSON renders the record as an object keyed by field name.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.values))
	for position, spec := range r.shape.specs {
		out[spec.Name.String()] = Encode(r.values[position])
	}
	return json.Marshal(out)
}
