package records

import "fmt"

const unassignedIdentity int64 = -1

// Unassigned is the identity carried by records not yet persisted.
func Unassigned() Value { return Int(unassignedIdentity) }

// IsUnassigned reports whether an identity value marks an unsaved record.
func IsUnassigned(identity Value) bool {
	if identity.IsNull() {
		return true
	}
	id, ok := identity.Int64()
	return ok && id == unassignedIdentity
}

// Record stores one value per field of its shape.
type Record struct {
	shape  *Shape
	values []Value
}

// Shape returns the record's shape.
func (r *Record) Shape() *Shape { return r.shape }

// Get returns the value of a field.
func (r *Record) Get(field Field) (Value, error) {
	position, ok := r.shape.index[field]
	if !ok {
		return Value{}, &UnknownFieldError{Shape: r.shape.name, Field: field}
	}
	return r.values[position], nil
}

// Lookup returns the value of a field, or null when the field is not declared.
// Callers that validated their field set against the shape use it to skip the
// error path.
func (r *Record) Lookup(field Field) Value {
	position, ok := r.shape.index[field]
	if !ok {
		return Value{}
	}
	return r.values[position]
}

// Set writes a field. The value must be null or of the field's kind; integers
// are accepted for float fields.
func (r *Record) Set(field Field, value Value) error {
	position, ok := r.shape.index[field]
	if !ok {
		return &UnknownFieldError{Shape: r.shape.name, Field: field}
	}
	spec := r.shape.specs[position]
	stored, ok := coerce(spec.Kind, value)
	if !ok {
		return fmt.Errorf("%w: %s.%s holds %s, got %s", ErrTypeMismatch, r.shape.name, field, spec.Kind, value.Kind())
	}
	r.values[position] = stored
	return nil
}

// Identity returns the value of the shape's identity field.
func (r *Record) Identity() Value {
	return r.values[r.shape.index[r.shape.identity]]
}

// ID returns the assigned identity, or false when the record is unsaved.
func (r *Record) ID() (int64, bool) {
	identity := r.Identity()
	if IsUnassigned(identity) {
		return 0, false
	}
	id, _ := identity.Int64()
	return id, true
}

// Clone returns an independent copy. Values are immutable, so copying the
// slice is a deep copy.
func (r *Record) Clone() *Record {
	return &Record{shape: r.shape, values: append([]Value(nil), r.values...)}
}

// Map returns the record as field name to value.
func (r *Record) Map() map[Field]Value {
	out := make(map[Field]Value, len(r.values))
	for position, spec := range r.shape.specs {
		out[spec.Name] = r.values[position]
	}
	return out
}
