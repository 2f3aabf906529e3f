package records

import (
	"errors"
	"fmt"
)

// Field names a column of a record shape.
type Field string

// String returns the field name.
func (f Field) String() string { return string(f) }

// FieldSpec declares one field and the kind of value it stores.
type FieldSpec struct {
	Name Field
	Kind Kind
}

var (
	// ErrTypeMismatch indicates a value whose kind the field cannot hold.
	ErrTypeMismatch = errors.New("records: type mismatch")
	// ErrInvalidShape indicates a malformed shape declaration.
	ErrInvalidShape = errors.New("records: invalid shape")
)

// UnknownFieldError reports access to a field the shape does not declare.
// It signals a programming error in the caller's bindings.
type UnknownFieldError struct {
	Shape string
	Field Field
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("records: %s has no field %q", e.Shape, e.Field)
}

// Shape is the ordered field declaration shared by all records of one type.
type Shape struct {
	name     string
	identity Field
	specs    []FieldSpec
	index    map[Field]int
}

// NewShape validates the declaration. The identity field must be an
// integer field.
func NewShape(name string, identity Field, specs ...FieldSpec) (*Shape, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidShape)
	}
	shape := &Shape{
		name:     name,
		identity: identity,
		specs:    append([]FieldSpec(nil), specs...),
		index:    make(map[Field]int, len(specs)),
	}
	for position, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: %s field %d has no name", ErrInvalidShape, name, position)
		}
		if _, exists := shape.index[spec.Name]; exists {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrInvalidShape, name, spec.Name)
		}
		shape.index[spec.Name] = position
	}
	position, ok := shape.index[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %s identity %q is not declared", ErrInvalidShape, name, identity)
	}
	if specs[position].Kind != KindInt {
		return nil, fmt.Errorf("%w: %s identity %q must be an int field", ErrInvalidShape, name, identity)
	}
	return shape, nil
}

// MustShape is NewShape for package-level declarations.
func MustShape(name string, identity Field, specs ...FieldSpec) *Shape {
	shape, err := NewShape(name, identity, specs...)
	if err != nil {
		panic(err)
	}
	return shape
}

// Name returns the shape name.
func (s *Shape) Name() string { return s.name }

// Identity returns the identity field.
func (s *Shape) Identity() Field { return s.identity }

// Fields returns the declared fields in order.
func (s *Shape) Fields() []FieldSpec {
	return append([]FieldSpec(nil), s.specs...)
}

// Has reports whether the field is declared.
func (s *Shape) Has(field Field) bool {
	_, ok := s.index[field]
	return ok
}

// Kind returns the declared kind of a field.
func (s *Shape) Kind(field Field) (Kind, error) {
	position, ok := s.index[field]
	if !ok {
		return KindNull, &UnknownFieldError{Shape: s.name, Field: field}
	}
	return s.specs[position].Kind, nil
}

// Check returns an UnknownFieldError for the first undeclared field.
func (s *Shape) Check(fields ...Field) error {
	for _, field := range fields {
		if !s.Has(field) {
			return &UnknownFieldError{Shape: s.name, Field: field}
		}
	}
	return nil
}

// New returns a record with every field null.
func (s *Shape) New() *Record {
	return &Record{shape: s, values: make([]Value, len(s.specs))}
}

// Blank returns a record with every field null and the identity unassigned.
func (s *Shape) Blank() *Record {
	record := s.New()
	record.values[s.index[s.identity]] = Unassigned()
	return record
}

// coerce converts v into the storage form for kind, widening integers
// stored in float fields.
func coerce(kind Kind, v Value) (Value, bool) {
	if v.kind == KindNull || v.kind == kind {
		return v, true
	}
	if kind == KindFloat && v.kind == KindInt {
		return Float(float64(v.i)), true
	}
	return Value{}, false
}
