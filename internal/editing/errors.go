package editing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emberline/stockroom/internal/records"
)

// ErrShapeMismatch indicates a record that does not match the session policy.
var ErrShapeMismatch = errors.New("editing: shape mismatch")

// FieldError names one required field that failed validation.
type FieldError struct {
	Field  records.Field
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ValidationError blocks a commit. Every failing field is kept in order;
// Error presents the first one, which is what a single message dialog shows.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "editing: validation failed"
	}
	return "editing: " + e.Fields[0].Error()
}

// First returns the first failing field.
func (e *ValidationError) First() FieldError {
	if len(e.Fields) == 0 {
		return FieldError{}
	}
	return e.Fields[0]
}

// Summary lists every failing field, for hosts that report all at once.
func (e *ValidationError) Summary() string {
	parts := make([]string, len(e.Fields))
	for position, field := range e.Fields {
		parts[position] = field.Error()
	}
	return strings.Join(parts, "; ")
}
